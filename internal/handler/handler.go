// Package handler содержит HTTP-обработчики локального бэкенда CRM.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/mmeshcher/loyalty-client/internal/apierr"
	"github.com/mmeshcher/loyalty-client/internal/crmstub"
	"github.com/mmeshcher/loyalty-client/internal/envelope"
	"github.com/mmeshcher/loyalty-client/internal/middleware"
	"github.com/mmeshcher/loyalty-client/internal/model"
)

const (
	defaultPageSize = 20
	tokenTTL        = 24 * time.Hour
)

// Service определяет контракт бэкенда, используемый HTTP-обработчиками.
type Service interface {
	Register(ctx context.Context, req model.RegisterRequest) (model.Member, error)
	Authenticate(ctx context.Context, phone, password string) (model.Member, error)
	Member(ctx context.Context, memberID string) (model.Member, error)
	Balance(ctx context.Context, memberID string) (model.PointsBalance, error)
	Transactions(ctx context.Context, memberID string, page, pageSize int) (model.TransactionPage, error)
	AvailableCoupons(ctx context.Context, memberID string) ([]model.Coupon, error)
	RedeemedCoupons(ctx context.Context, memberID string) ([]model.Coupon, error)
	Coupon(ctx context.Context, memberID, couponID string) (model.Coupon, error)
	Redeem(ctx context.Context, memberID, couponID string) (model.RedeemResult, error)
	SetPushToken(ctx context.Context, memberID, token string) error
}

// Handler реализует HTTP-обработчики бэкенда CRM.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
	metrics        *middleware.Metrics
	gatherer       prometheus.Gatherer
	now            func() time.Time
}

// NewHandler создаёт обработчик. Если reg != nil, запросы учитываются в метриках
// и публикуются на /metrics.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware, reg *prometheus.Registry) *Handler {
	h := &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
		now:            time.Now,
	}
	if reg != nil {
		h.metrics = middleware.NewMetrics(reg)
		h.gatherer = reg
	}
	return h
}

// Action обрабатывает действия login, register и logout на едином адресе.
// Ответы упакованы в конверт RTN; отказ передаётся как RTN_CODE=ERR со статусом 200.
func (h *Handler) Action(w http.ResponseWriter, r *http.Request) {
	fields := map[string]string{}
	if r.Method == http.MethodPost {
		defer r.Body.Close()

		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, apierr.ValidationError, "cannot read body")
			return
		}
		if len(strings.TrimSpace(string(body))) > 0 {
			if err := json.Unmarshal(body, &fields); err != nil {
				writeError(w, http.StatusBadRequest, apierr.ValidationError, "body must be a JSON object of strings")
				return
			}
		}
	}

	action := r.URL.Query().Get("action")
	if action == "" {
		action = fields["action"]
	}

	switch {
	case action == "login" && r.Method == http.MethodGet:
		h.login(w, r)
	case action == "register" && r.Method == http.MethodPost:
		h.register(w, r, fields)
	case action == "logout" && r.Method == http.MethodPost:
		writeEnvelope(w, h.logger, envelope.StatusOK, "LOGOUT", "OK")
	default:
		writeError(w, http.StatusBadRequest, apierr.ValidationError, "unknown action")
	}
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	phone, password := query.Get("phone"), query.Get("password")
	if phone == "" || password == "" {
		writeEnvelope(w, h.logger, envelope.StatusErr, "LOGIN", "請輸入電話號碼及密碼")
		return
	}

	member, err := h.service.Authenticate(r.Context(), phone, password)
	if err != nil {
		if errors.Is(err, crmstub.ErrInvalidCredentials) {
			writeEnvelope(w, h.logger, envelope.StatusErr, "LOGIN", "電話號碼或密碼錯誤")
			return
		}
		h.logger.Error("login member error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, apierr.APIError, http.StatusText(http.StatusInternalServerError))
		return
	}

	h.writeSession(w, "LOGIN", member)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request, fields map[string]string) {
	req := model.RegisterRequest{
		Phone:    fields["CUSTOMER_TEL"],
		Password: fields["PASSWORD"],
		Name:     fields["CUSTOMER_NAME"],
		Email:    fields["EMAIL"],
		Birthday: fields["BIRTHDAY"],
		Gender:   fields["CUSTOMER_SEX"],
	}

	member, err := h.service.Register(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, crmstub.ErrMemberExists):
			writeEnvelope(w, h.logger, envelope.StatusErr, "REGISTER", "此電話號碼已被註冊")
		case errors.Is(err, crmstub.ErrInvalidRequest):
			writeEnvelope(w, h.logger, envelope.StatusErr, "REGISTER", "資料不完整")
		default:
			h.logger.Error("register member error", zap.Error(err))
			writeError(w, http.StatusInternalServerError, apierr.APIError, http.StatusText(http.StatusInternalServerError))
		}
		return
	}

	h.writeSession(w, "REGISTER", member)
}

// writeSession отдаёт {member, token}; member передаётся JSON-строкой, как это
// делает боевой бэкенд.
func (h *Handler) writeSession(w http.ResponseWriter, header string, member model.Member) {
	encoded, err := json.Marshal(envelope.FromMember(member))
	if err != nil {
		h.logger.Error("encode member error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, apierr.APIError, http.StatusText(http.StatusInternalServerError))
		return
	}

	writeEnvelope(w, h.logger, envelope.StatusOK, header, map[string]string{
		"member": string(encoded),
		"token":  h.authMiddleware.IssueToken(member.ID),
	})
}

// GetMember возвращает профиль текущего участника.
func (h *Handler) GetMember(w http.ResponseWriter, r *http.Request) {
	memberID, ok := middleware.MemberIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, apierr.Unauthorized, http.StatusText(http.StatusUnauthorized))
		return
	}

	member, err := h.service.Member(r.Context(), memberID)
	if err != nil {
		h.fail(w, "get member error", memberID, err)
		return
	}
	writeJSON(w, http.StatusOK, member)
}

// GetPoints возвращает баланс текущего участника.
func (h *Handler) GetPoints(w http.ResponseWriter, r *http.Request) {
	memberID, ok := middleware.MemberIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, apierr.Unauthorized, http.StatusText(http.StatusUnauthorized))
		return
	}

	balance, err := h.service.Balance(r.Context(), memberID)
	if err != nil {
		h.fail(w, "get balance error", memberID, err)
		return
	}
	writeJSON(w, http.StatusOK, balance)
}

// GetTransactions возвращает страницу истории операций.
func (h *Handler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	memberID, ok := middleware.MemberIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, apierr.Unauthorized, http.StatusText(http.StatusUnauthorized))
		return
	}

	page, err := positiveQuery(r, "page", 1)
	if err != nil {
		writeError(w, http.StatusBadRequest, apierr.ValidationError, "page must be a positive integer")
		return
	}
	pageSize, err := positiveQuery(r, "pageSize", defaultPageSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, apierr.ValidationError, "pageSize must be a positive integer")
		return
	}

	res, err := h.service.Transactions(r.Context(), memberID, page, pageSize)
	if err != nil {
		h.fail(w, "get transactions error", memberID, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func positiveQuery(r *http.Request, key string, fallback int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if v < 1 {
		return 0, errors.New("not positive")
	}
	return v, nil
}

// GetAvailableCoupons возвращает купоны, доступные для погашения.
func (h *Handler) GetAvailableCoupons(w http.ResponseWriter, r *http.Request) {
	h.couponList(w, r, "get available coupons error", h.service.AvailableCoupons)
}

// GetRedeemedCoupons возвращает погашенные купоны.
func (h *Handler) GetRedeemedCoupons(w http.ResponseWriter, r *http.Request) {
	h.couponList(w, r, "get redeemed coupons error", h.service.RedeemedCoupons)
}

func (h *Handler) couponList(w http.ResponseWriter, r *http.Request, op string, list func(context.Context, string) ([]model.Coupon, error)) {
	memberID, ok := middleware.MemberIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, apierr.Unauthorized, http.StatusText(http.StatusUnauthorized))
		return
	}

	coupons, err := list(r.Context(), memberID)
	if err != nil {
		h.fail(w, op, memberID, err)
		return
	}
	writeJSON(w, http.StatusOK, model.CouponList{Coupons: coupons, TotalCount: len(coupons)})
}

// GetCoupon возвращает купон по идентификатору.
func (h *Handler) GetCoupon(w http.ResponseWriter, r *http.Request) {
	memberID, ok := middleware.MemberIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, apierr.Unauthorized, http.StatusText(http.StatusUnauthorized))
		return
	}

	coupon, err := h.service.Coupon(r.Context(), memberID, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "get coupon error", memberID, err)
		return
	}
	writeJSON(w, http.StatusOK, coupon)
}

// RedeemCoupon погашает купон текущего участника.
func (h *Handler) RedeemCoupon(w http.ResponseWriter, r *http.Request) {
	memberID, ok := middleware.MemberIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, apierr.Unauthorized, http.StatusText(http.StatusUnauthorized))
		return
	}

	var req model.RedeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, apierr.ValidationError, "invalid redeem request")
		return
	}

	couponID := chi.URLParam(r, "id")
	if req.CouponID != "" && req.CouponID != couponID {
		writeError(w, http.StatusBadRequest, apierr.ValidationError, "couponId does not match path")
		return
	}

	res, err := h.service.Redeem(r.Context(), memberID, couponID)
	if err != nil {
		h.fail(w, "redeem coupon error", memberID, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type refreshResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresAt   int64  `json:"expiresAt"`
}

// RefreshToken выдаёт новый токен доступа.
func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	memberID, ok := middleware.MemberIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, apierr.Unauthorized, http.StatusText(http.StatusUnauthorized))
		return
	}

	writeJSON(w, http.StatusOK, refreshResponse{
		AccessToken: h.authMiddleware.IssueToken(memberID),
		ExpiresAt:   h.now().Add(tokenTTL).UnixMilli(),
	})
}

type pushTokenRequest struct {
	PushToken string `json:"pushToken"`
}

// UpdatePushToken сохраняет токен push-уведомлений; пустой токен отписывает устройство.
func (h *Handler) UpdatePushToken(w http.ResponseWriter, r *http.Request) {
	memberID, ok := middleware.MemberIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, apierr.Unauthorized, http.StatusText(http.StatusUnauthorized))
		return
	}

	var req pushTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, apierr.ValidationError, "invalid push token request")
		return
	}

	if err := h.service.SetPushToken(r.Context(), memberID, req.PushToken); err != nil {
		h.fail(w, "update push token error", memberID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// fail переводит ошибку бэкенда в HTTP-ответ.
func (h *Handler) fail(w http.ResponseWriter, op, memberID string, err error) {
	switch {
	case errors.Is(err, crmstub.ErrMemberNotFound):
		writeError(w, http.StatusUnauthorized, apierr.Unauthorized, "member no longer exists")
	case errors.Is(err, crmstub.ErrCouponNotFound):
		writeError(w, http.StatusNotFound, apierr.NotFound, "找不到此優惠券")
	case errors.Is(err, crmstub.ErrInsufficientPoints):
		writeError(w, http.StatusUnprocessableEntity, "INSUFFICIENT_POINTS", "積分不足")
	default:
		h.logger.Error(op, zap.Error(err), zap.String("member", memberID))
		writeError(w, http.StatusInternalServerError, apierr.APIError, http.StatusText(http.StatusInternalServerError))
	}
}

type errorResponse struct {
	Code    apierr.Code `json:"code"`
	Message string      `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code apierr.Code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeEnvelope(w http.ResponseWriter, logger *zap.Logger, code envelope.Status, header string, data any) {
	payload, err := envelope.Encode(code, header, data)
	if err != nil {
		logger.Error("encode envelope error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}
