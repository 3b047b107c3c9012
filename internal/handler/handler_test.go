package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/loyalty-client/internal/crmstub"
	"github.com/mmeshcher/loyalty-client/internal/demo"
	"github.com/mmeshcher/loyalty-client/internal/envelope"
	"github.com/mmeshcher/loyalty-client/internal/middleware"
	"github.com/mmeshcher/loyalty-client/internal/model"
)

const (
	testPhone    = "91234567"
	testPassword = "secret1"
)

type stubService struct {
	*crmstub.Backend

	memberErr error
	redeemErr error
}

func (s *stubService) Member(ctx context.Context, memberID string) (model.Member, error) {
	if s.memberErr != nil {
		return model.Member{}, s.memberErr
	}
	return s.Backend.Member(ctx, memberID)
}

func (s *stubService) Redeem(ctx context.Context, memberID, couponID string) (model.RedeemResult, error) {
	if s.redeemErr != nil {
		return model.RedeemResult{}, s.redeemErr
	}
	return s.Backend.Redeem(ctx, memberID, couponID)
}

func newBackend(t *testing.T) *crmstub.Backend {
	t.Helper()

	seed, err := demo.DefaultSeed()
	if err != nil {
		t.Fatalf("default seed: %v", err)
	}

	b := crmstub.NewBackend(seed.Available, zap.NewNop(), crmstub.WithBcryptCost(bcrypt.MinCost))
	if err := b.Seed(testPhone, testPassword, seed); err != nil {
		t.Fatalf("seed backend: %v", err)
	}
	return b
}

func newTestHandler(t *testing.T, svc Service) (*Handler, *middleware.AuthMiddleware) {
	t.Helper()

	logger, err := zap.NewDevelopment()
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	auth := middleware.NewAuthMiddleware("test-secret")

	return NewHandler(svc, logger, auth, prometheus.NewRegistry()), auth
}

func serve(h *Handler, req *http.Request) *http.Response {
	rec := httptest.NewRecorder()
	h.SetupRouter().ServeHTTP(rec, req)
	return rec.Result()
}

func authorized(req *http.Request, auth *middleware.AuthMiddleware) *http.Request {
	req.Header.Set("Authorization", "Bearer "+auth.IssueToken(testPhone))
	return req
}

func decodeEnvelope(t *testing.T, res *http.Response) envelope.Envelope {
	t.Helper()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	env, err := envelope.Decode(body)
	if err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func TestLogin_Success(t *testing.T) {
	h, auth := newTestHandler(t, newBackend(t))

	q := url.Values{"action": {"login"}, "phone": {testPhone}, "password": {testPassword}}
	res := serve(h, httptest.NewRequest(http.MethodGet, "/ctlCRMAppAPI?"+q.Encode(), nil))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	env := decodeEnvelope(t, res)
	if env.Code != envelope.StatusOK {
		t.Fatalf("RTN_CODE = %s, want OK", env.Code)
	}

	payload, err := envelope.DecodeSession(env)
	if err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if got := payload.Member.ToMember().ID; got != testPhone {
		t.Fatalf("member = %q, want %q", got, testPhone)
	}
	if id, ok := auth.ParseToken(payload.Token); !ok || id != testPhone {
		t.Fatalf("token does not identify member: %q", payload.Token)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	h, _ := newTestHandler(t, newBackend(t))

	q := url.Values{"action": {"login"}, "phone": {testPhone}, "password": {"nope"}}
	res := serve(h, httptest.NewRequest(http.MethodGet, "/ctlCRMAppAPI?"+q.Encode(), nil))

	env := decodeEnvelope(t, res)
	if env.Code != envelope.StatusErr {
		t.Fatalf("RTN_CODE = %s, want ERR", env.Code)
	}
}

func TestRegister_ThenDuplicate(t *testing.T) {
	h, _ := newTestHandler(t, newBackend(t))

	body := `{"CUSTOMER_TEL":"92345678","PASSWORD":"pw1234","CUSTOMER_NAME":"Wong","CUSTOMER_SEX":"1"}`

	res := serve(h, httptest.NewRequest(http.MethodPost, "/ctlCRMAppAPI?action=register", strings.NewReader(body)))
	env := decodeEnvelope(t, res)
	if env.Code != envelope.StatusOK {
		t.Fatalf("RTN_CODE = %s, want OK", env.Code)
	}
	payload, err := envelope.DecodeSession(env)
	if err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if payload.Member.ToMember().Gender != model.GenderMale {
		t.Fatalf("gender = %q, want male", payload.Member.ToMember().Gender)
	}

	res = serve(h, httptest.NewRequest(http.MethodPost, "/ctlCRMAppAPI?action=register", strings.NewReader(body)))
	if env := decodeEnvelope(t, res); env.Code != envelope.StatusErr {
		t.Fatalf("duplicate RTN_CODE = %s, want ERR", env.Code)
	}
}

func TestAction_Logout(t *testing.T) {
	h, _ := newTestHandler(t, newBackend(t))

	res := serve(h, httptest.NewRequest(http.MethodPost, "/ctlCRMAppAPI", strings.NewReader(`{"action":"logout"}`)))
	if env := decodeEnvelope(t, res); env.Code != envelope.StatusOK {
		t.Fatalf("RTN_CODE = %s, want OK", env.Code)
	}
}

func TestAction_Unknown(t *testing.T) {
	h, _ := newTestHandler(t, newBackend(t))

	res := serve(h, httptest.NewRequest(http.MethodGet, "/ctlCRMAppAPI?action=dance", nil))
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
}

func TestMember_RequiresToken(t *testing.T) {
	h, _ := newTestHandler(t, newBackend(t))

	res := serve(h, httptest.NewRequest(http.MethodGet, "/members/me", nil))
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusUnauthorized)
	}
}

func TestMember_Snapshot(t *testing.T) {
	h, auth := newTestHandler(t, newBackend(t))

	res := serve(h, authorized(httptest.NewRequest(http.MethodGet, "/members/me", nil), auth))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	var m model.Member
	if err := json.NewDecoder(res.Body).Decode(&m); err != nil {
		t.Fatalf("decode member: %v", err)
	}
	if m.CurrentPoints == nil || *m.CurrentPoints != 2580 {
		t.Fatalf("currentPoints = %v, want 2580", m.CurrentPoints)
	}
}

func TestMember_Gone(t *testing.T) {
	svc := &stubService{Backend: newBackend(t), memberErr: crmstub.ErrMemberNotFound}
	h, auth := newTestHandler(t, svc)

	res := serve(h, authorized(httptest.NewRequest(http.MethodGet, "/members/me", nil), auth))
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusUnauthorized)
	}
}

func TestTransactions(t *testing.T) {
	h, auth := newTestHandler(t, newBackend(t))

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantLen    int
	}{
		{name: "default page", query: "", wantStatus: http.StatusOK, wantLen: 10},
		{name: "second page", query: "?page=2&pageSize=4", wantStatus: http.StatusOK, wantLen: 4},
		{name: "bad page", query: "?page=0", wantStatus: http.StatusBadRequest},
		{name: "bad size", query: "?pageSize=x", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := authorized(httptest.NewRequest(http.MethodGet, "/members/me/transactions"+tt.query, nil), auth)
			res := serve(h, req)
			if res.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", res.StatusCode, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var page model.TransactionPage
			if err := json.NewDecoder(res.Body).Decode(&page); err != nil {
				t.Fatalf("decode page: %v", err)
			}
			if len(page.Transactions) != tt.wantLen {
				t.Fatalf("len = %d, want %d", len(page.Transactions), tt.wantLen)
			}
		})
	}
}

func TestRedeemCoupon(t *testing.T) {
	h, auth := newTestHandler(t, newBackend(t))

	body := `{"memberId":"91234567","couponId":"coupon-001"}`
	res := serve(h, authorized(httptest.NewRequest(http.MethodPost, "/coupons/coupon-001/redeem", strings.NewReader(body)), auth))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	var result model.RedeemResult
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if !result.Success || !strings.HasPrefix(result.RedemptionCode, "BLN-") {
		t.Fatalf("unexpected result: %+v", result)
	}

	res = serve(h, authorized(httptest.NewRequest(http.MethodGet, "/coupons/redeemed", nil), auth))
	var list model.CouponList
	if err := json.NewDecoder(res.Body).Decode(&list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.TotalCount != 3 || list.Coupons[0].ID != "coupon-001" {
		t.Fatalf("redeemed = %+v", list)
	}
}

func TestRedeemCoupon_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		path       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{name: "not found", err: crmstub.ErrCouponNotFound, path: "/coupons/x/redeem", wantStatus: http.StatusNotFound, wantCode: "NOT_FOUND"},
		{name: "insufficient", err: crmstub.ErrInsufficientPoints, path: "/coupons/x/redeem", wantStatus: http.StatusUnprocessableEntity, wantCode: "INSUFFICIENT_POINTS"},
		{name: "internal", err: errors.New("disk on fire"), path: "/coupons/x/redeem", wantStatus: http.StatusInternalServerError, wantCode: "API_ERROR"},
		{name: "mismatch", path: "/coupons/x/redeem", body: `{"couponId":"y"}`, wantStatus: http.StatusBadRequest, wantCode: "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{Backend: newBackend(t), redeemErr: tt.err}
			h, auth := newTestHandler(t, svc)

			res := serve(h, authorized(httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body)), auth))
			if res.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", res.StatusCode, tt.wantStatus)
			}

			var eb errorResponse
			if err := json.NewDecoder(res.Body).Decode(&eb); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if string(eb.Code) != tt.wantCode {
				t.Fatalf("code = %s, want %s", eb.Code, tt.wantCode)
			}
		})
	}
}

func TestUpdatePushToken(t *testing.T) {
	b := newBackend(t)
	h, auth := newTestHandler(t, b)

	res := serve(h, authorized(httptest.NewRequest(http.MethodPost, "/members/push-token", strings.NewReader(`{"pushToken":"term-1"}`)), auth))
	if res.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusNoContent)
	}
	if got := b.PushToken(testPhone); got != "term-1" {
		t.Fatalf("push token = %q, want term-1", got)
	}
}

func TestRefreshToken(t *testing.T) {
	h, auth := newTestHandler(t, newBackend(t))

	res := serve(h, authorized(httptest.NewRequest(http.MethodPost, "/auth/refresh", nil), auth))
	var tokens model.AuthTokens
	if err := json.NewDecoder(res.Body).Decode(&tokens); err != nil {
		t.Fatalf("decode tokens: %v", err)
	}
	if id, ok := auth.ParseToken(tokens.AccessToken); !ok || id != testPhone {
		t.Fatalf("refreshed token = %q", tokens.AccessToken)
	}
	if tokens.ExpiresAt == 0 {
		t.Fatalf("expiresAt not set")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h, auth := newTestHandler(t, newBackend(t))
	router := h.SetupRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authorized(httptest.NewRequest(http.MethodGet, "/members/me/points", nil), auth))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), `route="/members/me/points"`) {
		t.Fatalf("metrics do not mention the points route:\n%s", rec.Body.String())
	}
}

func TestNotFound(t *testing.T) {
	h, _ := newTestHandler(t, newBackend(t))

	res := serve(h, httptest.NewRequest(http.MethodGet, "/api/user/orders", nil))
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusNotFound)
	}
}
