// Package service реализует обращения клиента к бэкенду CRM с учётом демо-режима.
package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/loyalty-client/internal/apierr"
	"github.com/mmeshcher/loyalty-client/internal/demo"
	"github.com/mmeshcher/loyalty-client/internal/envelope"
	"github.com/mmeshcher/loyalty-client/internal/gateway"
	"github.com/mmeshcher/loyalty-client/internal/mode"
	"github.com/mmeshcher/loyalty-client/internal/model"
)

const (
	actionEndpoint = "/ctlCRMAppAPI"
	tokenTTL       = 24 * time.Hour
)

// Auth выполняет вход, регистрацию, выход и работу с профилем участника.
type Auth struct {
	client *gateway.Client
	mode   *mode.Context
	shadow *demo.Shadow
	logger *zap.Logger
	now    func() time.Time
}

// NewAuth создаёт сервис аутентификации.
func NewAuth(client *gateway.Client, modeCtx *mode.Context, shadow *demo.Shadow, logger *zap.Logger) *Auth {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Auth{
		client: client,
		mode:   modeCtx,
		shadow: shadow,
		logger: logger,
		now:    time.Now,
	}
}

// Login выполняет вход по телефону и паролю. Зарезервированная пара включает демо-режим.
func (a *Auth) Login(ctx context.Context, phone, password string) (model.Session, error) {
	if a.shadow.IsDemoAccount(phone, password) {
		session := a.shadow.Login()
		if err := a.client.SetToken(ctx, session.Tokens.AccessToken); err != nil {
			a.logger.Warn("persist demo token", zap.Error(err))
		}
		return session, nil
	}

	if a.mode.IsDemo() {
		a.shadow.Logout()
	}

	var raw json.RawMessage
	err := a.client.Do(ctx, gateway.Request{
		Method:   http.MethodGet,
		Endpoint: actionEndpoint,
		Query: url.Values{
			"action":   {"login"},
			"phone":    {phone},
			"password": {password},
		},
		SkipAuth: true,
	}, &raw)
	if err != nil {
		return model.Session{}, err
	}

	payload, err := decodeSessionEnvelope(raw, apierr.LoginFailed, "登入失敗")
	if err != nil {
		return model.Session{}, err
	}
	if payload.Token == "" {
		return model.Session{}, apierr.New(apierr.MalformedResponse, "login response has no token")
	}

	if err := a.client.SetToken(ctx, payload.Token); err != nil {
		a.logger.Warn("persist token after login", zap.Error(err))
	}

	a.logger.Info("member logged in", zap.String("member", payload.Member.ToMember().ID))
	return a.session(payload), nil
}

// Register регистрирует нового участника. Токен сохраняется, только если бэкенд его вернул.
func (a *Auth) Register(ctx context.Context, req model.RegisterRequest) (model.Session, error) {
	if req.Phone == demo.Phone {
		return model.Session{}, apierr.New(apierr.RegisterFailed, "This phone number is reserved.")
	}

	body := map[string]string{
		"CUSTOMER_TEL":  req.Phone,
		"PASSWORD":      req.Password,
		"CUSTOMER_NAME": req.Name,
		"BIRTHDAY":      req.Birthday,
		"CUSTOMER_SEX":  req.Gender,
		"EMAIL":         req.Email,
	}

	var raw json.RawMessage
	err := a.client.Do(ctx, gateway.Request{
		Method:   http.MethodPost,
		Endpoint: actionEndpoint + "?action=register",
		Body:     body,
		SkipAuth: true,
	}, &raw)
	if err != nil {
		return model.Session{}, err
	}

	payload, err := decodeSessionEnvelope(raw, apierr.RegisterFailed, "註冊失敗")
	if err != nil {
		return model.Session{}, err
	}

	if payload.Token != "" {
		if err := a.client.SetToken(ctx, payload.Token); err != nil {
			a.logger.Warn("persist token after register", zap.Error(err))
		}
	}

	a.logger.Info("member registered", zap.String("member", payload.Member.ToMember().ID))
	return a.session(payload), nil
}

func decodeSessionEnvelope(raw []byte, failure apierr.Code, fallback string) (envelope.SessionPayload, error) {
	env, err := envelope.Decode(raw)
	if err != nil {
		return envelope.SessionPayload{}, err
	}
	if env.Code == envelope.StatusErr {
		return envelope.SessionPayload{}, env.Failure(failure, fallback)
	}
	return envelope.DecodeSession(env)
}

func (a *Auth) session(p envelope.SessionPayload) model.Session {
	return model.Session{
		Member: p.Member.ToMember(),
		Tokens: model.AuthTokens{
			AccessToken: p.Token,
			ExpiresAt:   a.now().Add(tokenTTL).UnixMilli(),
		},
	}
}

// Logout завершает сессию. Локальный токен удаляется всегда; уведомление бэкенда
// выполняется по возможности, его сбой только журналируется.
func (a *Auth) Logout(ctx context.Context) {
	if a.mode.IsDemo() {
		a.shadow.Logout()
	} else {
		err := a.client.Post(ctx, actionEndpoint, map[string]string{"action": "logout"}, nil)
		if err != nil {
			a.logger.Warn("remote logout failed", zap.Error(err))
		}
	}

	_ = a.client.ClearToken(ctx)
}

// CurrentMember запрашивает профиль текущего участника.
func (a *Auth) CurrentMember(ctx context.Context) (model.Member, error) {
	if a.mode.IsDemo() {
		return a.shadow.Member(), nil
	}

	var m model.Member
	if err := a.client.Get(ctx, "/members/me", nil, &m); err != nil {
		return model.Member{}, err
	}
	return m, nil
}

// PersistedToken возвращает сохранённый токен или пустую строку.
func (a *Auth) PersistedToken(ctx context.Context) string {
	return a.client.Token(ctx)
}

// HasToken сообщает, сохранён ли токен доступа.
func (a *Auth) HasToken(ctx context.Context) bool {
	return a.client.Token(ctx) != ""
}

// RestoreMode включает демо-режим, если сохранён демо-токен.
func (a *Auth) RestoreMode(token string) bool {
	return a.shadow.Restore(token)
}

// ClearToken удаляет сохранённый токен.
func (a *Auth) ClearToken(ctx context.Context) {
	_ = a.client.ClearToken(ctx)
}

// RefreshToken обновляет токен доступа и сохраняет новый.
func (a *Auth) RefreshToken(ctx context.Context) (model.AuthTokens, error) {
	if a.mode.IsDemo() {
		return model.AuthTokens{
			AccessToken: demo.SentinelToken,
			ExpiresAt:   a.now().Add(tokenTTL).UnixMilli(),
		}, nil
	}

	var tokens model.AuthTokens
	if err := a.client.Post(ctx, "/auth/refresh", struct{}{}, &tokens); err != nil {
		return model.AuthTokens{}, err
	}
	if tokens.AccessToken == "" {
		return model.AuthTokens{}, apierr.New(apierr.MalformedResponse, "refresh response has no token")
	}
	if err := a.client.SetToken(ctx, tokens.AccessToken); err != nil {
		a.logger.Warn("persist refreshed token", zap.Error(err))
	}
	return tokens, nil
}

// UpdatePushToken передаёт бэкенду токен push-уведомлений устройства.
func (a *Auth) UpdatePushToken(ctx context.Context, pushToken string) error {
	if a.mode.IsDemo() {
		return nil
	}
	return a.client.Post(ctx, "/members/push-token", map[string]string{"pushToken": pushToken}, nil)
}
