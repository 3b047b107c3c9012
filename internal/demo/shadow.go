// Package demo реализует демо-режим: локальную подмену бэкенда CRM,
// включаемую зарезервированной парой телефон/пароль.
package demo

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/loyalty-client/internal/mode"
	"github.com/mmeshcher/loyalty-client/internal/model"
)

const (
	// Phone и Password образуют зарезервированную пару демо-входа.
	Phone    = "99999999"
	Password = "demo1234"
	// SentinelToken выдаётся демо-сессии и сохраняется между перезапусками.
	SentinelToken = "demo-session-token"

	tokenTTL = 24 * time.Hour
)

// Shadow управляет демо-режимом и хуками сброса зависимых сервисов.
type Shadow struct {
	mu     sync.Mutex
	mode   *mode.Context
	seed   Dataset
	hooks  []func()
	logger *zap.Logger
	now    func() time.Time
}

// NewShadow создаёт демо-подмену поверх контекста режима и набора данных.
func NewShadow(modeCtx *mode.Context, seed Dataset, logger *zap.Logger) *Shadow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Shadow{
		mode:   modeCtx,
		seed:   seed,
		logger: logger,
		now:    time.Now,
	}
}

// IsDemoAccount проверяет точное совпадение с зарезервированной парой.
func IsDemoAccount(phone, password string) bool {
	return phone == Phone && password == Password
}

// IsDemoAccount повторяет функцию пакета для внедрения через интерфейс.
func (s *Shadow) IsDemoAccount(phone, password string) bool {
	return IsDemoAccount(phone, password)
}

// Active сообщает, активен ли демо-режим.
func (s *Shadow) Active() bool {
	return s.mode.IsDemo()
}

// Seed возвращает копию исходного набора данных.
func (s *Shadow) Seed() Dataset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seed.Clone()
}

// Member возвращает копию демо-участника.
func (s *Shadow) Member() model.Member {
	s.mu.Lock()
	defer s.mu.Unlock()
	return CloneMember(s.seed.Member)
}

// OnReset регистрирует хук сброса рабочей копии демо-данных.
func (s *Shadow) OnReset(fn func()) {
	s.mu.Lock()
	s.hooks = append(s.hooks, fn)
	s.mu.Unlock()
}

// Login включает демо-режим и сбрасывает все рабочие копии к исходному набору.
// Сброс выполняется при каждом входе, чтобы погашения прошлой демо-сессии не накапливались.
func (s *Shadow) Login() model.Session {
	s.mode.Set(mode.Demo)
	s.Reset()
	s.logger.Info("demo mode activated")

	return model.Session{
		Member: s.Member(),
		Tokens: model.AuthTokens{
			AccessToken: SentinelToken,
			ExpiresAt:   s.now().Add(tokenTTL).UnixMilli(),
		},
	}
}

// Logout сбрасывает демо-данные и выключает демо-режим.
func (s *Shadow) Logout() {
	s.Reset()
	s.mode.Set(mode.Live)
	s.logger.Info("demo mode deactivated")
}

// Restore включает демо-режим, если сохранён демо-токен.
func (s *Shadow) Restore(token string) bool {
	if token != SentinelToken {
		return false
	}
	s.mode.Set(mode.Demo)
	s.logger.Info("demo mode restored from persisted token")
	return true
}

// Reset вызывает все зарегистрированные хуки сброса.
func (s *Shadow) Reset() {
	s.mu.Lock()
	hooks := append([]func(){}, s.hooks...)
	s.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
}

// RedemptionCode генерирует синтетический код погашения вида BLN-XXXXXXXX.
func RedemptionCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "BLN-" + strings.ToUpper(raw[:8])
}
