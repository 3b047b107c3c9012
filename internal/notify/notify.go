// Package notify регистрирует устройство для push-уведомлений.
// Регистрация выполняется по возможности: сбои журналируются и не возвращаются.
package notify

import (
	"context"

	"go.uber.org/zap"
)

// Device описывает платформенную часть push-уведомлений.
type Device interface {
	RequestPermissions(ctx context.Context) bool
	// PushToken возвращает токен устройства или пустую строку, если его нет.
	PushToken(ctx context.Context) (string, error)
}

// TokenSink передаёт токен устройства бэкенду.
type TokenSink interface {
	UpdatePushToken(ctx context.Context, pushToken string) error
}

// Registrar связывает устройство с учётной записью участника.
type Registrar struct {
	device Device
	sink   TokenSink
	logger *zap.Logger
}

// NewRegistrar создаёт регистратор. Пустой device отключает регистрацию.
func NewRegistrar(device Device, sink TokenSink, logger *zap.Logger) *Registrar {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registrar{device: device, sink: sink, logger: logger}
}

// Register запрашивает разрешение, получает токен и передаёт его бэкенду.
// Возвращает токен устройства или пустую строку.
func (r *Registrar) Register(ctx context.Context) string {
	if r == nil || r.device == nil {
		return ""
	}

	if !r.device.RequestPermissions(ctx) {
		r.logger.Info("push permission denied")
		return ""
	}

	token, err := r.device.PushToken(ctx)
	if err != nil {
		r.logger.Warn("get push token", zap.Error(err))
		return ""
	}
	if token == "" {
		return ""
	}

	if err := r.sink.UpdatePushToken(ctx, token); err != nil {
		r.logger.Warn("update push token", zap.Error(err))
	}
	return token
}

// Unregister отзывает токен устройства у бэкенда.
func (r *Registrar) Unregister(ctx context.Context) {
	if r == nil || r.sink == nil {
		return
	}
	if err := r.sink.UpdatePushToken(ctx, ""); err != nil {
		r.logger.Warn("clear push token", zap.Error(err))
	}
}
