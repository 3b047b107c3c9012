package notify

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// StaticDevice изображает устройство без системного push-сервиса: разрешение задаётся
// при создании, токен генерируется один раз.
type StaticDevice struct {
	allowed bool
	token   string
}

// NewStaticDevice создаёт устройство с постоянным токеном.
func NewStaticDevice(allowed bool) *StaticDevice {
	return &StaticDevice{
		allowed: allowed,
		token:   "term-" + strings.ReplaceAll(uuid.NewString(), "-", ""),
	}
}

// RequestPermissions возвращает заданное разрешение.
func (d *StaticDevice) RequestPermissions(_ context.Context) bool {
	return d.allowed
}

// PushToken возвращает токен устройства.
func (d *StaticDevice) PushToken(_ context.Context) (string, error) {
	if !d.allowed {
		return "", nil
	}
	return d.token, nil
}
