package presenter

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/mmeshcher/loyalty-client/internal/apierr"
	"github.com/mmeshcher/loyalty-client/internal/session"
)

// Ключи ошибок, общие для всех экранов.
const (
	KeySessionExpired    = "errors.sessionExpired"
	KeyNetworkError      = "errors.networkError"
	KeyMalformedResponse = "errors.malformedResponse"
	KeyUnknownError      = "errors.unknownError"
	KeyCouponNotFound    = "coupons.notFound"
)

var errPanicked = errors.New("intent panicked")

// guard выполняет намерение под ShowLoading/HideLoading. Пересекающиеся вызовы
// одного намерения присоединяются к уже выполняемому, колбэки вызываются один раз.
type guard struct {
	group  singleflight.Group
	logger *zap.Logger
}

func newGuard(logger *zap.Logger) *guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &guard{logger: logger}
}

// run вызывает fn; ошибка fn превращается в ShowError с ключом errorKey(err, fallback).
func (g *guard) run(intent string, view LoadingView, fallback string, fn func() error) {
	_, _, _ = g.group.Do(intent, func() (any, error) {
		view.ShowLoading()
		defer view.HideLoading()

		if err := g.call(intent, fn); err != nil {
			view.ShowError(errorKey(err, fallback))
		}
		return nil, nil
	})
}

func (g *guard) call(intent string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("intent panicked", zap.String("intent", intent), zap.Any("panic", r))
			err = fmt.Errorf("%s: %w", intent, errPanicked)
		}
	}()
	return fn()
}

// errorKey сводит ошибку сервиса к стабильному ключу. fallback используется для
// отказов бизнес-логики бэкенда.
func errorKey(err error, fallback string) string {
	if errors.Is(err, errPanicked) {
		return KeyUnknownError
	}

	switch apierr.CodeOf(err) {
	case apierr.Unauthorized:
		return KeySessionExpired
	case apierr.NetworkError:
		return KeyNetworkError
	case apierr.MalformedResponse:
		return KeyMalformedResponse
	case apierr.NotFound:
		return KeyCouponNotFound
	case apierr.UnknownError, "":
		return KeyUnknownError
	}

	if fallback == "" {
		return KeyUnknownError
	}
	return fallback
}

// resultError превращает неуспешный session.Result в ошибку с кодом.
func resultError(res session.Result) error {
	code := res.Code
	if code == "" {
		code = apierr.UnknownError
	}
	return apierr.New(code, res.Error)
}
