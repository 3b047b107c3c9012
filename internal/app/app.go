// Package app собирает зависимости клиента программы лояльности.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mmeshcher/loyalty-client/internal/config"
	"github.com/mmeshcher/loyalty-client/internal/credstore"
	"github.com/mmeshcher/loyalty-client/internal/demo"
	"github.com/mmeshcher/loyalty-client/internal/gateway"
	"github.com/mmeshcher/loyalty-client/internal/i18n"
	"github.com/mmeshcher/loyalty-client/internal/mode"
	"github.com/mmeshcher/loyalty-client/internal/notify"
	"github.com/mmeshcher/loyalty-client/internal/service"
	"github.com/mmeshcher/loyalty-client/internal/session"
	"github.com/mmeshcher/loyalty-client/internal/validation"
)

// App содержит собранный клиент: сервисы, сессию и общие зависимости презентеров.
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Client    *gateway.Client
	Mode      *mode.Context
	Shadow    *demo.Shadow
	Auth      *service.Auth
	Points    *service.Points
	Coupons   *service.Coupons
	Session   *session.Store
	Catalog   *i18n.Catalog
	Policy    validation.Policy
	Registrar *notify.Registrar

	store credstore.Store
}

// Option настраивает сборку App.
type Option func(*options)

type options struct {
	store  credstore.Store
	device notify.Device
}

// WithStore подменяет хранилище токена, выбираемое по конфигурации.
func WithStore(s credstore.Store) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithDevice задаёт платформенную часть push-уведомлений.
func WithDevice(d notify.Device) Option {
	return func(o *options) {
		o.device = d
	}
}

// New собирает клиент. Сессия ещё не восстановлена: вызывающий делает Reconcile.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	o := options{device: notify.NewStaticDevice(true)}
	for _, opt := range opts {
		opt(&o)
	}

	store := o.store
	if store == nil {
		var err error
		store, err = credstore.Open(ctx, cfg.TokenStore)
		if err != nil {
			return nil, fmt.Errorf("open token store: %w", err)
		}
	}

	seed, err := demo.DefaultSeed()
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("load demo seed: %w", err)
	}

	catalog := i18n.New()
	if cfg.Language != "" {
		if _, err := catalog.SetLanguage(cfg.Language); err != nil {
			logger.Warn("keep default language", zap.String("requested", cfg.Language), zap.Error(err))
		}
	}

	client := gateway.NewClient(cfg.BaseURL, store, logger.Named("gateway"), gateway.WithTimeout(cfg.RequestTimeout))
	modeCtx := mode.NewContext()
	shadow := demo.NewShadow(modeCtx, seed, logger.Named("demo"))

	auth := service.NewAuth(client, modeCtx, shadow, logger.Named("auth"))

	a := &App{
		Config:    cfg,
		Logger:    logger,
		Client:    client,
		Mode:      modeCtx,
		Shadow:    shadow,
		Auth:      auth,
		Points:    service.NewPoints(client, modeCtx, shadow, logger.Named("points")),
		Coupons:   service.NewCoupons(client, modeCtx, shadow, logger.Named("coupons")),
		Session:   session.New(auth, modeCtx, logger.Named("session")),
		Catalog:   catalog,
		Policy:    validation.Policy{PhoneDigits: cfg.Digits(), MinPasswordLength: validation.MinPasswordLength},
		Registrar: notify.NewRegistrar(o.device, auth, logger.Named("notify")),
		store:     store,
	}
	return a, nil
}

// Close освобождает хранилище токена.
func (a *App) Close() error {
	return a.store.Close()
}
