package presenter

import (
	"context"

	"go.uber.org/zap"

	"github.com/mmeshcher/loyalty-client/internal/model"
	"github.com/mmeshcher/loyalty-client/internal/session"
	"github.com/mmeshcher/loyalty-client/internal/validation"
)

// SessionStore описывает операции хранилища сессии, нужные экранам входа и настроек.
type SessionStore interface {
	Login(ctx context.Context, phone, password string) session.Result
	Register(ctx context.Context, req model.RegisterRequest) session.Result
	Logout(ctx context.Context)
	Member() (model.Member, bool)
}

// PushRegistrar регистрирует устройство для push-уведомлений.
type PushRegistrar interface {
	Register(ctx context.Context) string
	Unregister(ctx context.Context)
}

const (
	keyLoginFailed    = "auth.loginFailed"
	keyRegisterFailed = "auth.registerFailed"
)

// Auth обслуживает экран входа и регистрации.
type Auth struct {
	view      AuthView
	store     SessionStore
	policy    validation.Policy
	registrar PushRegistrar
	guard     *guard
}

// NewAuth создаёт презентер входа. registrar может быть nil.
func NewAuth(view AuthView, store SessionStore, policy validation.Policy, registrar PushRegistrar, logger *zap.Logger) *Auth {
	return &Auth{
		view:      view,
		store:     store,
		policy:    policy,
		registrar: registrar,
		guard:     newGuard(logger),
	}
}

// Login проверяет форму и выполняет вход.
func (a *Auth) Login(ctx context.Context, phone, password string) {
	if reason, ok := a.policy.Login(phone, password); !ok {
		a.view.ShowError(reason)
		return
	}

	a.guard.run("login", a.view, keyLoginFailed, func() error {
		res := a.store.Login(ctx, phone, password)
		if !res.Success {
			return resultError(res)
		}
		a.registerPush(ctx)
		member, _ := a.store.Member()
		a.view.RenderLoginSuccess(member)
		return nil
	})
}

// Register проверяет форму и регистрирует участника.
func (a *Auth) Register(ctx context.Context, form validation.RegisterForm) {
	if reason, ok := a.policy.Register(form); !ok {
		a.view.ShowError(reason)
		return
	}

	a.guard.run("register", a.view, keyRegisterFailed, func() error {
		res := a.store.Register(ctx, model.RegisterRequest{
			Phone:    form.Phone,
			Password: form.Password,
			Name:     form.Name,
			Email:    form.Email,
			Birthday: form.Birthday,
			Gender:   form.Gender,
		})
		if !res.Success {
			return resultError(res)
		}
		a.registerPush(ctx)
		member, _ := a.store.Member()
		a.view.RenderRegisterSuccess(member)
		return nil
	})
}

// Logout выполняет выход без подтверждения.
func (a *Auth) Logout(ctx context.Context) {
	a.guard.run("logout", a.view, "", func() error {
		a.store.Logout(ctx)
		a.view.RenderLoggedOut()
		return nil
	})
}

func (a *Auth) registerPush(ctx context.Context) {
	if a.registrar != nil {
		a.registrar.Register(ctx)
	}
}
