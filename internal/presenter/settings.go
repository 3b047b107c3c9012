package presenter

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/mmeshcher/loyalty-client/internal/apierr"
)

const keyUnsupportedLanguage = "settings.unsupportedLanguage"

// LanguageCatalog переключает язык интерфейса.
type LanguageCatalog interface {
	SetLanguage(tag string) (language.Tag, error)
	Language() language.Tag
}

// SignOut завершает сессию.
type SignOut interface {
	Logout(ctx context.Context)
}

// Settings обслуживает экран настроек.
type Settings struct {
	view      SettingsView
	session   SignOut
	catalog   LanguageCatalog
	registrar PushRegistrar
	guard     *guard
}

// NewSettings создаёт презентер настроек. registrar может быть nil.
func NewSettings(view SettingsView, session SignOut, catalog LanguageCatalog, registrar PushRegistrar, logger *zap.Logger) *Settings {
	return &Settings{
		view:      view,
		session:   session,
		catalog:   catalog,
		registrar: registrar,
		guard:     newGuard(logger),
	}
}

// ChangeLanguage переключает язык на ближайший поддерживаемый.
func (s *Settings) ChangeLanguage(_ context.Context, tag string) {
	s.guard.run("language", s.view, keyUnsupportedLanguage, func() error {
		matched, err := s.catalog.SetLanguage(tag)
		if err != nil {
			return apierr.Wrap(apierr.ValidationError, "unsupported language", err)
		}
		s.view.RenderLanguage(matched.String())
		return nil
	})
}

// ToggleNotifications включает или отключает push-уведомления.
// Включение считается успешным, только если устройство выдало токен.
func (s *Settings) ToggleNotifications(ctx context.Context, enable bool) {
	s.guard.run("notifications", s.view, "", func() error {
		if s.registrar == nil {
			s.view.RenderNotifications(false)
			return nil
		}
		if !enable {
			s.registrar.Unregister(ctx)
			s.view.RenderNotifications(false)
			return nil
		}
		s.view.RenderNotifications(s.registrar.Register(ctx) != "")
		return nil
	})
}

// OnLogoutTapped запрашивает подтверждение выхода.
func (s *Settings) OnLogoutTapped() {
	s.view.ShowLogoutConfirmation()
}

// ConfirmLogout отписывает устройство от уведомлений и завершает сессию.
func (s *Settings) ConfirmLogout(ctx context.Context) {
	s.guard.run("logout", s.view, "", func() error {
		if s.registrar != nil {
			s.registrar.Unregister(ctx)
		}
		s.session.Logout(ctx)
		s.view.RenderLoggedOut()
		return nil
	})
}
