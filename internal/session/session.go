// Package session хранит состояние аутентификации клиента: кто вошёл и в каком режиме.
package session

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mmeshcher/loyalty-client/internal/apierr"
	"github.com/mmeshcher/loyalty-client/internal/mode"
	"github.com/mmeshcher/loyalty-client/internal/model"
)

// MsgUnexpected возвращается при непредвиденных сбоях входа и регистрации.
const MsgUnexpected = "An unexpected error occurred"

// State описывает состояние сессии.
type State int

const (
	Uninitialized State = iota
	Reconciling
	Authenticated
	Anonymous
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Reconciling:
		return "reconciling"
	case Authenticated:
		return "authenticated"
	case Anonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// Authenticator описывает операции сервиса аутентификации, которыми пользуется Store.
type Authenticator interface {
	Login(ctx context.Context, phone, password string) (model.Session, error)
	Register(ctx context.Context, req model.RegisterRequest) (model.Session, error)
	Logout(ctx context.Context)
	CurrentMember(ctx context.Context) (model.Member, error)
	PersistedToken(ctx context.Context) string
	RestoreMode(token string) bool
	ClearToken(ctx context.Context)
	RefreshToken(ctx context.Context) (model.AuthTokens, error)
}

// Result содержит итог входа или регистрации. Error и Code заполнены только при неудаче.
type Result struct {
	Success bool
	Error   string
	Code    apierr.Code
}

// Store реализует конечный автомат сессии.
// Взаимное исключение пересекающихся Login/Register/Logout не гарантируется.
type Store struct {
	auth   Authenticator
	mode   *mode.Context
	logger *zap.Logger

	reconcileOnce sync.Once

	mu        sync.RWMutex
	state     State
	member    *model.Member
	tokens    model.AuthTokens
	loading   int
	observers []func(State)
}

// New создаёт хранилище сессии в состоянии Uninitialized.
func New(auth Authenticator, modeCtx *mode.Context, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		auth:   auth,
		mode:   modeCtx,
		logger: logger,
		state:  Uninitialized,
	}
}

// OnChange подписывает fn на смену состояния или участника.
func (s *Store) OnChange(fn func(State)) {
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

// Reconcile восстанавливает сессию по сохранённому токену. Выполняется один раз
// за время жизни Store; одновременные вызовы дожидаются первого.
func (s *Store) Reconcile(ctx context.Context) State {
	s.reconcileOnce.Do(func() {
		s.setState(Reconciling, nil, model.AuthTokens{})
		s.setState(s.reconcile(ctx))
	})
	return s.State()
}

func (s *Store) reconcile(ctx context.Context) (state State, member *model.Member, tokens model.AuthTokens) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("reconcile session panicked", zap.Any("panic", r))
			s.auth.ClearToken(ctx)
			state, member, tokens = Anonymous, nil, model.AuthTokens{}
		}
	}()

	token := s.auth.PersistedToken(ctx)
	if token == "" {
		return Anonymous, nil, model.AuthTokens{}
	}

	if s.auth.RestoreMode(token) {
		s.logger.Info("restoring demo session")
	}

	m, err := s.auth.CurrentMember(ctx)
	if err != nil {
		s.logger.Info("persisted session rejected", zap.String("code", string(apierr.CodeOf(err))))
		s.auth.ClearToken(ctx)
		return Anonymous, nil, model.AuthTokens{}
	}

	return Authenticated, &m, model.AuthTokens{AccessToken: token}
}

// Login выполняет вход. Ошибки и паники не покидают метод: они превращаются в Result.
func (s *Store) Login(ctx context.Context, phone, password string) Result {
	return s.authenticate(ctx, "login", func() (model.Session, error) {
		return s.auth.Login(ctx, phone, password)
	})
}

// Register регистрирует участника и при успехе делает его текущим.
func (s *Store) Register(ctx context.Context, req model.RegisterRequest) Result {
	return s.authenticate(ctx, "register", func() (model.Session, error) {
		return s.auth.Register(ctx, req)
	})
}

func (s *Store) authenticate(ctx context.Context, op string, call func() (model.Session, error)) (res Result) {
	s.beginLoading()
	defer s.endLoading()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error(op+" panicked", zap.Any("panic", r))
			res = Result{Error: MsgUnexpected, Code: apierr.UnknownError}
		}
	}()

	sess, err := call()
	if err != nil {
		s.logger.Info(op+" failed", zap.String("code", string(apierr.CodeOf(err))))
		return Result{Error: failureMessage(err), Code: apierr.CodeOf(err)}
	}

	member := sess.Member
	s.setState(Authenticated, &member, sess.Tokens)
	return Result{Success: true}
}

func failureMessage(err error) string {
	if apierr.CodeOf(err) == apierr.UnknownError || apierr.MessageOf(err) == "" {
		return MsgUnexpected
	}
	return apierr.MessageOf(err)
}

// Logout завершает сессию. Локальный выход безусловен.
func (s *Store) Logout(ctx context.Context) {
	s.beginLoading()
	defer s.endLoading()

	func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("logout panicked", zap.Any("panic", r))
				s.auth.ClearToken(ctx)
			}
		}()
		s.auth.Logout(ctx)
	}()

	s.setState(Anonymous, nil, model.AuthTokens{})
}

// RefreshMember перечитывает профиль участника, не меняя состояние сессии.
// Отказ с UNAUTHORIZED означает, что токен уже стёрт шлюзом: сессия
// переходит в Anonymous.
func (s *Store) RefreshMember(ctx context.Context) error {
	if !s.IsAuthenticated() {
		return nil
	}

	m, err := s.auth.CurrentMember(ctx)
	if err != nil {
		if apierr.Is(err, apierr.Unauthorized) {
			s.logger.Info("session expired on member refresh")
			s.setState(Anonymous, nil, model.AuthTokens{})
		}
		return fmt.Errorf("refresh member: %w", err)
	}

	s.mu.Lock()
	s.member = &m
	s.mu.Unlock()
	s.notify(Authenticated)
	return nil
}

// RefreshToken обновляет токен доступа текущей сессии.
func (s *Store) RefreshToken(ctx context.Context) error {
	tokens, err := s.auth.RefreshToken(ctx)
	if err != nil {
		return fmt.Errorf("refresh token: %w", err)
	}

	s.mu.Lock()
	s.tokens = tokens
	s.mu.Unlock()
	return nil
}

// State возвращает текущее состояние.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsAuthenticated сообщает, есть ли текущий участник.
func (s *Store) IsAuthenticated() bool {
	return s.State() == Authenticated
}

// IsLoading сообщает, выполняется ли вход, регистрация или выход.
func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading > 0 || s.state == Reconciling
}

// Member возвращает копию текущего участника.
func (s *Store) Member() (model.Member, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.member == nil {
		return model.Member{}, false
	}
	return *s.member, true
}

// Tokens возвращает учётные данные текущей сессии.
func (s *Store) Tokens() model.AuthTokens {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens
}

// Mode возвращает режим обслуживания сессии.
func (s *Store) Mode() mode.Mode {
	return s.mode.Mode()
}

func (s *Store) beginLoading() {
	s.mu.Lock()
	s.loading++
	s.mu.Unlock()
}

func (s *Store) endLoading() {
	s.mu.Lock()
	s.loading--
	s.mu.Unlock()
}

func (s *Store) setState(state State, member *model.Member, tokens model.AuthTokens) {
	s.mu.Lock()
	s.state = state
	s.member = member
	s.tokens = tokens
	s.mu.Unlock()
	s.notify(state)
}

func (s *Store) notify(state State) {
	s.mu.RLock()
	observers := append([]func(State){}, s.observers...)
	s.mu.RUnlock()

	for _, fn := range observers {
		fn(state)
	}
}
