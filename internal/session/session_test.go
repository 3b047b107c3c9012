package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mmeshcher/loyalty-client/internal/apierr"
	"github.com/mmeshcher/loyalty-client/internal/mode"
	"github.com/mmeshcher/loyalty-client/internal/model"
)

type stubAuth struct {
	token      string
	demoToken  string
	mode       *mode.Context
	member     model.Member
	memberErr  error
	loginErr   error
	loginPanic bool

	currentCalls atomic.Int32
	logoutCalls  atomic.Int32
	cleared      atomic.Bool
}

func (s *stubAuth) Login(ctx context.Context, phone, password string) (model.Session, error) {
	if s.loginPanic {
		panic("boom")
	}
	if s.loginErr != nil {
		return model.Session{}, s.loginErr
	}
	return model.Session{
		Member: model.Member{ID: phone, Phone: phone},
		Tokens: model.AuthTokens{AccessToken: "tok-" + phone},
	}, nil
}

func (s *stubAuth) Register(ctx context.Context, req model.RegisterRequest) (model.Session, error) {
	if s.loginErr != nil {
		return model.Session{}, s.loginErr
	}
	return model.Session{Member: model.Member{ID: req.Phone, Name: req.Name}}, nil
}

func (s *stubAuth) Logout(ctx context.Context) {
	s.logoutCalls.Add(1)
	s.cleared.Store(true)
}

func (s *stubAuth) CurrentMember(ctx context.Context) (model.Member, error) {
	s.currentCalls.Add(1)
	return s.member, s.memberErr
}

func (s *stubAuth) PersistedToken(ctx context.Context) string { return s.token }

func (s *stubAuth) RestoreMode(token string) bool {
	if s.demoToken != "" && token == s.demoToken {
		s.mode.Set(mode.Demo)
		return true
	}
	return false
}

func (s *stubAuth) ClearToken(ctx context.Context) { s.cleared.Store(true) }

func (s *stubAuth) RefreshToken(ctx context.Context) (model.AuthTokens, error) {
	return model.AuthTokens{AccessToken: "refreshed"}, nil
}

func newStore(t *testing.T, auth *stubAuth) *Store {
	t.Helper()
	if auth.mode == nil {
		auth.mode = mode.NewContext()
	}
	return New(auth, auth.mode, zaptest.NewLogger(t))
}

func TestReconcile(t *testing.T) {
	tests := []struct {
		name        string
		auth        *stubAuth
		wantState   State
		wantCleared bool
		wantCalls   int32
	}{
		{
			name:      "no token",
			auth:      &stubAuth{},
			wantState: Anonymous,
		},
		{
			name:      "token accepted",
			auth:      &stubAuth{token: "t", member: model.Member{ID: "91234567"}},
			wantState: Authenticated,
			wantCalls: 1,
		},
		{
			name:        "token rejected",
			auth:        &stubAuth{token: "t", memberErr: apierr.New(apierr.Unauthorized, "expired")},
			wantState:   Anonymous,
			wantCleared: true,
			wantCalls:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t, tt.auth)
			assert.Equal(t, Uninitialized, s.State())

			assert.Equal(t, tt.wantState, s.Reconcile(context.Background()))
			assert.Equal(t, tt.wantCleared, tt.auth.cleared.Load())
			assert.Equal(t, tt.wantCalls, tt.auth.currentCalls.Load())
			assert.False(t, s.IsLoading())
		})
	}
}

func TestReconcile_RunsOnce(t *testing.T) {
	auth := &stubAuth{token: "t", member: model.Member{ID: "91234567"}}
	s := newStore(t, auth)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, Authenticated, s.Reconcile(context.Background()))
		}()
	}
	wg.Wait()

	assert.Equal(t, Authenticated, s.Reconcile(context.Background()))
	assert.Equal(t, int32(1), auth.currentCalls.Load())
}

func TestReconcile_RestoresDemo(t *testing.T) {
	auth := &stubAuth{token: "demo", demoToken: "demo", member: model.Member{ID: "99999999"}}
	s := newStore(t, auth)

	require.Equal(t, Authenticated, s.Reconcile(context.Background()))
	assert.Equal(t, mode.Demo, s.Mode())
	m, ok := s.Member()
	require.True(t, ok)
	assert.Equal(t, "99999999", m.ID)
}

func TestLogin(t *testing.T) {
	auth := &stubAuth{}
	s := newStore(t, auth)
	s.Reconcile(context.Background())

	var seen []State
	s.OnChange(func(st State) { seen = append(seen, st) })

	res := s.Login(context.Background(), "91234567", "secret1")
	require.True(t, res.Success)
	assert.Empty(t, res.Error)
	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, "tok-91234567", s.Tokens().AccessToken)
	assert.Equal(t, []State{Authenticated}, seen)
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name     string
		auth     *stubAuth
		wantMsg  string
		wantCode apierr.Code
	}{
		{
			name:     "rejected",
			auth:     &stubAuth{loginErr: apierr.New(apierr.LoginFailed, "密碼錯誤")},
			wantMsg:  "密碼錯誤",
			wantCode: apierr.LoginFailed,
		},
		{
			name:     "unexpected error",
			auth:     &stubAuth{loginErr: errors.New("socket exploded")},
			wantMsg:  MsgUnexpected,
			wantCode: apierr.UnknownError,
		},
		{
			name:     "panic",
			auth:     &stubAuth{loginPanic: true},
			wantMsg:  MsgUnexpected,
			wantCode: apierr.UnknownError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t, tt.auth)
			s.Reconcile(context.Background())

			res := s.Login(context.Background(), "91234567", "x")
			assert.False(t, res.Success)
			assert.Equal(t, tt.wantMsg, res.Error)
			assert.Equal(t, tt.wantCode, res.Code)
			assert.Equal(t, Anonymous, s.State())
			_, ok := s.Member()
			assert.False(t, ok)
			assert.False(t, s.IsLoading())
		})
	}
}

func TestRegister(t *testing.T) {
	s := newStore(t, &stubAuth{})
	s.Reconcile(context.Background())

	res := s.Register(context.Background(), model.RegisterRequest{Phone: "92345678", Name: "Wong"})
	require.True(t, res.Success)

	m, ok := s.Member()
	require.True(t, ok)
	assert.Equal(t, "Wong", m.Name)
}

func TestLogout_Unconditional(t *testing.T) {
	auth := &stubAuth{token: "t", member: model.Member{ID: "91234567"}}
	s := newStore(t, auth)
	require.Equal(t, Authenticated, s.Reconcile(context.Background()))

	s.Logout(context.Background())
	assert.Equal(t, Anonymous, s.State())
	assert.Equal(t, int32(1), auth.logoutCalls.Load())
	assert.Empty(t, s.Tokens().AccessToken)
	assert.False(t, s.IsLoading())
}

func TestRefreshMember(t *testing.T) {
	auth := &stubAuth{token: "t", member: model.Member{ID: "91234567", Name: "Old"}}
	s := newStore(t, auth)
	s.Reconcile(context.Background())

	auth.member = model.Member{ID: "91234567", Name: "New"}
	require.NoError(t, s.RefreshMember(context.Background()))

	m, _ := s.Member()
	assert.Equal(t, "New", m.Name)
	assert.Equal(t, Authenticated, s.State())

	auth.memberErr = apierr.New(apierr.NetworkError, "offline")
	err := s.RefreshMember(context.Background())
	assert.Equal(t, apierr.NetworkError, apierr.CodeOf(err))
	assert.Equal(t, Authenticated, s.State())
}

func TestRefreshMember_Unauthorized(t *testing.T) {
	auth := &stubAuth{token: "t", member: model.Member{ID: "91234567"}}
	s := newStore(t, auth)
	require.Equal(t, Authenticated, s.Reconcile(context.Background()))

	var seen []State
	s.OnChange(func(st State) { seen = append(seen, st) })

	auth.memberErr = apierr.New(apierr.Unauthorized, "expired")
	err := s.RefreshMember(context.Background())
	assert.True(t, apierr.Is(err, apierr.Unauthorized))
	assert.Equal(t, Anonymous, s.State())
	_, ok := s.Member()
	assert.False(t, ok)
	assert.Empty(t, s.Tokens().AccessToken)
	assert.Equal(t, []State{Anonymous}, seen)
}

func TestRefreshToken(t *testing.T) {
	s := newStore(t, &stubAuth{})
	require.NoError(t, s.RefreshToken(context.Background()))
	assert.Equal(t, "refreshed", s.Tokens().AccessToken)
}
