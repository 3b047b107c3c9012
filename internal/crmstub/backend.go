// Package crmstub реализует локальный бэкенд CRM в памяти: участники,
// баллы и купоны. Используется для разработки и сквозных тестов клиента.
package crmstub

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/loyalty-client/internal/demo"
	"github.com/mmeshcher/loyalty-client/internal/model"
)

var (
	// ErrMemberExists возвращается при регистрации занятого телефона.
	ErrMemberExists = errors.New("member already exists")
	// ErrInvalidCredentials возвращается при неверной паре телефон/пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrMemberNotFound возвращается, если участник не найден.
	ErrMemberNotFound = errors.New("member not found")
	// ErrCouponNotFound возвращается, если купона нет среди доступных.
	ErrCouponNotFound = errors.New("coupon not found")
	// ErrInsufficientPoints возвращается, если баллов не хватает для погашения.
	ErrInsufficientPoints = errors.New("insufficient points")
	// ErrInvalidRequest возвращается при неполных данных регистрации.
	ErrInvalidRequest = errors.New("invalid request")
)

const timeLayout = "2006-01-02 15:04:05.0"

type account struct {
	member       model.Member
	passwordHash []byte
	balance      model.PointsBalance
	transactions []model.Transaction
	available    []model.Coupon
	redeemed     []model.Coupon
	pushToken    string
}

// Backend хранит участников в памяти.
type Backend struct {
	mu       sync.RWMutex
	accounts map[string]*account
	catalog  []model.Coupon
	cost     int
	logger   *zap.Logger
	now      func() time.Time
}

// Option настраивает Backend.
type Option func(*Backend)

// WithBcryptCost задаёт стоимость хеширования паролей.
func WithBcryptCost(cost int) Option {
	return func(b *Backend) {
		b.cost = cost
	}
}

// WithClock подменяет источник текущего времени.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) {
		b.now = now
	}
}

// NewBackend создаёт пустой бэкенд. catalog содержит купоны, доступные новым участникам.
func NewBackend(catalog []model.Coupon, logger *zap.Logger, opts ...Option) *Backend {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Backend{
		accounts: make(map[string]*account),
		catalog:  append([]model.Coupon(nil), catalog...),
		cost:     bcrypt.DefaultCost,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Seed создаёт участника с данными из набора; телефон набора заменяется на phone.
func (b *Backend) Seed(phone, password string, data demo.Dataset) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), b.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	data = data.Clone()
	member := data.Member
	member.ID = phone
	member.Phone = phone

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.accounts[phone]; ok {
		return ErrMemberExists
	}
	b.accounts[phone] = &account{
		member:       member,
		passwordHash: hash,
		balance:      data.Balance,
		transactions: data.Transactions,
		available:    data.Available,
		redeemed:     data.Redeemed,
	}
	return nil
}

// Register регистрирует участника.
func (b *Backend) Register(_ context.Context, req model.RegisterRequest) (model.Member, error) {
	phone := strings.TrimSpace(req.Phone)
	if phone == "" || req.Password == "" {
		return model.Member{}, ErrInvalidRequest
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), b.cost)
	if err != nil {
		return model.Member{}, fmt.Errorf("hash password: %w", err)
	}

	var gender model.Gender
	switch req.Gender {
	case "1", string(model.GenderMale):
		gender = model.GenderMale
	case "2", string(model.GenderFemale):
		gender = model.GenderFemale
	}

	member := model.Member{
		ID:             phone,
		Name:           req.Name,
		Email:          req.Email,
		Phone:          phone,
		MembershipTier: model.TierStandard,
		JoinDate:       b.now().Format("2006-01-02"),
		BirthDate:      req.Birthday,
		Gender:         gender,
		IsVerified:     true,
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.accounts[phone]; ok {
		return model.Member{}, ErrMemberExists
	}
	b.accounts[phone] = &account{
		member:       member,
		passwordHash: hash,
		available:    append([]model.Coupon(nil), b.catalog...),
	}

	b.logger.Info("member registered", zap.String("member", phone))
	return member, nil
}

// Authenticate проверяет пару телефон/пароль.
func (b *Backend) Authenticate(ctx context.Context, phone, password string) (model.Member, error) {
	b.mu.RLock()
	acc, ok := b.accounts[phone]
	b.mu.RUnlock()
	if !ok {
		return model.Member{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(password)); err != nil {
		return model.Member{}, ErrInvalidCredentials
	}
	return b.Member(ctx, phone)
}

// Member возвращает профиль участника со снимком баллов.
func (b *Backend) Member(_ context.Context, memberID string) (model.Member, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	acc, ok := b.accounts[memberID]
	if !ok {
		return model.Member{}, ErrMemberNotFound
	}

	m := demo.CloneMember(acc.member)
	current, expiring := acc.balance.CurrentPoints, acc.balance.ExpiringPoints
	m.CurrentPoints = &current
	m.ExpiringPoints = &expiring
	m.ExpiringDate = acc.balance.ExpiryDate
	return m, nil
}

// Balance возвращает баланс участника.
func (b *Backend) Balance(_ context.Context, memberID string) (model.PointsBalance, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	acc, ok := b.accounts[memberID]
	if !ok {
		return model.PointsBalance{}, ErrMemberNotFound
	}
	return acc.balance, nil
}

// Transactions возвращает страницу истории, новые операции первыми.
func (b *Backend) Transactions(_ context.Context, memberID string, page, pageSize int) (model.TransactionPage, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	acc, ok := b.accounts[memberID]
	if !ok {
		return model.TransactionPage{}, ErrMemberNotFound
	}

	total := len(acc.transactions)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	return model.TransactionPage{
		Transactions: append([]model.Transaction{}, acc.transactions[start:end]...),
		TotalCount:   total,
		Page:         page,
		PageSize:     pageSize,
	}, nil
}

// AvailableCoupons возвращает купоны, доступные для погашения.
func (b *Backend) AvailableCoupons(_ context.Context, memberID string) ([]model.Coupon, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	acc, ok := b.accounts[memberID]
	if !ok {
		return nil, ErrMemberNotFound
	}
	return append([]model.Coupon{}, acc.available...), nil
}

// RedeemedCoupons возвращает погашенные купоны.
func (b *Backend) RedeemedCoupons(_ context.Context, memberID string) ([]model.Coupon, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	acc, ok := b.accounts[memberID]
	if !ok {
		return nil, ErrMemberNotFound
	}
	return append([]model.Coupon{}, acc.redeemed...), nil
}

// Coupon возвращает купон участника по идентификатору.
func (b *Backend) Coupon(_ context.Context, memberID, couponID string) (model.Coupon, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	acc, ok := b.accounts[memberID]
	if !ok {
		return model.Coupon{}, ErrMemberNotFound
	}
	for _, list := range [][]model.Coupon{acc.available, acc.redeemed} {
		for _, c := range list {
			if c.ID == couponID {
				return c, nil
			}
		}
	}
	return model.Coupon{}, ErrCouponNotFound
}

// Redeem погашает купон: списывает баллы, записывает операцию и переносит купон
// в погашенные.
func (b *Backend) Redeem(_ context.Context, memberID, couponID string) (model.RedeemResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	acc, ok := b.accounts[memberID]
	if !ok {
		return model.RedeemResult{}, ErrMemberNotFound
	}

	idx := -1
	for i, c := range acc.available {
		if c.ID == couponID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return model.RedeemResult{}, ErrCouponNotFound
	}

	coupon := acc.available[idx]
	if acc.balance.CurrentPoints < coupon.PointsCost {
		return model.RedeemResult{}, ErrInsufficientPoints
	}

	now := b.now()
	acc.balance.CurrentPoints -= coupon.PointsCost
	acc.transactions = append([]model.Transaction{{
		ID:          uuid.NewString(),
		Date:        now.Format(timeLayout),
		Type:        model.TransactionRedeem,
		Description: coupon.Title,
		Points:      -coupon.PointsCost,
	}}, acc.transactions...)

	coupon.IsRedeemed = true
	coupon.RedemptionCode = demo.RedemptionCode()
	coupon.RedeemedAt = now.UTC().Format(time.RFC3339)
	acc.available = append(acc.available[:idx:idx], acc.available[idx+1:]...)
	acc.redeemed = append([]model.Coupon{coupon}, acc.redeemed...)

	b.logger.Info("coupon redeemed", zap.String("member", memberID), zap.String("coupon", couponID))
	return model.RedeemResult{
		Success:        true,
		CouponID:       coupon.ID,
		RedemptionCode: coupon.RedemptionCode,
		Message:        "兌換成功",
		RedeemedAt:     coupon.RedeemedAt,
	}, nil
}

// SetPushToken запоминает токен push-уведомлений участника.
func (b *Backend) SetPushToken(_ context.Context, memberID, token string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	acc, ok := b.accounts[memberID]
	if !ok {
		return ErrMemberNotFound
	}
	acc.pushToken = token
	return nil
}

// PushToken возвращает сохранённый токен push-уведомлений.
func (b *Backend) PushToken(memberID string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if acc, ok := b.accounts[memberID]; ok {
		return acc.pushToken
	}
	return ""
}
