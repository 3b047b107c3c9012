package service

import (
	"context"
	"net/url"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/mmeshcher/loyalty-client/internal/demo"
	"github.com/mmeshcher/loyalty-client/internal/gateway"
	"github.com/mmeshcher/loyalty-client/internal/mode"
	"github.com/mmeshcher/loyalty-client/internal/model"
)

// DefaultPageSize задаёт размер страницы истории по умолчанию.
const DefaultPageSize = 20

// Points возвращает баланс и историю операций с баллами.
type Points struct {
	client *gateway.Client
	mode   *mode.Context
	shadow *demo.Shadow
	logger *zap.Logger

	mu          sync.RWMutex
	demoBalance model.PointsBalance
	demoHistory []model.Transaction
}

// NewPoints создаёт сервис баллов и регистрирует сброс демо-копии.
func NewPoints(client *gateway.Client, modeCtx *mode.Context, shadow *demo.Shadow, logger *zap.Logger) *Points {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Points{
		client: client,
		mode:   modeCtx,
		shadow: shadow,
		logger: logger,
	}
	p.resetDemo()
	shadow.OnReset(p.resetDemo)
	return p
}

func (p *Points) resetDemo() {
	seed := p.shadow.Seed()
	p.mu.Lock()
	p.demoBalance = seed.Balance
	p.demoHistory = seed.Transactions
	p.mu.Unlock()
}

// Balance возвращает текущий баланс баллов.
func (p *Points) Balance(ctx context.Context) (model.PointsBalance, error) {
	if p.mode.IsDemo() {
		p.mu.RLock()
		defer p.mu.RUnlock()
		return p.demoBalance, nil
	}

	var b model.PointsBalance
	if err := p.client.Get(ctx, "/members/me/points", nil, &b); err != nil {
		return model.PointsBalance{}, err
	}
	return b, nil
}

// Transactions возвращает страницу истории операций; порядок задаёт сервер.
func (p *Points) Transactions(ctx context.Context, page, pageSize int) (model.TransactionPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	if p.mode.IsDemo() {
		return p.demoPage(page, pageSize), nil
	}

	query := url.Values{
		"page":     {strconv.Itoa(page)},
		"pageSize": {strconv.Itoa(pageSize)},
	}

	var res model.TransactionPage
	if err := p.client.Get(ctx, "/members/me/transactions", query, &res); err != nil {
		return model.TransactionPage{}, err
	}
	return res, nil
}

func (p *Points) demoPage(page, pageSize int) model.TransactionPage {
	p.mu.RLock()
	defer p.mu.RUnlock()

	total := len(p.demoHistory)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	return model.TransactionPage{
		Transactions: append([]model.Transaction{}, p.demoHistory[start:end]...),
		TotalCount:   total,
		Page:         page,
		PageSize:     pageSize,
	}
}
