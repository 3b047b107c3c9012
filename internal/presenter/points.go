package presenter

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/loyalty-client/internal/model"
)

// DefaultPageSize задаёт размер страницы истории по умолчанию.
const DefaultPageSize = 20

// PointsService отдаёт баланс и историю операций.
type PointsService interface {
	BalanceSource
	Transactions(ctx context.Context, page, pageSize int) (model.TransactionPage, error)
}

// Points обслуживает экран баллов. Страница 1 заменяет список, следующие дописываются.
type Points struct {
	view     PointsView
	svc      PointsService
	loc      Localizer
	guard    *guard
	pageSize int

	mu      sync.Mutex
	page    int
	hasMore bool
}

// NewPoints создаёт презентер баллов.
func NewPoints(view PointsView, svc PointsService, pageSize int, loc Localizer, logger *zap.Logger) *Points {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Points{
		view:     view,
		svc:      svc,
		loc:      orDefaultLocalizer(loc),
		guard:    newGuard(logger),
		pageSize: pageSize,
		hasMore:  true,
	}
}

// HasMore сообщает, есть ли непрочитанные страницы.
func (p *Points) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasMore
}

// CurrentPage возвращает номер последней загруженной страницы, 0 до первой загрузки.
func (p *Points) CurrentPage() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.page
}

// LoadBalance показывает баланс.
func (p *Points) LoadBalance(ctx context.Context) {
	p.guard.run("balance", p.view, keyPointsLoadFailed, func() error {
		b, err := p.svc.Balance(ctx)
		if err != nil {
			return err
		}
		p.view.RenderBalance(balanceData(p.loc.Printer(), b))
		return nil
	})
}

// LoadTransactions загружает историю; refresh начинает с первой страницы.
func (p *Points) LoadTransactions(ctx context.Context, refresh bool) {
	if refresh {
		p.reset()
	}
	p.LoadMore(ctx)
}

// LoadMore загружает следующую страницу. Ничего не делает, если страниц больше нет.
func (p *Points) LoadMore(ctx context.Context) {
	if !p.HasMore() {
		return
	}

	p.guard.run("transactions", p.view, keyPointsLoadFailed, func() error {
		p.mu.Lock()
		if !p.hasMore {
			p.mu.Unlock()
			return nil
		}
		next := p.page + 1
		p.mu.Unlock()

		res, err := p.svc.Transactions(ctx, next, p.pageSize)
		if err != nil {
			return err
		}

		p.view.RenderTransactions(p.advance(next, res))
		return nil
	})
}

// Refresh параллельно перечитывает баланс и первую страницу истории
// и показывает их одним вызовом, когда завершатся оба запроса.
func (p *Points) Refresh(ctx context.Context) {
	p.guard.run("refresh", p.view, keyPointsLoadFailed, func() error {
		var (
			balance model.PointsBalance
			history model.TransactionPage
		)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			b, err := p.svc.Balance(gctx)
			if err != nil {
				return fmt.Errorf("load balance: %w", err)
			}
			balance = b
			return nil
		})
		g.Go(func() error {
			h, err := p.svc.Transactions(gctx, 1, p.pageSize)
			if err != nil {
				return fmt.Errorf("load transactions: %w", err)
			}
			history = h
			return nil
		})
		if err := g.Wait(); err != nil {
			return err
		}

		p.reset()
		p.view.RenderPoints(balanceData(p.loc.Printer(), balance), p.advance(1, history))
		return nil
	})
}

func (p *Points) reset() {
	p.mu.Lock()
	p.page = 0
	p.hasMore = true
	p.mu.Unlock()
}

func (p *Points) advance(page int, res model.TransactionPage) TransactionsData {
	p.mu.Lock()
	p.page = page
	p.hasMore = page < totalPages(res.TotalCount, p.pageSize)
	hasMore := p.hasMore
	p.mu.Unlock()

	printer := p.loc.Printer()
	items := make([]TransactionItem, 0, len(res.Transactions))
	for _, t := range res.Transactions {
		items = append(items, transactionItem(printer, t))
	}

	return TransactionsData{
		Items:   items,
		Page:    page,
		HasMore: hasMore,
		Append:  page > 1,
	}
}

func totalPages(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}
