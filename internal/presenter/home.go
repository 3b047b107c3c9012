package presenter

import (
	"context"

	"go.uber.org/zap"

	"github.com/mmeshcher/loyalty-client/internal/model"
)

const keyPointsLoadFailed = "points.loadFailed"

// BalanceSource возвращает баланс баллов участника.
type BalanceSource interface {
	Balance(ctx context.Context) (model.PointsBalance, error)
}

// Home обслуживает главный экран.
type Home struct {
	view   HomeView
	points BalanceSource
	loc    Localizer
	guard  *guard
}

// NewHome создаёт презентер главного экрана.
func NewHome(view HomeView, points BalanceSource, loc Localizer, logger *zap.Logger) *Home {
	return &Home{
		view:   view,
		points: points,
		loc:    orDefaultLocalizer(loc),
		guard:  newGuard(logger),
	}
}

// Load показывает участника и его баллы. Если профиль пришёл со снимком баллов,
// запрос баланса не выполняется.
func (h *Home) Load(ctx context.Context, member model.Member) {
	h.guard.run("home", h.view, keyPointsLoadFailed, func() error {
		var balance model.PointsBalance
		if member.HasPointsSnapshot() {
			balance.CurrentPoints = *member.CurrentPoints
			if member.ExpiringPoints != nil {
				balance.ExpiringPoints = *member.ExpiringPoints
			}
			balance.ExpiryDate = member.ExpiringDate
		} else {
			b, err := h.points.Balance(ctx)
			if err != nil {
				return err
			}
			balance = b
		}

		p := h.loc.Printer()
		h.view.RenderHome(HomeData{
			Member:         member,
			Balance:        balance,
			TierKey:        TierKey(member.MembershipTier),
			PointsText:     FormatPoints(p, balance.CurrentPoints),
			ExpiringText:   FormatPoints(p, balance.ExpiringPoints),
			ExpiryDateText: FormatDate(balance.ExpiryDate),
		})
		return nil
	})
}
