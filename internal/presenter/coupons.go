package presenter

import (
	"context"

	"go.uber.org/zap"

	"github.com/mmeshcher/loyalty-client/internal/model"
)

const (
	keyCouponsLoadFailed = "coupons.loadFailed"
	keyRedeemFailed      = "coupons.redeemFailed"
)

// CouponService предоставляет каталог и погашение купонов.
type CouponService interface {
	Available(ctx context.Context) ([]model.Coupon, error)
	Redeemed(ctx context.Context) ([]model.Coupon, error)
	Details(ctx context.Context, couponID string) (model.Coupon, error)
	Redeem(ctx context.Context, memberID, couponID string) (model.RedeemResult, error)
}

// Coupons обслуживает экран купонов. Погашение двухфазное: OnRedeemTapped
// только запрашивает подтверждение, изменяет данные лишь ConfirmRedeem.
type Coupons struct {
	view  CouponView
	svc   CouponService
	loc   Localizer
	guard *guard
}

// NewCoupons создаёт презентер купонов.
func NewCoupons(view CouponView, svc CouponService, loc Localizer, logger *zap.Logger) *Coupons {
	return &Coupons{
		view:  view,
		svc:   svc,
		loc:   orDefaultLocalizer(loc),
		guard: newGuard(logger),
	}
}

// LoadAvailable показывает доступные купоны.
func (c *Coupons) LoadAvailable(ctx context.Context) {
	c.load("available", false, func() ([]model.Coupon, error) {
		return c.svc.Available(ctx)
	})
}

// LoadRedeemed показывает погашенные купоны.
func (c *Coupons) LoadRedeemed(ctx context.Context) {
	c.load("redeemed", true, func() ([]model.Coupon, error) {
		return c.svc.Redeemed(ctx)
	})
}

func (c *Coupons) load(intent string, redeemed bool, fetch func() ([]model.Coupon, error)) {
	c.guard.run(intent, c.view, keyCouponsLoadFailed, func() error {
		coupons, err := fetch()
		if err != nil {
			return err
		}
		printer := c.loc.Printer()
		items := make([]CouponItem, 0, len(coupons))
		for _, coupon := range coupons {
			items = append(items, couponItem(printer, coupon))
		}
		c.view.RenderCoupons(items, redeemed)
		return nil
	})
}

// Details показывает купон.
func (c *Coupons) Details(ctx context.Context, couponID string) {
	c.guard.run("details", c.view, keyCouponsLoadFailed, func() error {
		coupon, err := c.svc.Details(ctx, couponID)
		if err != nil {
			return err
		}
		c.view.RenderCouponDetails(couponItem(c.loc.Printer(), coupon))
		return nil
	})
}

// OnRedeemTapped проверяет, подтверждён ли участник, и запрашивает подтверждение.
func (c *Coupons) OnRedeemTapped(coupon model.Coupon, member model.Member) {
	item := couponItem(c.loc.Printer(), coupon)
	if !member.IsVerified {
		c.view.ShowVerificationRequired(item)
		return
	}
	c.view.ShowRedeemConfirmation(item)
}

// ConfirmRedeem погашает купон.
func (c *Coupons) ConfirmRedeem(ctx context.Context, memberID, couponID string) {
	c.guard.run("redeem", c.view, keyRedeemFailed, func() error {
		res, err := c.svc.Redeem(ctx, memberID, couponID)
		if err != nil {
			return err
		}
		c.view.RenderRedeemSuccess(res)
		return nil
	})
}
