package service

import (
	"context"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/loyalty-client/internal/apierr"
	"github.com/mmeshcher/loyalty-client/internal/demo"
	"github.com/mmeshcher/loyalty-client/internal/gateway"
	"github.com/mmeshcher/loyalty-client/internal/mode"
	"github.com/mmeshcher/loyalty-client/internal/model"
)

const msgCouponNotFound = "找不到此優惠券"

// Coupons возвращает каталог купонов и выполняет их погашение.
type Coupons struct {
	client *gateway.Client
	mode   *mode.Context
	shadow *demo.Shadow
	logger *zap.Logger
	now    func() time.Time

	mu            sync.Mutex
	demoAvailable []model.Coupon
	demoRedeemed  []model.Coupon
}

// NewCoupons создаёт сервис купонов и регистрирует сброс демо-копии.
func NewCoupons(client *gateway.Client, modeCtx *mode.Context, shadow *demo.Shadow, logger *zap.Logger) *Coupons {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Coupons{
		client: client,
		mode:   modeCtx,
		shadow: shadow,
		logger: logger,
		now:    time.Now,
	}
	c.resetDemo()
	shadow.OnReset(c.resetDemo)
	return c
}

func (c *Coupons) resetDemo() {
	seed := c.shadow.Seed()
	c.mu.Lock()
	c.demoAvailable = seed.Available
	c.demoRedeemed = seed.Redeemed
	c.mu.Unlock()
}

// Available возвращает купоны, доступные участнику для погашения.
func (c *Coupons) Available(ctx context.Context) ([]model.Coupon, error) {
	if c.mode.IsDemo() {
		c.mu.Lock()
		defer c.mu.Unlock()
		return append([]model.Coupon{}, c.demoAvailable...), nil
	}
	return c.list(ctx, "/coupons/available")
}

// Redeemed возвращает уже погашенные купоны участника.
func (c *Coupons) Redeemed(ctx context.Context) ([]model.Coupon, error) {
	if c.mode.IsDemo() {
		c.mu.Lock()
		defer c.mu.Unlock()
		return append([]model.Coupon{}, c.demoRedeemed...), nil
	}
	return c.list(ctx, "/coupons/redeemed")
}

func (c *Coupons) list(ctx context.Context, endpoint string) ([]model.Coupon, error) {
	var res model.CouponList
	if err := c.client.Get(ctx, endpoint, nil, &res); err != nil {
		return nil, err
	}
	return res.Coupons, nil
}

// Details возвращает купон по идентификатору.
func (c *Coupons) Details(ctx context.Context, couponID string) (model.Coupon, error) {
	if c.mode.IsDemo() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for _, list := range [][]model.Coupon{c.demoAvailable, c.demoRedeemed} {
			for _, coupon := range list {
				if coupon.ID == couponID {
					return coupon, nil
				}
			}
		}
		return model.Coupon{}, apierr.New(apierr.NotFound, msgCouponNotFound)
	}

	var coupon model.Coupon
	if err := c.client.Get(ctx, "/coupons/"+url.PathEscape(couponID), nil, &coupon); err != nil {
		return model.Coupon{}, err
	}
	return coupon, nil
}

// Redeem погашает купон. Переход необратим: погашенный купон не возвращается в доступные.
func (c *Coupons) Redeem(ctx context.Context, memberID, couponID string) (model.RedeemResult, error) {
	if c.mode.IsDemo() {
		return c.redeemDemo(couponID)
	}

	var res model.RedeemResult
	err := c.client.Post(ctx, "/coupons/"+url.PathEscape(couponID)+"/redeem",
		model.RedeemRequest{MemberID: memberID, CouponID: couponID}, &res)
	if err != nil {
		return model.RedeemResult{}, err
	}
	if res.CouponID == "" {
		res.CouponID = couponID
	}
	c.logger.Info("coupon redeemed", zap.String("coupon", couponID))
	return res, nil
}

func (c *Coupons) redeemDemo(couponID string) (model.RedeemResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := -1
	for i, coupon := range c.demoAvailable {
		if coupon.ID == couponID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return model.RedeemResult{}, apierr.New(apierr.NotFound, msgCouponNotFound)
	}

	coupon := c.demoAvailable[idx]
	c.demoAvailable = append(c.demoAvailable[:idx:idx], c.demoAvailable[idx+1:]...)

	redeemedAt := c.now().UTC().Format(time.RFC3339)
	coupon.IsRedeemed = true
	coupon.RedemptionCode = demo.RedemptionCode()
	coupon.RedeemedAt = redeemedAt
	c.demoRedeemed = append([]model.Coupon{coupon}, c.demoRedeemed...)

	return model.RedeemResult{
		Success:        true,
		CouponID:       coupon.ID,
		RedemptionCode: coupon.RedemptionCode,
		Message:        "兌換成功",
		RedeemedAt:     redeemedAt,
	}, nil
}
