package presenter

import (
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/mmeshcher/loyalty-client/internal/model"
)

// Localizer даёт форматтер чисел для текущего языка.
type Localizer interface {
	Printer() *message.Printer
}

type fixedLocalizer struct {
	printer *message.Printer
}

func (f fixedLocalizer) Printer() *message.Printer { return f.printer }

func orDefaultLocalizer(loc Localizer) Localizer {
	if loc == nil {
		return fixedLocalizer{printer: message.NewPrinter(language.English)}
	}
	return loc
}

// FormatPoints форматирует количество баллов с разделителями разрядов.
func FormatPoints(p *message.Printer, n int64) string {
	return p.Sprintf("%d", n)
}

// FormatDelta форматирует изменение баланса со знаком: +150, -500.
func FormatDelta(p *message.Printer, n int64) string {
	if n > 0 {
		return "+" + p.Sprintf("%d", n)
	}
	return p.Sprintf("%d", n)
}

var dateLayouts = []string{
	"2006-01-02 15:04:05.0",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// FormatDate приводит дату бэкенда к виду 2025.12.16 17:50. Дата без времени
// выводится как 2025.12.16; нераспознанная строка возвращается без изменений.
func FormatDate(s string) string {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006.01.02 15:04")
		}
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.Format("2006.01.02")
	}
	return s
}

// TierKey возвращает ключ названия уровня участника.
func TierKey(tier model.MembershipTier) string {
	if tier == "" {
		tier = model.TierStandard
	}
	return "tier." + string(tier)
}

// TransactionTypeKey возвращает ключ названия вида операции.
func TransactionTypeKey(t model.TransactionType) string {
	return "points.type." + string(t)
}

var transactionColors = map[model.TransactionType]string{
	model.TransactionEarn:   "#2E7D32",
	model.TransactionRedeem: "#C62828",
	model.TransactionExpire: "#757575",
	model.TransactionAdjust: "#1565C0",
}

// TransactionColor возвращает цвет вида операции.
func TransactionColor(t model.TransactionType) string {
	if c, ok := transactionColors[t]; ok {
		return c
	}
	return "#757575"
}

// CategoryKey возвращает ключ названия категории купона.
func CategoryKey(c model.CouponCategory) string {
	if !c.Valid() {
		c = model.CategorySpecial
	}
	return "coupons.category." + string(c)
}

var categoryColors = map[model.CouponCategory]string{
	model.CategoryDiscount:  "#E53935",
	model.CategoryGift:      "#8E24AA",
	model.CategorySpecial:   "#FB8C00",
	model.CategoryPartner:   "#3949AB",
	model.CategoryService:   "#00897B",
	model.CategoryBonus:     "#FDD835",
	model.CategoryExclusive: "#212121",
}

// CategoryColor возвращает цвет категории купона.
func CategoryColor(c model.CouponCategory) string {
	if color, ok := categoryColors[c]; ok {
		return color
	}
	return categoryColors[model.CategorySpecial]
}

func transactionItem(p *message.Printer, t model.Transaction) TransactionItem {
	return TransactionItem{
		Transaction: t,
		TypeKey:     TransactionTypeKey(t.Type),
		Color:       TransactionColor(t.Type),
		DeltaText:   FormatDelta(p, t.Points),
		DateText:    FormatDate(t.Date),
	}
}

func couponItem(p *message.Printer, c model.Coupon) CouponItem {
	return CouponItem{
		Coupon:         c,
		CategoryKey:    CategoryKey(c.Category),
		Color:          CategoryColor(c.Category),
		PointsText:     FormatPoints(p, c.PointsCost),
		ExpiryDateText: FormatDate(c.ExpiryDate),
	}
}

func balanceData(p *message.Printer, b model.PointsBalance) BalanceData {
	return BalanceData{
		Balance:      b,
		PointsText:   FormatPoints(p, b.CurrentPoints),
		LifetimeText: FormatPoints(p, b.LifetimePoints),
		ExpiringText: FormatPoints(p, b.ExpiringPoints),
	}
}
