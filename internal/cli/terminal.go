package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/mmeshcher/loyalty-client/internal/model"
	"github.com/mmeshcher/loyalty-client/internal/presenter"
)

// Translator переводит ключи сообщений.
type Translator interface {
	Translate(key string, params map[string]string) string
}

// Terminal выводит состояние презентеров в текстовый терминал и реализует
// все интерфейсы представлений.
type Terminal struct {
	out    io.Writer
	errOut io.Writer
	in     *bufio.Reader
	tr     Translator
	// assumeYes подтверждает вопросы без чтения ввода.
	assumeYes bool

	errKey    string
	coupon    *presenter.CouponItem
	confirmed bool
	lastPage  presenter.TransactionsData
}

// NewTerminal создаёт представление поверх потоков ввода и вывода.
func NewTerminal(in io.Reader, out, errOut io.Writer, tr Translator) *Terminal {
	return &Terminal{
		out:    out,
		errOut: errOut,
		in:     bufio.NewReader(in),
		tr:     tr,
	}
}

// Err возвращает последнюю показанную ошибку в переведённом виде.
func (t *Terminal) Err() error {
	if t.errKey == "" {
		return nil
	}
	return errors.New(t.tr.Translate(t.errKey, nil))
}

func (t *Terminal) ShowLoading() {}

func (t *Terminal) HideLoading() {}

func (t *Terminal) ShowError(key string) {
	t.errKey = key
}

func (t *Terminal) RenderLoginSuccess(member model.Member) {
	t.welcome(member)
}

func (t *Terminal) RenderRegisterSuccess(member model.Member) {
	t.welcome(member)
}

func (t *Terminal) welcome(member model.Member) {
	name := member.Name
	if name == "" {
		name = member.Phone
	}
	fmt.Fprintln(t.out, t.tr.Translate("auth.welcome", map[string]string{"name": name}))
}

func (t *Terminal) RenderLoggedOut() {
	fmt.Fprintln(t.out, t.tr.Translate("auth.loggedOut", nil))
}

func (t *Terminal) RenderHome(data presenter.HomeData) {
	fmt.Fprintf(t.out, "%s (%s)\n", data.Member.Name, t.tr.Translate(data.TierKey, nil))
	fmt.Fprintf(t.out, "%s %s\n", data.PointsText, t.tr.Translate("points.unit", nil))
	if data.Balance.ExpiringPoints > 0 {
		fmt.Fprintln(t.out, t.tr.Translate("home.expiring", map[string]string{
			"points": data.ExpiringText,
			"date":   data.ExpiryDateText,
		}))
	}
}

func (t *Terminal) RenderBalance(data presenter.BalanceData) {
	fmt.Fprintf(t.out, "%s %s\n", data.PointsText, t.tr.Translate("points.unit", nil))
	fmt.Fprintf(t.out, "%s: %s\n", t.tr.Translate("points.lifetime", nil), data.LifetimeText)
}

func (t *Terminal) RenderTransactions(data presenter.TransactionsData) {
	t.lastPage = data
	if len(data.Items) == 0 && !data.Append {
		fmt.Fprintln(t.out, t.tr.Translate("points.noMore", nil))
		return
	}

	w := tabwriter.NewWriter(t.out, 0, 4, 2, ' ', 0)
	for _, item := range data.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", item.DateText, t.tr.Translate(item.TypeKey, nil), item.DeltaText, item.Description)
	}
	_ = w.Flush()
}

func (t *Terminal) RenderPoints(balance presenter.BalanceData, history presenter.TransactionsData) {
	t.RenderBalance(balance)
	fmt.Fprintln(t.out)
	t.RenderTransactions(history)
}

// LastPage возвращает последнюю показанную страницу истории.
func (t *Terminal) LastPage() presenter.TransactionsData {
	return t.lastPage
}

func (t *Terminal) RenderCoupons(items []presenter.CouponItem, redeemed bool) {
	if len(items) == 0 {
		fmt.Fprintln(t.out, t.tr.Translate("coupons.empty", nil))
		return
	}

	w := tabwriter.NewWriter(t.out, 0, 4, 2, ' ', 0)
	for _, item := range items {
		last := item.ExpiryDateText
		if redeemed {
			last = item.RedemptionCode
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", item.ID, t.tr.Translate(item.CategoryKey, nil), item.Title, item.PointsText, last)
	}
	_ = w.Flush()
}

func (t *Terminal) RenderCouponDetails(item presenter.CouponItem) {
	t.coupon = &item
	fmt.Fprintf(t.out, "%s [%s]\n", item.Title, t.tr.Translate(item.CategoryKey, nil))
	fmt.Fprintln(t.out, item.Description)
	fmt.Fprintf(t.out, "%s %s · %s\n", item.PointsText, t.tr.Translate("points.unit", nil), item.ExpiryDateText)
	if item.IsRedeemed {
		fmt.Fprintln(t.out, t.tr.Translate("coupons.redemptionCode", map[string]string{"code": item.RedemptionCode}))
	}
	if item.TermsAndConditions != "" {
		fmt.Fprintln(t.out, item.TermsAndConditions)
	}
}

// Coupon возвращает последний показанный купон.
func (t *Terminal) Coupon() (presenter.CouponItem, bool) {
	if t.coupon == nil {
		return presenter.CouponItem{}, false
	}
	return *t.coupon, true
}

func (t *Terminal) ShowVerificationRequired(_ presenter.CouponItem) {
	t.errKey = "coupons.verifyRequired"
}

func (t *Terminal) ShowRedeemConfirmation(item presenter.CouponItem) {
	t.confirmed = t.ask(t.tr.Translate("coupons.confirmRedeem", map[string]string{
		"title":  item.Title,
		"points": item.PointsText,
	}))
}

// Confirmed сообщает, ответил ли пользователь согласием на последний вопрос.
func (t *Terminal) Confirmed() bool {
	return t.confirmed
}

func (t *Terminal) RenderRedeemSuccess(result model.RedeemResult) {
	fmt.Fprintln(t.out, t.tr.Translate("coupons.redeemSuccess", nil))
	fmt.Fprintln(t.out, t.tr.Translate("coupons.redemptionCode", map[string]string{"code": result.RedemptionCode}))
}

func (t *Terminal) RenderLanguage(tag string) {
	fmt.Fprintf(t.out, "%s: %s\n", t.tr.Translate("settings.language", nil), tag)
}

func (t *Terminal) RenderNotifications(enabled bool) {
	state := "settings.disabled"
	if enabled {
		state = "settings.enabled"
	}
	fmt.Fprintf(t.out, "%s: %s\n", t.tr.Translate("settings.notifications", nil), t.tr.Translate(state, nil))
}

func (t *Terminal) ShowLogoutConfirmation() {
	t.confirmed = t.ask(t.tr.Translate("settings.confirmLogout", nil))
}

func (t *Terminal) ask(question string) bool {
	if t.assumeYes {
		return true
	}
	fmt.Fprintf(t.out, "%s [y/N] ", question)
	answer, err := t.in.ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func (t *Terminal) readLine(prompt string) string {
	fmt.Fprint(t.out, prompt)
	line, _ := t.in.ReadString('\n')
	return strings.TrimSpace(line)
}
