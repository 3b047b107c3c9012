// Package presenter связывает намерения представлений с сервисами клиента.
// Представление получает только ключи сообщений; переводом занимается оно само.
package presenter

import "github.com/mmeshcher/loyalty-client/internal/model"

// LoadingView описывает общую часть всех представлений.
type LoadingView interface {
	ShowLoading()
	HideLoading()
	// ShowError получает стабильный ключ причины, а не текст.
	ShowError(key string)
}

// AuthView описывает представление входа и регистрации.
type AuthView interface {
	LoadingView
	RenderLoginSuccess(member model.Member)
	RenderRegisterSuccess(member model.Member)
	RenderLoggedOut()
}

// HomeData содержит данные главного экрана.
type HomeData struct {
	Member         model.Member
	Balance        model.PointsBalance
	TierKey        string
	PointsText     string
	ExpiringText   string
	ExpiryDateText string
}

// HomeView описывает главный экран.
type HomeView interface {
	LoadingView
	RenderHome(data HomeData)
}

// TransactionItem содержит операцию, подготовленную к показу.
type TransactionItem struct {
	model.Transaction
	TypeKey   string
	Color     string
	DeltaText string
	DateText  string
}

// TransactionsData содержит страницу истории. Append=false означает замену списка.
type TransactionsData struct {
	Items   []TransactionItem
	Page    int
	HasMore bool
	Append  bool
}

// BalanceData содержит баланс баллов, подготовленный к показу.
type BalanceData struct {
	Balance      model.PointsBalance
	PointsText   string
	LifetimeText string
	ExpiringText string
}

// PointsView описывает экран баллов и истории операций.
type PointsView interface {
	LoadingView
	RenderBalance(data BalanceData)
	RenderTransactions(data TransactionsData)
	// RenderPoints вызывается при полном обновлении экрана.
	RenderPoints(balance BalanceData, history TransactionsData)
}

// CouponItem содержит купон, подготовленный к показу.
type CouponItem struct {
	model.Coupon
	CategoryKey    string
	Color          string
	PointsText     string
	ExpiryDateText string
}

// CouponView описывает экран купонов.
type CouponView interface {
	LoadingView
	RenderCoupons(items []CouponItem, redeemed bool)
	RenderCouponDetails(item CouponItem)
	ShowVerificationRequired(item CouponItem)
	ShowRedeemConfirmation(item CouponItem)
	RenderRedeemSuccess(result model.RedeemResult)
}

// SettingsView описывает экран настроек.
type SettingsView interface {
	LoadingView
	RenderLanguage(tag string)
	RenderNotifications(enabled bool)
	ShowLogoutConfirmation()
	RenderLoggedOut()
}
