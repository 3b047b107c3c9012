// Package model содержит доменные сущности клиента программы лояльности.
package model

// MembershipTier описывает уровень участника программы лояльности.
type MembershipTier string

const (
	TierStandard MembershipTier = "standard"
	TierSilver   MembershipTier = "silver"
	TierGold     MembershipTier = "gold"
	TierPlatinum MembershipTier = "platinum"
)

// Gender описывает пол участника в терминах клиента.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Member представляет аутентифицированного участника программы лояльности.
// Идентификатором служит номер телефона.
type Member struct {
	ID             string         `json:"id" yaml:"id"`
	Name           string         `json:"name" yaml:"name"`
	Email          string         `json:"email" yaml:"email"`
	Phone          string         `json:"phone" yaml:"phone"`
	MembershipTier MembershipTier `json:"membershipTier,omitempty" yaml:"membershipTier,omitempty"`
	JoinDate       string         `json:"joinDate" yaml:"joinDate"`
	BirthDate      string         `json:"birthDate,omitempty" yaml:"birthDate,omitempty"`
	Gender         Gender         `json:"gender,omitempty" yaml:"gender,omitempty"`
	IsVerified     bool           `json:"isVerified" yaml:"isVerified"`

	// Снимок баллов, приходящий вместе с профилем.
	CurrentPoints  *int64 `json:"currentPoints,omitempty" yaml:"currentPoints,omitempty"`
	ExpiringPoints *int64 `json:"expiringPoints,omitempty" yaml:"expiringPoints,omitempty"`
	ExpiringDate   string `json:"expiringDate,omitempty" yaml:"expiringDate,omitempty"`
}

// HasPointsSnapshot сообщает, пришёл ли вместе с профилем снимок баллов.
func (m Member) HasPointsSnapshot() bool {
	return m.CurrentPoints != nil
}

// AuthTokens содержит учётные данные сессии. Сохраняется только AccessToken.
type AuthTokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	// ExpiresAt задаёт момент истечения в миллисекундах Unix, 0 если неизвестен.
	ExpiresAt int64 `json:"expiresAt,omitempty"`
}

// Session содержит результат успешного входа или регистрации.
type Session struct {
	Member Member
	Tokens AuthTokens
}

// PointsBalance содержит текущий баланс баллов участника.
type PointsBalance struct {
	CurrentPoints  int64  `json:"currentPoints" yaml:"currentPoints"`
	LifetimePoints int64  `json:"lifetimePoints" yaml:"lifetimePoints"`
	ExpiringPoints int64  `json:"expiringPoints" yaml:"expiringPoints"`
	ExpiryDate     string `json:"expiryDate,omitempty" yaml:"expiryDate,omitempty"`
}

// TransactionType описывает вид операции с баллами.
type TransactionType string

const (
	TransactionEarn   TransactionType = "earn"
	TransactionRedeem TransactionType = "redeem"
	TransactionExpire TransactionType = "expire"
	TransactionAdjust TransactionType = "adjust"
)

// Transaction описывает операцию с баллами. Points хранит знаковое изменение баланса.
type Transaction struct {
	ID            string          `json:"id" yaml:"id"`
	Date          string          `json:"date" yaml:"date"`
	Type          TransactionType `json:"type" yaml:"type"`
	Description   string          `json:"description" yaml:"description"`
	Points        int64           `json:"points" yaml:"points"`
	StoreLocation string          `json:"storeLocation,omitempty" yaml:"storeLocation,omitempty"`
	ReceiptNumber string          `json:"receiptNumber,omitempty" yaml:"receiptNumber,omitempty"`
	Amount        *float64        `json:"amount,omitempty" yaml:"amount,omitempty"`
}

// TransactionPage содержит одну страницу истории операций.
type TransactionPage struct {
	Transactions []Transaction `json:"transactions"`
	TotalCount   int           `json:"totalCount"`
	Page         int           `json:"page"`
	PageSize     int           `json:"pageSize"`
}

// CouponCategory задаёт закрытый перечень категорий купонов.
type CouponCategory string

const (
	CategoryDiscount  CouponCategory = "discount"
	CategoryGift      CouponCategory = "gift"
	CategorySpecial   CouponCategory = "special"
	CategoryPartner   CouponCategory = "partner"
	CategoryService   CouponCategory = "service"
	CategoryBonus     CouponCategory = "bonus"
	CategoryExclusive CouponCategory = "exclusive"
)

// CouponCategories перечисляет все допустимые категории.
var CouponCategories = []CouponCategory{
	CategoryDiscount,
	CategoryGift,
	CategorySpecial,
	CategoryPartner,
	CategoryService,
	CategoryBonus,
	CategoryExclusive,
}

// Valid проверяет, что категория входит в перечень.
func (c CouponCategory) Valid() bool {
	for _, known := range CouponCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Coupon описывает купон из каталога участника. Поля погашения заполнены только
// для погашенных купонов.
type Coupon struct {
	ID                 string         `json:"id" yaml:"id"`
	Title              string         `json:"title" yaml:"title"`
	Description        string         `json:"description" yaml:"description"`
	PointsCost         int64          `json:"pointsCost" yaml:"pointsCost"`
	ExpiryDate         string         `json:"expiryDate" yaml:"expiryDate"`
	Category           CouponCategory `json:"category" yaml:"category"`
	ImageURL           string         `json:"imageUrl,omitempty" yaml:"imageUrl,omitempty"`
	TermsAndConditions string         `json:"termsAndConditions,omitempty" yaml:"termsAndConditions,omitempty"`
	IsRedeemed         bool           `json:"isRedeemed" yaml:"isRedeemed"`
	RedemptionCode     string         `json:"redemptionCode,omitempty" yaml:"redemptionCode,omitempty"`
	QRCodeURL          string         `json:"qrCodeUrl,omitempty" yaml:"qrCodeUrl,omitempty"`
	RedeemedAt         string         `json:"redeemedAt,omitempty" yaml:"redeemedAt,omitempty"`
}

// CouponList описывает ответ со списком купонов.
type CouponList struct {
	Coupons    []Coupon `json:"coupons"`
	TotalCount int      `json:"totalCount"`
}

// RedeemRequest описывает запрос на погашение купона.
type RedeemRequest struct {
	MemberID string `json:"memberId"`
	CouponID string `json:"couponId"`
}

// RedeemResult описывает результат погашения купона.
type RedeemResult struct {
	Success        bool   `json:"success"`
	CouponID       string `json:"couponId,omitempty"`
	RedemptionCode string `json:"redemptionCode"`
	QRCodeURL      string `json:"qrCodeUrl,omitempty"`
	Message        string `json:"message"`
	RedeemedAt     string `json:"redeemedAt"`
}

// RegisterRequest содержит данные формы регистрации.
type RegisterRequest struct {
	Phone    string
	Password string
	Name     string
	Email    string
	Birthday string
	Gender   string
}
