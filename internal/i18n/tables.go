package i18n

var zhHK = map[string]string{
	"auth.invalidPhone":            "請輸入有效的8位數字電話號碼",
	"auth.invalidPassword":         "請輸入密碼（最少6個字元）",
	"auth.passwordMismatch":        "兩次輸入的密碼不一致",
	"auth.invalidEmail":            "請輸入有效的電郵地址",
	"auth.invalidName":             "請輸入姓名",
	"auth.loginFailed":             "登入失敗",
	"auth.registerFailed":          "註冊失敗",
	"auth.welcome":                 "歡迎，{{name}}",
	"errors.sessionExpired":        "登入已過期，請重新登入",
	"errors.networkError":          "無法連接伺服器，請檢查網絡連線",
	"errors.malformedResponse":     "伺服器回應異常",
	"errors.unknownError":          "發生未知錯誤，請稍後再試",
	"coupons.notFound":             "找不到此優惠券",
	"coupons.redeemFailed":         "兌換失敗",
	"coupons.verifyRequired":       "請先完成會員驗證",
	"coupons.confirmRedeem":        "確認以{{points}}積分兌換「{{title}}」？",
	"coupons.redeemSuccess":        "兌換成功",
	"coupons.category.discount":    "折扣",
	"coupons.category.gift":        "禮品",
	"coupons.category.special":     "特別優惠",
	"coupons.category.partner":     "合作夥伴",
	"coupons.category.service":     "服務",
	"coupons.category.bonus":       "獎賞",
	"coupons.category.exclusive":   "會員專享",
	"points.type.earn":             "賺取",
	"points.type.redeem":           "兌換",
	"points.type.expire":           "過期",
	"points.type.adjust":           "調整",
	"points.unit":                  "積分",
	"tier.standard":                "普通會員",
	"tier.silver":                  "銀卡會員",
	"tier.gold":                    "金卡會員",
	"tier.platinum":                "白金會員",
	"settings.confirmLogout":       "確定要登出嗎？",
	"settings.language":            "語言",
	"settings.notifications":       "推送通知",
	"points.loadFailed":            "無法載入積分資料",
	"coupons.loadFailed":           "無法載入優惠券",
	"settings.unsupportedLanguage": "不支援此語言",
	"auth.loggedOut":               "已登出",
	"home.expiring":                "{{points}} 積分將於 {{date}} 到期",
	"points.lifetime":              "累計積分",
	"points.noMore":                "沒有更多記錄",
	"coupons.redemptionCode":       "兌換碼：{{code}}",
	"coupons.empty":                "暫無優惠券",
	"settings.enabled":             "已開啟",
	"settings.disabled":            "已關閉",
}

var zhCN = map[string]string{
	"auth.invalidPhone":            "请输入有效的8位数字电话号码",
	"auth.invalidPassword":         "请输入密码（最少6个字符）",
	"auth.passwordMismatch":        "两次输入的密码不一致",
	"auth.invalidEmail":            "请输入有效的电子邮箱",
	"auth.invalidName":             "请输入姓名",
	"auth.loginFailed":             "登录失败",
	"auth.registerFailed":          "注册失败",
	"auth.welcome":                 "欢迎，{{name}}",
	"errors.sessionExpired":        "登录已过期，请重新登录",
	"errors.networkError":          "无法连接服务器，请检查网络连接",
	"errors.malformedResponse":     "服务器响应异常",
	"errors.unknownError":          "发生未知错误，请稍后再试",
	"coupons.notFound":             "找不到此优惠券",
	"coupons.redeemFailed":         "兑换失败",
	"coupons.verifyRequired":       "请先完成会员验证",
	"coupons.confirmRedeem":        "确认以{{points}}积分兑换「{{title}}」？",
	"coupons.redeemSuccess":        "兑换成功",
	"coupons.category.discount":    "折扣",
	"coupons.category.gift":        "礼品",
	"coupons.category.special":     "特别优惠",
	"coupons.category.partner":     "合作伙伴",
	"coupons.category.service":     "服务",
	"coupons.category.bonus":       "奖赏",
	"coupons.category.exclusive":   "会员专享",
	"points.type.earn":             "赚取",
	"points.type.redeem":           "兑换",
	"points.type.expire":           "过期",
	"points.type.adjust":           "调整",
	"points.unit":                  "积分",
	"tier.standard":                "普通会员",
	"tier.silver":                  "银卡会员",
	"tier.gold":                    "金卡会员",
	"tier.platinum":                "白金会员",
	"settings.confirmLogout":       "确定要退出登录吗？",
	"settings.language":            "语言",
	"settings.notifications":       "推送通知",
	"points.loadFailed":            "无法加载积分数据",
	"coupons.loadFailed":           "无法加载优惠券",
	"settings.unsupportedLanguage": "不支持此语言",
	"auth.loggedOut":               "已退出登录",
	"home.expiring":                "{{points}} 积分将于 {{date}} 到期",
	"points.lifetime":              "累计积分",
	"points.noMore":                "没有更多记录",
	"coupons.redemptionCode":       "兑换码：{{code}}",
	"coupons.empty":                "暂无优惠券",
	"settings.enabled":             "已开启",
	"settings.disabled":            "已关闭",
}

var en = map[string]string{
	"auth.invalidPhone":            "Please enter a valid 8-digit phone number",
	"auth.invalidPassword":         "Please enter a password (at least 6 characters)",
	"auth.passwordMismatch":        "Passwords do not match",
	"auth.invalidEmail":            "Please enter a valid email address",
	"auth.invalidName":             "Please enter your name",
	"auth.loginFailed":             "Login failed",
	"auth.registerFailed":          "Registration failed",
	"auth.welcome":                 "Welcome, {{name}}",
	"errors.sessionExpired":        "Your session has expired. Please log in again.",
	"errors.networkError":          "Unable to connect to the server. Please check your internet connection.",
	"errors.malformedResponse":     "The server returned an unexpected response.",
	"errors.unknownError":          "An unexpected error occurred. Please try again.",
	"coupons.notFound":             "Coupon not found",
	"coupons.redeemFailed":         "Redemption failed",
	"coupons.verifyRequired":       "Please verify your membership first",
	"coupons.confirmRedeem":        "Redeem \"{{title}}\" for {{points}} points?",
	"coupons.redeemSuccess":        "Redeemed successfully",
	"coupons.category.discount":    "Discount",
	"coupons.category.gift":        "Gift",
	"coupons.category.special":     "Special",
	"coupons.category.partner":     "Partner",
	"coupons.category.service":     "Service",
	"coupons.category.bonus":       "Bonus",
	"coupons.category.exclusive":   "Exclusive",
	"points.type.earn":             "Earned",
	"points.type.redeem":           "Redeemed",
	"points.type.expire":           "Expired",
	"points.type.adjust":           "Adjusted",
	"points.unit":                  "points",
	"tier.standard":                "Standard",
	"tier.silver":                  "Silver",
	"tier.gold":                    "Gold",
	"tier.platinum":                "Platinum",
	"settings.confirmLogout":       "Are you sure you want to log out?",
	"settings.language":            "Language",
	"settings.notifications":       "Push notifications",
	"points.loadFailed":            "Unable to load points",
	"coupons.loadFailed":           "Unable to load coupons",
	"settings.unsupportedLanguage": "Language not supported",
	"auth.loggedOut":               "Logged out",
	"home.expiring":                "{{points}} points expire on {{date}}",
	"points.lifetime":              "Lifetime points",
	"points.noMore":                "No more transactions",
	"coupons.redemptionCode":       "Redemption code: {{code}}",
	"coupons.empty":                "No coupons",
	"settings.enabled":             "On",
	"settings.disabled":            "Off",
}
