// Package config содержит логику чтения конфигурации клиента программы лояльности
// и локального бэкенда CRM.
package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	defaultBaseURL        = "https://crmapp.baleno.com.hk:37210/wCRM"
	defaultTokenStore     = "memory"
	defaultPhoneDigits    = 8
	defaultPageSize       = 20
	defaultRequestTimeout = 15 * time.Second
	defaultLogLevel       = "info"
	defaultLanguage       = "zh-HK"
	defaultRunAddress     = "localhost:8080"
	defaultStubPhone      = "91234567"
	defaultStubPassword   = "secret1"
)

// Config содержит параметры конфигурации.
type Config struct {
	BaseURL        string        `env:"CRM_BASE_URL"`
	TokenStore     string        `env:"TOKEN_STORE"`
	PhoneDigits    *int          `env:"PHONE_DIGITS"`
	PageSize       int           `env:"PAGE_SIZE"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
	LogLevel       string        `env:"LOG_LEVEL"`
	Language       string        `env:"LANGUAGE"`
	RunAddress     string        `env:"RUN_ADDRESS"`
	SeedFile       string        `env:"SEED_FILE"`
	StubPhone      string        `env:"STUB_PHONE"`
	StubPassword   string        `env:"STUB_PASSWORD"`
	StubSecret     string        `env:"STUB_SECRET"`

	phoneDigitsFlag int
}

// New возвращает конфигурацию со значениями по умолчанию.
func New() *Config {
	return &Config{
		BaseURL:         defaultBaseURL,
		TokenStore:      defaultTokenStore,
		PageSize:        defaultPageSize,
		RequestTimeout:  defaultRequestTimeout,
		LogLevel:        defaultLogLevel,
		Language:        defaultLanguage,
		RunAddress:      defaultRunAddress,
		StubPhone:       defaultStubPhone,
		StubPassword:    defaultStubPassword,
		phoneDigitsFlag: defaultPhoneDigits,
	}
}

// BindFlags регистрирует флаги командной строки в fs.
func (c *Config) BindFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.BaseURL, "u", c.BaseURL, "CRM backend base URL")
	fs.StringVar(&c.TokenStore, "s", c.TokenStore, "token store: memory, file:<path>, sqlite:<path> or postgres DSN")
	fs.IntVar(&c.phoneDigitsFlag, "p", c.phoneDigitsFlag, "required phone digits, 0 disables the check")
	fs.IntVar(&c.PageSize, "n", c.PageSize, "transaction history page size")
	fs.DurationVar(&c.RequestTimeout, "t", c.RequestTimeout, "backend request timeout")
	fs.StringVar(&c.LogLevel, "l", c.LogLevel, "log level")
	fs.StringVar(&c.Language, "lang", c.Language, "interface language")
	fs.StringVar(&c.RunAddress, "a", c.RunAddress, "address and port for the CRM stub server")
	fs.StringVar(&c.SeedFile, "seed", c.SeedFile, "YAML seed file for the CRM stub")
	fs.StringVar(&c.StubPhone, "stub-phone", c.StubPhone, "phone of the member seeded into the CRM stub")
	fs.StringVar(&c.StubPassword, "stub-password", c.StubPassword, "password of the member seeded into the CRM stub")
	fs.StringVar(&c.StubSecret, "k", c.StubSecret, "token signing key for the CRM stub, random if empty")
}

// ApplyEnv перекрывает значения флагов переменными окружения.
func (c *Config) ApplyEnv() error {
	var fromEnv Config
	if err := env.Parse(&fromEnv); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	if fromEnv.BaseURL != "" {
		c.BaseURL = fromEnv.BaseURL
	}
	if fromEnv.TokenStore != "" {
		c.TokenStore = fromEnv.TokenStore
	}
	if fromEnv.PhoneDigits != nil {
		c.phoneDigitsFlag = *fromEnv.PhoneDigits
	}
	if fromEnv.PageSize > 0 {
		c.PageSize = fromEnv.PageSize
	}
	if fromEnv.RequestTimeout > 0 {
		c.RequestTimeout = fromEnv.RequestTimeout
	}
	if fromEnv.LogLevel != "" {
		c.LogLevel = fromEnv.LogLevel
	}
	if fromEnv.Language != "" {
		c.Language = fromEnv.Language
	}
	if fromEnv.RunAddress != "" {
		c.RunAddress = fromEnv.RunAddress
	}
	if fromEnv.SeedFile != "" {
		c.SeedFile = fromEnv.SeedFile
	}
	if fromEnv.StubPhone != "" {
		c.StubPhone = fromEnv.StubPhone
	}
	if fromEnv.StubPassword != "" {
		c.StubPassword = fromEnv.StubPassword
	}
	if fromEnv.StubSecret != "" {
		c.StubSecret = fromEnv.StubSecret
	}

	digits := c.phoneDigitsFlag
	c.PhoneDigits = &digits

	if c.PageSize <= 0 {
		c.PageSize = defaultPageSize
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	return nil
}

// Digits возвращает требуемое число цифр телефона.
func (c *Config) Digits() int {
	if c.PhoneDigits != nil {
		return *c.PhoneDigits
	}
	return c.phoneDigitsFlag
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	cfg := New()
	cfg.BindFlags(flag.CommandLine)
	flag.Parse()

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}
