// Package i18n переводит стабильные ключи сообщений в текст на выбранном языке.
package i18n

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Поддерживаемые языки; первый используется по умолчанию.
var (
	TraditionalChinese = language.MustParse("zh-HK")
	SimplifiedChinese  = language.MustParse("zh-CN")
	English            = language.English

	Supported = []language.Tag{TraditionalChinese, SimplifiedChinese, English}
)

var matcher = language.NewMatcher(Supported)

// Catalog хранит таблицы переводов и текущий язык.
type Catalog struct {
	mu     sync.RWMutex
	tag    language.Tag
	tables map[language.Tag]map[string]string
}

// New создаёт каталог со встроенными таблицами и языком по умолчанию.
func New() *Catalog {
	return &Catalog{
		tag: TraditionalChinese,
		tables: map[language.Tag]map[string]string{
			TraditionalChinese: zhHK,
			SimplifiedChinese:  zhCN,
			English:            en,
		},
	}
}

// Match подбирает ближайший поддерживаемый язык для произвольного тега.
func Match(tag string) (language.Tag, error) {
	parsed, err := language.Parse(tag)
	if err != nil {
		return language.Und, fmt.Errorf("parse language %q: %w", tag, err)
	}
	_, idx, confidence := matcher.Match(parsed)
	if confidence == language.No {
		return language.Und, fmt.Errorf("unsupported language %q", tag)
	}
	return Supported[idx], nil
}

// SetLanguage переключает язык каталога на ближайший поддерживаемый.
func (c *Catalog) SetLanguage(tag string) (language.Tag, error) {
	matched, err := Match(tag)
	if err != nil {
		return language.Und, err
	}
	c.mu.Lock()
	c.tag = matched
	c.mu.Unlock()
	return matched, nil
}

// Language возвращает текущий язык.
func (c *Catalog) Language() language.Tag {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tag
}

// Printer возвращает форматтер чисел для текущего языка.
func (c *Catalog) Printer() *message.Printer {
	return message.NewPrinter(c.Language())
}

// Translate возвращает текст по ключу, подставляя параметры вида {{name}}.
// Неизвестный ключ возвращается как есть.
func (c *Catalog) Translate(key string, params map[string]string) string {
	c.mu.RLock()
	text, ok := c.tables[c.tag][key]
	c.mu.RUnlock()
	if !ok {
		return key
	}
	for name, value := range params {
		text = strings.ReplaceAll(text, "{{"+name+"}}", value)
	}
	return text
}
