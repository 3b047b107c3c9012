package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate(t *testing.T) {
	c := New()

	assert.Equal(t, "找不到此優惠券", c.Translate("coupons.notFound", nil))
	assert.Equal(t, "歡迎，陳大文", c.Translate("auth.welcome", map[string]string{"name": "陳大文"}))
	assert.Equal(t, "no.such.key", c.Translate("no.such.key", nil))
}

func TestSetLanguage(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "en-US", want: "en"},
		{in: "zh-CN", want: "zh-CN"},
		{in: "zh-HK", want: "zh-HK"},
		{in: "fr", wantErr: true},
		{in: "???", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c := New()
			tag, err := c.SetLanguage(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, TraditionalChinese, c.Language())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, tag.String())
			assert.Equal(t, tag, c.Language())
		})
	}
}

func TestTablesHaveSameKeys(t *testing.T) {
	for key := range zhHK {
		assert.Contains(t, zhCN, key)
		assert.Contains(t, en, key)
	}
	assert.Len(t, zhCN, len(zhHK))
	assert.Len(t, en, len(zhHK))
}

func TestPrinterGroupsDigits(t *testing.T) {
	c := New()
	_, err := c.SetLanguage("en")
	require.NoError(t, err)
	assert.Equal(t, "15,420", c.Printer().Sprintf("%d", 15420))
}
