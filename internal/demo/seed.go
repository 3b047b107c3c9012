package demo

import (
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mmeshcher/loyalty-client/internal/model"
)

//go:embed seed.yaml
var seedYAML []byte

// Dataset содержит набор данных демо-режима: участник, баланс, история и купоны.
type Dataset struct {
	Member       model.Member        `yaml:"member"`
	Balance      model.PointsBalance `yaml:"balance"`
	Transactions []model.Transaction `yaml:"transactions"`
	Available    []model.Coupon      `yaml:"available"`
	Redeemed     []model.Coupon      `yaml:"redeemed"`
}

// DefaultSeed разбирает встроенный демо-набор.
func DefaultSeed() (Dataset, error) {
	return ParseSeed(seedYAML)
}

// ParseSeed разбирает набор данных из YAML и проверяет категории купонов.
func ParseSeed(data []byte) (Dataset, error) {
	var d Dataset
	if err := yaml.Unmarshal(data, &d); err != nil {
		return Dataset{}, fmt.Errorf("parse seed: %w", err)
	}
	for _, c := range append(append([]model.Coupon{}, d.Available...), d.Redeemed...) {
		if !c.Category.Valid() {
			return Dataset{}, fmt.Errorf("coupon %s: unknown category %q", c.ID, c.Category)
		}
	}
	return d, nil
}

// LoadSeedFile читает набор данных из файла YAML.
func LoadSeedFile(path string) (Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("open seed: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return Dataset{}, fmt.Errorf("read seed: %w", err)
	}
	return ParseSeed(data)
}

// Clone возвращает глубокую копию набора.
func (d Dataset) Clone() Dataset {
	return Dataset{
		Member:       CloneMember(d.Member),
		Balance:      d.Balance,
		Transactions: append([]model.Transaction(nil), d.Transactions...),
		Available:    append([]model.Coupon(nil), d.Available...),
		Redeemed:     append([]model.Coupon(nil), d.Redeemed...),
	}
}

// CloneMember копирует участника вместе со снимком баллов.
func CloneMember(m model.Member) model.Member {
	out := m
	if m.CurrentPoints != nil {
		v := *m.CurrentPoints
		out.CurrentPoints = &v
	}
	if m.ExpiringPoints != nil {
		v := *m.ExpiringPoints
		out.ExpiringPoints = &v
	}
	return out
}
