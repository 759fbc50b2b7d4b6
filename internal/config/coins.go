package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/model"
)

// DefaultCoins is the catalog used when no COINS_FILE is configured.
var DefaultCoins = []model.Coin{
	{ID: "bitcoin", Name: "Bitcoin"},
	{ID: "ethereum", Name: "Ethereum"},
	{ID: "litecoin", Name: "Litecoin"},
	{ID: "ripple", Name: "Ripple"},
	{ID: "cardano", Name: "Cardano"},
	{ID: "dogecoin", Name: "Dogecoin"},
}

type coinsFile struct {
	Coins []model.Coin `yaml:"coins"`
}

// LoadCoins reads the coin catalog from a YAML file.
// An empty path returns DefaultCoins. The file format is:
//
//	coins:
//	  - id: bitcoin
//	    name: Bitcoin
func LoadCoins(path string) ([]model.Coin, error) {
	if path == "" {
		out := make([]model.Coin, len(DefaultCoins))
		copy(out, DefaultCoins)
		return out, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read coins file: %w", err)
	}
	return ParseCoins(data)
}

// ParseCoins decodes and checks a YAML coin catalog.
func ParseCoins(data []byte) ([]model.Coin, error) {
	var f coinsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse coins file: %w", err)
	}
	if len(f.Coins) == 0 {
		return nil, fmt.Errorf("coins file lists no coins")
	}

	seen := make(map[string]bool, len(f.Coins))
	for i, c := range f.Coins {
		if c.ID == "" {
			return nil, fmt.Errorf("coin %d: id is required", i)
		}
		if seen[c.ID] {
			return nil, fmt.Errorf("coin %q listed twice", c.ID)
		}
		seen[c.ID] = true
		if c.Name == "" {
			f.Coins[i].Name = c.ID
		}
	}
	return f.Coins, nil
}
