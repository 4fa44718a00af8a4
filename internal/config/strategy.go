package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type RepostBase string

const (
	RepostPreviousFill    RepostBase = "previous_fill"
	RepostMarketMean      RepostBase = "market_mean"
	RepostMarketBestOffer RepostBase = "market_best_offer"
)

const (
	SideYes  = "yes"
	SideNo   = "no"
	SideBoth = "both"
)

// Stake is one market-making instrument. Read-only once the engine starts.
type Stake struct {
	Ticker     string     `json:"ticker" yaml:"ticker"`
	Shares     int        `json:"shares" yaml:"shares"`
	Side       string     `json:"side" yaml:"side"` // yes, no, both
	YesPrice   *int       `json:"yes_price,omitempty" yaml:"yes_price,omitempty"`
	NoPrice    *int       `json:"no_price,omitempty" yaml:"no_price,omitempty"`
	RepostBase RepostBase `json:"repost_base" yaml:"repost_base"`
	CentsOff   int        `json:"cents_off" yaml:"cents_off"`
	PctReload  int        `json:"pct_reload" yaml:"pct_reload"`
	MaxShares  *int       `json:"max_shares,omitempty" yaml:"max_shares,omitempty"`
}

// Quotes reports whether the stake rests orders on side ("yes" or "no").
func (s Stake) Quotes(side string) bool {
	return s.Side == side || s.Side == SideBoth
}

// MarketMakingConfig is the per-stake repost engine's file config.
type MarketMakingConfig struct {
	Env              string  `json:"env" yaml:"env"`
	EventTicker      string  `json:"event_ticker" yaml:"event_ticker"`
	CheckIntervalSec int     `json:"check_interval_sec" yaml:"check_interval_sec"`
	AlertWebhookURL  string  `json:"alert_webhook_url,omitempty" yaml:"alert_webhook_url,omitempty"`
	Stakes           []Stake `json:"stakes" yaml:"stakes"`
}

func (c MarketMakingConfig) CheckInterval() time.Duration {
	return time.Duration(c.CheckIntervalSec) * time.Second
}

// CombinedConfig is the combined-no trigger engine's file config.
type CombinedConfig struct {
	Env              string   `json:"env" yaml:"env"`
	Tickers          []string `json:"tickers" yaml:"tickers"`
	MaxCombined      int      `json:"max_combined" yaml:"max_combined"`
	Shares           int      `json:"shares" yaml:"shares"`
	CheckIntervalSec int      `json:"check_interval_sec" yaml:"check_interval_sec"`
	AlertWebhookURL  string   `json:"alert_webhook_url,omitempty" yaml:"alert_webhook_url,omitempty"`
}

func (c CombinedConfig) CheckInterval() time.Duration {
	return time.Duration(c.CheckIntervalSec) * time.Second
}

// LoadMarketMaking reads, defaults, and validates a market-making file.
func LoadMarketMaking(path string) (MarketMakingConfig, error) {
	var cfg MarketMakingConfig
	if err := decodeFile(path, &cfg); err != nil {
		return MarketMakingConfig{}, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return MarketMakingConfig{}, &ConfigError{Source: path, Err: err}
	}
	return cfg, nil
}

// LoadCombined reads, defaults, and validates a combined-condition file.
func LoadCombined(path string) (CombinedConfig, error) {
	var cfg CombinedConfig
	if err := decodeFile(path, &cfg); err != nil {
		return CombinedConfig{}, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return CombinedConfig{}, &ConfigError{Source: path, Err: err}
	}
	return cfg, nil
}

// decodeFile parses YAML for .yaml/.yml paths and JSON otherwise.
func decodeFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &ConfigError{Source: path, Err: fmt.Errorf("read: %w", err)}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, out)
	default:
		err = json.Unmarshal(data, out)
	}
	if err != nil {
		return &ConfigError{Source: path, Err: fmt.Errorf("parse: %w", err)}
	}
	return nil
}

func (c *MarketMakingConfig) ApplyDefaults() {
	if c.Env == "" {
		c.Env = EnvDemo
	}
	c.Env = strings.ToUpper(c.Env)
	if c.CheckIntervalSec <= 0 {
		c.CheckIntervalSec = 30
	}
	for i := range c.Stakes {
		s := &c.Stakes[i]
		s.Ticker = strings.TrimSpace(s.Ticker)
		s.Side = strings.ToLower(strings.TrimSpace(s.Side))
		if s.Side == "" {
			s.Side = SideYes
		}
		if s.RepostBase == "" {
			s.RepostBase = RepostPreviousFill
		}
		if s.PctReload == 0 {
			s.PctReload = 100
		}
	}
}

func (c MarketMakingConfig) Validate() error {
	if _, err := EndpointsFor(c.Env); err != nil {
		return err
	}
	if len(c.Stakes) == 0 {
		return errors.New("stakes: at least one stake is required")
	}

	seen := make(map[string]bool, len(c.Stakes))
	for i, s := range c.Stakes {
		prefix := fmt.Sprintf("stakes[%d]", i)
		if s.Ticker == "" {
			return fmt.Errorf("%s.ticker is required", prefix)
		}
		if seen[s.Ticker] {
			return fmt.Errorf("%s.ticker %q is duplicated", prefix, s.Ticker)
		}
		seen[s.Ticker] = true

		if s.Shares < 1 {
			return fmt.Errorf("%s.shares must be >= 1", prefix)
		}
		switch s.Side {
		case SideYes, SideNo, SideBoth:
		default:
			return fmt.Errorf("%s.side %q must be yes, no, or both", prefix, s.Side)
		}
		if s.Quotes(SideYes) {
			if err := validPrice(prefix+".yes_price", s.YesPrice); err != nil {
				return err
			}
		}
		if s.Quotes(SideNo) {
			if err := validPrice(prefix+".no_price", s.NoPrice); err != nil {
				return err
			}
		}
		switch s.RepostBase {
		case RepostPreviousFill, RepostMarketMean, RepostMarketBestOffer:
		default:
			return fmt.Errorf("%s.repost_base %q is not one of previous_fill, market_mean, market_best_offer", prefix, s.RepostBase)
		}
		if s.CentsOff < 0 {
			return fmt.Errorf("%s.cents_off must be >= 0", prefix)
		}
		if s.PctReload < 1 {
			return fmt.Errorf("%s.pct_reload must be >= 1", prefix)
		}
		if s.MaxShares != nil && *s.MaxShares < 1 {
			return fmt.Errorf("%s.max_shares must be >= 1 when set", prefix)
		}
	}
	return nil
}

func validPrice(field string, p *int) error {
	if p == nil {
		return fmt.Errorf("%s is required for the quoted side", field)
	}
	if *p < 1 || *p > 99 {
		return fmt.Errorf("%s must be between 1 and 99, got %d", field, *p)
	}
	return nil
}

func (c *CombinedConfig) ApplyDefaults() {
	if c.Env == "" {
		c.Env = EnvDemo
	}
	c.Env = strings.ToUpper(c.Env)
	if c.MaxCombined == 0 {
		c.MaxCombined = 99
	}
	if c.Shares == 0 {
		c.Shares = 10
	}
	if c.CheckIntervalSec <= 0 {
		c.CheckIntervalSec = 5
	}
	for i := range c.Tickers {
		c.Tickers[i] = strings.TrimSpace(c.Tickers[i])
	}
}

func (c CombinedConfig) Validate() error {
	if _, err := EndpointsFor(c.Env); err != nil {
		return err
	}
	if len(c.Tickers) == 0 {
		return errors.New("tickers: at least one ticker is required")
	}
	seen := make(map[string]bool, len(c.Tickers))
	for i, t := range c.Tickers {
		if t == "" {
			return fmt.Errorf("tickers[%d] is empty", i)
		}
		if seen[t] {
			return fmt.Errorf("tickers[%d] %q is duplicated", i, t)
		}
		seen[t] = true
	}
	if c.Shares < 1 {
		return errors.New("shares must be >= 1")
	}
	if c.MaxCombined < 1 {
		return errors.New("max_combined must be >= 1")
	}
	return nil
}
