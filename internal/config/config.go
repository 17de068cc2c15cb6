// Package config loads server configuration from an optional TOML file and
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"focuslock/internal/adapter/payment"
	"focuslock/internal/domain"

	"github.com/BurntSushi/toml"
)

// Config holds all server configuration.
type Config struct {
	Addr             string   `toml:"addr"`
	DatabaseURL      string   `toml:"database_url"`
	SessionTTL       Duration `toml:"session_ttl"`
	SweepInterval    Duration `toml:"sweep_interval"`
	TrustForwardAuth bool     `toml:"trust_forward_auth"`

	Fee     FeeConfig     `toml:"fee"`
	Stats   StatsConfig   `toml:"stats"`
	Payment PaymentConfig `toml:"payment"`
	OIDC    OIDCConfig    `toml:"oidc"`
}

// FeeConfig sets the early-unlock fee policy.
type FeeConfig struct {
	Base   float64 `toml:"base"`
	Factor float64 `toml:"factor"`
	Max    float64 `toml:"max"`
}

// StatsConfig controls stats aggregation.
type StatsConfig struct {
	// Timezone is an IANA name; empty means process local time.
	Timezone string `toml:"timezone"`
}

// PaymentConfig configures the simulated gateway.
type PaymentConfig struct {
	DeclinedCards []string `toml:"declined_cards"`
}

// OIDCConfig holds single sign-on settings. SSO is enabled when Issuer is set.
type OIDCConfig struct {
	Issuer            string `toml:"issuer"`
	ClientID          string `toml:"client_id"`
	ClientSecret      string `toml:"client_secret"`
	RedirectURL       string `toml:"redirect_url"`
	PostLoginRedirect string `toml:"post_login_redirect"`
}

// Duration is a time.Duration written as a string such as "24h" in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Addr:          ":8080",
		SessionTTL:    Duration{24 * time.Hour},
		SweepInterval: Duration{time.Second},
		Fee: FeeConfig{
			Base:   domain.DefaultFeePolicy.Base,
			Factor: domain.DefaultFeePolicy.Factor,
			Max:    domain.DefaultFeePolicy.Max,
		},
		Payment: PaymentConfig{
			DeclinedCards: append([]string(nil), payment.DefaultDeclinedCards...),
		},
	}
}

// Load reads the config file at path, if any, then applies environment
// overrides and validates the result. A missing file is not an error.
func Load(path string) (Config, error) {
	return load(path, os.Getenv)
}

func load(path string, getenv func(string) string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("reading config: %w", err)
		default:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parsing config: %w", err)
			}
		}
	}

	if err := applyEnv(&cfg, getenv); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	setString := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	setString("ADDR", &cfg.Addr)
	setString("DATABASE_URL", &cfg.DatabaseURL)
	setString("STATS_TIMEZONE", &cfg.Stats.Timezone)
	setString("OIDC_ISSUER", &cfg.OIDC.Issuer)
	setString("OIDC_CLIENT_ID", &cfg.OIDC.ClientID)
	setString("OIDC_CLIENT_SECRET", &cfg.OIDC.ClientSecret)
	setString("OIDC_REDIRECT_URL", &cfg.OIDC.RedirectURL)
	setString("OIDC_POST_LOGIN_REDIRECT", &cfg.OIDC.PostLoginRedirect)

	var errs []error
	for key, dst := range map[string]*time.Duration{
		"SESSION_TTL":    &cfg.SessionTTL.Duration,
		"SWEEP_INTERVAL": &cfg.SweepInterval.Duration,
	} {
		if v := getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				continue
			}
			*dst = d
		}
	}
	for key, dst := range map[string]*float64{
		"UNLOCK_FEE_BASE":   &cfg.Fee.Base,
		"UNLOCK_FEE_FACTOR": &cfg.Fee.Factor,
		"UNLOCK_FEE_MAX":    &cfg.Fee.Max,
	} {
		if v := getenv(key); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				continue
			}
			*dst = f
		}
	}
	if v := getenv("TRUST_FORWARD_AUTH"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("TRUST_FORWARD_AUTH: %w", err))
		} else {
			cfg.TrustForwardAuth = b
		}
	}
	if v := getenv("DECLINED_CARDS"); v != "" {
		cfg.Payment.DeclinedCards = nil
		for _, n := range strings.Split(v, ",") {
			if n = strings.TrimSpace(n); n != "" {
				cfg.Payment.DeclinedCards = append(cfg.Payment.DeclinedCards, n)
			}
		}
	}
	return errors.Join(errs...)
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if c.Fee.Base <= 0 {
		errs = append(errs, errors.New("fee.base must be > 0"))
	}
	if c.Fee.Factor <= 1 {
		errs = append(errs, errors.New("fee.factor must be > 1"))
	}
	if c.Fee.Max != 0 && c.Fee.Max < c.Fee.Base {
		errs = append(errs, errors.New("fee.max must be 0 or at least fee.base"))
	}
	if c.SessionTTL.Duration <= 0 {
		errs = append(errs, errors.New("session_ttl must be > 0"))
	}
	if c.SweepInterval.Duration <= 0 {
		errs = append(errs, errors.New("sweep_interval must be > 0"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Errorf("stats.timezone: %w", err))
	}
	if c.OIDC.Issuer != "" && (c.OIDC.ClientID == "" || c.OIDC.RedirectURL == "") {
		errs = append(errs, errors.New("oidc.client_id and oidc.redirect_url are required when oidc.issuer is set"))
	}
	return errors.Join(errs...)
}

// FeePolicy returns the configured fee policy.
func (c Config) FeePolicy() domain.FeePolicy {
	return domain.FeePolicy{Base: c.Fee.Base, Factor: c.Fee.Factor, Max: c.Fee.Max}
}

// Location returns the location used for stats calendar days.
func (c Config) Location() (*time.Location, error) {
	if c.Stats.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Stats.Timezone)
}

// OIDCEnabled reports whether single sign-on is configured.
func (c Config) OIDCEnabled() bool {
	return c.OIDC.Issuer != ""
}
