package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/automacao-f5/dashboard-v1/internal/ingest"
	"github.com/automacao-f5/dashboard-v1/internal/models"
)

type Config struct {
	Port             string            `validate:"required,numeric"`
	HTTPTimeout      time.Duration     `validate:"gt=0"`
	LogLevel         slog.Level        `validate:"-"`
	FetchConcurrency int               `validate:"min=1,max=50"`
	CampaignLimit    int               `validate:"min=1,max=1000"`
	DefaultPreset    models.DatePreset `validate:"preset"`
	SinkURL          string            `validate:"omitempty,url"`
	SinkSecret       string            `validate:"required_with=SinkURL"`

	// Provider credentials. Each provider is validated by its own adapter.
	Meta    ingest.MetaConfig    `validate:"-"`
	Hotmart ingest.HotmartConfig `validate:"-"`
	Vturb   ingest.VturbConfig   `validate:"-"`
	GA4     ingest.GA4Config     `validate:"-"`
}

// MetaEnabled and friends report whether any setting of the provider was given.
// A provider with no settings is disabled rather than invalid.
func (c Config) MetaEnabled() bool {
	return anySet(c.Meta.AccessToken, c.Meta.AdAccountID)
}

func (c Config) HotmartEnabled() bool {
	return anySet(c.Hotmart.ClientID, c.Hotmart.ClientSecret)
}

func (c Config) VturbEnabled() bool { return anySet(c.Vturb.APIKey) }

func (c Config) GA4Enabled() bool {
	return anySet(c.GA4.PropertyID, c.GA4.ClientEmail, c.GA4.PrivateKey, c.GA4.CredentialsJSON)
}

func anySet(vals ...string) bool {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}

var defaults = map[string]any{
	"port":                 "8080",
	"log_level":            "info",
	"http_timeout_seconds": 15,
	"fetch_concurrency":    5,
	"campaign_limit":       100,
	"default_date_preset":  string(models.PresetLast7d),
	"meta_api_version":     ingest.DefaultMetaAPIVersion,
	"hotmart_max_pages":    20,
}

// Load reads envFile (if it exists) into the process environment and then
// builds the config from environment variables.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.AutomaticEnv()

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(v.GetString("log_level"))); err != nil {
		return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	cfg := Config{
		Port:             v.GetString("port"),
		HTTPTimeout:      time.Duration(v.GetInt("http_timeout_seconds")) * time.Second,
		LogLevel:         lvl,
		FetchConcurrency: v.GetInt("fetch_concurrency"),
		CampaignLimit:    v.GetInt("campaign_limit"),
		DefaultPreset:    models.DatePreset(v.GetString("default_date_preset")),
		SinkURL:          v.GetString("sink_url"),
		SinkSecret:       v.GetString("sink_secret"),
		Meta: ingest.MetaConfig{
			AccessToken: v.GetString("meta_access_token"),
			AdAccountID: v.GetString("meta_ad_account_id"),
			APIVersion:  v.GetString("meta_api_version"),
			BaseURL:     v.GetString("meta_base_url"),
		},
		Hotmart: ingest.HotmartConfig{
			ClientID:     v.GetString("hotmart_client_id"),
			ClientSecret: v.GetString("hotmart_client_secret"),
			BaseURL:      v.GetString("hotmart_base_url"),
			TokenURL:     v.GetString("hotmart_token_url"),
			MaxPages:     v.GetInt("hotmart_max_pages"),
		},
		Vturb: ingest.VturbConfig{
			APIKey:  v.GetString("vturb_api_key"),
			BaseURL: v.GetString("vturb_base_url"),
		},
		GA4: ingest.GA4Config{
			PropertyID:      v.GetString("ga4_property_id"),
			ClientEmail:     v.GetString("ga4_client_email"),
			PrivateKey:      v.GetString("ga4_private_key"),
			CredentialsJSON: v.GetString("ga4_credentials_json"),
			BaseURL:         v.GetString("ga4_base_url"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("preset", func(fl validator.FieldLevel) bool {
		return models.DatePreset(fl.Field().String()).Valid()
	}); err != nil {
		return err
	}
	if err := v.Struct(c); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			msgs := make([]string, 0, len(ve))
			for _, fe := range ve {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
