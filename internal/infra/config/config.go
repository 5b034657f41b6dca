package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	DatabaseURL string
	AutoMigrate bool

	HTTPAddress   string
	GRPCAddress   string
	HTTPSCertFile string
	HTTPSKeyFile  string

	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	Issuer             string

	PasswordHasher string
	PasswordPepper string

	AllowedOrigins   []string
	AllowCredentials bool

	LogLevel string
}

func (c *Config) TLSEnabled() bool {
	return c.HTTPSCertFile != "" && c.HTTPSKeyFile != ""
}

// env aliases: the first name is canonical, the rest are accepted for
// compatibility with older deployments.
var bindings = map[string][]string{
	"database_url":              {"DATABASE_URL"},
	"auto_migrate":              {"AUTO_MIGRATE"},
	"http_address":              {"HTTP_ADDRESS"},
	"grpc_address":              {"GRPC_ADDRESS"},
	"https_cert_file":           {"HTTPS_CERT_FILE"},
	"https_key_file":            {"HTTPS_KEY_FILE"},
	"access_token_secret":       {"ACCESS_TOKEN_SECRET"},
	"refresh_token_secret":      {"REFRESH_TOKEN_SECRET"},
	"access_token_ttl_seconds":  {"ACCESS_TOKEN_TTL_SECONDS", "ACCESS_TOKEN_EXPIRES"},
	"refresh_token_ttl_seconds": {"REFRESH_TOKEN_TTL_SECONDS", "REFRESH_TOKEN_EXPIRES"},
	"jwt_issuer":                {"JWT_ISSUER"},
	"password_hasher":           {"PASSWORD_HASHER"},
	"password_pepper":           {"PASSWORD_PEPPER"},
	"allowed_origins":           {"ALLOWED_ORIGINS"},
	"allow_credentials":         {"ALLOW_CREDENTIALS"},
	"log_level":                 {"LOG_LEVEL"},
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")

	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, err
		}
	}

	v.SetDefault("auto_migrate", true)
	v.SetDefault("http_address", ":8080")
	v.SetDefault("grpc_address", ":50051")
	v.SetDefault("access_token_ttl_seconds", 3600)
	v.SetDefault("refresh_token_ttl_seconds", 86400)
	v.SetDefault("password_hasher", "argon2id")
	v.SetDefault("log_level", "debug")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	origins, err := parseList(v.GetString("allowed_origins"))
	if err != nil {
		return nil, fmt.Errorf("ALLOWED_ORIGINS: %w", err)
	}

	cfg := &Config{
		DatabaseURL:        v.GetString("database_url"),
		AutoMigrate:        v.GetBool("auto_migrate"),
		HTTPAddress:        v.GetString("http_address"),
		GRPCAddress:        v.GetString("grpc_address"),
		HTTPSCertFile:      v.GetString("https_cert_file"),
		HTTPSKeyFile:       v.GetString("https_key_file"),
		AccessTokenSecret:  v.GetString("access_token_secret"),
		RefreshTokenSecret: v.GetString("refresh_token_secret"),
		AccessTokenTTL:     time.Duration(v.GetInt64("access_token_ttl_seconds")) * time.Second,
		RefreshTokenTTL:    time.Duration(v.GetInt64("refresh_token_ttl_seconds")) * time.Second,
		Issuer:             v.GetString("jwt_issuer"),
		PasswordHasher:     strings.ToLower(v.GetString("password_hasher")),
		PasswordPepper:     v.GetString("password_pepper"),
		AllowedOrigins:     origins,
		AllowCredentials:   v.GetBool("allow_credentials"),
		LogLevel:           v.GetString("log_level"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	required := map[string]string{
		"DATABASE_URL":         c.DatabaseURL,
		"ACCESS_TOKEN_SECRET":  c.AccessTokenSecret,
		"REFRESH_TOKEN_SECRET": c.RefreshTokenSecret,
	}
	for name, val := range required {
		if val == "" {
			return fmt.Errorf("%s is not set", name)
		}
	}
	if c.AccessTokenSecret == c.RefreshTokenSecret {
		return errors.New("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ")
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	switch c.PasswordHasher {
	case "argon2id", "bcrypt":
	default:
		return fmt.Errorf("PASSWORD_HASHER %q is not supported", c.PasswordHasher)
	}
	return nil
}

// parseList accepts a JSON array or a comma separated list.
func parseList(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if strings.HasPrefix(raw, "[") {
		var out []string
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			return nil, err
		}
		return out, nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out, nil
}
