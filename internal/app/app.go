// Package app wires configuration, the backend client and the workspace
// state for the commands and the console API.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"slotconsole/internal/config"
	"slotconsole/internal/db"
	"slotconsole/internal/events"
	"slotconsole/internal/migrate"
	"slotconsole/internal/repo"
	slotsdk "slotconsole/sdk/go"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SLOTCTL"

// Viper keys that may override the config file.
const (
	KeyBaseURL   = "api.base_url"
	KeyToken     = "api.token"
	KeyTimeout   = "api.timeout"
	KeyLogLevel  = "log.level"
	KeyLogFormat = "log.format"
	KeyServeAddr = "serve.addr"
	KeyJWTSecret = "serve.jwt_secret"
)

// NewViper returns a viper instance reading SLOTCTL_* variables, with
// "api.base_url" mapped to SLOTCTL_API_BASE_URL.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for _, k := range []string{KeyBaseURL, KeyToken, KeyTimeout, KeyLogLevel, KeyLogFormat, KeyServeAddr, KeyJWTSecret} {
		_ = v.BindEnv(k)
	}
	return v
}

// LoadDotEnv loads <workspace>/.env without overriding variables that are
// already set. A missing file is fine.
func LoadDotEnv(workspace string) error {
	if workspace == "" {
		workspace = "."
	}
	path := filepath.Join(workspace, ".env")
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Resolve loads .env and slotconsole.yml from the workspace, applies
// overrides from v and validates the result.
func Resolve(workspace string, v *viper.Viper) (*config.Config, error) {
	if err := LoadDotEnv(workspace); err != nil {
		return nil, err
	}
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if v != nil {
		override(v, KeyBaseURL, &cfg.API.BaseURL)
		override(v, KeyToken, &cfg.API.Token)
		override(v, KeyLogLevel, &cfg.Log.Level)
		override(v, KeyLogFormat, &cfg.Log.Format)
		override(v, KeyServeAddr, &cfg.Serve.Addr)
		override(v, KeyJWTSecret, &cfg.Serve.JWTSecret)
		if v.IsSet(KeyTimeout) && v.GetString(KeyTimeout) != "" {
			cfg.API.Timeout = v.GetDuration(KeyTimeout)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func override(v *viper.Viper, key string, dst *string) {
	if !v.IsSet(key) {
		return
	}
	if s := strings.TrimSpace(v.GetString(key)); s != "" {
		*dst = s
	}
}

// NewClient builds the backend client. transport may be nil.
func NewClient(cfg *config.Config, log logrus.FieldLogger, transport http.RoundTripper) *slotsdk.Client {
	c := slotsdk.New(cfg.API.BaseURL)
	c.BearerToken = cfg.API.Token
	if cfg.API.Timeout > 0 {
		c.Timeout = cfg.API.Timeout
	}
	c.Logger = log
	if transport != nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout, Transport: transport}
	}
	return c
}

// State is the workspace database with its draft and journal access.
type State struct {
	DB      *sql.DB
	Repo    repo.Repo
	Journal events.Writer
}

// OpenState opens and migrates the workspace database.
func OpenState(ctx context.Context, workspace string) (*State, error) {
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return nil, err
	}
	if err := migrate.Migrate(ctx, conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate %s: %w", db.Path(workspace), err)
	}
	return &State{DB: conn, Repo: repo.Repo{DB: conn}, Journal: events.Writer{DB: conn}}, nil
}

func (s *State) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}
