package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the workspace config file.
const FileName = "slotconsole.yml"

// Config models slotconsole.yml.
type Config struct {
	API struct {
		BaseURL string        `yaml:"base_url"`
		Token   string        `yaml:"token"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"api"`
	Pages PageSizes `yaml:"pages"`
	Log   struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Serve struct {
		Addr      string `yaml:"addr"`
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"serve"`
}

// PageSizes are the list page sizes per collection.
type PageSizes struct {
	Slots     int `yaml:"slots"`
	Anfragen  int `yaml:"anfragen"`
	Toepfe    int `yaml:"toepfe"`
	Konflikte int `yaml:"konflikte"`
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; create one with slotctl config init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return fmt.Errorf("config.api.base_url is required (or set SLOTCTL_API_BASE_URL)")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config.api.base_url %q is not an absolute URL", c.API.BaseURL)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("config.api.timeout must not be negative")
	}
	for name, n := range map[string]int{
		"slots":     c.Pages.Slots,
		"anfragen":  c.Pages.Anfragen,
		"toepfe":    c.Pages.Toepfe,
		"konflikte": c.Pages.Konflikte,
	} {
		if n <= 0 {
			return fmt.Errorf("config.pages.%s must be positive", name)
		}
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("config.log.format must be text or json")
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, FileName)
}

// GenerateDefault returns default config YAML.
func GenerateDefault(baseURL string) string {
	return fmt.Sprintf(defaultTemplate, baseURL)
}

// LoadOptional returns nil,nil if the config file does not exist. The file
// is parsed but not validated; overrides may still supply missing values.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return parse(data)
}

// Default returns the default Config.
func Default() *Config {
	cfg, _ := parse([]byte(fmt.Sprintf(defaultTemplate, "")))
	return cfg
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	cfg, err := parse(data)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

// parse decodes data over the defaults so omitted keys keep their values.
func parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.NewDecoder(bytes.NewBufferString(fmt.Sprintf(defaultTemplate, ""))).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("default config: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return &cfg, nil
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	return &cfg, nil
}

const defaultTemplate = `api:
  base_url: "%s"
  token: ""
  timeout: 30s

pages:
  slots: 12
  anfragen: 15
  toepfe: 12
  konflikte: 15

log:
  level: info
  format: text

serve:
  addr: 127.0.0.1:8787
  jwt_secret: ""
`
