package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config is the suite configuration shared by every scenario of a run.
type Config struct {
	BaseURL     string            `toml:"url" yaml:"url" validate:"required,url"`
	Browser     BrowserConfig     `toml:"browser" yaml:"browser"`
	Credentials CredentialsConfig `toml:"credentials" yaml:"credentials"`
	Checkout    CheckoutConfig    `toml:"checkout" yaml:"checkout"`
	Report      ReportConfig      `toml:"report" yaml:"report"`
	Logging     LoggingConfig     `toml:"logging" yaml:"logging"`
	Screenshot  ScreenshotConfig  `toml:"screenshot" yaml:"screenshot"`
	AI          AIConfig          `toml:"ai" yaml:"ai"`
	Suite       SuiteConfig       `toml:"suite" yaml:"suite"`
}

type BrowserConfig struct {
	Name     string `toml:"name" yaml:"name" validate:"required,oneof=chrome edge chromium firefox webkit"`
	Headless bool   `toml:"headless" yaml:"headless"`
	ExecPath string `toml:"exec_path" yaml:"exec_path"` // optional binary, used for edge
	Timeout  string `toml:"timeout" yaml:"timeout"`     // per-operation timeout, e.g. "10s"
}

// CredentialsConfig holds the demo shop accounts keyed by role
// ("standard-user", "locked-out-user", ...).
type CredentialsConfig struct {
	Users    map[string]string `toml:"users" yaml:"users"`
	Password string            `toml:"password" yaml:"password"`
}

type CheckoutConfig struct {
	FirstName string `toml:"first_name" yaml:"first_name"`
	LastName  string `toml:"last_name" yaml:"last_name"`
	Zip       string `toml:"zip" yaml:"zip"`
}

type ReportConfig struct {
	Path  string `toml:"path" yaml:"path" validate:"required"`
	Title string `toml:"title" yaml:"title"`
}

type LoggingConfig struct {
	Level    string `toml:"level" yaml:"level" validate:"oneof=debug info warn error"`
	JSONFile string `toml:"json_file" yaml:"json_file"`
}

type ScreenshotConfig struct {
	Quality   int `toml:"quality" yaml:"quality" validate:"min=0,max=100"`
	MaxWidth  int `toml:"max_width" yaml:"max_width" validate:"min=0"`
	MaxHeight int `toml:"max_height" yaml:"max_height" validate:"min=0"`
}

// AIConfig configures the failure summarizer.
type AIConfig struct {
	Enabled               bool   `toml:"enabled" yaml:"enabled"`
	Provider              string `toml:"provider" yaml:"provider" validate:"oneof=gemini openai"`
	Model                 string `toml:"model" yaml:"model"`
	APIKey                string `toml:"api_key" yaml:"api_key"`
	BaseURL               string `toml:"base_url" yaml:"base_url"`
	Timeout               string `toml:"timeout" yaml:"timeout"`
	SystemInstructionPath string `toml:"system_instruction" yaml:"system_instruction"`
	GenerationConfigPath  string `toml:"generation_config" yaml:"generation_config"`
}

type SuiteConfig struct {
	Paths       []string `toml:"paths" yaml:"paths"`
	Tags        string   `toml:"tags" yaml:"tags"`
	Concurrency int      `toml:"concurrency" yaml:"concurrency" validate:"min=0"`
	Format      string   `toml:"format" yaml:"format"`
}

const (
	DefaultGeminiModel = "gemini-2.5-flash"
	DefaultOpenAIModel = "gpt-4o"
)

func NewDefaultConfig() *Config {
	return &Config{
		BaseURL: "https://www.saucedemo.com/",
		Browser: BrowserConfig{
			Name:    "chrome",
			Timeout: "10s",
		},
		Credentials: CredentialsConfig{
			Users: map[string]string{
				"standard-user":   "standard_user",
				"locked-out-user": "locked_out_user",
			},
			Password: "secret_sauce",
		},
		Checkout: CheckoutConfig{
			FirstName: "Jane",
			LastName:  "Doe",
			Zip:       "10001",
		},
		Report: ReportConfig{
			Path:  filepath.Join("Reports", "Report.html"),
			Title: "Demo shop BDD report",
		},
		Logging: LoggingConfig{
			Level:    "info",
			JSONFile: filepath.Join("Reports", "log.json"),
		},
		Screenshot: ScreenshotConfig{
			Quality: 30,
		},
		AI: AIConfig{
			Enabled:               true,
			Provider:              "gemini",
			Timeout:               "90s",
			SystemInstructionPath: filepath.Join("resources", "system_instruction.txt"),
			GenerationConfigPath:  filepath.Join("resources", "generation_config.json"),
		},
		Suite: SuiteConfig{
			Paths:       []string{"features"},
			Concurrency: 2,
			Format:      "progress",
		},
	}
}

// Load reads defaults, then the file at path (if any), then environment
// overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := NewDefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := decode(path, data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	case ".toml", "":
		return toml.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BDD_BROWSER"); v != "" {
		cfg.Browser.Name = strings.ToLower(v)
	}
	if v := os.Getenv("BDD_HEADLESS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Browser.Headless = b
		}
	}
	if v := os.Getenv("BDD_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("BDD_REPORT_PATH"); v != "" {
		cfg.Report.Path = v
	}
	if v := os.Getenv("BDD_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("BDD_CONCURRENCY"); v != "" {
		if c, err := strconv.Atoi(v); err == nil {
			cfg.Suite.Concurrency = c
		}
	}
	if v := os.Getenv("BDD_AI_PROVIDER"); v != "" {
		cfg.AI.Provider = strings.ToLower(v)
	}
	if v := os.Getenv("BDD_AI_MODEL"); v != "" {
		cfg.AI.Model = v
	}

	if cfg.AI.APIKey == "" {
		switch cfg.AI.Provider {
		case "openai":
			cfg.AI.APIKey = os.Getenv("OPENAI_API_KEY")
		default:
			cfg.AI.APIKey = os.Getenv("GEMINI_API_KEY")
		}
	}
}

// Validate checks struct constraints and duration strings.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := parseDuration(c.Browser.Timeout); err != nil {
		return fmt.Errorf("invalid browser.timeout %q: %w", c.Browser.Timeout, err)
	}
	if _, err := parseDuration(c.AI.Timeout); err != nil {
		return fmt.Errorf("invalid ai.timeout %q: %w", c.AI.Timeout, err)
	}
	return nil
}

func (c *Config) OperationTimeout() time.Duration {
	d, _ := parseDuration(c.Browser.Timeout)
	if d == 0 {
		return 10 * time.Second
	}
	return d
}

func (c *Config) AITimeout() time.Duration {
	d, _ := parseDuration(c.AI.Timeout)
	if d == 0 {
		return 90 * time.Second
	}
	return d
}

// Username returns the account configured for role.
func (c *Config) Username(role string) (string, error) {
	u, ok := c.Credentials.Users[role]
	if !ok || u == "" {
		return "", fmt.Errorf("no username configured for %q", role)
	}
	return u, nil
}

// ModelOrDefault returns the configured model or the provider default.
func (a AIConfig) ModelOrDefault() string {
	if a.Model != "" {
		return a.Model
	}
	if a.Provider == "openai" {
		return DefaultOpenAIModel
	}
	return DefaultGeminiModel
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
