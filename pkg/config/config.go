package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// Tool keys used in the tools section.
const (
	ToolCppCheck   = "cppcheck"
	ToolFlawFinder = "flawfinder"
	ToolRats       = "rats"
	ToolInfer      = "infer"
)

// ToolConfig controls one external analyzer.
type ToolConfig struct {
	Disabled bool          `yaml:"disabled"`
	Binary   string        `yaml:"binary"`
	Timeout  time.Duration `yaml:"timeout"`
	// Compiler is only used by infer, which analyses a compilation.
	Compiler string `yaml:"compiler,omitempty"`
}

type ProviderConfig struct {
	APIKey string `yaml:"api_key"`
}

// ClassifierConfig selects how source languages are guessed.
type ClassifierConfig struct {
	// ApplyGuesslang asks an LLM for the language instead of trusting the
	// file extension.
	ApplyGuesslang bool   `yaml:"apply_guesslang"`
	Provider       string `yaml:"provider"`
	Model          string `yaml:"model"`
}

type ScanConfig struct {
	Workers int  `yaml:"workers"`
	COnly   bool `yaml:"c_only"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
	// Root confines scan requests to paths below it.
	Root string `yaml:"root"`
	// MaxResults bounds how many scan responses stay retrievable by id.
	MaxResults int `yaml:"max_results"`
}

type Config struct {
	Tools      map[string]ToolConfig     `yaml:"tools"`
	Classifier ClassifierConfig          `yaml:"classifier"`
	Providers  map[string]ProviderConfig `yaml:"providers"`
	Scan       ScanConfig                `yaml:"scan"`
	Server     ServerConfig              `yaml:"server"`
}

var defaultTools = map[string]ToolConfig{
	ToolCppCheck:   {Binary: "cppcheck", Timeout: 2 * time.Second},
	ToolFlawFinder: {Binary: "flawfinder", Timeout: 60 * time.Second},
	ToolRats:       {Binary: "rats", Timeout: 60 * time.Second},
	ToolInfer:      {Binary: "infer", Timeout: 120 * time.Second, Compiler: "gcc", Disabled: true},
}

// ToolNames lists the known tools in merge order.
var ToolNames = []string{ToolFlawFinder, ToolCppCheck, ToolRats, ToolInfer}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{
		Tools: make(map[string]ToolConfig, len(defaultTools)),
		Classifier: ClassifierConfig{
			Provider: "gemini",
			Model:    "gemini-1.5-flash",
		},
		Providers: make(map[string]ProviderConfig),
		Scan:      ScanConfig{Workers: 4, COnly: true},
		Server:    ServerConfig{Addr: ":8000", Root: ".", MaxResults: 256},
	}
	for name, t := range defaultTools {
		cfg.Tools[name] = t
	}
	return cfg
}

func GetConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	configDir := filepath.Join(home, ".secmerge")
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.yaml"), nil
}

// LoadConfig reads path, or the default location when path is empty. A
// missing file yields Default().
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML on top of the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.fill()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// 0600 permissions, the file may hold api keys
	return os.WriteFile(path, data, 0600)
}

// fill restores defaults for fields a partial tools entry left empty.
func (c *Config) fill() {
	if c.Tools == nil {
		c.Tools = make(map[string]ToolConfig)
	}
	for name, def := range defaultTools {
		t, ok := c.Tools[name]
		if !ok {
			c.Tools[name] = def
			continue
		}
		if t.Binary == "" {
			t.Binary = def.Binary
		}
		if t.Timeout == 0 {
			t.Timeout = def.Timeout
		}
		if t.Compiler == "" {
			t.Compiler = def.Compiler
		}
		c.Tools[name] = t
	}
	if c.Providers == nil {
		c.Providers = make(map[string]ProviderConfig)
	}
	if c.Scan.Workers == 0 {
		c.Scan.Workers = 1
	}
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	names := make([]string, 0, len(c.Tools))
	for name := range c.Tools {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, known := defaultTools[name]; !known {
			return fmt.Errorf("config: unknown tool %q", name)
		}
		if c.Tools[name].Timeout <= 0 {
			return fmt.Errorf("config: tools.%s.timeout must be positive, got %s", name, c.Tools[name].Timeout)
		}
	}
	if c.Scan.Workers < 1 {
		return fmt.Errorf("config: scan.workers must be at least 1, got %d", c.Scan.Workers)
	}
	return nil
}

// Enabled returns the enabled tools in merge order.
func (c *Config) Enabled() []string {
	var out []string
	for _, name := range ToolNames {
		if t, ok := c.Tools[name]; ok && !t.Disabled {
			out = append(out, name)
		}
	}
	return out
}

func (c *Config) SetAPIKey(provider, key string) {
	p := c.Providers[provider]
	p.APIKey = key
	c.Providers[provider] = p
}

func (c *Config) GetAPIKey(provider string) string {
	return c.Providers[provider].APIKey
}
