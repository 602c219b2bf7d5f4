package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/user/gosec-auditlog/pkg/engine"
)

// LogConfig controls the application logger
type LogConfig struct {
	Level      string `yaml:"level"`  // debug, info, warn, error
	Format     string `yaml:"format"` // text or json
	Output     string `yaml:"output"` // stdout, stderr or file
	FilePath   string `yaml:"file_path"`
	MaxSize    int    `yaml:"max_size"` // MB
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"` // days
	Compress   bool   `yaml:"compress"`
	Caller     bool   `yaml:"caller"`
}

// ExtractionConfig holds the defaults handed to every extraction run
type ExtractionConfig struct {
	Schema         string   `yaml:"schema"`
	MaxFieldLength int      `yaml:"max_field_length"`
	MachineID      string   `yaml:"machine_id"`
	Extensions     []string `yaml:"extensions"`
	Workers        int      `yaml:"workers"`
	BOM            bool     `yaml:"bom"`
	TemplatesDir   string   `yaml:"templates_dir"`
}

type Config struct {
	Extraction ExtractionConfig `yaml:"extraction"`
	Log        LogConfig        `yaml:"log"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Extraction: ExtractionConfig{
			Schema:         string(engine.SchemaBasic),
			MaxFieldLength: engine.DefaultMaxFieldLength,
			MachineID:      engine.DefaultMachineID,
			Extensions:     []string{".txt", ".log", ".dat"},
			Workers:        1,
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			Output:     "stderr",
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
		},
	}
}

func GetConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".gosec-auditlog", "config.yaml"), nil
}

// LoadConfig reads path, or the default location when path is empty.
// A missing file yields the defaults. Values absent from the file keep
// their default.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to path, or the default location when path is empty.
func SaveConfig(cfg *Config, path string) error {
	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func (c *Config) Validate() error {
	if _, err := engine.ParseSchema(c.Extraction.Schema); err != nil {
		return err
	}
	if c.Extraction.MaxFieldLength < 0 {
		return fmt.Errorf("max_field_length must not be negative")
	}
	if c.Extraction.Workers < 0 {
		return fmt.Errorf("workers must not be negative")
	}
	if len(c.Extraction.Extensions) == 0 {
		return fmt.Errorf("at least one extension is required")
	}
	return nil
}

// Set assigns a dotted key such as "extraction.schema" from its string form.
func (c *Config) Set(key, value string) error {
	switch strings.ToLower(key) {
	case "extraction.schema":
		s, err := engine.ParseSchema(value)
		if err != nil {
			return err
		}
		c.Extraction.Schema = string(s)
	case "extraction.max_field_length":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid max_field_length: %s", value)
		}
		c.Extraction.MaxFieldLength = n
	case "extraction.machine_id":
		c.Extraction.MachineID = value
	case "extraction.extensions":
		c.Extraction.Extensions = ParseExtensions(value)
		if len(c.Extraction.Extensions) == 0 {
			return fmt.Errorf("at least one extension is required")
		}
	case "extraction.workers":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid workers: %s", value)
		}
		c.Extraction.Workers = n
	case "extraction.bom":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid bom: %s", value)
		}
		c.Extraction.BOM = b
	case "extraction.templates_dir":
		c.Extraction.TemplatesDir = value
	case "log.level":
		c.Log.Level = value
	case "log.format":
		c.Log.Format = value
	case "log.output":
		c.Log.Output = value
	case "log.file_path":
		c.Log.FilePath = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

// ParseExtensions splits "txt, .log" into [".txt" ".log"].
func ParseExtensions(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		if !strings.HasPrefix(part, ".") {
			part = "." + part
		}
		out = append(out, part)
	}
	return out
}
