// Package config loads romctl configuration.
//
// Configuration comes from a single YAML file named by the --config flag
// or the ROMKIT_CONFIG environment variable. With neither set the defaults
// apply. Unknown keys are errors.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/joshuapare/romkit/internal/logger"
	"github.com/joshuapare/romkit/rom/backup"
)

// EnvVar names the environment variable holding the config path.
const EnvVar = "ROMKIT_CONFIG"

// Config is the romctl configuration.
type Config struct {
	// Catalog configures the discovery catalog file.
	Catalog CatalogConfig `yaml:"catalog"`

	// Backup configures the backup store.
	Backup BackupConfig `yaml:"backup"`

	// Transaction configures write transactions.
	Transaction TransactionConfig `yaml:"transaction"`

	// Log configures diagnostic logging.
	Log LogConfig `yaml:"log"`

	// Regions is an optional JSONC region map replacing the default
	// regions for every image.
	Regions string `yaml:"regions,omitempty"`
}

// CatalogConfig locates the catalog.
type CatalogConfig struct {
	// Path is the catalog JSON file. Default: romkit-catalog.json
	Path string `yaml:"path"`
}

// BackupConfig configures where and how backups are stored.
type BackupConfig struct {
	// Dir holds the <id>.bak files. Default: .romkit/backups
	Dir string `yaml:"dir"`

	// Compression is "zstd", "lz4" or "none". Default: zstd
	Compression string `yaml:"compression"`
}

// TransactionConfig configures the transaction coordinator.
type TransactionConfig struct {
	// ChecksumOnCommit recomputes the header checksum on every commit.
	// Default: true
	ChecksumOnCommit bool `yaml:"checksum_on_commit"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn or error
	Format string `yaml:"format"` // text or json
	Dir    string `yaml:"dir,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Catalog: CatalogConfig{Path: "romkit-catalog.json"},
		Backup: BackupConfig{
			Dir:         filepath.Join(".romkit", "backups"),
			Compression: string(backup.CompressionZstd),
		},
		Transaction: TransactionConfig{ChecksumOnCommit: true},
		Log:         LogConfig{Level: "warn", Format: "text"},
	}
}

// Load resolves the config path (path, then ROMKIT_CONFIG) and loads it.
// With no path at all it returns Default.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvVar)
	}
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile loads the YAML file at path over the defaults, expands ${VAR}
// references in paths, and validates the result.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := cfg.decode(data); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.expandVariables()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} from the environment.
func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if v := os.Getenv(parts[1]); v != "" {
			return v
		}
		return parts[2]
	})
}

func (c *Config) expandVariables() {
	c.Catalog.Path = expandVars(c.Catalog.Path)
	c.Backup.Dir = expandVars(c.Backup.Dir)
	c.Log.Dir = expandVars(c.Log.Dir)
	c.Regions = expandVars(c.Regions)
}

// Validate checks the configuration for errors, reporting all of them.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Catalog.Path) == "" {
		errs = append(errs, errors.New("catalog.path is required"))
	}
	if strings.TrimSpace(c.Backup.Dir) == "" {
		errs = append(errs, errors.New("backup.dir is required"))
	}
	if _, err := backup.ParseCompression(c.Backup.Compression); err != nil {
		errs = append(errs, fmt.Errorf("backup.compression: %w", err))
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// Compression returns the parsed backup compression.
func (c *Config) Compression() backup.Compression {
	comp, _ := backup.ParseCompression(c.Backup.Compression)
	return comp
}

// LoggerOptions converts the log section, writing to w unless a log
// directory is configured.
func (c *Config) LoggerOptions(w io.Writer) (logger.Options, error) {
	level, err := logger.ParseLevel(c.Log.Level)
	if err != nil {
		return logger.Options{}, err
	}
	return logger.Options{Level: level, Format: c.Log.Format, Writer: w, LogDir: c.Log.Dir}, nil
}
