package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Logging       LoggingConfig       `yaml:"logging"`
	Database      DatabaseConfig      `yaml:"database"`
	OMDB          OMDBConfig          `yaml:"omdb"`
	OpenSubtitles OpenSubtitlesConfig `yaml:"opensubtitles"`
	SubDL         SubDLConfig         `yaml:"subdl"`
	LLM           LLMConfig           `yaml:"llm"`
	Acquisition   AcquisitionConfig   `yaml:"acquisition"`
	MetadataCache MetadataCacheConfig `yaml:"metadata_cache"`
}

type ServerConfig struct {
	HTTPPort    int `yaml:"http_port"`
	MetricsPort int `yaml:"metrics_port"` // 0 disables the metrics server
}

type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite or postgres
	Path   string `yaml:"path"`   // sqlite file
	URL    string `yaml:"url"`    // postgres connection URL
}

type OMDBConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

type OpenSubtitlesConfig struct {
	APIKey    string   `yaml:"api_key"`
	Username  string   `yaml:"username"`
	Password  string   `yaml:"password"`
	BaseURL   string   `yaml:"base_url"`
	Languages []string `yaml:"languages"` // preferred languages, in priority order
}

type SubDLConfig struct {
	APIKey      string `yaml:"api_key"`
	BaseURL     string `yaml:"base_url"`
	DownloadURL string `yaml:"download_url"`
}

type LLMConfig struct {
	APIKey         string  `yaml:"api_key"`
	BaseURL        string  `yaml:"base_url"`
	Model          string  `yaml:"model"`
	Temperature    float64 `yaml:"temperature"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
}

// AcquisitionConfig selects between live providers and the local fixture.
// When Offline is set, only the fixture file is read.
type AcquisitionConfig struct {
	Offline     bool   `yaml:"offline"`
	FixturePath string `yaml:"fixture_path"`
}

type MetadataCacheConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Path     string `yaml:"path"`
	TTLHours int    `yaml:"ttl_hours"`
}

// DefaultConfig returns configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:    8000,
			MetricsPort: 9464,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			Path:   "./data/cinesplit.db",
		},
		OMDB: OMDBConfig{
			BaseURL: "http://www.omdbapi.com/",
		},
		OpenSubtitles: OpenSubtitlesConfig{
			BaseURL:   "https://api.opensubtitles.com/api/v1",
			Languages: []string{"tr", "en"},
		},
		SubDL: SubDLConfig{
			BaseURL:     "https://api.subdl.com/api/v1",
			DownloadURL: "https://dl.subdl.com",
		},
		LLM: LLMConfig{
			BaseURL:        "https://generativelanguage.googleapis.com/v1beta/openai/",
			Model:          "gemini-2.5-flash",
			Temperature:    0.3,
			TimeoutSeconds: 180,
		},
		Acquisition: AcquisitionConfig{
			FixturePath: "./test.srt",
		},
		MetadataCache: MetadataCacheConfig{
			Enabled:  true,
			Path:     "./data/metadata",
			TTLHours: 168,
		},
	}
}

// Load reads configuration from a YAML file, then applies environment overrides
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv lets secrets live outside the config file.
func (c *Config) applyEnv() {
	setString(&c.OMDB.APIKey, "OMDB_API_KEY")
	setString(&c.OpenSubtitles.APIKey, "OPENSUBTITLES_API_KEY")
	setString(&c.OpenSubtitles.Username, "OPENSUBTITLES_USERNAME")
	setString(&c.OpenSubtitles.Password, "OPENSUBTITLES_PASSWORD")
	setString(&c.SubDL.APIKey, "SUBDL_API_KEY")
	setString(&c.LLM.APIKey, "GEMINI_API_KEY")
	setString(&c.LLM.APIKey, "LLM_API_KEY")
	setString(&c.Database.URL, "DATABASE_URL")

	if v, ok := os.LookupEnv("CINESPLIT_OFFLINE"); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			c.Acquisition.Offline = b
		}
	}
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// Validate normalizes and checks the configuration
func (c *Config) Validate() error {
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	switch c.Database.Driver {
	case "", "sqlite":
		c.Database.Driver = "sqlite"
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for sqlite")
		}
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("database.url is required for postgres")
		}
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}

	langs, err := NormalizeLanguages(c.OpenSubtitles.Languages)
	if err != nil {
		return err
	}
	if len(langs) == 0 {
		return fmt.Errorf("opensubtitles.languages must not be empty")
	}
	c.OpenSubtitles.Languages = langs

	if c.Acquisition.Offline && c.Acquisition.FixturePath == "" {
		return fmt.Errorf("acquisition.fixture_path is required in offline mode")
	}
	if c.LLM.TimeoutSeconds < 0 {
		return fmt.Errorf("llm.timeout_seconds must not be negative")
	}
	if c.MetadataCache.TTLHours < 0 {
		return fmt.Errorf("metadata_cache.ttl_hours must not be negative")
	}
	return nil
}

// NormalizeLanguages maps language tags to their ISO 639-1 base codes,
// dropping duplicates while keeping priority order.
func NormalizeLanguages(codes []string) ([]string, error) {
	out := make([]string, 0, len(codes))
	seen := make(map[string]bool, len(codes))
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		tag, err := language.Parse(code)
		if err != nil {
			return nil, fmt.Errorf("invalid language %q: %w", code, err)
		}
		base, _ := tag.Base()
		normalized := base.String()
		if seen[normalized] {
			continue
		}
		seen[normalized] = true
		out = append(out, normalized)
	}
	return out, nil
}

// EnsureDirectories creates required directories
func (c *Config) EnsureDirectories() error {
	var dirs []string
	if c.Database.Driver == "sqlite" {
		dirs = append(dirs, filepath.Dir(c.Database.Path))
	}
	if c.MetadataCache.Enabled && c.MetadataCache.Path != "" {
		dirs = append(dirs, c.MetadataCache.Path)
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	return nil
}
