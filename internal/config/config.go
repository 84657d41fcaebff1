package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/odysseus0/feedline/internal/model"
)

const (
	defaultPollSeconds    = 60
	defaultHTTPTimeoutSec = 20
	maxHeadlineLimit      = 200
)

const (
	defaultUserAgent  = "feedline/0.1"
	configFolderName  = "feedline"
	configFileName    = "config.toml"
	localConfigName   = "feedline.toml"
	configPathEnvName = "XDG_CONFIG_HOME"
)

var ErrMissingCredential = errors.New("missing credential")

type Config struct {
	URL          string
	User         string
	Password     string
	PollInterval time.Duration
	HTTPTimeout  time.Duration
	StatePath    string
	OpenCommand  string
	Limit        int
	UserAgent    string

	// Path is the config file that was read, empty when none was found.
	Path string
}

// Overrides carries command-line values, which win over env and file.
type Overrides struct {
	URL      string
	User     string
	Password string
}

func LoadConfig() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		PollInterval: defaultPollSeconds * time.Second,
		HTTPTimeout:  defaultHTTPTimeoutSec * time.Second,
		StatePath:    filepath.Join(home, ".local", "share", "feedline", "state.db"),
		Limit:        model.DefaultHeadlineLimit,
		UserAgent:    defaultUserAgent,
	}

	configPath, hasConfig, err := findConfigPath(home)
	if err != nil {
		return Config{}, err
	}
	if hasConfig {
		fileCfg, err := loadFileConfig(configPath)
		if err != nil {
			return Config{}, err
		}
		applyFileConfig(&cfg, fileCfg, home)
		cfg.Path = configPath
	}

	applyEnvOverrides(&cfg, home)
	return cfg, nil
}

// Credentials resolves the connection triple with precedence
// flags > env > file. Any value still empty is an error.
func (c Config) Credentials(o Overrides) (model.Credentials, error) {
	creds := model.Credentials{
		Endpoint: strings.TrimSpace(firstNonEmpty(o.URL, c.URL)),
		User:     strings.TrimSpace(firstNonEmpty(o.User, c.User)),
		Password: firstNonEmpty(o.Password, c.Password),
	}
	var missing []string
	if creds.Endpoint == "" {
		missing = append(missing, "url (--url, FEEDLINE_URL)")
	}
	if creds.User == "" {
		missing = append(missing, "user (--user, FEEDLINE_USER)")
	}
	if creds.Password == "" {
		missing = append(missing, "password (--password, FEEDLINE_PASSWORD)")
	}
	if len(missing) > 0 {
		return model.Credentials{}, fmt.Errorf("%w: %s", ErrMissingCredential, strings.Join(missing, ", "))
	}
	return creds, nil
}

type fileConfig struct {
	URL                 *string `toml:"url"`
	User                *string `toml:"user"`
	Password            *string `toml:"password"`
	PollIntervalSeconds *int    `toml:"poll_interval_seconds"`
	HTTPTimeoutSeconds  *int    `toml:"http_timeout_seconds"`
	StatePath           *string `toml:"state_path"`
	OpenCommand         *string `toml:"open_command"`
	Limit               *int    `toml:"limit"`
	UserAgent           *string `toml:"user_agent"`
}

func findConfigPath(home string) (string, bool, error) {
	candidates := make([]string, 0, 3)
	if xdgConfigHome := strings.TrimSpace(os.Getenv(configPathEnvName)); xdgConfigHome != "" {
		candidates = append(candidates, filepath.Join(xdgConfigHome, configFolderName, configFileName))
	}
	candidates = append(candidates,
		filepath.Join(home, ".config", configFolderName, configFileName),
		localConfigName,
	)

	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err == nil {
			if info.IsDir() {
				return "", false, fmt.Errorf("config path %q is a directory; expected a file", candidate)
			}
			return candidate, true, nil
		}
		if os.IsNotExist(err) {
			continue
		}
		return "", false, fmt.Errorf("failed to read config path %q: %w", candidate, err)
	}
	return "", false, nil
}

func loadFileConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return fileConfig{}, fmt.Errorf("invalid config file %q: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		unknown := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			unknown = append(unknown, key.String())
		}
		sort.Strings(unknown)
		return fileConfig{}, fmt.Errorf("invalid config file %q: unknown key(s): %s", path, strings.Join(unknown, ", "))
	}
	if err := validateFileConfig(path, cfg); err != nil {
		return fileConfig{}, err
	}
	return cfg, nil
}

func validateFileConfig(path string, cfg fileConfig) error {
	if cfg.URL != nil && strings.TrimSpace(*cfg.URL) == "" {
		return fmt.Errorf("invalid config file %q: url must be non-empty when provided", path)
	}
	if cfg.StatePath != nil && strings.TrimSpace(*cfg.StatePath) == "" {
		return fmt.Errorf("invalid config file %q: state_path must be non-empty when provided", path)
	}
	if cfg.PollIntervalSeconds != nil && *cfg.PollIntervalSeconds <= 0 {
		return fmt.Errorf("invalid config file %q: poll_interval_seconds must be > 0", path)
	}
	if cfg.HTTPTimeoutSeconds != nil && *cfg.HTTPTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid config file %q: http_timeout_seconds must be > 0", path)
	}
	if cfg.Limit != nil && (*cfg.Limit < 1 || *cfg.Limit > maxHeadlineLimit) {
		return fmt.Errorf("invalid config file %q: limit must be between 1 and %d", path, maxHeadlineLimit)
	}
	return nil
}

func applyFileConfig(cfg *Config, fileCfg fileConfig, home string) {
	if fileCfg.URL != nil {
		cfg.URL = strings.TrimSpace(*fileCfg.URL)
	}
	if fileCfg.User != nil {
		cfg.User = strings.TrimSpace(*fileCfg.User)
	}
	if fileCfg.Password != nil {
		cfg.Password = *fileCfg.Password
	}
	if fileCfg.PollIntervalSeconds != nil {
		cfg.PollInterval = time.Duration(*fileCfg.PollIntervalSeconds) * time.Second
	}
	if fileCfg.HTTPTimeoutSeconds != nil {
		cfg.HTTPTimeout = time.Duration(*fileCfg.HTTPTimeoutSeconds) * time.Second
	}
	if fileCfg.StatePath != nil {
		cfg.StatePath = expandHome(*fileCfg.StatePath, home)
	}
	if fileCfg.OpenCommand != nil {
		cfg.OpenCommand = strings.TrimSpace(*fileCfg.OpenCommand)
	}
	if fileCfg.Limit != nil {
		cfg.Limit = *fileCfg.Limit
	}
	if fileCfg.UserAgent != nil && strings.TrimSpace(*fileCfg.UserAgent) != "" {
		cfg.UserAgent = strings.TrimSpace(*fileCfg.UserAgent)
	}
}

// Invalid numeric env values are ignored and the previous value kept.
func applyEnvOverrides(cfg *Config, home string) {
	if v, ok := os.LookupEnv("FEEDLINE_URL"); ok && v != "" {
		cfg.URL = strings.TrimSpace(v)
	}
	if v, ok := os.LookupEnv("FEEDLINE_USER"); ok && v != "" {
		cfg.User = strings.TrimSpace(v)
	}
	if v, ok := os.LookupEnv("FEEDLINE_PASSWORD"); ok && v != "" {
		cfg.Password = v
	}
	if v, ok := os.LookupEnv("FEEDLINE_POLL_SECONDS"); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.PollInterval = time.Duration(n) * time.Second
		}
	}
	if v, ok := os.LookupEnv("FEEDLINE_HTTP_TIMEOUT_SECONDS"); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HTTPTimeout = time.Duration(n) * time.Second
		}
	}
	if v, ok := os.LookupEnv("FEEDLINE_STATE_PATH"); ok && v != "" {
		cfg.StatePath = expandHome(v, home)
	}
	if v, ok := os.LookupEnv("FEEDLINE_OPEN_COMMAND"); ok && v != "" {
		cfg.OpenCommand = strings.TrimSpace(v)
	}
	if v, ok := os.LookupEnv("FEEDLINE_LIMIT"); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 && n <= maxHeadlineLimit {
			cfg.Limit = n
		}
	}
	if v, ok := os.LookupEnv("FEEDLINE_USER_AGENT"); ok && v != "" {
		cfg.UserAgent = v
	}
}

func expandHome(path, home string) string {
	path = strings.TrimSpace(path)
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
