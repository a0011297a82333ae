package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config is the persisted user configuration: which execution path free text
// routes to by default, stamped whenever it changes.
type Config struct {
	DefaultModel string `json:"defaultModel"`
	LastUpdated  string `json:"lastUpdated"`
}

// KnownModels are the accepted values for DefaultModel.
var KnownModels = []string{"claude", "gemini", "local"}

// Paths resolves every file the assistant persists under the per-user base
// directory (default ~/.c9ai).
type Paths struct {
	BaseDir     string
	ConfigFile  string
	LogsDir     string
	ModelsDir   string
	ToolsFile   string
	AppMapFile  string
	HistoryFile string
	SessionsDB  string
}

// ResolvePaths builds Paths from a base directory; empty selects ~/.c9ai.
func ResolvePaths(baseDir string) (Paths, error) {
	baseDir = strings.TrimSpace(baseDir)
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, fmt.Errorf("resolve home dir: %w", err)
		}
		baseDir = filepath.Join(home, ".c9ai")
	}
	return Paths{
		BaseDir:     baseDir,
		ConfigFile:  filepath.Join(baseDir, "config.json"),
		LogsDir:     filepath.Join(baseDir, "logs"),
		ModelsDir:   filepath.Join(baseDir, "models"),
		ToolsFile:   filepath.Join(baseDir, "tools.json"),
		AppMapFile:  filepath.Join(baseDir, "app_mappings.json"),
		HistoryFile: filepath.Join(baseDir, "repl.history"),
		SessionsDB:  filepath.Join(baseDir, "sessions.db"),
	}, nil
}

func Default() Config {
	return Config{DefaultModel: "claude"}
}

// Load reads the config file, merging over defaults. A missing file is not
// an error. C9AI_MODEL overrides the default model for the process.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("read config %q: %w", path, err)
		}
	} else {
		var fileCfg Config
		if err := json.Unmarshal(data, &fileCfg); err != nil {
			return Config{}, fmt.Errorf("parse config %q: %w", path, err)
		}
		if strings.TrimSpace(fileCfg.DefaultModel) != "" {
			cfg.DefaultModel = fileCfg.DefaultModel
		}
		cfg.LastUpdated = fileCfg.LastUpdated
	}

	if env := strings.TrimSpace(os.Getenv("C9AI_MODEL")); env != "" {
		cfg.DefaultModel = env
	}
	if !IsKnownModel(cfg.DefaultModel) {
		return Config{}, fmt.Errorf("unknown default model %q (want one of %s)",
			cfg.DefaultModel, strings.Join(KnownModels, ", "))
	}
	cfg.DefaultModel = strings.ToLower(strings.TrimSpace(cfg.DefaultModel))
	return cfg, nil
}

// Save rewrites the config file wholesale, refreshing LastUpdated.
func Save(path string, cfg Config) error {
	if !IsKnownModel(cfg.DefaultModel) {
		return fmt.Errorf("unknown default model %q", cfg.DefaultModel)
	}
	cfg.DefaultModel = strings.ToLower(strings.TrimSpace(cfg.DefaultModel))
	cfg.LastUpdated = time.Now().UTC().Format(time.RFC3339)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write config %q: %w", path, err)
	}
	return nil
}

func IsKnownModel(model string) bool {
	for _, m := range KnownModels {
		if strings.EqualFold(strings.TrimSpace(model), m) {
			return true
		}
	}
	return false
}
