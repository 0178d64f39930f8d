package config

import (
	"fmt"
	"strings"
)

type Config struct {
	Server   ServerConfig
	LLM      LLMConfig
	Storage  StorageConfig
	Pipeline PipelineConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port     int
	MCPPort  int
	APIToken string
}

type LLMConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type StorageConfig struct {
	DataDir string
}

type PipelineConfig struct {
	// WorkerPollMs is the job-queue poll interval in milliseconds.
	WorkerPollMs int
	// ExtraKeywords extends the quality-scoring lexicon, comma separated.
	// The built-in lexicon covers Swedish and English financial reports;
	// other locales add their terms here.
	ExtraKeywords string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:    4000,
			MCPPort: 4001,
		},
		LLM: LLMConfig{
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4o-mini",
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Pipeline: PipelineConfig{
			WorkerPollMs: 500,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the JSON config file at
// $XDG_CONFIG_HOME/reportreel/config.json, then applies REPORTREEL_*
// environment overrides. Secrets (the model API key, the API bearer token)
// are environment-only and never written to the file.
func Load() (Config, error) {
	return loadWith(newFileBackend())
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	return cfg, nil
}

// ValidateServer checks the settings the server cannot run without. Client
// commands load config without these so that e.g. `config show` works on a
// fresh machine.
func (c Config) ValidateServer() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("missing required config: model API key. " +
			"Set it via environment variable REPORTREEL_LLM_API_KEY")
	}
	if c.Server.APIToken == "" {
		return fmt.Errorf("missing required config: API bearer token. " +
			"Set it via environment variable REPORTREEL_API_TOKEN")
	}
	return nil
}

// ExtraKeywordList splits the configured lexicon extension into terms.
func (p PipelineConfig) ExtraKeywordList() []string {
	if p.ExtraKeywords == "" {
		return nil
	}
	var out []string
	for _, kw := range strings.Split(p.ExtraKeywords, ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}
