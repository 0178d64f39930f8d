package config

import (
	"strings"
	"testing"
)

// mapBackend is an in-memory ConfigBackend for tests.
type mapBackend struct {
	data map[string]any
}

func (b *mapBackend) GetString(key string) (string, bool, error) {
	v, ok := b.data[key]
	if !ok {
		return "", false, nil
	}
	return v.(string), true, nil
}

func (b *mapBackend) GetInt(key string) (int, bool, error) {
	v, ok := b.data[key]
	if !ok {
		return 0, false, nil
	}
	return v.(int), true, nil
}

func (b *mapBackend) SetString(key, val string) error { b.data[key] = val; return nil }
func (b *mapBackend) SetInt(key string, val int) error { b.data[key] = val; return nil }
func (b *mapBackend) Delete(key string) error          { delete(b.data, key); return nil }

func emptyBackend() *mapBackend { return &mapBackend{data: make(map[string]any)} }

func TestDefaults(t *testing.T) {
	cfg, err := loadWith(emptyBackend())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 4000 {
		t.Errorf("Server.Port = %d, want 4000", cfg.Server.Port)
	}
	if cfg.Server.MCPPort != 4001 {
		t.Errorf("Server.MCPPort = %d, want 4001", cfg.Server.MCPPort)
	}
	if cfg.LLM.BaseURL != "https://api.openai.com/v1" {
		t.Errorf("LLM.BaseURL = %q", cfg.LLM.BaseURL)
	}
	if cfg.LLM.Model != "gpt-4o-mini" {
		t.Errorf("LLM.Model = %q", cfg.LLM.Model)
	}
	if cfg.Pipeline.WorkerPollMs != 500 {
		t.Errorf("Pipeline.WorkerPollMs = %d, want 500", cfg.Pipeline.WorkerPollMs)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
}

func TestBackendValuesApplied(t *testing.T) {
	b := emptyBackend()
	b.data["server.port"] = 5000
	b.data["llm.model"] = "gpt-4o"
	b.data["pipeline.extra_keywords"] = "umsatz, ergebnis"

	cfg, err := loadWith(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 5000 {
		t.Errorf("Server.Port = %d, want 5000", cfg.Server.Port)
	}
	if cfg.LLM.Model != "gpt-4o" {
		t.Errorf("LLM.Model = %q, want gpt-4o", cfg.LLM.Model)
	}
	if got := cfg.Pipeline.ExtraKeywordList(); len(got) != 2 || got[0] != "umsatz" || got[1] != "ergebnis" {
		t.Errorf("ExtraKeywordList = %v", got)
	}
}

func TestEnvOverridesBackend(t *testing.T) {
	t.Setenv("REPORTREEL_LLM_API_KEY", "test-key")
	t.Setenv("REPORTREEL_SERVER_PORT", "6000")

	b := emptyBackend()
	b.data["server.port"] = 5000

	cfg, err := loadWith(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 6000 {
		t.Errorf("Server.Port = %d, want 6000 (env wins)", cfg.Server.Port)
	}
}

func TestValidateServer(t *testing.T) {
	var cfg Config
	err := cfg.ValidateServer()
	if err == nil {
		t.Fatal("expected error for missing API key, got nil")
	}
	if !strings.Contains(err.Error(), "REPORTREEL_LLM_API_KEY") {
		t.Errorf("error = %q, want it to name the missing key", err)
	}

	cfg.LLM.APIKey = "sk-test"
	err = cfg.ValidateServer()
	if err == nil || !strings.Contains(err.Error(), "REPORTREEL_API_TOKEN") {
		t.Errorf("error = %v, want missing token error", err)
	}

	cfg.Server.APIToken = "tok"
	if err := cfg.ValidateServer(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestSecretsExcludedFromShowAll(t *testing.T) {
	cfg := Config{}
	cfg.LLM.APIKey = "sk-secret"
	cfg.Server.APIToken = "tok-secret"

	for _, info := range ShowAll(cfg) {
		if strings.Contains(info.Value, "secret") {
			t.Errorf("secret leaked via ShowAll: %+v", info)
		}
	}
	for _, key := range ValidKeys() {
		if key == "llm.api_key" || key == "server.api_token" {
			t.Errorf("secret key %q listed as settable", key)
		}
	}
}
