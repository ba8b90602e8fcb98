package common

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	if config.Server.Port != 8080 {
		t.Errorf("default port = %d, want 8080", config.Server.Port)
	}
	if config.LLM.DefaultProvider != LLMProviderGemini {
		t.Errorf("default provider = %s, want gemini", config.LLM.DefaultProvider)
	}
	if config.Reviewer.RelevanceThreshold != 0.3 {
		t.Errorf("relevance threshold = %v, want 0.3", config.Reviewer.RelevanceThreshold)
	}
	sum := config.Reviewer.TopicWeight + config.Reviewer.TermWeight + config.Reviewer.ClaimWeight
	if sum < 0.999 || sum > 1.001 {
		t.Errorf("relevance weights sum = %v, want 1.0", sum)
	}
	if !config.Search.Enabled {
		t.Error("search should be enabled by default")
	}
	if config.Scheduler.Enabled {
		t.Error("scheduler should be disabled by default")
	}
}

func TestLoadFromFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lector.toml")
	content := `
[server]
port = 9090

[reviewer]
max_references = 8
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	config, err := LoadFromFiles(path)
	if err != nil {
		t.Fatalf("LoadFromFiles() error: %v", err)
	}

	if config.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090 from file", config.Server.Port)
	}
	if config.Reviewer.MaxReferences != 8 {
		t.Errorf("max references = %d, want 8 from file", config.Reviewer.MaxReferences)
	}
	// Untouched sections keep defaults
	if config.Storage.Badger.Path != "./data" {
		t.Errorf("badger path = %s, want default", config.Storage.Badger.Path)
	}
}

func TestLoadFromFilesMissingFile(t *testing.T) {
	_, err := LoadFromFiles("/nonexistent/lector.toml")
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	config := NewDefaultConfig()

	ApplyFlagOverrides(config, 3000, "0.0.0.0")
	if config.Server.Port != 3000 {
		t.Errorf("port = %d, want 3000", config.Server.Port)
	}
	if config.Server.Host != "0.0.0.0" {
		t.Errorf("host = %s, want 0.0.0.0", config.Server.Host)
	}

	// Zero values leave config untouched
	ApplyFlagOverrides(config, 0, "")
	if config.Server.Port != 3000 || config.Server.Host != "0.0.0.0" {
		t.Error("zero flag values must not override config")
	}
}

func TestValidateSchedule(t *testing.T) {
	if err := ValidateSchedule("0 3 * * *"); err != nil {
		t.Errorf("valid schedule rejected: %v", err)
	}
	if err := ValidateSchedule("not a schedule"); err == nil {
		t.Error("invalid schedule accepted")
	}
}
