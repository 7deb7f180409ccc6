package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Engine.CacheSize != 4096 {
		t.Errorf("Engine.CacheSize = %d, want 4096", cfg.Engine.CacheSize)
	}
	if got := cfg.Engine.RegexTimeout(); got != time.Second {
		t.Errorf("Engine.RegexTimeout() = %v, want 1s", got)
	}
	if cfg.Grid.Concurrency != 8 {
		t.Errorf("Grid.Concurrency = %d, want 8", cfg.Grid.Concurrency)
	}
	if cfg.Server.Watch {
		t.Error("Server.Watch should be false by default")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
	if errs := cfg.Validate(); len(errs) != 0 {
		t.Errorf("Default().Validate() = %v, want no errors", errs)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Engine.CacheSize = -1
	cfg.Grid.Concurrency = 0
	cfg.Logging.Level = "loud"

	errs := cfg.Validate()
	if len(errs) != 3 {
		t.Fatalf("Validate() = %v, want 3 errors", errs)
	}
	fields := map[string]bool{}
	for _, e := range errs {
		fields[e.Field] = true
	}
	for _, f := range []string{"engine.cache_size", "grid.concurrency", "logging.level"} {
		if !fields[f] {
			t.Errorf("missing validation error for %s", f)
		}
	}
}

func TestLoad(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte("document:\n  path: latin.yaml\ngrid:\n  concurrency: 2\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("INFLECT_SERVER_ADDR", ":9999")

	Init(path)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Document.Path != "latin.yaml" {
		t.Errorf("Document.Path = %q, want latin.yaml", cfg.Document.Path)
	}
	if cfg.Grid.Concurrency != 2 {
		t.Errorf("Grid.Concurrency = %d, want 2", cfg.Grid.Concurrency)
	}
	if cfg.Server.Addr != ":9999" {
		t.Errorf("Server.Addr = %q, want the environment override", cfg.Server.Addr)
	}
	if cfg.Engine.CacheSize != 4096 {
		t.Errorf("Engine.CacheSize = %d, want the default", cfg.Engine.CacheSize)
	}
}

func TestLoadInvalid(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	SetDefaults()
	viper.Set("logging.level", "chatty")

	_, err := Load()
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("Load error = %v, want ValidationErrors", err)
	}
	if len(verrs) != 1 || verrs[0].Field != "logging.level" {
		t.Errorf("Load errors = %v, want one logging.level error", verrs)
	}
}

func TestConfigDir(t *testing.T) {
	t.Run("with XDG_CONFIG_HOME", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/custom/config")
		if got, want := ConfigDir(), "/custom/config/inflect"; got != want {
			t.Errorf("ConfigDir() = %q, want %q", got, want)
		}
		if got, want := ConfigFile(), "/custom/config/inflect/config.yaml"; got != want {
			t.Errorf("ConfigFile() = %q, want %q", got, want)
		}
	})

	t.Run("without XDG_CONFIG_HOME", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		home, _ := os.UserHomeDir()
		if got, want := ConfigDir(), filepath.Join(home, ".config", "inflect"); got != want {
			t.Errorf("ConfigDir() = %q, want %q", got, want)
		}
	})
}

func TestEngineOptions(t *testing.T) {
	if got := len(Default().EngineOptions(nil)); got != 4 {
		t.Errorf("EngineOptions() = %d options, want 4", got)
	}
}
