package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 8080 {
		t.Errorf("server = %s:%d", cfg.Server.Host, cfg.Server.Port)
	}
	if cfg.Server.Mode != "release" {
		t.Errorf("mode = %q", cfg.Server.Mode)
	}
	if cfg.Decoy.CorpusPath != "templates/master.html" {
		t.Errorf("corpus path = %q", cfg.Decoy.CorpusPath)
	}
	if cfg.Decoy.Groups != 5 || cfg.Decoy.PerGroup != 3 {
		t.Errorf("grid = %dx%d", cfg.Decoy.Groups, cfg.Decoy.PerGroup)
	}
	if got := cfg.Decoy.TotalVariants(); got != 15 {
		t.Errorf("TotalVariants() = %d", got)
	}
	if len(cfg.Decoy.TrapPaths) != 3 || cfg.Decoy.TrapPaths[0] != "/admin-portal" {
		t.Errorf("trap paths = %v", cfg.Decoy.TrapPaths)
	}
	if cfg.Assign.CacheTTL != 10*time.Minute {
		t.Errorf("assign ttl = %v", cfg.Assign.CacheTTL)
	}
	if cfg.Store.Backend != "auto" || cfg.Store.SQLitePath != "gossamer.db" {
		t.Errorf("store = %q %q", cfg.Store.Backend, cfg.Store.SQLitePath)
	}
	if !cfg.Auth.Enabled {
		t.Error("auth disabled by default")
	}
	if !cfg.RateLimit.Enabled || cfg.RateLimit.RPS != 5 || cfg.RateLimit.Burst != 10 {
		t.Errorf("rate limit = %+v", cfg.RateLimit)
	}
	if cfg.Cache.MaxEntries != 256 || cfg.Cache.TTL != 10*time.Minute {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Tarpit.BytesPerSecond != 0 {
		t.Errorf("tarpit = %d", cfg.Tarpit.BytesPerSecond)
	}
}

func TestLoad_ReadsEnvironment(t *testing.T) {
	t.Setenv("GOSSAMER_PORT", "9090")
	t.Setenv("GOSSAMER_MODE", "debug")
	t.Setenv("GOSSAMER_GROUPS", "2")
	t.Setenv("GOSSAMER_TRAP_PATHS", "/a,/b")
	t.Setenv("GOSSAMER_API_KEYS", "key-one,key-two")
	t.Setenv("GOSSAMER_TARPIT_BPS", "128")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 || cfg.Server.Mode != "debug" {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Decoy.Groups != 2 {
		t.Errorf("groups = %d", cfg.Decoy.Groups)
	}
	if len(cfg.Decoy.TrapPaths) != 2 || cfg.Decoy.TrapPaths[1] != "/b" {
		t.Errorf("trap paths = %v", cfg.Decoy.TrapPaths)
	}
	if len(cfg.Auth.APIKeys) != 2 || cfg.Auth.APIKeys[0] != "key-one" {
		t.Errorf("api keys = %v", cfg.Auth.APIKeys)
	}
	if cfg.Tarpit.BytesPerSecond != 128 {
		t.Errorf("tarpit = %d", cfg.Tarpit.BytesPerSecond)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		want  string
	}{
		{"mode", "GOSSAMER_MODE", "yolo", "GOSSAMER_MODE"},
		{"grid", "GOSSAMER_GROUPS", "0", "variant grid"},
		{"backend", "GOSSAMER_STORE", "mysql", "store backend"},
		{"rate", "GOSSAMER_RATE_RPS", "0", "RPS"},
		{"tarpit", "GOSSAMER_TARPIT_BPS", "-1", "tarpit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			if err == nil {
				t.Fatalf("Load accepted %s=%s", tt.key, tt.value)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestTLSConfig_Enabled(t *testing.T) {
	if (TLSConfig{}).Enabled() {
		t.Error("empty TLS config reports enabled")
	}
	if (TLSConfig{CertFile: "cert.pem"}).Enabled() {
		t.Error("cert without key reports enabled")
	}
	if !(TLSConfig{CertFile: "cert.pem", KeyFile: "key.pem"}).Enabled() {
		t.Error("full pair reports disabled")
	}
}
