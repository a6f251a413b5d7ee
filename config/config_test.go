package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeRun(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadRun(t *testing.T) {
	path := writeRun(t, `
base: 1m
start_balance: 100000
keep: 500
strategy:
  name: sma_crossover
  tf: 5m
  fast: 9
  slow: 21
  qty: 10
extra_indicators:
  - tf: 5m
    name: rsi
    params: [14]
`)
	rc, err := LoadRun(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if rc.Base != "1m" || rc.Strategy.Slow != 21 || len(rc.Extra) != 1 {
		t.Fatalf("parsed config = %+v", rc)
	}
	if rc.Extra[0].Params[0] != 14 {
		t.Fatalf("extra params = %v", rc.Extra[0].Params)
	}
}

func TestLoadRunRejectsBadConfig(t *testing.T) {
	cases := map[string]string{
		"zero balance": `
base: 1m
start_balance: 0
strategy: {name: sma_crossover, tf: 5m, fast: 9, slow: 21, qty: 10}
`,
		"unknown strategy": `
base: 1m
start_balance: 1000
strategy: {name: momentum, tf: 5m, fast: 9, slow: 21, qty: 10}
`,
		"fast not below slow": `
base: 1m
start_balance: 1000
strategy: {name: sma_crossover, tf: 5m, fast: 21, slow: 9, qty: 10}
`,
	}
	for name, body := range cases {
		if _, err := LoadRun(writeRun(t, body)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestEnvDefaults(t *testing.T) {
	os.Unsetenv("FEED")
	os.Unsetenv("METRICS_ADDR")
	cfg := Load()
	if cfg.Feed != "sqlite" || cfg.MetricsAddr != ":9090" {
		t.Fatalf("defaults = %+v", cfg)
	}

	t.Setenv("FEED", "redis")
	if Load().Feed != "redis" {
		t.Fatal("env override ignored")
	}
}
