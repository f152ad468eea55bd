package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/arbkit/arbkit/arbfile"
	"github.com/arbkit/arbkit/config"
	"github.com/arbkit/arbkit/overrides"
)

func TestLocaleFromFilename(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"app_es.arb", "es"},
		{"app_pt-BR.arb", "pt-BR"},
		{"app_zh.arb", "zh"},
		{"strings_es.arb", ""},
		{"app_es.json", ""},
		{"app_.arb", ""},
	}
	for _, tc := range cases {
		if got := localeFromFilename(tc.name); got != tc.want {
			t.Errorf("localeFromFilename(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestDiscoverLocales(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"app_en.arb", "app_fr.arb", "app_de.arb", "notes.txt", "app_es.json"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "app_xx.arb"), 0755); err != nil {
		t.Fatal(err)
	}

	locales, err := discoverLocales(dir, filepath.Join(dir, "app_en.arb"))
	if err != nil {
		t.Fatalf("discoverLocales: %v", err)
	}
	if len(locales) != 2 {
		t.Fatalf("locales = %v, want de and fr", locales)
	}
	// Sorted by code, template excluded.
	if locales[0].code != "de" || locales[1].code != "fr" {
		t.Errorf("locales = %v", locales)
	}
}

func TestDiscoverLocales_MissingDir(t *testing.T) {
	if _, err := discoverLocales(filepath.Join(t.TempDir(), "nope"), "app_en.arb"); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestBackendKind(t *testing.T) {
	if _, err := backendKind("ollama"); err != nil {
		t.Errorf("ollama: %v", err)
	}
	if _, err := backendKind("openai"); err != nil {
		t.Errorf("openai: %v", err)
	}
	if _, err := backendKind("carrier-pigeon"); err == nil {
		t.Error("unknown kind should error")
	}
}

func TestApplyConfig_FlagsWin(t *testing.T) {
	cmd := newTranslateCmd()
	if err := cmd.Flags().Parse([]string{"--model", "from-flag", "--in", "app_en.arb"}); err != nil {
		t.Fatalf("parsing flags: %v", err)
	}

	a := &translateArgs{
		model:   "from-flag",
		host:    "http://localhost:11434",
		retries: 2,
	}
	temp := 0.7
	cf := &config.File{
		Model:       "from-config",
		Host:        "http://translate.lan:11434",
		Temperature: &temp,
		Timeout:     30 * time.Second,
	}
	applyConfig(cmd, a, cf)

	if a.model != "from-flag" {
		t.Errorf("explicit flag should beat config, got %q", a.model)
	}
	if a.host != "http://translate.lan:11434" {
		t.Errorf("unset flag should take config value, got %q", a.host)
	}
	if a.temperature != 0.7 {
		t.Errorf("temperature = %v", a.temperature)
	}
	if a.timeout != 30*time.Second {
		t.Errorf("timeout = %v", a.timeout)
	}
}

func TestApplyConfig_NilConfigIsNoop(t *testing.T) {
	cmd := newTranslateCmd()
	a := &translateArgs{model: "keep"}
	applyConfig(cmd, a, nil)
	if a.model != "keep" {
		t.Errorf("model = %q", a.model)
	}
}

func TestMissingCount_ExcludesSkippedKeys(t *testing.T) {
	src, err := arbfile.Parse([]byte(`{
  "@@locale": "en",
  "appTitle": "MyApp",
  "greeting": "Hello"
}`))
	if err != nil {
		t.Fatal(err)
	}
	target, err := arbfile.Parse([]byte(`{
  "@@locale": "fr",
  "greeting": "Bonjour"
}`))
	if err != nil {
		t.Fatal(err)
	}

	skip := overrides.SkipSet(overrides.DefaultSkipKeys())
	// appTitle is absent from the target but excluded from coverage, so
	// it must not count as missing against a total that excludes it.
	if n := missingCount(src, target, skip); n != 0 {
		t.Errorf("missingCount = %d, want 0", n)
	}
	if n := missingCount(src, target, nil); n != 1 {
		t.Errorf("missingCount without skip = %d, want 1", n)
	}
}
