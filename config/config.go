// Package config — .arbkit.yaml project configuration support.
//
// When an .arbkit.yaml file exists next to the source document (or is
// passed via --config), its values seed the run configuration. Flags
// always win over file values; built-in defaults fill the rest.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is the conventional config file name.
const DefaultFileName = ".arbkit.yaml"

// ---------------------------------------------------------------------------
// YAML schema
// ---------------------------------------------------------------------------

// File is the top-level .arbkit.yaml structure.
type File struct {
	// Host is the backend base URL (default http://localhost:11434).
	Host string `yaml:"host,omitempty"`
	// Kind is the backend wire format: "ollama" (default) or "openai".
	Kind string `yaml:"kind,omitempty"`
	// Model is the primary model identifier.
	Model string `yaml:"model,omitempty"`
	// FallbackModel is tried once per string after the primary's retry
	// budget is exhausted.
	FallbackModel string `yaml:"fallback_model,omitempty"`
	// Timeout bounds each backend request (e.g. "120s").
	Timeout time.Duration `yaml:"timeout,omitempty"`
	// Temperature is the sampling temperature (nil = 0.0, deterministic).
	Temperature *float64 `yaml:"temperature,omitempty"`
	// Concurrency is the maximum number of in-flight requests.
	Concurrency int `yaml:"concurrency,omitempty"`
	// Retries is the per-string retry budget against the primary model.
	Retries int `yaml:"retries,omitempty"`
	// Backoff is the base wait between retries; the wait grows linearly
	// with the attempt number.
	Backoff time.Duration `yaml:"backoff,omitempty"`
	// SkipKeys are additional keys never sent for translation.
	SkipKeys []string `yaml:"skip_keys,omitempty"`
	// Overrides are curated translations: key → locale → text.
	Overrides map[string]map[string]string `yaml:"overrides,omitempty"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads a config file. A missing file is not an error: it returns
// (nil, nil) so callers fall through to defaults.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := f.validate(path); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) validate(path string) error {
	switch f.Kind {
	case "", "ollama", "openai":
	default:
		return fmt.Errorf("%s: unknown backend kind %q (want ollama or openai)", path, f.Kind)
	}
	if f.Concurrency < 0 {
		return fmt.Errorf("%s: concurrency must not be negative", path)
	}
	if f.Retries < 0 {
		return fmt.Errorf("%s: retries must not be negative", path)
	}
	return nil
}
