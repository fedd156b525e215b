package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nstehr/trackside/trackside-core/model"
)

// LoadScoring reads the scoring document over the built-in defaults. A
// missing or malformed file yields validated defaults plus a non-nil error
// the caller may log; it is never fatal.
func LoadScoring(path string) (ScoringConfig, error) {
	cfg := DefaultScoring()
	err := readYAML(path, &cfg)
	if err != nil {
		slog.Warn("scoring config unusable, using defaults", "path", path, "error", err)
		cfg = DefaultScoring()
	}
	cfg.Validate()
	return cfg, err
}

// LoadStrategy is LoadScoring for the strategy document.
func LoadStrategy(path string) (StrategyConfig, error) {
	cfg := DefaultStrategy()
	err := readYAML(path, &cfg)
	if err != nil {
		slog.Warn("strategy config unusable, using defaults", "path", path, "error", err)
		cfg = DefaultStrategy()
	}
	if verr := cfg.Validate(); verr != nil {
		slog.Warn("strategy config corrected", "path", path, "error", verr)
		if err == nil {
			err = verr
		}
	}
	return cfg, err
}

// readYAML decodes path into out. Fields absent from the file keep the
// values already in out, so defaults merge underneath the document.
func readYAML(path string, out any) error {
	if path == "" {
		return fmt.Errorf("%w: no path", os.ErrNotExist)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(b, out); err != nil {
		return fmt.Errorf("%w: %s: %v", model.ErrConfigMalformed, path, err)
	}
	return nil
}

// IsMissing reports whether err came from an absent file.
func IsMissing(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
