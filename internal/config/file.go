package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// LoadFile decodes the TOML file at path over cfg. Keys absent from the
// file leave the current values in place; unknown keys are an error.
func LoadFile(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return fmt.Errorf("config %s: unknown key %q", path, undec[0].String())
	}
	return nil
}
