package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

func (c *Config) loadFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("decoding config file %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("%w: unknown keys %v in %s", ErrInvalidConfig, undecoded, path)
	}

	return nil
}
