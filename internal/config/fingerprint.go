package config

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint returns a short, stable hash of cfg's TOML encoding. Two
// configs that encode identically share a fingerprint, so it identifies the
// effective settings of a run in logs and `config debug` output.
func Fingerprint(cfg *Config) (string, error) {
	data, err := Encode(cfg)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x", xxhash.Sum64(data)), nil
}
