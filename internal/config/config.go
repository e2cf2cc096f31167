// Package config resolves per-invocation options from environment
// variables, falling back to hardcoded defaults. A caller that also parses
// flags applies them on top of Default. The archiveset command binds its
// flags with fixed defaults and does not call Default, so these environment
// variables do not affect it.
package config

import (
	"os"
	"strconv"
)

// Options is the resolved configuration for one archive/extract/check/list
// invocation.
type Options struct {
	Threads           int
	CompressionLevel  int
	Codec             string
	Keys              []string
	Force             bool
	RemoveUnencrypted bool
}

// Default returns the baseline configuration before flags are applied.
func Default() Options {
	return Options{
		Threads:          envInt("ARCHIVESET_THREADS", 1),
		CompressionLevel: envInt("ARCHIVESET_COMPRESSION_LEVEL", 6),
		Codec:            envString("ARCHIVESET_CODEC", "lzip"),
	}
}

func envInt(name string, fallback int) int {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envString(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
