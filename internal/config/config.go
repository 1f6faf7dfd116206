// Package config holds process-wide configuration, loaded from YAML
// with an in-code fallback (SPEC_FULL.md §4.5), the way lsmdb's
// internal/config + cmd/init.go do it.
package config

// Config is the root configuration structure for coordinatord.
type Config struct {
	Coordinator CoordinatorConfig `yaml:"coordinator"`
	HTTP        HTTPConfig        `yaml:"http"`
	Logger      LoggerConfig      `yaml:"logger"`
	Seed        SeedConfig        `yaml:"seed"`
}

// CoordinatorConfig controls the in-memory Coordinator itself.
type CoordinatorConfig struct {
	// MaxUnbackfilled is the window-size limit of spec.md §3
	// invariant 3. 0 means DefaultMaxUnbackfilled.
	MaxUnbackfilled int `yaml:"max_unbackfilled"`
}

// HTTPConfig controls the HTTP front end of spec.md §4.6.
type HTTPConfig struct {
	ListenAddress string `yaml:"listen_address"`
}

// LoggerConfig controls log/slog output.
type LoggerConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// SeedConfig names the Registry builders that coordinatord looks up at
// startup to build its Coordinator. Each name must already be
// registered; the only builder registered at startup is "memory".
type SeedConfig struct {
	Builders []string `yaml:"builders"`
}

// Default returns a baseline config: a single in-process Coordinator
// behind chi, with one seeded "memory" builder.
func Default() Config {
	return Config{
		Coordinator: CoordinatorConfig{MaxUnbackfilled: 10},
		HTTP:        HTTPConfig{ListenAddress: ":8089"},
		Logger:      LoggerConfig{Level: "INFO", JSON: false},
		Seed:        SeedConfig{Builders: []string{"memory"}},
	}
}
