// Package config loads typed configuration from the environment, reading a
// .env file in the working directory first if one exists.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	// ErrParsingConfig is returned when environment variables cannot be parsed into the config struct
	ErrParsingConfig = errors.New("failed to parse environment variables into config")

	// ErrNilPointer is returned when a nil pointer is provided to Load
	ErrNilPointer = errors.New("nil pointer provided to config loader")
)

var (
	mu    sync.Mutex
	cache = make(map[string]any)

	dotenv sync.Once
)

// Load parses the environment into v. Each configuration type is parsed
// once; later calls for the same type return the cached value.
//
//	type CLIConfig struct {
//		LogLevel string `env:"FSMCTL_LOG_LEVEL" envDefault:"info"`
//	}
//
//	var cfg CLIConfig
//	if err := config.Load(&cfg); err != nil {
//		// handle
//	}
func Load[T any](v *T) error {
	dotenv.Do(func() {
		// the .env file is optional
		_ = godotenv.Load()
	})
	if v == nil {
		return ErrNilPointer
	}

	key := typeName[T]()

	mu.Lock()
	defer mu.Unlock()

	if cached, ok := cache[key]; ok {
		*v = cached.(T)
		return nil
	}
	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	cache[key] = *v
	return nil
}

// ResetCache forgets every loaded configuration.
func ResetCache() {
	mu.Lock()
	defer mu.Unlock()
	clear(cache)
}

func typeName[T any]() string {
	t := reflect.TypeFor[T]()
	return fmt.Sprintf("%s.%s", t.PkgPath(), t.String())
}
