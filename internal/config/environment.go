package config

import (
	"errors"
	"os"
	"sync"

	"github.com/knadh/koanf/v2"

	"github.com/creasty/defaults"
	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	_k      *koanf.Koanf
	_config *Config
	once    sync.Once

	ErrNoDatasetPath = errors.New("dataset path is empty")
)

func GetConfig() *Config {
	if _config == nil {
		log.Info().Msg("config is nil trying to init")
		if err := InitConfig(); err != nil {
			log.Error().Msgf("error initializing config: %v", err)
		}
	}

	return _config
}

func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// InitConfig loads CONFIG_FILE (default .env.toml) and .env on top of the
// struct defaults. Missing files are not an error.
func InitConfig() error {
	var err error
	once.Do(func() {
		_k = koanf.New(".")

		configFile := GetEnv("CONFIG_FILE", ".env.toml")
		if _err := _k.Load(file.Provider(configFile), toml.Parser()); _err != nil {
			log.Debug().Err(_err).Str("file", configFile).Msg("TOML config not loaded")
		}
		if _err := _k.Load(file.Provider(".env"), dotenv.Parser()); _err != nil {
			log.Debug().Err(_err).Msg("dotenv config not loaded")
		}

		cfg, _err := load(_k)
		if _err != nil {
			err = _err
			return
		}
		_config = cfg

		zerolog.SetGlobalLevel(_config.APP.LogLevel)
	})

	return err
}

func load(k *koanf.Koanf) (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, err
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	log.Trace().Msgf("k: %+v", cfg)

	if cfg.Dataset.Path == "" {
		return nil, ErrNoDatasetPath
	}
	return cfg, nil
}

func IsDevMode() bool {
	if _config == nil {
		return true
	}

	return _config.APP.Environment == "development"
}
