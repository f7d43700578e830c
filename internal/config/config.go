package config

import (
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

type ServerConfig struct {
	Scheme string `koanf:"scheme" default:"http"`
	Port   int    `koanf:"port" default:"8082"`
	Host   string `koanf:"host" default:"localhost"`

	ReadTimeout     time.Duration `koanf:"read_timeout" default:"5s"`
	WriteTimeout    time.Duration `koanf:"write_timeout" default:"10s"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" default:"30s"`

	AllowOrigins []string `koanf:"alloworigins" default:"[]"`
	HealthCheck  bool     `koanf:"health_check" default:"true"`
	Pprof        bool     `koanf:"pprof" default:"true"`
}

func (s *ServerConfig) GetServerURL() string {
	return s.Scheme + "://" + s.Host + ":" + strconv.Itoa(s.Port)
}

type APPConfig struct {
	Environment string        `koanf:"environment" default:"development"`
	LogLevel    zerolog.Level `koanf:"log_level" default:"debug"`
}

type DatasetConfig struct {
	Path string `koanf:"path" default:"filters/caught.json"`

	// Empty disables the scheduled reload.
	ReloadCron         string `koanf:"reload_cron" default:"0 */5 * * * *"`
	ReloadOnlyOnChange bool   `koanf:"reload_only_on_change" default:"true"`

	Workers           int     `koanf:"workers" default:"0"` // 0 means one per CPU
	UseBloom          bool    `koanf:"use_bloom" default:"true"`
	BloomFPRate       float64 `koanf:"bloom_fp_rate" default:"0.01"`
	AllowLegacyFormat bool    `koanf:"allow_legacy_format" default:"true"`
}

type TelemetryConfig struct {
	Enabled     bool   `koanf:"enabled" default:"false"`
	ServiceName string `koanf:"service_name" default:"phishcheck"`
	Endpoint    string `koanf:"endpoint" default:"localhost:4317"`
}

type Config struct {
	APP       APPConfig
	Server    ServerConfig
	Dataset   DatasetConfig
	Telemetry TelemetryConfig
}
