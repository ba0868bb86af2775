package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/dig"
)

// Config represents the service configuration.
type Config struct {
	Server    ServerConfig
	CORS      CORSConfig
	Dispatch  DispatchConfig
	Intake    IntakeConfig
	Resources ResourcesConfig
	Redis     RedisConfig
	Reports   ReportsConfig
	Denial    DenialConfig
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port         int `env:"SERVER_PORT"          envDefault:"8080"`
	ReadTimeout  int `env:"SERVER_READ_TIMEOUT"  envDefault:"30"`
	WriteTimeout int `env:"SERVER_WRITE_TIMEOUT" envDefault:"30"`
}

// CORSConfig contains CORS policy settings.
type CORSConfig struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS"   envSeparator:"," envDefault:"*"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS"   envSeparator:"," envDefault:"GET,POST,DELETE,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS"   envSeparator:"," envDefault:"Content-Type,Authorization"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS"                  envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE"                            envDefault:"86400"`
}

// DispatchConfig contains the completion dispatcher's retry policy.
type DispatchConfig struct {
	MaxAttempts    int           `env:"DISPATCH_MAX_ATTEMPTS"    envDefault:"10"`
	AttemptTimeout time.Duration `env:"DISPATCH_ATTEMPT_TIMEOUT" envDefault:"60s"`
	FastThreshold  time.Duration `env:"DISPATCH_FAST_THRESHOLD"  envDefault:"55s"`
	Cooldown       time.Duration `env:"DISPATCH_COOLDOWN"        envDefault:"30m"`
	Seed           int64         `env:"DISPATCH_SEED"            envDefault:"0"`
}

// IntakeConfig contains inbound validation and delivery settings.
type IntakeConfig struct {
	MaxLength        int           `env:"INTAKE_MAX_LENGTH"         envDefault:"2000"`
	MinPassiveLength int           `env:"INTAKE_MIN_PASSIVE_LENGTH" envDefault:"50"`
	ChunkSize        int           `env:"INTAKE_CHUNK_SIZE"         envDefault:"4000"`
	ProgressDelay    time.Duration `env:"INTAKE_PROGRESS_DELAY"     envDefault:"500ms"`
}

// ResourcesConfig points at the static resource directory.
type ResourcesConfig struct {
	Dir string `env:"RESOURCES_DIR" envDefault:"./resources"`
}

// RedisConfig contains the outbound message bus connection.
// An empty URL selects the log-only messenger.
type RedisConfig struct {
	URL          string `env:"REDIS_URL"`
	StreamPrefix string `env:"REDIS_STREAM_PREFIX" envDefault:"outbox:"`
	MaxLen       int64  `env:"REDIS_STREAM_MAXLEN" envDefault:"1000"`
}

// ReportsConfig controls where report artifacts are written.
type ReportsConfig struct {
	Dir string `env:"REPORTS_DIR" envDefault:"./reports"`
}

// DenialConfig selects the script a usable response must contain.
type DenialConfig struct {
	Script string `env:"DENIAL_SCRIPT" envDefault:"Cyrillic"`
}

// DepConfig is used for dependency injection with dig.
type DepConfig struct {
	dig.Out
	*ServerConfig
	*CORSConfig
	*DispatchConfig
	*IntakeConfig
	*ResourcesConfig
	*RedisConfig
	*ReportsConfig
	*DenialConfig
}

// Load loads environment files and parses configuration.
func Load() *Config {
	for _, file := range []string{".env"} {
		_ = godotenv.Load(file)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		panic(err)
	}

	return &cfg
}

// ParseDependenciesConfig returns pointers to sub-configs for dependency injection.
func ParseDependenciesConfig(cfg *Config) DepConfig {
	return DepConfig{
		dig.Out{},
		&cfg.Server,
		&cfg.CORS,
		&cfg.Dispatch,
		&cfg.Intake,
		&cfg.Resources,
		&cfg.Redis,
		&cfg.Reports,
		&cfg.Denial,
	}
}
