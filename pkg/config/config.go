package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	FeatureFlags FeatureFlagsConfig
	SMTP         SMTPConfig
	Gateway      GatewayConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"DIGICARD_APP_ENV" required:"true"`
	Port         string `envconfig:"DIGICARD_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"DIGICARD_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"DIGICARD_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"DIGICARD_DB_DSN"`
	Driver string `envconfig:"DIGICARD_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"DIGICARD_DB_HOST"`
	LegacyPort     int    `envconfig:"DIGICARD_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"DIGICARD_DB_USER"`
	LegacyPassword string `envconfig:"DIGICARD_DB_PASSWORD"`
	LegacyName     string `envconfig:"DIGICARD_DB_NAME"`
	LegacySSLMode  string `envconfig:"DIGICARD_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DIGICARD_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DIGICARD_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DIGICARD_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DIGICARD_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DIGICARD_REDIS_URL" required:"true"`
	PoolSize     int           `envconfig:"DIGICARD_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DIGICARD_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DIGICARD_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DIGICARD_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DIGICARD_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"DIGICARD_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"DIGICARD_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"DIGICARD_JWT_EXPIRATION_MINUTES" required:"true"`
}

// Expiration returns the access token lifetime.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"DIGICARD_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"DIGICARD_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"DIGICARD_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"DIGICARD_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"DIGICARD_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"DIGICARD_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"DIGICARD_AUTO_MIGRATE" default:"false"`
}

type SMTPConfig struct {
	Host     string `envconfig:"DIGICARD_SMTP_HOST"`
	Port     int    `envconfig:"DIGICARD_SMTP_PORT" default:"587"`
	Username string `envconfig:"DIGICARD_SMTP_USERNAME"`
	Password string `envconfig:"DIGICARD_SMTP_PASSWORD"`
	From     string `envconfig:"DIGICARD_SMTP_FROM"`
}

// Addr returns host:port for the SMTP dialer.
func (s SMTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type GatewayConfig struct {
	KeyID     string `envconfig:"DIGICARD_GATEWAY_KEY_ID"`
	KeySecret string `envconfig:"DIGICARD_GATEWAY_KEY_SECRET"`
	BaseURL   string `envconfig:"DIGICARD_GATEWAY_BASE_URL" default:"https://api.razorpay.com/v1"`
	Currency  string `envconfig:"DIGICARD_GATEWAY_CURRENCY" default:"INR"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"DIGICARD_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"DIGICARD_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"DIGICARD_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
