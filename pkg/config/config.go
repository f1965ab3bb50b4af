package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "PRINTCRAFT"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv = "PRINTCRAFT_APP_ENV"
	EnvDBDSN  = "PRINTCRAFT_DB_DSN"
	EnvDBHost = "PRINTCRAFT_DB_HOST"
	EnvDBUser = "PRINTCRAFT_DB_USER"
	EnvDBName = "PRINTCRAFT_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	GCP          GCPConfig
	GCS          GCSConfig
	Media        MediaConfig
	Cron         CronConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"PRINTCRAFT_APP_ENV" required:"true"`
	Port         string `envconfig:"PRINTCRAFT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PRINTCRAFT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PRINTCRAFT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PRINTCRAFT_DB_DSN"`
	Driver string `envconfig:"PRINTCRAFT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PRINTCRAFT_DB_HOST"`
	LegacyPort     int    `envconfig:"PRINTCRAFT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PRINTCRAFT_DB_USER"`
	LegacyPassword string `envconfig:"PRINTCRAFT_DB_PASSWORD"`
	LegacyName     string `envconfig:"PRINTCRAFT_DB_NAME"`
	LegacySSLMode  string `envconfig:"PRINTCRAFT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PRINTCRAFT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PRINTCRAFT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PRINTCRAFT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PRINTCRAFT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PRINTCRAFT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PRINTCRAFT_REDIS_ADDR"`
	Password     string        `envconfig:"PRINTCRAFT_REDIS_PASSWORD"`
	DB           int           `envconfig:"PRINTCRAFT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PRINTCRAFT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PRINTCRAFT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PRINTCRAFT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PRINTCRAFT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PRINTCRAFT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"PRINTCRAFT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"PRINTCRAFT_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"PRINTCRAFT_JWT_EXPIRATION_MINUTES" default:"60"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"PRINTCRAFT_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"PRINTCRAFT_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"PRINTCRAFT_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName    string `envconfig:"PRINTCRAFT_GCS_BUCKET_NAME" required:"true"`
	PublicBaseURL string `envconfig:"PRINTCRAFT_GCS_PUBLIC_BASE_URL" default:"https://storage.googleapis.com"`
}

type MediaConfig struct {
	MaxUploadMB int `envconfig:"PRINTCRAFT_MAX_UPLOAD_MB" default:"20"`
}

type CronConfig struct {
	Interval            time.Duration `envconfig:"PRINTCRAFT_CRON_INTERVAL" default:"24h"`
	AssetRetention      time.Duration `envconfig:"PRINTCRAFT_CRON_ASSET_RETENTION" default:"24h"`
	MetricsPort         string        `envconfig:"PRINTCRAFT_CRON_METRICS_PORT" default:"9102"`
	LockTTL             time.Duration `envconfig:"PRINTCRAFT_CRON_LOCK_TTL" default:"25h"`
	AssetSweepBatchSize int           `envconfig:"PRINTCRAFT_CRON_ASSET_SWEEP_BATCH" default:"500"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PRINTCRAFT_AUTO_MIGRATE" default:"false"`
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
