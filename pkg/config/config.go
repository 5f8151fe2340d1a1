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
	GroupBuy     GroupBuyConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	GCS          GCSConfig
	Media        MediaConfig
	OnePay       OnePayConfig
	Cron         CronConfig
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
	Env          string `envconfig:"KHUMSUE_APP_ENV" required:"true"`
	Port         string `envconfig:"KHUMSUE_APP_PORT" required:"true"`
	BaseURL      string `envconfig:"KHUMSUE_APP_BASE_URL" default:"http://localhost:8080"`
	LogLevel     string `envconfig:"KHUMSUE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"KHUMSUE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"KHUMSUE_DB_DSN"`
	Driver string `envconfig:"KHUMSUE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"KHUMSUE_DB_HOST"`
	LegacyPort     int    `envconfig:"KHUMSUE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"KHUMSUE_DB_USER"`
	LegacyPassword string `envconfig:"KHUMSUE_DB_PASSWORD"`
	LegacyName     string `envconfig:"KHUMSUE_DB_NAME"`
	LegacySSLMode  string `envconfig:"KHUMSUE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"KHUMSUE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"KHUMSUE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"KHUMSUE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"KHUMSUE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"KHUMSUE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"KHUMSUE_REDIS_ADDR"`
	Password     string        `envconfig:"KHUMSUE_REDIS_PASSWORD"`
	DB           int           `envconfig:"KHUMSUE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"KHUMSUE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"KHUMSUE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"KHUMSUE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"KHUMSUE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"KHUMSUE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"KHUMSUE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"KHUMSUE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"KHUMSUE_JWT_EXPIRATION_MINUTES" default:"720"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"KHUMSUE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"KHUMSUE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"KHUMSUE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"KHUMSUE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"KHUMSUE_ARGON_KEY_LEN" default:"32"`
}

// GroupBuyConfig tunes the campaign lifecycle.
type GroupBuyConfig struct {
	DepositPercent     int           `envconfig:"KHUMSUE_DEPOSIT_PERCENT" default:"30"`
	DefaultCampaignTTL time.Duration `envconfig:"KHUMSUE_CAMPAIGN_TTL" default:"48h"`
	ReapBatchSize      int           `envconfig:"KHUMSUE_REAP_BATCH_SIZE" default:"200"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"KHUMSUE_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"KHUMSUE_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"KHUMSUE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"KHUMSUE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName string `envconfig:"KHUMSUE_GCS_BUCKET_NAME" required:"true"`
}

type MediaConfig struct {
	MaxUploadMB int `envconfig:"KHUMSUE_MAX_UPLOAD_MB" default:"5"`
}

// OnePayConfig carries the BCEL OnePay merchant credentials.
type OnePayConfig struct {
	MerchantID string `envconfig:"KHUMSUE_ONEPAY_MERCHANT_ID"`
	APIKey     string `envconfig:"KHUMSUE_ONEPAY_API_KEY"`
	APISecret  string `envconfig:"KHUMSUE_ONEPAY_API_SECRET"`
	APIURL     string `envconfig:"KHUMSUE_ONEPAY_API_URL" default:"https://api.bcelbank.la/onepay"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"KHUMSUE_CRON_INTERVAL" default:"5m"`
	LockTTL  time.Duration `envconfig:"KHUMSUE_CRON_LOCK_TTL" default:"10m"`
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
