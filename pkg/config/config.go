package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Orders        OrdersConfig
	Cart          CartConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DBDriverSQLite
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Cart.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"GOSBI_APP_ENV" required:"true"`
	Port         string `envconfig:"GOSBI_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"GOSBI_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GOSBI_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"GOSBI_LOG_FORMAT" default:"json"`

	CORSAllowedOrigins []string `envconfig:"GOSBI_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

// ConsoleLogs reports whether logs should be human readable instead of JSON.
func (a AppConfig) ConsoleLogs() bool {
	return strings.EqualFold(strings.TrimSpace(a.LogFormat), LogFormatConsole)
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"GOSBI_DB_DSN"`
	Driver string `envconfig:"GOSBI_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"GOSBI_DB_HOST"`
	LegacyPort     int    `envconfig:"GOSBI_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"GOSBI_DB_USER"`
	LegacyPassword string `envconfig:"GOSBI_DB_PASSWORD"`
	LegacyName     string `envconfig:"GOSBI_DB_NAME"`
	LegacySSLMode  string `envconfig:"GOSBI_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"GOSBI_SQLITE_PATH" default:"gosbi.db"`

	MaxOpenConns    int           `envconfig:"GOSBI_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GOSBI_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GOSBI_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GOSBI_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"GOSBI_DB_SLOW_QUERY_THRESHOLD" default:"200ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GOSBI_REDIS_URL" required:"true"`
	Address      string        `envconfig:"GOSBI_REDIS_ADDR"`
	Password     string        `envconfig:"GOSBI_REDIS_PASSWORD"`
	DB           int           `envconfig:"GOSBI_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GOSBI_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GOSBI_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GOSBI_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GOSBI_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GOSBI_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"GOSBI_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"GOSBI_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"GOSBI_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"GOSBI_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"GOSBI_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"GOSBI_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"GOSBI_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"GOSBI_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"GOSBI_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"GOSBI_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginPhoneLimit    int           `envconfig:"GOSBI_AUTH_RATE_LIMIT_LOGIN_PHONE_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"GOSBI_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"GOSBI_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterPhoneLimit int           `envconfig:"GOSBI_AUTH_RATE_LIMIT_REGISTER_PHONE_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"GOSBI_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"GOSBI_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"GOSBI_AUTO_MIGRATE" default:"false"`
}

// OrdersConfig bounds the order numbering transaction retries.
type OrdersConfig struct {
	TxMaxAttempts int           `envconfig:"GOSBI_ORDERS_TX_MAX_ATTEMPTS" default:"5"`
	TxBaseBackoff time.Duration `envconfig:"GOSBI_ORDERS_TX_BASE_BACKOFF" default:"20ms"`
}

type CartConfig struct {
	SlotKind string        `envconfig:"GOSBI_CART_SLOT" default:"redis"`
	FileDir  string        `envconfig:"GOSBI_CART_FILE_DIR" default:"var/carts"`
	TTL      time.Duration `envconfig:"GOSBI_CART_TTL" default:"720h"`
}

func (c CartConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(c.SlotKind)) {
	case CartSlotRedis, CartSlotFile:
		return nil
	default:
		return fmt.Errorf("%s must be one of %q or %q", EnvCartSlot, CartSlotRedis, CartSlotFile)
	}
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" || useSQLite {
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
