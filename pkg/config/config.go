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
	Scheduler     SchedulerConfig
	Orders        OrdersConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if _, err := cfg.App.Location(); err != nil {
		return nil, err
	}
	if _, err := cfg.Scheduler.Weekdays(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ORDERPORTAL_APP_ENV" required:"true"`
	Port         string `envconfig:"ORDERPORTAL_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ORDERPORTAL_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ORDERPORTAL_LOG_WARN_STACK" default:"false"`
	Timezone     string `envconfig:"ORDERPORTAL_APP_TIMEZONE" default:"America/Mexico_City"`
	CORSOrigins  string `envconfig:"ORDERPORTAL_CORS_ORIGINS" default:"http://localhost:3000"`
}

// AllowedOrigins splits the comma separated CORS origin list.
func (a AppConfig) AllowedOrigins() []string {
	origins := []string{}
	for _, part := range strings.Split(a.CORSOrigins, ",") {
		if origin := strings.TrimSpace(part); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// Location resolves the business timezone used for cutoff and delivery-date math.
func (a AppConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(a.Timezone)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", name, err)
	}
	return loc, nil
}

type DBConfig struct {
	DSN    string `envconfig:"ORDERPORTAL_DB_DSN"`
	Driver string `envconfig:"ORDERPORTAL_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ORDERPORTAL_DB_HOST"`
	LegacyPort     int    `envconfig:"ORDERPORTAL_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ORDERPORTAL_DB_USER"`
	LegacyPassword string `envconfig:"ORDERPORTAL_DB_PASSWORD"`
	LegacyName     string `envconfig:"ORDERPORTAL_DB_NAME"`
	LegacySSLMode  string `envconfig:"ORDERPORTAL_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ORDERPORTAL_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ORDERPORTAL_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ORDERPORTAL_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ORDERPORTAL_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ORDERPORTAL_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ORDERPORTAL_REDIS_ADDR"`
	Password     string        `envconfig:"ORDERPORTAL_REDIS_PASSWORD"`
	DB           int           `envconfig:"ORDERPORTAL_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ORDERPORTAL_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ORDERPORTAL_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ORDERPORTAL_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ORDERPORTAL_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ORDERPORTAL_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"ORDERPORTAL_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"ORDERPORTAL_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"ORDERPORTAL_JWT_EXPIRATION_MINUTES" required:"true"`
	SessionTTLMinutes int    `envconfig:"ORDERPORTAL_SESSION_TTL_MINUTES" default:"0"`
}

// SessionTTL returns how long a login session survives server side. Zero or a
// value past the token lifetime means the session lasts as long as the token.
func (j JWTConfig) SessionTTL() time.Duration {
	token := time.Duration(j.ExpirationMinutes) * time.Minute
	ttl := time.Duration(j.SessionTTLMinutes) * time.Minute
	if ttl <= 0 || ttl > token {
		return token
	}
	return ttl
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"ORDERPORTAL_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"ORDERPORTAL_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"ORDERPORTAL_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"ORDERPORTAL_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"ORDERPORTAL_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"ORDERPORTAL_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"ORDERPORTAL_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"ORDERPORTAL_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"ORDERPORTAL_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"ORDERPORTAL_AUTO_MIGRATE" default:"false"`
}

type SchedulerConfig struct {
	Enabled      bool          `envconfig:"ORDERPORTAL_SCHEDULER_ENABLED" default:"true"`
	Offset       time.Duration `envconfig:"ORDERPORTAL_SCHEDULER_OFFSET" default:"5m"`
	Days         string        `envconfig:"ORDERPORTAL_SCHEDULER_DAYS" default:"mon,tue,wed,thu,fri"`
	SyncInterval time.Duration `envconfig:"ORDERPORTAL_SCHEDULER_SYNC_INTERVAL" default:"5m"`
	RunTimeout   time.Duration `envconfig:"ORDERPORTAL_SCHEDULER_RUN_TIMEOUT" default:"2m"`
	LockTTL      time.Duration `envconfig:"ORDERPORTAL_SCHEDULER_LOCK_TTL" default:"10m"`
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

// Weekdays parses the comma separated list of days the status job fires on.
func (s SchedulerConfig) Weekdays() ([]time.Weekday, error) {
	raw := strings.TrimSpace(s.Days)
	if raw == "" {
		return nil, fmt.Errorf("%s must list at least one day", EnvSchedulerDays)
	}
	seen := map[time.Weekday]bool{}
	days := []time.Weekday{}
	for _, part := range strings.Split(raw, ",") {
		key := strings.ToLower(strings.TrimSpace(part))
		if len(key) > 3 {
			key = key[:3]
		}
		day, ok := weekdayNames[key]
		if !ok {
			return nil, fmt.Errorf("%s: unknown day %q", EnvSchedulerDays, part)
		}
		if seen[day] {
			continue
		}
		seen[day] = true
		days = append(days, day)
	}
	return days, nil
}

type OrdersConfig struct {
	DefaultOrderTimeLimit string `envconfig:"ORDERPORTAL_ORDERS_DEFAULT_TIME_LIMIT" default:"18:00"`
	CreationLookbackDays  int    `envconfig:"ORDERPORTAL_ORDERS_CREATION_LOOKBACK_DAYS" default:"1"`
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
