package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, DB connection, gateway keys), security settings
// - default: Values common across all environments (timezone, timeout, etc.), standard settings
// -----------------------------------------------------------------------------

type Config struct {
	Server    ServerConfig
	DB        DBConfig
	Store     StoreConfig
	CORS      CORSConfig
	Log       LogConfig
	JWT       JWTConfig
	Gateway   GatewayConfig
	Mail      MailConfig
	Lock      LockConfig
	Events    EventsConfig
	Scheduler SchedulerConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER"`
	Password string `envconfig:"DB_PASSWORD"`
	DBName   string `envconfig:"DB_NAME"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
	TimeZone string `envconfig:"DB_TIMEZONE" default:"Asia/Kolkata"`
	MaxConns int32  `envconfig:"DB_MAX_CONNS" default:"10"`
}

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type StoreConfig struct {
	Driver string `envconfig:"STORE_DRIVER" default:"postgres"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,Authorization,X-Request-ID"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length,X-Request-ID"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level          string `envconfig:"LOG_LEVEL" default:"info"`
	TimeZone       string `envconfig:"LOG_TIMEZONE" default:"Asia/Kolkata"`
	TimeFormat     string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02 15:04:05.000"`
	TimeZoneOffset int    `envconfig:"LOG_TIMEZONE_OFFSET" default:"19800"` // 5.5*60*60
}

// JWTConfig only covers validation. Tokens are issued by the identity service.
type JWTConfig struct {
	Secret string `envconfig:"JWT_SECRET" required:"true"`
}

type GatewayConfig struct {
	KeyID     string        `envconfig:"RAZORPAY_KEY_ID" required:"true"`
	KeySecret string        `envconfig:"RAZORPAY_KEY_SECRET" required:"true"`
	BaseURL   string        `envconfig:"RAZORPAY_BASE_URL" default:"https://api.razorpay.com"`
	Timeout   time.Duration `envconfig:"RAZORPAY_TIMEOUT" default:"10s"`
	Currency  string        `envconfig:"PAYMENT_CURRENCY" default:"INR"`
}

type MailConfig struct {
	SendGridAPIKey string `envconfig:"SENDGRID_API_KEY"`
	FromEmail      string `envconfig:"MAIL_FROM_EMAIL" default:"bookings@villafest.in"`
	FromName       string `envconfig:"MAIL_FROM_NAME" default:"Villafest"`
}

const (
	LockBackendLocal = "local"
	LockBackendRedis = "redis"
)

type LockConfig struct {
	Backend       string        `envconfig:"LOCK_BACKEND" default:"local"`
	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	TTL           time.Duration `envconfig:"LOCK_TTL" default:"30s"`
	WaitTimeout   time.Duration `envconfig:"LOCK_WAIT_TIMEOUT" default:"5s"`
}

type EventsConfig struct {
	Brokers      []string `envconfig:"KAFKA_BROKERS"`
	BookingTopic string   `envconfig:"KAFKA_BOOKING_TOPIC" default:"booking-events"`
}

type SchedulerConfig struct {
	DispatchSpec  string        `envconfig:"NOTIFICATION_DISPATCH_SPEC" default:"@every 10s"`
	PurgeSpec     string        `envconfig:"NOTIFICATION_PURGE_SPEC" default:"0 30 3 * * *"`
	BatchSize     int           `envconfig:"NOTIFICATION_BATCH_SIZE" default:"20"`
	Concurrency   int           `envconfig:"NOTIFICATION_CONCURRENCY" default:"4"`
	MaxAttempts   int           `envconfig:"NOTIFICATION_MAX_ATTEMPTS" default:"5"`
	Retention     time.Duration `envconfig:"NOTIFICATION_RETENTION" default:"168h"`
	SendTimeout   time.Duration `envconfig:"NOTIFICATION_SEND_TIMEOUT" default:"15s"`
	RetryBaseWait time.Duration `envconfig:"NOTIFICATION_RETRY_BASE" default:"30s"`
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&timezone=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode, c.TimeZone,
	)
}

func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreDriverPostgres:
		if c.DB.User == "" || c.DB.DBName == "" {
			return fmt.Errorf("DB_USER and DB_NAME are required for store driver %q", c.Store.Driver)
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	switch c.Lock.Backend {
	case LockBackendLocal, LockBackendRedis:
	default:
		return fmt.Errorf("unknown lock backend %q", c.Lock.Backend)
	}
	if c.Scheduler.Concurrency < 1 {
		return fmt.Errorf("NOTIFICATION_CONCURRENCY must be positive")
	}
	return nil
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: "8889", // Test port
		},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "15433", // Test DB port
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
			TimeZone: "UTC",
			MaxConns: 10,
		},
		Store: StoreConfig{Driver: StoreDriverMemory},
		Log: LogConfig{
			Level:          "error", // Error level only for tests
			TimeZone:       "UTC",
			TimeFormat:     "2006-01-02 15:04:05.000",
			TimeZoneOffset: 0,
		},
		JWT: JWTConfig{Secret: "test-secret"},
		Gateway: GatewayConfig{
			KeyID:     "rzp_test_key",
			KeySecret: "rzp_test_secret",
			BaseURL:   "http://localhost:0",
			Timeout:   2 * time.Second,
			Currency:  "INR",
		},
		Mail: MailConfig{FromEmail: "bookings@example.com", FromName: "Villafest"},
		Lock: LockConfig{Backend: LockBackendLocal, TTL: 5 * time.Second, WaitTimeout: time.Second},
		Events: EventsConfig{BookingTopic: "booking-events"},
		Scheduler: SchedulerConfig{
			DispatchSpec:  "@every 10s",
			PurgeSpec:     "0 30 3 * * *",
			BatchSize:     10,
			Concurrency:   2,
			MaxAttempts:   3,
			Retention:     time.Hour,
			SendTimeout:   time.Second,
			RetryBaseWait: time.Second,
		},
	}
}
