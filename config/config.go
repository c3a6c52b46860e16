package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	DBDriver       string
	DBCreateTables bool

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	MySQLDSN      string
	MySQLHost     string
	MySQLUser     string
	MySQLPassword string
	MySQLDB       string

	ChromeBin     string
	Headless      bool
	NoSandbox     bool
	DisableDevShm bool
	ClassNames    string
	ClassReviews  string
	SettleDelay   time.Duration
	PageTimeout   time.Duration

	ResumeAfterID int64
	RowDelay      time.Duration
	Schedule      SchedulePolicy

	RawCSVPath string

	NATSURL     string
	NATSSubject string

	PushgatewayURL string
	MetricsAddr    string

	TemporalHostPort  string
	TemporalTaskQueue string
}

// SchedulePolicy is the retry and timing policy applied around a whole batch
// invocation.
type SchedulePolicy struct {
	Attempts   int
	RetryDelay time.Duration
	Cron       string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		DBDriver:       strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DBCreateTables: getEnvBool("DB_CREATE_TABLES", true),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scraper"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scraper123"),
		PostgresDB:       getEnv("POSTGRES_DB", "billboard_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		MySQLDSN:      getEnv("MYSQL_DSN", ""),
		MySQLHost:     getEnv("MYSQL_HOST", "127.0.0.1:3306"),
		MySQLUser:     getEnv("MYSQL_USER", "scraper"),
		MySQLPassword: getEnv("MYSQL_PASSWORD", "scraper123"),
		MySQLDB:       getEnv("MYSQL_DB", "billboard_db"),

		ChromeBin:     getEnv("CHROME_PATH", getEnv("CHROME_BIN", "")),
		Headless:      getEnvBool("HEADLESS", true),
		NoSandbox:     getEnvBool("NO_SANDBOX", false),
		DisableDevShm: getEnvBool("DISABLE_DEV_SHM", false),
		ClassNames:    getEnv("CLASS_NAMES", "qBF1Pd-haAclf"),
		ClassReviews:  getEnv("CLASS_REVIEWS", "OEvfgc-wcwwM-haAclf"),
		SettleDelay:   getEnvMs("SETTLE_DELAY_MS", 2000),
		PageTimeout:   getEnvMs("PAGE_TIMEOUT_MS", 0),

		ResumeAfterID: int64(getEnvInt("RESUME_AFTER_ID", 48)),
		RowDelay:      getEnvMs("ROW_DELAY_MS", 0),
		Schedule: SchedulePolicy{
			Attempts:   getEnvInt("RETRY_ATTEMPTS", 3),
			RetryDelay: getEnvMs("RETRY_DELAY_MS", 5*60*1000),
			Cron:       getEnv("SCHEDULE_CRON", ""),
		},

		RawCSVPath: getEnv("RAW_CSV_PATH", ""),

		NATSURL:     getEnv("NATS_URL", ""),
		NATSSubject: getEnv("NATS_SUBJECT", "poi.billboard.failed"),

		PushgatewayURL: getEnv("PUSHGATEWAY_URL", ""),
		MetricsAddr:    getEnv("METRICS_ADDR", ""),

		TemporalHostPort:  getEnv("TEMPORAL_HOSTPORT", "localhost:7233"),
		TemporalTaskQueue: getEnv("TEMPORAL_TASK_QUEUE", "poi-scraper"),
	}
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	switch c.DBDriver {
	case "postgres", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("DB_DRIVER must be postgres or mysql, got %q", c.DBDriver))
	}
	if strings.TrimSpace(c.ClassNames) == "" {
		errs = append(errs, "CLASS_NAMES is required")
	}
	if strings.TrimSpace(c.ClassReviews) == "" {
		errs = append(errs, "CLASS_REVIEWS is required")
	}
	if c.SettleDelay < 0 {
		errs = append(errs, "SETTLE_DELAY_MS must not be negative")
	}
	if c.Schedule.Attempts < 1 {
		errs = append(errs, fmt.Sprintf("RETRY_ATTEMPTS must be at least 1, got %d", c.Schedule.Attempts))
	}
	if c.Schedule.RetryDelay < 0 {
		errs = append(errs, "RETRY_DELAY_MS must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// DSN returns the connection string for the configured driver.
func (c *Config) DSN() string {
	if c.DBDriver == "mysql" {
		if c.MySQLDSN != "" {
			return c.MySQLDSN
		}
		return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&charset=utf8mb4",
			c.MySQLUser, c.MySQLPassword, c.MySQLHost, c.MySQLDB)
	}
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}

func getEnvMs(key string, fallbackMs int) time.Duration {
	return time.Duration(getEnvInt(key, fallbackMs)) * time.Millisecond
}
