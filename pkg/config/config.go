package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                    string
	Env                     string
	DBDriver                string
	PostgresConnStr         string
	SQLitePath              string
	MongoURI                string
	MongoDatabase           string
	FirebaseCredentialsPath string
	JWTSecret               string
	JWTTTL                  time.Duration
	AdminEmails             []string
	MetricsPort             string
}

// Load reads the server configuration from the environment, after loading .env if present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		DBDriver:                getEnv("DB_DRIVER", "postgres"),
		PostgresConnStr:         getEnv("POSTGRES_CONN_STR", ""),
		SQLitePath:              getEnv("SQLITE_PATH", "discuss.db"),
		MongoURI:                getEnv("MONGO_URI", ""),
		MongoDatabase:           getEnv("MONGO_DATABASE", "discuss"),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		JWTSecret:               getEnv("JWT_SECRET", "supersecretjwtkey"),
		JWTTTL:                  getDuration("JWT_TTL", 7*24*time.Hour),
		AdminEmails:             splitList(getEnv("ADMIN_EMAILS", "")),
		MetricsPort:             getEnv("METRICS_PORT", "9090"),
	}
}

// ClientConfig configures the discuss command line client.
type ClientConfig struct {
	APIURL string
	Token  string
}

// LoadClient reads the client configuration from the environment.
func LoadClient() *ClientConfig {
	_ = godotenv.Load()

	return &ClientConfig{
		APIURL: getEnv("DISCUSS_API_URL", "http://localhost:8080/api"),
		Token:  getEnv("DISCUSS_TOKEN", ""),
	}
}

// IsAdminEmail reports whether email is listed in ADMIN_EMAILS.
func (c *Config) IsAdminEmail(email string) bool {
	for _, e := range c.AdminEmails {
		if strings.EqualFold(e, email) {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
