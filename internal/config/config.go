package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Branches BranchesConfig
	SSH      SSHConfig
	MySQL    MySQLConfig
	Local    LocalConfig
	Auth     AuthConfig
	Logger   LoggerConfig
	Security SecurityConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type BranchesConfig struct {
	CSVFile string
}

// SSHConfig is the tunnel endpoint. All fields are required: the live query
// path cannot work without the tunnel.
type SSHConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

// MySQLConfig is the remote database endpoint as seen from the SSH host.
type MySQLConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// LocalConfig holds the local side of the tunnel: the port the forwarder
// binds on 127.0.0.1.
type LocalConfig struct {
	BindPort int
}

type AuthConfig struct {
	Password    string
	IdleTimeout time.Duration
}

type LoggerConfig struct {
	Level  string
	Format string
}

type SecurityConfig struct {
	EnableRateLimit bool
	RateLimitRPS    int
	RateLimitBurst  int
	AllowedOrigins  []string
	TrustedProxies  []string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnvString("SERVER_HOST", "localhost"),
			Port:            getEnvInt("SERVER_PORT", 8084),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Branches: BranchesConfig{
			CSVFile: getEnvString("BRANCHES_CSV_FILE", "Branch_Name_Address.csv"),
		},
		SSH: SSHConfig{
			Host:     getEnvString("SSH_HOST", ""),
			Port:     getEnvInt("SSH_PORT", 22),
			Username: getEnvString("SSH_USERNAME", ""),
			Password: getEnvString("SSH_PASSWORD", ""),
		},
		MySQL: MySQLConfig{
			Host:     getEnvString("MYSQL_HOST", "127.0.0.1"),
			Port:     getEnvInt("MYSQL_PORT", 3306),
			User:     getEnvString("MYSQL_USER", ""),
			Password: getEnvString("MYSQL_PASSWORD", ""),
			Database: getEnvString("MYSQL_DATABASE", ""),
		},
		Local: LocalConfig{
			BindPort: getEnvInt("LOCAL_BIND_PORT", 3307),
		},
		Auth: AuthConfig{
			Password:    getEnvString("AUTH_PASSWORD", ""),
			IdleTimeout: getEnvDuration("AUTH_IDLE_TIMEOUT", 60*time.Minute),
		},
		Logger: LoggerConfig{
			Level:  getEnvString("LOG_LEVEL", "info"),
			Format: getEnvString("LOG_FORMAT", "json"),
		},
		Security: SecurityConfig{
			EnableRateLimit: getEnvBool("SECURITY_RATE_LIMIT_ENABLED", true),
			RateLimitRPS:    getEnvInt("SECURITY_RATE_LIMIT_RPS", 100),
			RateLimitBurst:  getEnvInt("SECURITY_RATE_LIMIT_BURST", 10),
			AllowedOrigins:  getEnvStringSlice("SECURITY_ALLOWED_ORIGINS", []string{"http://localhost:8084"}),
			TrustedProxies:  getEnvStringSlice("SECURITY_TRUSTED_PROXIES", []string{"127.0.0.1"}),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Branches.CSVFile == "" {
		return fmt.Errorf("branches CSV file path cannot be empty")
	}

	if c.SSH.Host == "" {
		return fmt.Errorf("SSH_HOST is required")
	}

	if c.SSH.Username == "" || c.SSH.Password == "" {
		return fmt.Errorf("SSH_USERNAME and SSH_PASSWORD are required")
	}

	if c.SSH.Port < 1 || c.SSH.Port > 65535 {
		return fmt.Errorf("SSH port must be between 1 and 65535, got %d", c.SSH.Port)
	}

	if c.MySQL.User == "" || c.MySQL.Password == "" {
		return fmt.Errorf("MYSQL_USER and MYSQL_PASSWORD are required")
	}

	if c.MySQL.Database == "" {
		return fmt.Errorf("MYSQL_DATABASE is required")
	}

	if c.MySQL.Port < 1 || c.MySQL.Port > 65535 {
		return fmt.Errorf("MySQL port must be between 1 and 65535, got %d", c.MySQL.Port)
	}

	if c.Local.BindPort < 1 || c.Local.BindPort > 65535 {
		return fmt.Errorf("local bind port must be between 1 and 65535, got %d", c.Local.BindPort)
	}

	if c.Auth.Password == "" {
		return fmt.Errorf("AUTH_PASSWORD is required")
	}

	if c.Auth.IdleTimeout <= 0 {
		return fmt.Errorf("auth idle timeout must be positive")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.Logger.Level) {
		return fmt.Errorf("invalid log level %q, must be one of: %s", c.Logger.Level, strings.Join(validLogLevels, ", "))
	}

	validLogFormats := []string{"json", "text"}
	if !contains(validLogFormats, c.Logger.Format) {
		return fmt.Errorf("invalid log format %q, must be one of: %s", c.Logger.Format, strings.Join(validLogFormats, ", "))
	}

	if c.Security.RateLimitRPS <= 0 {
		return fmt.Errorf("rate limit RPS must be positive")
	}

	if c.Security.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit burst must be positive")
	}

	return nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// LogValue keeps secrets out of the startup config log line.
func (c *Config) LogValue() string {
	return fmt.Sprintf("server=%s csv=%s ssh=%s@%s:%d mysql=%s@%s:%d/%s local_bind=%d",
		c.Address(), c.Branches.CSVFile,
		c.SSH.Username, c.SSH.Host, c.SSH.Port,
		c.MySQL.User, c.MySQL.Host, c.MySQL.Port, c.MySQL.Database,
		c.Local.BindPort,
	)
}
