package gen

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// DatabaseConfig is the migrated persistence configuration.
type DatabaseConfig struct {
	Type     string
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Sync     bool
}

// ServerConfig is the migrated HTTP server configuration.
type ServerConfig struct {
	Port int
	Host string
}

// AppConfig is everything the generated project needs from the source
// application's configuration files.
type AppConfig struct {
	Database DatabaseConfig
	Server   ServerConfig
}

func defaultConfig() AppConfig {
	return AppConfig{
		Database: DatabaseConfig{Type: "mysql", Host: "localhost", Port: 3306, Database: "mydb", Username: "root"},
		Server:   ServerConfig{Port: 3000, Host: "0.0.0.0"},
	}
}

var (
	rePropDBURL      = regexp.MustCompile(`(?im)^spring\.datasource\.url\s*=\s*(.+)$`)
	rePropDBUser     = regexp.MustCompile(`(?im)^spring\.datasource\.username\s*=\s*(.+)$`)
	rePropDBPassword = regexp.MustCompile(`(?im)^spring\.datasource\.password\s*=\s*(.+)$`)
	rePropPort       = regexp.MustCompile(`(?im)^server\.port\s*=\s*(\d+)$`)
	rePropDDLAuto    = regexp.MustCompile(`(?im)^spring\.jpa\.hibernate\.ddl-auto\s*=\s*(.+)$`)

	reYamlDBURL = regexp.MustCompile(`datasource:\s*\n\s*url:\s*["']?([^"'\n]+)`)
	reYamlPort  = regexp.MustCompile(`(?m)^server:\s*\n\s*port:\s*(\d+)`)

	reJDBCHost = regexp.MustCompile(`//([^:/]+)(?::(\d+))?/([\w-]+)`)
)

// MigrateConfig reads the source application's configuration
// (application.properties, falling back to application.yml) into the shape
// the generated project consumes. Missing files or fields keep defaults.
func MigrateConfig(repoRoot string, logger *zap.Logger) AppConfig {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := defaultConfig()

	resources := filepath.Join(repoRoot, "src", "main", "resources")
	if b, err := os.ReadFile(filepath.Join(resources, "application.properties")); err == nil {
		parseProperties(string(b), &cfg)
		logger.Info("migrated application.properties")
		return cfg
	}
	if b, err := os.ReadFile(filepath.Join(resources, "application.yml")); err == nil {
		parseYAML(string(b), &cfg)
		logger.Info("migrated application.yml")
		return cfg
	}
	logger.Warn("no source configuration found, using defaults", zap.String("root", repoRoot))
	return cfg
}

func parseProperties(content string, cfg *AppConfig) {
	if m := rePropDBURL.FindStringSubmatch(content); m != nil {
		applyJDBCURL(strings.TrimSpace(m[1]), &cfg.Database)
	}
	if m := rePropDBUser.FindStringSubmatch(content); m != nil {
		cfg.Database.Username = strings.TrimSpace(m[1])
	}
	if m := rePropDBPassword.FindStringSubmatch(content); m != nil {
		cfg.Database.Password = strings.TrimSpace(m[1])
	}
	if m := rePropPort.FindStringSubmatch(content); m != nil {
		if p, err := strconv.Atoi(m[1]); err == nil {
			cfg.Server.Port = p
		}
	}
	if m := rePropDDLAuto.FindStringSubmatch(content); m != nil {
		ddl := strings.TrimSpace(m[1])
		cfg.Database.Sync = ddl == "update" || ddl == "create"
	}
}

func parseYAML(content string, cfg *AppConfig) {
	if m := reYamlDBURL.FindStringSubmatch(content); m != nil {
		applyJDBCURL(strings.TrimSpace(m[1]), &cfg.Database)
	}
	if m := reYamlPort.FindStringSubmatch(content); m != nil {
		if p, err := strconv.Atoi(m[1]); err == nil {
			cfg.Server.Port = p
		}
	}
}

func applyJDBCURL(url string, db *DatabaseConfig) {
	lower := strings.ToLower(url)
	switch {
	case strings.Contains(lower, "postgresql"):
		db.Type = "postgres"
		db.Port = 5432
	case strings.Contains(lower, "h2"):
		db.Type = "sqlite"
	default:
		db.Type = "mysql"
		db.Port = 3306
	}
	if m := reJDBCHost.FindStringSubmatch(url); m != nil {
		db.Host = m[1]
		if m[2] != "" {
			if p, err := strconv.Atoi(m[2]); err == nil {
				db.Port = p
			}
		}
		db.Database = m[3]
	}
}

// EnvFile renders the .env contents for the generated project.
func (c AppConfig) EnvFile() string {
	var b strings.Builder
	b.WriteString("# Environment configuration\n")
	fmt.Fprintf(&b, "PORT=%d\n\n", c.Server.Port)
	fmt.Fprintf(&b, "DB_TYPE=%s\n", c.Database.Type)
	fmt.Fprintf(&b, "DB_HOST=%s\n", c.Database.Host)
	fmt.Fprintf(&b, "DB_PORT=%d\n", c.Database.Port)
	fmt.Fprintf(&b, "DB_NAME=%s\n", c.Database.Database)
	fmt.Fprintf(&b, "DB_USER=%s\n", c.Database.Username)
	fmt.Fprintf(&b, "DB_PASSWORD=%s\n", c.Database.Password)
	return b.String()
}

// DatabaseJS renders config/database.js wiring Sequelize to the migrated
// connection settings with env overrides.
func (c AppConfig) DatabaseJS() string {
	db := c.Database
	return fmt.Sprintf(`const { Sequelize } = require('sequelize');

const sequelize = new Sequelize(
  process.env.DB_NAME || '%s',
  process.env.DB_USER || '%s',
  process.env.DB_PASSWORD || '%s',
  {
    host: process.env.DB_HOST || '%s',
    port: process.env.DB_PORT || %d,
    dialect: '%s',
    logging: false,
  }
);

module.exports = sequelize;
`, db.Database, db.Username, db.Password, db.Host, db.Port, db.Type)
}
