/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/tomoncle/userdir/database"
	"github.com/tomoncle/userdir/utils"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// LogConfig controls the logrus loggers created through utils.NewLogger.
type LogConfig struct {
	Level        string `yaml:"level" env:"LOG_LEVEL"`
	Format       string `yaml:"format" env:"CONSOLE_LOG_FORMAT"` // text or json
	File         string `yaml:"file" env:"LOG_FILE"`
	ReportCaller bool   `yaml:"report_caller" env:"LOG_REPORT_CALLER"`
}

// SecurityConfig holds password hashing settings.
type SecurityConfig struct {
	BcryptCost int `yaml:"bcrypt_cost" env:"USERDIR_BCRYPT_COST"`
}

// Config is the complete configuration of a user directory process.
type Config struct {
	Database database.Config `yaml:"database"`
	Log      LogConfig       `yaml:"log"`
	Security SecurityConfig  `yaml:"security"`
}

// ConfigLoader implements database.AbstractDatabaseConfigProvider.
func (c *Config) ConfigLoader() *database.Config {
	return &c.Database
}

// Default returns the configuration used when no file is given: an
// in-memory SQLite database whose tables are created on startup.
func Default() *Config {
	conn := database.DefaultConnectionConfig()
	conn.Type = "sqlite"
	conn.DBName = ":memory:"
	return &Config{
		Database: database.Config{
			ConnectionConfig:  *conn,
			DataMigrateConfig: database.DataMigrateConfig{EnableMigrateOnStartup: true},
		},
		Log:      LogConfig{Level: "info", Format: "text", ReportCaller: true},
		Security: SecurityConfig{BcryptCost: 10},
	}
}

// Options tells Load where to read from. Empty paths are skipped.
type Options struct {
	File    string
	DotEnv  string
	Environ map[string]string
}

// Load builds a Config from defaults, then the YAML file, then the dotenv
// file, then the process environment (or opts.Environ when set).
func Load(opts Options) (*Config, error) {
	cfg := Default()

	if opts.File != "" {
		data, err := os.ReadFile(opts.File)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	envOpts := env.Options{}
	if opts.Environ != nil {
		envOpts.Environment = opts.Environ
	}
	if opts.DotEnv != "" {
		values, err := godotenv.Read(opts.DotEnv)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read dotenv file: %w", err)
		}
		if len(values) > 0 {
			envOpts.Environment = mergeEnviron(values, envOpts.Environment)
		}
	}

	if err := env.ParseWithOptions(cfg, envOpts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeEnviron layers environ (the real environment when nil) over the
// dotenv values.
func mergeEnviron(dotenv map[string]string, environ map[string]string) map[string]string {
	if environ == nil {
		environ = env.ToMap(os.Environ())
	}
	out := make(map[string]string, len(dotenv)+len(environ))
	for k, v := range dotenv {
		out[k] = v
	}
	for k, v := range environ {
		out[k] = v
	}
	return out
}

// Validate rejects settings the process cannot start with.
func (c *Config) Validate() error {
	if !database.IsSupportedType(c.Database.ConnectionConfig.Type) {
		return fmt.Errorf("unsupported database type %q, supported types: %v", c.Database.ConnectionConfig.Type, database.SupportedTypes)
	}
	if cost := c.Security.BcryptCost; cost != 0 && (cost < bcrypt.MinCost || cost > bcrypt.MaxCost) {
		return fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return nil
}

// ApplyLogging configures the process loggers from c.Log.
func (c *Config) ApplyLogging() error {
	utils.ConfigureConsoleLogFormat(c.Log.Format)
	utils.ConfigureReportCaller(c.Log.ReportCaller)
	utils.ConfigureLogLevel(c.Log.Level)
	return utils.ConfigureFileLog(c.Log.File)
}
