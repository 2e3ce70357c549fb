package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/enraizado/internal/flagx"
	"github.com/dmitrijs2005/enraizado/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations
// accept both strings such as "720h" and integer nanoseconds.
//
// Only fields present in the file override the current values.
type JsonConfig struct {
	HTTPAddr           string          `json:"http_addr"`
	DatabaseDSN        string          `json:"database_dsn"`
	Environment        string          `json:"environment"`
	BaseURL            string          `json:"base_url"`
	SessionLifetime    *timex.Duration `json:"session_lifetime"`
	ActivationLifetime *timex.Duration `json:"activation_lifetime"`
	BcryptCost         int             `json:"bcrypt_cost"`
	SMTPHost           string          `json:"smtp_host"`
	SMTPPort           int             `json:"smtp_port"`
	SMTPUser           string          `json:"smtp_user"`
	SMTPPassword       string          `json:"smtp_password"`
	SMTPFrom           string          `json:"smtp_from"`
	LogLevel           string          `json:"log_level"`
	MigrateOnStart     *bool           `json:"migrate_on_start"`
}

// parseJson loads values from the file named by -c/-config, if any.
// An unreadable file or invalid JSON panics.
func parseJson(config *Config, args []string) {
	jsonConfigFile := flagx.ConfigFilePath(args)

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.Environment, c.Environment)
	setString(&config.BaseURL, c.BaseURL)
	setString(&config.SMTPHost, c.SMTPHost)
	setString(&config.SMTPUser, c.SMTPUser)
	setString(&config.SMTPPassword, c.SMTPPassword)
	setString(&config.SMTPFrom, c.SMTPFrom)
	setString(&config.LogLevel, c.LogLevel)

	if c.SessionLifetime != nil {
		config.SessionLifetime = c.SessionLifetime.Duration
	}
	if c.ActivationLifetime != nil {
		config.ActivationLifetime = c.ActivationLifetime.Duration
	}
	if c.BcryptCost != 0 {
		config.BcryptCost = c.BcryptCost
	}
	if c.SMTPPort != 0 {
		config.SMTPPort = c.SMTPPort
	}
	if c.MigrateOnStart != nil {
		config.MigrateOnStart = *c.MigrateOnStart
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
