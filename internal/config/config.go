// Package config handles input from etc/*.toml files
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// EnvConfigJSON names the environment variable holding a JSON config override.
const EnvConfigJSON = "PORTCULLIS_CONFIG_JSON"

const (
	defaultShutDownTime   = 5
	defaultSessionExpiry  = 12 * time.Hour
	defaultGCSchedule     = "@every 10m"
	defaultRoute          = "/"
	defaultAdminUsername  = "admin"
	defaultAdminGroup     = "Administrators"
	defaultGroup          = "Users"
	defaultLanguage       = "en"
	defaultMaxLoginFaults = 5
)

// ReadConfig from config file.
// A .env file next to the working directory is loaded first, so the JSON
// override can also be kept there.
func ReadConfig(path string) (Config, error) {
	var (
		c             Config
		JSONConfigEnv string
		err           error
	)

	// a missing .env file is fine
	_ = godotenv.Load()

	// Read main configuration
	if path == "" {
		path = "./etc/"
	}

	if _, err = toml.DecodeFile(path+"main.toml", &c); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	// override it from env
	JSONConfigEnv = os.Getenv(EnvConfigJSON)

	if JSONConfigEnv != "" {
		c, err = decodeAndMergeConfig(c, JSONConfigEnv)
		if err != nil {
			return c, err
		}
	}

	return c, validate(&c)
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	err := json.Unmarshal([]byte(configAsJSON), &c)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to decode json config override")
	}

	return c, nil
}

// DumpConfig config as TOML String.
func DumpConfig(c *Config) (string, error) {
	var buffer bytes.Buffer
	t := toml.NewEncoder(&buffer)

	if err := t.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// DumpConfigJSON config as JSON String.
func DumpConfigJSON(c *Config) (string, error) {
	var buffer bytes.Buffer
	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// validate checks the settings the daemon can not start without and
// fills defaults for the optional ones.
func validate(c *Config) error {
	invalidErrMessage := "invalid config"

	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	if c.Webserver.URL == "" {
		return errors.Wrap(ErrEmptyURL, invalidErrMessage)
	}

	switch c.DB.GormEngine {
	case "":
		c.DB.GormEngine = EngineSQLite
	case EngineMySQL, EnginePostgres, EngineSQLite:
	default:
		return errors.Wrap(ErrUnknownGormEngine, invalidErrMessage)
	}

	switch c.Webserver.Session.Backend {
	case "":
		c.Webserver.Session.Backend = SessionBackendDB
	case SessionBackendDB, SessionBackendMySQL, SessionBackendPostgres:
	case SessionBackendRedis:
		if c.Webserver.Session.RedisAddr == "" {
			return errors.Wrap(ErrRedisAddrEmpty, invalidErrMessage)
		}
	default:
		return errors.Wrap(ErrUnknownSessionBackend, invalidErrMessage)
	}

	applyDefaults(c)

	return nil
}

func applyDefaults(c *Config) {
	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = defaultShutDownTime
	}

	if c.Webserver.Session.ExpiryTime == 0 {
		c.Webserver.Session.ExpiryTime = defaultSessionExpiry
	}

	if c.Webserver.Session.GCSchedule == "" {
		c.Webserver.Session.GCSchedule = defaultGCSchedule
	}

	if c.ACL.DefaultRoute == "" {
		c.ACL.DefaultRoute = defaultRoute
	}

	if c.ACL.MaxLoginFaults == 0 {
		c.ACL.MaxLoginFaults = defaultMaxLoginFaults
	}

	if c.Seed.AdminUsername == "" {
		c.Seed.AdminUsername = defaultAdminUsername
	}

	if c.Seed.AdminGroup == "" {
		c.Seed.AdminGroup = defaultAdminGroup
	}

	if c.Seed.DefaultGroup == "" {
		c.Seed.DefaultGroup = defaultGroup
	}

	if c.Seed.Language == "" {
		c.Seed.Language = defaultLanguage
	}
}
