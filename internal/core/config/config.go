// Package config contains the configuration structures of the agent and the
// logic to load them from a YAML file.
package config

import (
	"os"

	fqdn "github.com/Showmax/go-fqdn"
	"github.com/pkg/errors"
	"github.com/signalfx/redis-keys-agent/internal/core/config/validation"
	"github.com/signalfx/redis-keys-agent/internal/monitors/rediskeys"
	log "github.com/sirupsen/logrus"
)

// Config is the top level config struct that everything goes under
type Config struct {
	// The hostname that is reported as the collectd host of every value.  If
	// blank, the fully qualified hostname of the machine is used.
	Hostname string `yaml:"hostname"`
	// How often to poll the Redis targets
	IntervalSeconds int          `yaml:"intervalSeconds" default:"10" validate:"min=1"`
	Logging         LogConfig    `yaml:"logging" default:"{}"`
	Writer          WriterConfig `yaml:"writer" default:"{}"`
	// The agent's own metrics and target status
	StatusServer StatusServerConfig `yaml:"statusServer" default:"{}"`
	RedisKeys    rediskeys.Config   `yaml:"redisKeys"`
	// This exists purely to give the user a place to put common yaml values to
	// reference in other parts of the config file.
	Scratch interface{} `yaml:"scratch" neverLog:"omit"`
}

// StatusServerConfig configures the internal status server
type StatusServerConfig struct {
	Enabled bool   `yaml:"enabled" default:"false"`
	Host    string `yaml:"host" default:"127.0.0.1"`
	Port    uint16 `yaml:"port" default:"8095"`
}

func (c *Config) setDefaultHostname() {
	if c.Hostname != "" {
		return
	}

	host := fqdn.Get()
	if host == "unknown" || host == "localhost" {
		log.Info("Error getting fully qualified hostname, using plain hostname")

		var err error
		host, err = os.Hostname()
		if err != nil {
			log.Error("Error getting system simple hostname, cannot set hostname")
			return
		}
	}

	log.Infof("Using hostname %s", host)
	c.Hostname = host
}

func (c *Config) initialize() (*Config, error) {
	c.setDefaultHostname()
	c.propagateValuesDown()

	if err := c.validate(); err != nil {
		return nil, errors.Wrap(err, "configuration is invalid")
	}

	return c, nil
}

// Send values from the top of the config down to nested configs that might
// need them
func (c *Config) propagateValuesDown() {
	if c.RedisKeys.IntervalSeconds == 0 {
		c.RedisKeys.IntervalSeconds = c.IntervalSeconds
	}
}

// Validate everything that we can about the main config
func (c *Config) validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}
	if err := validation.ValidateCustomConfig(&c.Logging); err != nil {
		return err
	}
	return validation.ValidateCustomConfig(&c.Writer)
}
