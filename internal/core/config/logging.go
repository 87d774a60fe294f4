package config

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
	set "gopkg.in/fatih/set.v0"
)

var validLogFormats = set.NewNonTS("text", "json")

// LogConfig contains configuration related to logging
type LogConfig struct {
	// Valid values are 'debug', 'info', 'warning', and 'error'
	Level string `yaml:"level" default:"info"`
	// Either 'text' or 'json'
	Format string `yaml:"format" default:"text"`
}

// Validate the log config
func (lc *LogConfig) Validate() error {
	if lc.LogrusLevel() == nil {
		return errors.Errorf("invalid log level %s", lc.Level)
	}
	if !validLogFormats.Has(lc.Format) {
		return errors.Errorf("invalid log format %s. Valid choices are %v", lc.Format, validLogFormats)
	}
	return nil
}

// LogrusLevel returns a logrus log level based on the configured level in
// LogConfig.
func (lc *LogConfig) LogrusLevel() *log.Level {
	if lc.Level != "" {
		level, err := log.ParseLevel(lc.Level)
		if err != nil {
			log.WithFields(log.Fields{
				"level": lc.Level,
			}).Error("Invalid log level")
			return nil
		}
		return &level
	}
	return nil
}

// LogrusFormatter returns the logrus formatter matching Format
func (lc *LogConfig) LogrusFormatter() log.Formatter {
	switch lc.Format {
	case "json":
		return &log.JSONFormatter{}
	default:
		return &prefixed.TextFormatter{FullTimestamp: true}
	}
}

// Apply sets the standard logger up according to the config
func (lc *LogConfig) Apply() {
	if level := lc.LogrusLevel(); level != nil {
		log.SetLevel(*level)
	}
	log.SetFormatter(lc.LogrusFormatter())
}
