package config

import (
	"fmt"
	"io/ioutil"
	"os"
	"regexp"

	"github.com/creasty/defaults"
	"github.com/pkg/errors"
	"github.com/signalfx/redis-keys-agent/internal/utils"
	log "github.com/sirupsen/logrus"
	yaml "gopkg.in/yaml.v2"
)

// LoadConfig reads and validates the config file at configPath
func LoadConfig(configPath string) (*Config, error) {
	content, err := ioutil.ReadFile(configPath)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read config file %s", configPath)
	}
	return loadYAML(content)
}

func loadYAML(fileContent []byte) (*Config, error) {
	config := &Config{}

	preprocessedContent := preprocessConfig(fileContent)

	err := yaml.UnmarshalStrict(preprocessedContent, config)
	if err != nil {
		return nil, utils.YAMLErrorWithContext(preprocessedContent, err)
	}

	if err := defaults.Set(config); err != nil {
		panic(fmt.Sprintf("Config defaults are wrong types: %s", err))
	}

	return config.initialize()
}

var envVarRE = regexp.MustCompile(`\${\s*([\w-]+?)\s*}`)

// Replaces envvar syntax with the actual envvars
func preprocessConfig(content []byte) []byte {
	return envVarRE.ReplaceAllFunc(content, func(bs []byte) []byte {
		parts := envVarRE.FindSubmatch(bs)
		envvar := string(parts[1])

		val, ok := os.LookupEnv(envvar)
		if !ok {
			log.WithFields(log.Fields{
				"envvar": envvar,
			}).Warn("Config references an envvar that is not set")
		}

		return []byte(val)
	})
}
