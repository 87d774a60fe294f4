package config

import (
	"net/url"

	"github.com/pkg/errors"
	set "gopkg.in/fatih/set.v0"
)

var validSecurityLevels = set.NewNonTS("none", "sign", "encrypt")

// WriterConfig holds the destinations values are written to.  Any number of
// them can be enabled at once.
type WriterConfig struct {
	Collectd CollectdWriterConfig `yaml:"collectd" default:"{}"`
	Putval   PutvalWriterConfig   `yaml:"putval" default:"{}"`
	SignalFx SignalFxWriterConfig `yaml:"signalFx" default:"{}"`
	// If true, every value is logged at the debug level as it is written
	LogValues bool `yaml:"logValues" default:"false"`
}

// CollectdWriterConfig sends values to a collectd network plugin
type CollectdWriterConfig struct {
	Enabled bool `yaml:"enabled" default:"false"`
	// host:port of the collectd server
	Address string `yaml:"address" default:"localhost:25826"`
	// One of 'none', 'sign' or 'encrypt'
	SecurityLevel string `yaml:"securityLevel" default:"none"`
	Username      string `yaml:"username"`
	Password      string `yaml:"password" neverLog:"true"`
	// Maximum size of a network packet
	BufferSize int `yaml:"bufferSize" default:"1452" validate:"min=0"`
}

// PutvalWriterConfig writes values to stdout in the collectd exec plugin
// format
type PutvalWriterConfig struct {
	Enabled bool `yaml:"enabled" default:"false"`
}

// SignalFxWriterConfig sends values as datapoints to SignalFx ingest
type SignalFxWriterConfig struct {
	Enabled     bool   `yaml:"enabled" default:"false"`
	AccessToken string `yaml:"accessToken" neverLog:"true"`
	// The ingest URL for SignalFx, without the path
	IngestURL string `yaml:"ingestUrl" default:"https://ingest.signalfx.com"`
}

// Validate the writer config
func (wc *WriterConfig) Validate() error {
	if !wc.Collectd.Enabled && !wc.Putval.Enabled && !wc.SignalFx.Enabled {
		return errors.New("at least one writer must be enabled")
	}

	if wc.Collectd.Enabled {
		if !validSecurityLevels.Has(wc.Collectd.SecurityLevel) {
			return errors.Errorf("invalid collectd security level %s. Valid choices are %v",
				wc.Collectd.SecurityLevel, validSecurityLevels)
		}
		if wc.Collectd.SecurityLevel != "none" && wc.Collectd.Username == "" {
			return errors.New("collectd username is required when signing or encrypting")
		}
	}

	if wc.SignalFx.Enabled {
		if wc.SignalFx.AccessToken == "" {
			return errors.New("signalFx accessToken must be set")
		}
		if _, err := wc.SignalFx.ParsedIngestURL(); err != nil {
			return err
		}
	}
	return nil
}

// ParsedIngestURL parses the configured ingest URL
func (sc *SignalFxWriterConfig) ParsedIngestURL() (*url.URL, error) {
	u, err := url.Parse(sc.IngestURL)
	if err != nil {
		return nil, errors.Wrapf(err, "%s is not a valid ingest URL", sc.IngestURL)
	}
	return u, nil
}
