package writer

import (
	"collectd.org/network"
	"github.com/pkg/errors"
	"github.com/signalfx/redis-keys-agent/internal/core/config"
)

var securityLevels = map[string]network.SecurityLevel{
	"none":    network.None,
	"sign":    network.Sign,
	"encrypt": network.Encrypt,
}

// NewCollectdWriter connects to a collectd server using the binary network
// protocol.  The returned client buffers values until Flush is called or a
// packet is full.
func NewCollectdWriter(conf *config.CollectdWriterConfig) (*network.Client, error) {
	level, ok := securityLevels[conf.SecurityLevel]
	if !ok {
		return nil, errors.Errorf("unknown security level %s", conf.SecurityLevel)
	}

	client, err := network.Dial(conf.Address, network.ClientOptions{
		SecurityLevel: level,
		Username:      conf.Username,
		Password:      conf.Password,
		BufferSize:    conf.BufferSize,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "could not connect to collectd at %s", conf.Address)
	}
	return client, nil
}
