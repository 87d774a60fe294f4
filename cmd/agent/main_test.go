package main

import (
	"bytes"
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"collectd.org/api"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalfx/redis-keys-agent/internal/monitors/rediskeys"
)

const putvalConfig = `
writer:
  putval:
    enabled: true
redisKeys:
  targets:
  - Redis_used_memory: bytes
`

func TestLogsGoToStderr(t *testing.T) {
	assert.Equal(t, os.Stderr, log.StandardLogger().Out)
}

func TestPutvalStdoutOnlyCarriesValues(t *testing.T) {
	dir, err := ioutil.TempDir("", "redis-keys-agent")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "agent.yaml")
	require.NoError(t, ioutil.WriteFile(path, []byte(putvalConfig), 0600))

	var stdout, logs bytes.Buffer
	origOut := log.StandardLogger().Out
	log.SetOutput(&logs)
	defer log.SetOutput(origOut)

	// No hostname is configured so loading the config logs the lookup
	conf, out, err := startup(&flags{configPath: path}, &stdout)
	require.NoError(t, err)
	assert.NotEmpty(t, conf.Hostname)

	require.NoError(t, out.Write(context.Background(), &api.ValueList{
		Identifier: api.Identifier{
			Host:         conf.Hostname,
			Plugin:       "redis_keys",
			Type:         "bytes",
			TypeInstance: "used_memory",
		},
		Time:     time.Unix(1600000000, 0),
		Interval: 10 * time.Second,
		Values:   []api.Value{api.Gauge(2048)},
	}))
	require.NoError(t, out.Close())

	assert.Contains(t, logs.String(), "Using hostname")

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 1)
	for _, l := range lines {
		assert.True(t, strings.HasPrefix(l, "PUTVAL "), l)
	}
}

func TestStartupBadConfig(t *testing.T) {
	_, _, err := startup(&flags{configPath: "/nonexistent/agent.yaml"}, ioutil.Discard)
	assert.Error(t, err)
}

// downClient behaves like a Redis server that cannot be reached
type downClient struct{}

func (downClient) Info(context.Context) (map[string]string, error) {
	return nil, errors.New("connection refused")
}
func (downClient) Type(context.Context, string) (string, error) { return "", nil }
func (downClient) LLen(context.Context, string) (int64, error)  { return 0, nil }
func (downClient) HLen(context.Context, string) (int64, error)  { return 0, nil }
func (downClient) SCard(context.Context, string) (int64, error) { return 0, nil }
func (downClient) ZCard(context.Context, string) (int64, error) { return 0, nil }
func (downClient) XLen(context.Context, string) (int64, error)  { return 0, nil }
func (downClient) Get(context.Context, string) (string, bool, error) {
	return "", false, nil
}
func (downClient) Close() error { return nil }

func TestReload(t *testing.T) {
	dir, err := ioutil.TempDir("", "redis-keys-agent")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "agent.yaml")
	require.NoError(t, ioutil.WriteFile(path, []byte(putvalConfig), 0600))

	f := &flags{configPath: path}
	conf, out, err := startup(f, ioutil.Discard)
	require.NoError(t, err)
	defer out.Close()

	monitor := &rediskeys.Monitor{
		Output:   out,
		Hostname: "box",
		Dial:     func(*rediskeys.TargetConfig) rediskeys.Client { return downClient{} },
	}
	require.NoError(t, monitor.Configure(&conf.RedisKeys))
	defer monitor.Shutdown()
	require.Len(t, monitor.TargetStatuses(), 1)

	require.NoError(t, ioutil.WriteFile(path, []byte(putvalConfig+"  - Port: 6380\n    Key_celery:\n"), 0600))
	require.NoError(t, reload(f, monitor))

	statuses := monitor.TargetStatuses()
	require.Len(t, statuses, 2)
	assert.Equal(t, 6380, statuses[1].Port)
	assert.Equal(t, 1, statuses[1].KeyMetrics)

	// A broken file leaves the targets alone
	require.NoError(t, ioutil.WriteFile(path, []byte("bogus: [\n"), 0600))
	assert.Error(t, reload(f, monitor))
	assert.Len(t, monitor.TargetStatuses(), 2)
}
