package rediskeys

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	yaml "gopkg.in/yaml.v2"
)

func TestBlockFromMapSlice(t *testing.T) {
	var ms yaml.MapSlice
	require.NoError(t, yaml.Unmarshal([]byte(`
Host: redis.local
Port: 6380
Verbose: true
Redis_uptime_in_days:
Key_celery: [gauge, celery_queue]
Redis_used_memory: bytes
`), &ms))

	block, err := BlockFromMapSlice(ms)
	require.NoError(t, err)

	assert.Equal(t, Block{
		{Key: "Host", Values: []string{"redis.local"}},
		{Key: "Port", Values: []string{"6380"}},
		{Key: "Verbose", Values: []string{"true"}},
		{Key: "Redis_uptime_in_days"},
		{Key: "Key_celery", Values: []string{"gauge", "celery_queue"}},
		{Key: "Redis_used_memory", Values: []string{"bytes"}},
	}, block)

	assert.Equal(t, "", block[3].Value())
	assert.Equal(t, "gauge", block[4].Value())
}

func TestBlockFromMapSliceNested(t *testing.T) {
	var ms yaml.MapSlice
	require.NoError(t, yaml.Unmarshal([]byte(`
Host:
  name: redis.local
`), &ms))

	_, err := BlockFromMapSlice(ms)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Host")
}
