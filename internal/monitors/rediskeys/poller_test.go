package rediskeys

import (
	"context"
	"testing"
	"time"

	"collectd.org/api"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPoller(r *Registry, servers map[string]*fakeRedis, w *recordingWriter) *Poller {
	d := NewDispatcher(w, "testhost", 10*time.Second, nil)
	return NewPoller(r, fakeDialer(servers), d, nil, nil)
}

func TestPollCycle(t *testing.T) {
	ctx := context.Background()

	t.Run("broken target does not stop the others", func(t *testing.T) {
		r := NewRegistry(false, nil)
		r.Configure(mkconf("6379", "normal", "redis_uptime_in_days"))
		r.Configure(mkconf("6378", "broken", "redis_uptime_in_days"))

		server := &fakeRedis{info: map[string]string{"uptime_in_days": "3"}}
		w := newRecordingWriter()
		newTestPoller(r, map[string]*fakeRedis{"localhost:6379": server}, w).RunPollCycle(ctx)

		require.Len(t, w.lists, 1)
		assert.Equal(t, api.Gauge(3), w.values["normal"]["uptime_in_days"])
		assert.NotContains(t, w.values, "broken")
		assert.Equal(t, 1, w.flushes)
		assert.Equal(t, 1, server.closed)
	})

	t.Run("each target reports its own metrics", func(t *testing.T) {
		r := NewRegistry(false, nil)
		r.Configure(mkconf("6379", "normal", "redis_uptime_in_days"))
		r.Configure(mkconf("6379", "x-files", "redis_used_memory"))

		server := &fakeRedis{info: map[string]string{
			"uptime_in_days": "3",
			"used_memory":    "1024",
		}}
		w := newRecordingWriter()
		newTestPoller(r, map[string]*fakeRedis{"localhost:6379": server}, w).RunPollCycle(ctx)

		assert.Equal(t, map[string]map[string]api.Value{
			"normal":  {"uptime_in_days": api.Gauge(3)},
			"x-files": {"used_memory": api.Gauge(1024)},
		}, w.values)
		assert.Equal(t, 2, server.closed)
	})

	t.Run("shared metric specs", func(t *testing.T) {
		r := NewRegistry(true, nil)
		r.Configure(mkconf("6379", "normal", "redis_uptime_in_days"))
		r.Configure(mkconf("6379", "x-files", "redis_used_memory"))

		server := &fakeRedis{info: map[string]string{
			"uptime_in_days": "3",
			"used_memory":    "1024",
		}}
		w := newRecordingWriter()
		newTestPoller(r, map[string]*fakeRedis{"localhost:6379": server}, w).RunPollCycle(ctx)

		both := map[string]api.Value{"uptime_in_days": api.Gauge(3), "used_memory": api.Gauge(1024)}
		assert.Equal(t, map[string]map[string]api.Value{
			"normal":  both,
			"x-files": both,
		}, w.values)
	})

	t.Run("key metrics", func(t *testing.T) {
		r := NewRegistry(false, nil)
		r.Configure(Block{
			conf("Instance", "celery"),
			conf("Missing_Key_Value", "-1"),
			conf("Key_celery", "gauge", "_kombu.binding.celery"),
			conf("Key_hash"),
			conf("Key_set", "gauge"),
			conf("Key_zset", "gauge"),
			conf("Key_stream", "gauge"),
			conf("Key_counter", "counter"),
			conf("Key_gone"),
			conf("Key_empty"),
			conf("Key_word"),
			conf("Key_vanished"),
			conf("Key_debt", "counter"),
		})

		server := &fakeRedis{
			info: map[string]string{"redis_version": "6.2.6"},
			keys: map[string]fakeKey{
				"celery":   {typ: "list", length: 12},
				"hash":     {typ: "hash", length: 4},
				"set":      {typ: "set", length: 5},
				"zset":     {typ: "zset", length: 6},
				"stream":   {typ: "stream", length: 7},
				"counter":  {typ: "string", raw: "42"},
				"empty":    {typ: "string", raw: ""},
				"word":     {typ: "string", raw: "hello"},
				"vanished": {typ: "string", raw: "3", vanishOnGet: true},
				"debt":     {typ: "string", raw: "-20"},
			},
		}
		w := newRecordingWriter()
		newTestPoller(r, map[string]*fakeRedis{"localhost:6379": server}, w).RunPollCycle(ctx)

		assert.Equal(t, map[string]api.Value{
			"_kombu.binding.celery": api.Gauge(12),
			"hash":                  api.Gauge(4),
			"set":                   api.Gauge(5),
			"zset":                  api.Gauge(6),
			"stream":                api.Gauge(7),
			"counter":               api.Counter(42),
			"gone":                  api.Gauge(-1),
			"empty":                 api.Gauge(-1),
			"vanished":              api.Gauge(-1),
		}, w.values["celery"])

		require.NotEmpty(t, w.lists)
		vl := w.lists[0]
		assert.Equal(t, "testhost", vl.Host)
		assert.Equal(t, "redis_keys", vl.Plugin)
		assert.Equal(t, "celery", vl.PluginInstance)
		assert.Equal(t, "gauge", vl.Type)
		assert.Equal(t, 10*time.Second, vl.Interval)
	})

	t.Run("info values", func(t *testing.T) {
		r := NewRegistry(false, nil)
		r.Configure(Block{
			conf("Instance", "main"),
			conf("Redis_total_commands_processed", "gauge", "cmds"),
			conf("Redis_total_connections_received"),
			conf("Redis_used_cpu_sys", "gauge", "cpu"),
			conf("Redis_redis_version"),
			conf("Redis_not_there"),
			conf("Redis_db0_keys"),
		})

		server := &fakeRedis{info: map[string]string{
			"total_commands_processed":   "1000",
			"total_connections_received": "12",
			"used_cpu_sys":               "1.25",
			"redis_version":              "6.2.6",
			"db0_keys":                   "8",
		}}
		w := newRecordingWriter()
		newTestPoller(r, map[string]*fakeRedis{"localhost:6379": server}, w).RunPollCycle(ctx)

		assert.Equal(t, map[string]api.Value{
			"commands_processed":   api.Counter(1000),
			"connections_received": api.Counter(12),
			"cpu":                  api.Gauge(1.25),
			"db0_keys":             api.Gauge(8),
		}, w.values["main"])
	})

	t.Run("empty info skips the target", func(t *testing.T) {
		r := NewRegistry(false, nil)
		r.Configure(mkconf("6379", "normal", "key_celery"))

		server := &fakeRedis{
			info: map[string]string{},
			keys: map[string]fakeKey{"celery": {typ: "list", length: 1}},
		}
		w := newRecordingWriter()
		newTestPoller(r, map[string]*fakeRedis{"localhost:6379": server}, w).RunPollCycle(ctx)

		assert.Empty(t, w.lists)
		assert.Equal(t, 1, server.closed)
	})

	t.Run("failing key command skips only that key", func(t *testing.T) {
		r := NewRegistry(false, nil)
		r.Configure(Block{
			conf("Instance", "main"),
			conf("Redis_used_memory"),
			conf("Key_celery"),
		})

		server := &fakeRedis{
			info:   map[string]string{"used_memory": "1"},
			keys:   map[string]fakeKey{"celery": {typ: "list", length: 1}},
			cmdErr: errors.New("READONLY"),
		}
		w := newRecordingWriter()
		newTestPoller(r, map[string]*fakeRedis{"localhost:6379": server}, w).RunPollCycle(ctx)

		assert.Equal(t, map[string]api.Value{"used_memory": api.Gauge(1)}, w.values["main"])
	})

	t.Run("bad config block is still polled", func(t *testing.T) {
		r := NewRegistry(false, nil)
		_, warnings := r.Configure(Block{
			conf("foo", "bar"),
			conf("Redis_uptime_in_days"),
		})
		require.Len(t, warnings, 1)

		server := &fakeRedis{info: map[string]string{"uptime_in_days": "3"}}
		w := newRecordingWriter()
		newTestPoller(r, map[string]*fakeRedis{"localhost:6379": server}, w).RunPollCycle(ctx)

		assert.Equal(t, api.Gauge(3), w.values["localhost:6379"]["uptime_in_days"])
	})

	t.Run("write errors do not stop the cycle", func(t *testing.T) {
		r := NewRegistry(false, nil)
		r.Configure(mkconf("6379", "normal", "redis_uptime_in_days"))

		server := &fakeRedis{info: map[string]string{"uptime_in_days": "3"}}
		w := newRecordingWriter()
		w.err = errors.New("sink closed")
		newTestPoller(r, map[string]*fakeRedis{"localhost:6379": server}, w).RunPollCycle(ctx)

		assert.Empty(t, w.lists)
		assert.Equal(t, 1, w.flushes)
	})

	t.Run("no targets", func(t *testing.T) {
		w := newRecordingWriter()
		newTestPoller(NewRegistry(false, nil), nil, w).RunPollCycle(ctx)
		assert.Empty(t, w.lists)
		assert.Equal(t, 1, w.flushes)
	})
}
