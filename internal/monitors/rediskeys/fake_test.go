package rediskeys

import (
	"context"
	"errors"
	"sort"
	"sync"

	"collectd.org/api"
)

type fakeKey struct {
	typ    string
	raw    string
	length int64
	// Deleted after TYPE reports it but before GET
	vanishOnGet bool
}

// fakeRedis implements Scanner against in-memory data
type fakeRedis struct {
	info    map[string]string
	infoErr error
	keys    map[string]fakeKey
	cmdErr  error
	closed  int
}

var _ Scanner = &fakeRedis{}

func (f *fakeRedis) Info(ctx context.Context) (map[string]string, error) {
	if f.infoErr != nil {
		return nil, f.infoErr
	}
	return f.info, nil
}

func (f *fakeRedis) Type(ctx context.Context, key string) (string, error) {
	if f.cmdErr != nil {
		return "", f.cmdErr
	}
	if k, ok := f.keys[key]; ok {
		return k.typ, nil
	}
	return "none", nil
}

func (f *fakeRedis) length(key string) (int64, error) {
	return f.keys[key].length, f.cmdErr
}

func (f *fakeRedis) LLen(ctx context.Context, key string) (int64, error)  { return f.length(key) }
func (f *fakeRedis) HLen(ctx context.Context, key string) (int64, error)  { return f.length(key) }
func (f *fakeRedis) SCard(ctx context.Context, key string) (int64, error) { return f.length(key) }
func (f *fakeRedis) ZCard(ctx context.Context, key string) (int64, error) { return f.length(key) }
func (f *fakeRedis) XLen(ctx context.Context, key string) (int64, error)  { return f.length(key) }

func (f *fakeRedis) Get(ctx context.Context, key string) (string, bool, error) {
	k, ok := f.keys[key]
	if !ok || k.vanishOnGet {
		return "", false, f.cmdErr
	}
	return k.raw, true, f.cmdErr
}

func (f *fakeRedis) Keys(ctx context.Context, match string) ([]string, error) {
	var out []string
	for k := range f.keys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

func (f *fakeRedis) Close() error {
	f.closed++
	return nil
}

var errConnRefused = errors.New("dial tcp: connection refused")

// fakeDialer returns the fake server for a target's address, or an
// unreachable one if there is none.
func fakeDialer(servers map[string]*fakeRedis) Dialer {
	return func(tc *TargetConfig) Client {
		if s, ok := servers[tc.Addr()]; ok {
			return s
		}
		return &fakeRedis{infoErr: errConnRefused}
	}
}

// recordingWriter keeps every value list written to it, keyed by plugin
// instance and then type instance.
type recordingWriter struct {
	sync.Mutex
	lists   []*api.ValueList
	values  map[string]map[string]api.Value
	err     error
	flushes int
}

func newRecordingWriter() *recordingWriter {
	return &recordingWriter{values: map[string]map[string]api.Value{}}
}

func (w *recordingWriter) Write(_ context.Context, vl *api.ValueList) error {
	w.Lock()
	defer w.Unlock()
	if w.err != nil {
		return w.err
	}
	w.lists = append(w.lists, vl)
	if w.values[vl.PluginInstance] == nil {
		w.values[vl.PluginInstance] = map[string]api.Value{}
	}
	w.values[vl.PluginInstance][vl.TypeInstance] = vl.Values[0]
	return nil
}

func (w *recordingWriter) Flush() error {
	w.Lock()
	defer w.Unlock()
	w.flushes++
	return nil
}

func conf(key string, values ...string) Directive {
	return Directive{Key: key, Values: values}
}

func mkconf(port, inst, metric string) Block {
	return Block{
		conf("Verbose", "true"),
		conf("Host", "localhost"),
		conf("Instance", inst),
		conf("Port", port),
		conf(metric),
	}
}
