package rediskeys

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

// Client is the subset of Redis commands needed to poll a target.
type Client interface {
	// Info returns the parsed output of the INFO command.  A non-nil error
	// means the server could not be reached.
	Info(ctx context.Context) (map[string]string, error)
	Type(ctx context.Context, key string) (string, error)
	LLen(ctx context.Context, key string) (int64, error)
	HLen(ctx context.Context, key string) (int64, error)
	SCard(ctx context.Context, key string) (int64, error)
	ZCard(ctx context.Context, key string) (int64, error)
	XLen(ctx context.Context, key string) (int64, error)
	// Get returns the value of a string key and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Close() error
}

// Scanner is a Client that can also enumerate keys.
type Scanner interface {
	Client
	Keys(ctx context.Context, match string) ([]string, error)
}

// Dialer creates a client for a target.  Clients are created fresh for every
// poll cycle and closed at the end of it.
type Dialer func(tc *TargetConfig) Client

// RedisClient implements Scanner on top of go-redis
type RedisClient struct {
	client *redis.Client
	logger log.FieldLogger
}

var _ Scanner = &RedisClient{}

// NewRedisClient wraps a go-redis client created from opts
func NewRedisClient(opts *redis.Options) *RedisClient {
	return &RedisClient{
		client: redis.NewClient(opts),
		logger: log.WithFields(log.Fields{"monitorType": monitorType, "addr": opts.Addr}),
	}
}

// DialTarget is the default Dialer.  The connection is established lazily
// by the first command.
func DialTarget(tc *TargetConfig) Client {
	return NewRedisClient(&redis.Options{
		Addr:        tc.Addr(),
		Password:    tc.Auth,
		DialTimeout: 5 * time.Second,
		ReadTimeout: 5 * time.Second,
		// No retries, a failed target is skipped until the next cycle
		MaxRetries: -1,
		PoolSize:   1,
	})
}

// Info runs INFO
func (rc *RedisClient) Info(ctx context.Context) (map[string]string, error) {
	infoStr, err := rc.client.Info(ctx).Result()
	if err != nil {
		return nil, err
	}
	return parseInfoString(infoStr, rc.logger), nil
}

// Type runs TYPE
func (rc *RedisClient) Type(ctx context.Context, key string) (string, error) {
	return rc.client.Type(ctx, key).Result()
}

// LLen runs LLEN
func (rc *RedisClient) LLen(ctx context.Context, key string) (int64, error) {
	return rc.client.LLen(ctx, key).Result()
}

// HLen runs HLEN
func (rc *RedisClient) HLen(ctx context.Context, key string) (int64, error) {
	return rc.client.HLen(ctx, key).Result()
}

// SCard runs SCARD
func (rc *RedisClient) SCard(ctx context.Context, key string) (int64, error) {
	return rc.client.SCard(ctx, key).Result()
}

// ZCard runs ZCARD
func (rc *RedisClient) ZCard(ctx context.Context, key string) (int64, error) {
	return rc.client.ZCard(ctx, key).Result()
}

// XLen runs XLEN
func (rc *RedisClient) XLen(ctx context.Context, key string) (int64, error) {
	return rc.client.XLen(ctx, key).Result()
}

// Get runs GET
func (rc *RedisClient) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := rc.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Keys lists every key matching the glob-style pattern using SCAN, so that
// the server is not blocked the way KEYS would block it.
func (rc *RedisClient) Keys(ctx context.Context, match string) ([]string, error) {
	var keys []string
	iter := rc.client.Scan(ctx, 0, match, 1000).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}

// Close releases the connection
func (rc *RedisClient) Close() error {
	return rc.client.Close()
}
