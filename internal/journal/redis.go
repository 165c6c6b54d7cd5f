package journal

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	logx "countdown/pkg/logx"
)

const (
	defaultRedisKey    = "countdown:deliveries"
	defaultRedisMaxLen = 1000
)

// redisStore keeps the newest records at the head of a capped list.
type redisStore struct {
	rdb    *redis.Client
	key    string
	maxLen int64
	log    logx.Logger
}

func openRedis(cfg RedisConfig, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, errors.New("redis addr is required")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Don't fail hard: the journal is best-effort and redis may come up later.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("redis journal unreachable at startup", logx.String("addr", cfg.Addr), logx.Err(err))
	}
	return newRedisStore(rdb, cfg.Key, cfg.MaxLen, log), nil
}

func newRedisStore(rdb *redis.Client, key string, maxLen int64, log logx.Logger) *redisStore {
	if strings.TrimSpace(key) == "" {
		key = defaultRedisKey
	}
	if maxLen <= 0 {
		maxLen = defaultRedisMaxLen
	}
	return &redisStore{rdb: rdb, key: key, maxLen: maxLen, log: log}
}

func (s *redisStore) Append(ctx context.Context, r Record) error {
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	pipe := s.rdb.TxPipeline()
	pipe.LPush(ctx, s.key, b)
	pipe.LTrim(ctx, s.key, 0, s.maxLen-1)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *redisStore) Recent(ctx context.Context, n int) ([]Record, error) {
	if n <= 0 {
		return nil, nil
	}
	vals, err := s.rdb.LRange(ctx, s.key, 0, int64(n-1)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(vals))
	for _, v := range vals {
		var r Record
		if err := json.Unmarshal([]byte(v), &r); err != nil {
			s.log.Debug("skipping bad journal entry", logx.Err(err))
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *redisStore) Close() error { return s.rdb.Close() }
