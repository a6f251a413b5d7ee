package feed

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"tradesim/internal/model"
)

// RedisConfig configures the Redis stream source.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Stream   string // stream key holding JSON candles under the "data" field
	Batch    int64  // page size, defaults to 256
}

// Redis replays candles from a Redis Stream. Entries are paged with XRANGE
// so a finite recorded stream is drained deterministically; the source ends
// when the stream does.
type Redis struct {
	client *goredis.Client
	stream string
	batch  int64

	nextID string
	buf    []model.Candle
	i      int
}

// NewRedis connects, pings the server, and positions the source at the
// start of the stream.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	batch := cfg.Batch
	if batch <= 0 {
		batch = 256
	}
	return &Redis{
		client: client,
		stream: cfg.Stream,
		batch:  batch,
		nextID: "-",
	}, nil
}

func (r *Redis) Next(ctx context.Context) (model.Candle, bool, error) {
	if r.i < len(r.buf) {
		c := r.buf[r.i]
		r.i++
		return c, true, nil
	}

	entries, err := r.client.XRangeN(ctx, r.stream, r.nextID, "+", r.batch).Result()
	if err != nil {
		return model.Candle{}, false, fmt.Errorf("redis xrange %s: %w", r.stream, err)
	}
	if len(entries) == 0 {
		return model.Candle{}, false, nil
	}
	// Exclusive range start so the next page skips the last entry seen.
	r.nextID = "(" + entries[len(entries)-1].ID

	r.buf = r.buf[:0]
	for _, e := range entries {
		data, ok := e.Values["data"].(string)
		if !ok {
			return model.Candle{}, false, fmt.Errorf("redis entry %s: missing data field", e.ID)
		}
		c, err := model.DecodeCandle([]byte(data))
		if err != nil {
			return model.Candle{}, false, fmt.Errorf("redis entry %s: %w", e.ID, err)
		}
		r.buf = append(r.buf, c)
	}
	r.i = 1
	return r.buf[0], true, nil
}

func (r *Redis) Close() error { return r.client.Close() }
