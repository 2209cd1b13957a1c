package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/massaviva/massaviva-backend/pkg/logger"
	pkgredis "github.com/massaviva/massaviva-backend/pkg/redis"
)

// RedisStore keeps each document as a JSON blob under a namespaced key and
// broadcasts the full post-write document on a per-path pub/sub channel.
// Subscribers get the stored value first, then every broadcast.
type RedisStore struct {
	client *pkgredis.Client
	logg   *logger.Logger
}

// NewRedisStore wraps the shared redis client as a document store.
func NewRedisStore(client *pkgredis.Client, logg *logger.Logger) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("redis client required")
	}
	return &RedisStore{client: client, logg: logg}, nil
}

// Subscribe implements Store. The initial snapshot is read after the channel
// subscription is established so a concurrent write cannot fall between the
// read and the first broadcast.
func (s *RedisStore) Subscribe(ctx context.Context, path string, fn SnapshotFunc) (func(), error) {
	if fn == nil {
		return nil, errors.New("snapshot callback required")
	}

	channel := s.client.DocumentChannel(path)
	pubsub, err := s.client.Subscribe(ctx, channel)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", path, err)
	}

	current, err := s.read(ctx, path)
	if err != nil {
		_ = pubsub.Close()
		return nil, err
	}
	fn(current)

	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			_ = pubsub.Close()
		})
	}

	go func() {
		ch := pubsub.Channel()
		for {
			select {
			case <-done:
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var doc Document
				if err := json.Unmarshal([]byte(msg.Payload), &doc); err != nil {
					if s.logg != nil {
						s.logg.Error(context.Background(), "docstore: bad change payload", err)
					}
					continue
				}
				select {
				case <-done:
					return
				default:
					fn(doc)
				}
			}
		}
	}()

	return cancel, nil
}

// Write implements Store. Merge reads the existing document and overlays the
// named fields; the read-modify-write is unguarded, matching the
// last-observed-write-wins discipline of the cart mirror.
func (s *RedisStore) Write(ctx context.Context, path string, data Document, merge bool) error {
	doc := data
	if merge {
		existing, err := s.read(ctx, path)
		if err != nil {
			return err
		}
		if existing != nil {
			merged := Document{}
			for k, v := range existing {
				merged[k] = v
			}
			for k, v := range data {
				merged[k] = v
			}
			doc = merged
		}
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", path, err)
	}

	key := s.client.DocumentKey(path)
	if err := s.client.Set(ctx, key, payload, 0); err != nil {
		return fmt.Errorf("write document %s: %w", path, err)
	}
	if err := s.client.Publish(ctx, s.client.DocumentChannel(path), payload); err != nil {
		return fmt.Errorf("broadcast document %s: %w", path, err)
	}
	return nil
}

func (s *RedisStore) read(ctx context.Context, path string) (Document, error) {
	raw, err := s.client.Get(ctx, s.client.DocumentKey(path))
	if err != nil {
		if errors.Is(err, pkgredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("read document %s: %w", path, err)
	}
	var doc Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", path, err)
	}
	return doc, nil
}
