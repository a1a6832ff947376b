// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// page.go provides a Valkey-backed cache for serialized public responses.
// Entries can be registered under tags; dropping a tag drops every entry
// registered under it, so a change to categories or posts clears all
// projections built from them without knowing their keys.
//
// Every tag also has a generation counter that InvalidateTags bumps. A
// reader takes the generation before it loads its data and hands it to
// SetTagged, which stores nothing if a tag was invalidated in between.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// pageKeyPrefix is the Valkey key prefix for cached pages.
	pageKeyPrefix = "page:"

	// tagKeyPrefix is the Valkey key prefix for tag sets. Each set holds
	// the full keys of the pages registered under the tag.
	tagKeyPrefix = "tag:"

	// genKeyPrefix is the Valkey key prefix for tag generation counters.
	// The counters carry no TTL and survive InvalidateAll.
	genKeyPrefix = "taggen:"

	// DefaultPageTTL is how long a cached page stays valid.
	DefaultPageTTL = 5 * time.Minute
)

// PageCache manages response caching in Valkey.
type PageCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPageCache creates a new page cache backed by the given Valkey client.
func NewPageCache(client *redis.Client, ttl time.Duration) *PageCache {
	if ttl == 0 {
		ttl = DefaultPageTTL
	}
	return &PageCache{client: client, ttl: ttl}
}

// Get retrieves a cached page. The bool is false on a miss or error.
func (pc *PageCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := pc.client.Get(ctx, pageKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("page cache get error", "key", key, "error", err)
		return nil, false
	}
	slog.Debug("page cache hit", "key", key)
	return val, true
}

// Set stores a page with the configured TTL.
func (pc *PageCache) Set(ctx context.Context, key string, data []byte) {
	if err := pc.client.Set(ctx, pageKeyPrefix+key, data, pc.ttl).Err(); err != nil {
		slog.Warn("page cache set error", "key", key, "error", err)
	}
}

// errGenerationMoved aborts a tagged write whose data predates an
// invalidation.
var errGenerationMoved = errors.New("tag generation moved")

// Generation returns the combined generation of tags. It returns -1 when
// the counters cannot be read, which makes the matching SetTagged a no-op.
func (pc *PageCache) Generation(ctx context.Context, tags ...string) int64 {
	gen, err := generation(ctx, pc.client, genKeys(tags))
	if err != nil {
		slog.Warn("page cache generation error", "tags", tags, "error", err)
		return -1
	}
	return gen
}

// SetTagged stores a page and registers it under every tag, provided the
// tags' generation still equals gen. The tag sets outlive their pages by
// one TTL so a set never expires before a member.
func (pc *PageCache) SetTagged(ctx context.Context, key string, data []byte, gen int64, tags ...string) {
	if gen < 0 {
		return
	}
	full := pageKeyPrefix + key
	counters := genKeys(tags)

	err := pc.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := generation(ctx, tx, counters)
		if err != nil {
			return err
		}
		if current != gen {
			return errGenerationMoved
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, full, data, pc.ttl)
			for _, tag := range tags {
				pipe.SAdd(ctx, tagKeyPrefix+tag, full)
				pipe.Expire(ctx, tagKeyPrefix+tag, 2*pc.ttl)
			}
			return nil
		})
		return err
	}, counters...)

	switch {
	case err == nil:
	case errors.Is(err, errGenerationMoved), errors.Is(err, redis.TxFailedErr):
		slog.Debug("page cache write skipped, tags invalidated meanwhile", "key", key, "tags", tags)
	default:
		slog.Warn("page cache tagged set error", "key", key, "tags", tags, "error", err)
	}
}

// InvalidateTags removes every page registered under the given tags and
// the tag sets themselves. The generation is bumped first so a concurrent
// SetTagged either fails its check or writes a key that is deleted here.
func (pc *PageCache) InvalidateTags(ctx context.Context, tags ...string) {
	for _, tag := range tags {
		if err := pc.client.Incr(ctx, genKeyPrefix+tag).Err(); err != nil {
			slog.Warn("page cache generation bump error", "tag", tag, "error", err)
		}
		setKey := tagKeyPrefix + tag
		members, err := pc.client.SMembers(ctx, setKey).Result()
		if err != nil {
			slog.Warn("page cache tag lookup error", "tag", tag, "error", err)
			continue
		}
		keys := append(members, setKey)
		if err := pc.client.Del(ctx, keys...).Err(); err != nil {
			slog.Warn("page cache tag invalidate error", "tag", tag, "error", err)
			continue
		}
		slog.Debug("page cache tag invalidated", "tag", tag, "pages", len(members))
	}
}

// InvalidatePage removes a single page from the cache by its key.
func (pc *PageCache) InvalidatePage(ctx context.Context, key string) {
	if err := pc.client.Del(ctx, pageKeyPrefix+key).Err(); err != nil {
		slog.Warn("page cache invalidate error", "key", key, "error", err)
		return
	}
	slog.Debug("page cache invalidated", "key", key)
}

// InvalidateAll removes all cached pages and tag sets by scanning for
// their prefixes.
func (pc *PageCache) InvalidateAll(ctx context.Context) {
	var deleted int
	for _, pattern := range []string{pageKeyPrefix + "*", tagKeyPrefix + "*"} {
		var cursor uint64
		for {
			keys, nextCursor, err := pc.client.Scan(ctx, cursor, pattern, 100).Result()
			if err != nil {
				slog.Warn("page cache scan error", "error", err)
				return
			}
			if len(keys) > 0 {
				if err := pc.client.Del(ctx, keys...).Err(); err != nil {
					slog.Warn("page cache bulk delete error", "error", err)
				}
				deleted += len(keys)
			}
			cursor = nextCursor
			if cursor == 0 {
				break
			}
		}
	}
	if deleted > 0 {
		slog.Info("page cache fully cleared", "deleted", deleted)
	}
}

// mgetter is implemented by both *redis.Client and *redis.Tx.
type mgetter interface {
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
}

// generation sums the counters. Counters only grow, so the sum changes
// whenever any of them does.
func generation(ctx context.Context, c mgetter, counters []string) (int64, error) {
	if len(counters) == 0 {
		return 0, nil
	}
	vals, err := c.MGet(ctx, counters...).Result()
	if err != nil {
		return 0, err
	}
	var sum int64
	for _, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, err
		}
		sum += n
	}
	return sum, nil
}

func genKeys(tags []string) []string {
	keys := make([]string, len(tags))
	for i, tag := range tags {
		keys[i] = genKeyPrefix + tag
	}
	return keys
}

// HomepageKey returns the cache key for the homepage.
func HomepageKey() string {
	return "_homepage"
}

// TopicKey returns the cache key for a topic page.
func TopicKey(slug string) string {
	return "topics/" + slug
}
