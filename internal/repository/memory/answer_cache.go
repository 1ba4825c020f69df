package memory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"doc-assistant-be/internal/dto"

	"github.com/redis/go-redis/v9"
)

// AnswerCache keeps recently produced answers in Redis so repeated
// questions skip the retrieval loop entirely. Keys are digests of the
// normalized query text; entries live for a short TTL because any new
// ingest can change the best answer.
type AnswerCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewAnswerCache(rdb *redis.Client, ttl time.Duration) *AnswerCache {
	return &AnswerCache{
		rdb: rdb,
		ttl: ttl,
	}
}

func (c *AnswerCache) key(query string) string {
	digest := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(query))))
	return "assistant:answer:" + hex.EncodeToString(digest[:])
}

func (c *AnswerCache) Get(ctx context.Context, query string) (*dto.AskResponse, bool) {
	if c.rdb == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, c.key(query)).Result()
	if err != nil {
		// Misses and Redis outages both mean "answer it the long way"
		return nil, false
	}
	var resp dto.AskResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, false
	}
	return &resp, true
}

func (c *AnswerCache) Set(ctx context.Context, query string, resp *dto.AskResponse) {
	if c.rdb == nil || resp == nil {
		return
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return
	}
	_ = c.rdb.Set(ctx, c.key(query), raw, c.ttl).Err()
}

// Flush drops every cached answer. Called when memory is reset or a
// document is removed, since prior answers may cite deleted passages.
func (c *AnswerCache) Flush(ctx context.Context) {
	if c.rdb == nil {
		return
	}
	iter := c.rdb.Scan(ctx, 0, "assistant:answer:*", 100).Iterator()
	for iter.Next(ctx) {
		_ = c.rdb.Del(ctx, iter.Val()).Err()
	}
}
