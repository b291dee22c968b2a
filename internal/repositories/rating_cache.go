package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/uyho/backend/internal/models"
)

const (
	ratingSummaryKeyPrefix    = "course:rating:"
	ratingGenerationKeyPrefix = "course:rating:gen:"
	ratingSummaryTTL          = 10 * time.Minute
	// the generation must outlive any summary written under it
	ratingGenerationTTL = 24 * time.Hour
)

// fillRatingSummary stores ARGV[2] under KEYS[1] only while the generation in
// KEYS[2] still equals ARGV[1]
var fillRatingSummary = redis.NewScript(`
if (redis.call('GET', KEYS[2]) or '0') ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

// ratingCache implements RatingCache on Redis
type ratingCache struct {
	redis *redis.Client
}

// NewRatingCache creates a new Redis backed rating summary cache
func NewRatingCache(client *redis.Client) *ratingCache {
	return &ratingCache{
		redis: client,
	}
}

func ratingSummaryKey(courseId int) string {
	return fmt.Sprintf("%s%d", ratingSummaryKeyPrefix, courseId)
}

func ratingGenerationKey(courseId int) string {
	return fmt.Sprintf("%s%d", ratingGenerationKeyPrefix, courseId)
}

// Get returns the cached summary of a course, nil on a cache miss, together
// with the course's current generation
func (c *ratingCache) Get(ctx context.Context, courseId int) (*models.RatingSummary, int64, error) {
	values, err := c.redis.MGet(ctx, ratingSummaryKey(courseId), ratingGenerationKey(courseId)).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read rating summary: %w", err)
	}

	var generation int64
	if raw, ok := values[1].(string); ok {
		generation, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to decode rating generation: %w", err)
		}
	}

	raw, ok := values[0].(string)
	if !ok {
		return nil, generation, nil
	}
	var s models.RatingSummary
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, generation, fmt.Errorf("failed to decode rating summary: %w", err)
	}
	return &s, generation, nil
}

// Fill caches the summary of a course if no invalidation happened since
// generation was read. It reports whether the summary was stored.
func (c *ratingCache) Fill(ctx context.Context, courseId int, generation int64, summary *models.RatingSummary) (bool, error) {
	raw, err := json.Marshal(summary)
	if err != nil {
		return false, fmt.Errorf("failed to encode rating summary: %w", err)
	}

	keys := []string{ratingSummaryKey(courseId), ratingGenerationKey(courseId)}
	stored, err := fillRatingSummary.Run(ctx, c.redis, keys,
		strconv.FormatInt(generation, 10), raw, ratingSummaryTTL.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("failed to cache rating summary: %w", err)
	}
	return stored == 1, nil
}

// Invalidate drops the cached summaries of the given courses and bumps their
// generations so reads already in flight cannot store what they loaded
func (c *ratingCache) Invalidate(ctx context.Context, courseIds ...int) error {
	if len(courseIds) == 0 {
		return nil
	}
	_, err := c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range courseIds {
			pipe.Incr(ctx, ratingGenerationKey(id))
			pipe.Expire(ctx, ratingGenerationKey(id), ratingGenerationTTL)
			pipe.Del(ctx, ratingSummaryKey(id))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate rating summary: %w", err)
	}
	return nil
}
