package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quizrush/internal/domain"
)

// QuestionSetLoader produces a fresh question set on cache miss,
// typically the LLM-backed generator.
type QuestionSetLoader interface {
	LoadQuestionSet(ctx context.Context, level int) (domain.QuestionSet, error)
}

// QuestionSetCache keeps generated question sets in Redis so a level is
// generated once and replayed to every player until the TTL lapses or
// the profile changes. Misses collapse through singleflight so one
// generation call serves all concurrent players of a level.
type QuestionSetCache struct {
	client *redis.Client
	loader QuestionSetLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuestionSetCache(client *redis.Client, loader QuestionSetLoader, ttl time.Duration) *QuestionSetCache {
	return &QuestionSetCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionSetCache) GetQuestionSet(ctx context.Context, level int) (domain.QuestionSet, error) {
	key := questionSetKey(level)

	if set, ok := c.fromCache(ctx, key, level); ok {
		return set, nil
	}

	result, err, _ := c.sf.Do(strconv.Itoa(level), func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if set, ok := c.fromCache(ctx, key, level); ok {
			return set, nil
		}

		set, err := c.loader.LoadQuestionSet(ctx, level)
		if err != nil {
			return domain.QuestionSet{}, err
		}

		payload, err := json.Marshal(set.Questions)
		if err != nil {
			return domain.QuestionSet{}, fmt.Errorf("encode question set: %w", err)
		}
		// A failed cache write only costs a regeneration later.
		c.client.Set(ctx, key, payload, c.ttlWithJitter())

		return set, nil
	})
	if err != nil {
		return domain.QuestionSet{}, err
	}
	return result.(domain.QuestionSet), nil
}

func (c *QuestionSetCache) Invalidate(ctx context.Context, level int) error {
	if err := c.client.Del(ctx, questionSetKey(level)).Err(); err != nil {
		return fmt.Errorf("invalidate level %d: %w", level, err)
	}
	return nil
}

func (c *QuestionSetCache) fromCache(ctx context.Context, key string, level int) (domain.QuestionSet, bool) {
	payload, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return domain.QuestionSet{}, false
	}
	var questions []domain.Question
	if err := json.Unmarshal([]byte(payload), &questions); err != nil || len(questions) == 0 {
		return domain.QuestionSet{}, false
	}
	return domain.QuestionSet{Level: level, Questions: questions}, true
}

func questionSetKey(level int) string {
	return fmt.Sprintf("quiz:questions:level:%d", level)
}

func (c *QuestionSetCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
