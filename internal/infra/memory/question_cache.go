package memory

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quizrush/internal/domain"
)

// QuestionSetLoader produces a question set for a level (the generator).
type QuestionSetLoader interface {
	LoadQuestionSet(ctx context.Context, level int) (domain.QuestionSet, error)
}

// QuestionSetCache caches generated sets with TTL so every player does
// not trigger a fresh LLM call. Loads are deduplicated per level.
type QuestionSetCache struct {
	loader QuestionSetLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[int]cachedSet
}

type cachedSet struct {
	set       domain.QuestionSet
	expiresAt time.Time
}

func NewQuestionSetCache(loader QuestionSetLoader, ttl time.Duration) *QuestionSetCache {
	return &QuestionSetCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[int]cachedSet),
	}
}

func (c *QuestionSetCache) GetQuestionSet(ctx context.Context, level int) (domain.QuestionSet, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[level]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.set, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(strconv.Itoa(level), func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[level]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.set, nil
		}
		c.mu.RUnlock()

		set, err := c.loader.LoadQuestionSet(ctx, level)
		if err != nil {
			return domain.QuestionSet{}, err
		}

		c.mu.Lock()
		c.cache[level] = cachedSet{
			set:       set,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return set, nil
	})
	if err != nil {
		return domain.QuestionSet{}, err
	}
	return result.(domain.QuestionSet), nil
}

// Invalidate drops the cached set for level.
func (c *QuestionSetCache) Invalidate(_ context.Context, level int) error {
	c.mu.Lock()
	delete(c.cache, level)
	c.mu.Unlock()
	return nil
}

// StaticLoader serves fixed sets from a map (useful for tests/demos).
type StaticLoader struct {
	sets map[int]domain.QuestionSet
}

func NewStaticLoader(sets map[int]domain.QuestionSet) *StaticLoader {
	return &StaticLoader{sets: sets}
}

func (l *StaticLoader) LoadQuestionSet(_ context.Context, level int) (domain.QuestionSet, error) {
	if set, ok := l.sets[level]; ok {
		return set, nil
	}
	return domain.QuestionSet{}, fmt.Errorf("no question set for level %d", level)
}

func (c *QuestionSetCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
