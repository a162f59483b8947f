package cache

import (
	"context"
	"sort"
	"sync"
)

type MemoryPollCache struct {
	mu        sync.RWMutex
	questions map[string]struct{}
}

func NewMemoryPollCache() *MemoryPollCache {
	return &MemoryPollCache{
		questions: make(map[string]struct{}),
	}
}

func (c *MemoryPollCache) Add(ctx context.Context, question string) error {
	c.mu.Lock()
	c.questions[question] = struct{}{}
	c.mu.Unlock()
	return nil
}

func (c *MemoryPollCache) Remove(ctx context.Context, question string) error {
	c.mu.Lock()
	delete(c.questions, question)
	c.mu.Unlock()
	return nil
}

func (c *MemoryPollCache) Contains(ctx context.Context, question string) (bool, error) {
	c.mu.RLock()
	_, ok := c.questions[question]
	c.mu.RUnlock()
	return ok, nil
}

func (c *MemoryPollCache) Questions(ctx context.Context) ([]string, error) {
	c.mu.RLock()
	out := make([]string, 0, len(c.questions))
	for q := range c.questions {
		out = append(out, q)
	}
	c.mu.RUnlock()

	sort.Strings(out)
	return out, nil
}

func (c *MemoryPollCache) Close() error {
	return nil
}
