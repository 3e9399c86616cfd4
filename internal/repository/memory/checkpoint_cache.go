package memory

import (
	"time"

	"ai-docchat-be/pkg/rag/state"

	"github.com/patrickmn/go-cache"
)

// CheckpointCache keeps recently active conversations in process memory so a
// turn does not have to rebuild the message history from Postgres every time.
// Postgres stays the source of truth; entries here are invalidated on write
// failures and expire on their own.
type CheckpointCache struct {
	cache *cache.Cache
}

func NewCheckpointCache() *CheckpointCache {
	// Default expiration of 1 hour, purge sweep every 10 minutes
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &CheckpointCache{
		cache: c,
	}
}

func (r *CheckpointCache) Save(conv *state.Conversation) {
	r.cache.Set(conv.ThreadId.String(), conv, cache.DefaultExpiration)
}

func (r *CheckpointCache) Get(threadId string) (*state.Conversation, bool) {
	if x, found := r.cache.Get(threadId); found {
		return x.(*state.Conversation), true
	}
	return nil, false
}

func (r *CheckpointCache) Delete(threadId string) {
	r.cache.Delete(threadId)
}
