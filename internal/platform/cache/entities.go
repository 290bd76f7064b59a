package cache

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pitchsider/match-context/internal/platform/logging"
)

type EntityKind string

const (
	EntityTeam   EntityKind = "team"
	EntityLeague EntityKind = "league"
	EntityPlayer EntityKind = "player"
)

// Entities maps upstream entity names to their numeric ids. Lookups hit the
// in-process store first; when a Redis client is configured, misses fall
// through to Redis and hits are promoted back into the local store.
type Entities struct {
	local  *Store
	client redis.UniversalClient
	ttl    time.Duration
	logger *logging.Logger
}

func NewEntities(client redis.UniversalClient, ttl time.Duration, logger *logging.Logger) *Entities {
	if logger == nil {
		logger = logging.Default()
	}
	return &Entities{
		local:  NewStore(ttl),
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// LookupID resolves a name to an entity id. The boolean reports whether the
// mapping was known.
func (e *Entities) LookupID(ctx context.Context, kind EntityKind, name string) (int64, bool) {
	key := entityKey(kind, name)
	if key == "" {
		return 0, false
	}

	if v, ok := e.local.Get(ctx, key); ok {
		if id, ok := v.(int64); ok {
			return id, true
		}
	}

	if e.client == nil {
		return 0, false
	}

	raw, err := e.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			e.logger.WarnContext(ctx, "entity cache redis get failed", "key", key, "error", err)
		}
		return 0, false
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}

	e.local.SetWithTTL(ctx, key, id, e.ttl)
	return id, true
}

// StoreID records a name to id mapping in every configured backend.
func (e *Entities) StoreID(ctx context.Context, kind EntityKind, name string, id int64) {
	key := entityKey(kind, name)
	if key == "" || id <= 0 {
		return
	}

	e.local.SetWithTTL(ctx, key, id, e.ttl)

	if e.client == nil {
		return
	}
	if err := e.client.Set(ctx, key, strconv.FormatInt(id, 10), e.ttl).Err(); err != nil {
		e.logger.WarnContext(ctx, "entity cache redis set failed", "key", key, "error", err)
	}
}

func entityKey(kind EntityKind, name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if kind == "" || name == "" {
		return ""
	}
	return fmt.Sprintf("entity:%s:%s", kind, name)
}
