package session

import (
	"context"
	"fmt"

	"github.com/mohammad-safakhou/medisearch/config"
	"github.com/mohammad-safakhou/medisearch/models"
	"github.com/mohammad-safakhou/medisearch/session/inmemory"
	redisstore "github.com/mohammad-safakhou/medisearch/session/redis"
)

// Store keeps per-session conversation history. Implementations are safe for
// concurrent use. A session id the store has never seen reads as an empty
// history; callers resolve ids through Ensure before reading or writing.
type Store interface {
	// Ensure resolves id to a live session, minting a fresh one when id is
	// empty, and returns the effective session id.
	Ensure(ctx context.Context, id string) (string, error)
	// History returns the session transcript, oldest turn first.
	History(ctx context.Context, id string) (models.History, error)
	// Append adds turns to the end of the session transcript and refreshes
	// its expiry.
	Append(ctx context.Context, id string, turns ...models.Turn) error
}

// NewStore builds the history backend selected in config.
func NewStore(cfg config.StorageConfig) (Store, error) {
	switch cfg.HistoryBackend {
	case "inmemory", "":
		return inmemory.New(cfg.SessionTTL), nil
	case "redis":
		return redisstore.New(cfg.Redis, cfg.SessionTTL)
	default:
		return nil, fmt.Errorf("unknown history backend %q", cfg.HistoryBackend)
	}
}
