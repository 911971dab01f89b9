package auth

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
	"github.com/redis/go-redis/v9"

	"github.com/mrlokans/library/internal/config"
)

// SessionStore tracks which issued tokens are still live. A token whose id
// is missing from the store is rejected even if its signature is valid.
type SessionStore interface {
	Save(ctx context.Context, tokenID string, userID uint, ttl time.Duration) error
	Exists(ctx context.Context, tokenID string) (bool, error)
	Delete(ctx context.Context, tokenID string) error
	// RevokeUser drops every live session of a user.
	RevokeUser(ctx context.Context, userID uint) error
}

const sessionKeyUserID = "user_id"

// NewSessionStore picks Redis when an address is configured, then the SQLite
// database when sqlDB is given, then process memory.
func NewSessionStore(ctx context.Context, cfg config.Redis, sqlDB *sql.DB) (SessionStore, error) {
	if cfg.Addr == "" {
		if sqlDB != nil {
			return NewSQLiteSessionStore(sqlDB)
		}
		return NewMemorySessionStore(), nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewRedisSessionStore(ctx, client)
}

// RedisSessionStore keeps sessions as expiring keys, plus one set per user
// listing that user's token ids.
type RedisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore checks the connection before returning the store.
func NewRedisSessionStore(ctx context.Context, client *redis.Client) (*RedisSessionStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return &RedisSessionStore{client: client}, nil
}

func sessionKey(tokenID string) string {
	return "session:" + tokenID
}

func userSessionsKey(userID uint) string {
	return "user_sessions:" + strconv.FormatUint(uint64(userID), 10)
}

func (s *RedisSessionStore) Save(ctx context.Context, tokenID string, userID uint, ttl time.Duration) error {
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKey(tokenID), userID, ttl)
	pipe.SAdd(ctx, userSessionsKey(userID), tokenID)
	pipe.Expire(ctx, userSessionsKey(userID), ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisSessionStore) Exists(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, sessionKey(tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, tokenID string) error {
	return s.client.Del(ctx, sessionKey(tokenID)).Err()
}

func (s *RedisSessionStore) RevokeUser(ctx context.Context, userID uint) error {
	ids, err := s.client.SMembers(ctx, userSessionsKey(userID)).Result()
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, sessionKey(id))
	}
	keys = append(keys, userSessionsKey(userID))
	return s.client.Del(ctx, keys...).Err()
}

func (s *RedisSessionStore) Close() error {
	return s.client.Close()
}

// ScsSessionStore keeps sessions in an scs store keyed by token id. The
// value is the gob-encoded owner so RevokeUser can find a user's tokens.
type ScsSessionStore struct {
	store iterableStore
	codec scs.Codec
	stop  func()
}

type iterableStore interface {
	scs.Store
	scs.IterableStore
}

// NewSQLiteSessionStore persists sessions in the application database so
// logins survive a restart.
func NewSQLiteSessionStore(sqlDB *sql.DB) (*ScsSessionStore, error) {
	_, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		expiry REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`)
	if err != nil {
		return nil, fmt.Errorf("failed to create sessions table: %w", err)
	}

	store := sqlite3store.New(sqlDB)
	return &ScsSessionStore{store: store, codec: scs.GobCodec{}, stop: store.StopCleanup}, nil
}

// NewMemorySessionStore keeps sessions in process. Sessions are lost on restart.
func NewMemorySessionStore() *ScsSessionStore {
	store := memstore.New()
	return &ScsSessionStore{store: store, codec: scs.GobCodec{}, stop: store.StopCleanup}
}

func (s *ScsSessionStore) Save(_ context.Context, tokenID string, userID uint, ttl time.Duration) error {
	expiry := time.Now().Add(ttl)
	b, err := s.codec.Encode(expiry, map[string]interface{}{sessionKeyUserID: int(userID)})
	if err != nil {
		return err
	}
	return s.store.Commit(tokenID, b, expiry)
}

func (s *ScsSessionStore) Exists(_ context.Context, tokenID string) (bool, error) {
	_, found, err := s.store.Find(tokenID)
	return found, err
}

func (s *ScsSessionStore) Delete(_ context.Context, tokenID string) error {
	return s.store.Delete(tokenID)
}

func (s *ScsSessionStore) RevokeUser(_ context.Context, userID uint) error {
	all, err := s.store.All()
	if err != nil {
		return err
	}
	for tokenID, b := range all {
		_, values, err := s.codec.Decode(b)
		if err != nil {
			return fmt.Errorf("failed to decode session %s: %w", tokenID, err)
		}
		if owner, ok := values[sessionKeyUserID].(int); ok && owner == int(userID) {
			if err := s.store.Delete(tokenID); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *ScsSessionStore) Close() error {
	s.stop()
	return nil
}
