package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dweeb/marketplace/internal/core/domain"
	"github.com/dweeb/marketplace/internal/core/ports"
)

const stateKeyPrefix = "oauth:state:"

// StateStore keeps OAuth state values as JSON under oauth:state:<state>.
type StateStore struct {
	client *redis.Client
}

var _ ports.StateStore = (*StateStore)(nil)

func NewStateStore(client *redis.Client) *StateStore {
	return &StateStore{client: client}
}

func (s *StateStore) Save(ctx context.Context, state string, data ports.OAuthState, ttl time.Duration) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode oauth state: %w", err)
	}
	ok, err := s.client.SetNX(ctx, stateKeyPrefix+state, raw, ttl).Result()
	if err != nil {
		return fmt.Errorf("save oauth state: %w", err)
	}
	if !ok {
		return fmt.Errorf("save oauth state: %q already exists", state)
	}
	return nil
}

// Consume uses GETDEL so a state can be redeemed only once even across
// replicas.
func (s *StateStore) Consume(ctx context.Context, state string) (ports.OAuthState, error) {
	raw, err := s.client.GetDel(ctx, stateKeyPrefix+state).Bytes()
	if errors.Is(err, redis.Nil) {
		return ports.OAuthState{}, domain.ErrStateNotFound
	}
	if err != nil {
		return ports.OAuthState{}, fmt.Errorf("consume oauth state: %w", err)
	}

	var data ports.OAuthState
	if err := json.Unmarshal(raw, &data); err != nil {
		return ports.OAuthState{}, fmt.Errorf("decode oauth state: %w", err)
	}
	return data, nil
}

// Ping lets readiness checks include Redis.
func (s *StateStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *StateStore) Close() error {
	return s.client.Close()
}
