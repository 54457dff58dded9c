// Package redis provides a Redis-backed checkpoint store. Each
// checkpoint is one JSON value keyed by run ID, plus a Set of run IDs
// for enumeration. Writes go through a transactional pipeline so the
// value and the index never diverge.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	goredis "github.com/redis/go-redis/v9"

	"github.com/xraph/invoiceflow"
	"github.com/xraph/invoiceflow/id"
	"github.com/xraph/invoiceflow/run"
)

// Store is a Redis-backed run.Store implementation.
type Store struct {
	client goredis.UniversalClient
}

var _ run.Store = (*Store)(nil)

// New wraps an existing Redis client.
func New(client goredis.UniversalClient) *Store {
	return &Store{client: client}
}

// Open connects to Redis at addr and verifies the connection.
func Open(ctx context.Context, addr string) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("invoiceflow/redis: ping: %w", err)
	}

	return &Store{client: client}, nil
}

// Put implements run.Store.
func (s *Store) Put(ctx context.Context, cp *run.Checkpoint) error {
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("invoiceflow/redis: marshal checkpoint: %w", err)
	}

	rID := cp.RunID.String()
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, checkpointKey(rID), data, 0)
	pipe.SAdd(ctx, runIDsKey, rID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("invoiceflow/redis: put checkpoint: %w", err)
	}

	return nil
}

// Get implements run.Store.
func (s *Store) Get(ctx context.Context, runID id.RunID) (*run.Checkpoint, error) {
	data, err := s.client.Get(ctx, checkpointKey(runID.String())).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, invoiceflow.ErrRunNotFound
		}
		return nil, fmt.Errorf("invoiceflow/redis: get checkpoint: %w", err)
	}

	cp := new(run.Checkpoint)
	if err := json.Unmarshal(data, cp); err != nil {
		return nil, fmt.Errorf("invoiceflow/redis: unmarshal checkpoint: %w", err)
	}

	return cp, nil
}

// List implements run.Store. Filtering happens client-side over the
// run ID index, which is acceptable at the run counts a single
// deployment holds.
func (s *Store) List(ctx context.Context, opts run.ListOpts) ([]*run.Checkpoint, error) {
	ids, err := s.client.SMembers(ctx, runIDsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("invoiceflow/redis: list smembers: %w", err)
	}

	var out []*run.Checkpoint
	for _, rID := range ids {
		data, getErr := s.client.Get(ctx, checkpointKey(rID)).Bytes()
		if getErr != nil {
			if errors.Is(getErr, goredis.Nil) {
				continue // index entry outlived its value
			}
			return nil, fmt.Errorf("invoiceflow/redis: list get: %w", getErr)
		}

		cp := new(run.Checkpoint)
		if err := json.Unmarshal(data, cp); err != nil {
			return nil, fmt.Errorf("invoiceflow/redis: list unmarshal: %w", err)
		}

		if opts.Suspended != nil && cp.Suspended != *opts.Suspended {
			continue
		}
		if opts.Status != "" && (cp.Record == nil || cp.Record.Status != opts.Status) {
			continue
		}
		out = append(out, cp)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})

	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}

	return out, nil
}

// Delete implements run.Store.
func (s *Store) Delete(ctx context.Context, runID id.RunID) error {
	rID := runID.String()
	exists, err := s.client.Exists(ctx, checkpointKey(rID)).Result()
	if err != nil {
		return fmt.Errorf("invoiceflow/redis: delete exists: %w", err)
	}
	if exists == 0 {
		return invoiceflow.ErrRunNotFound
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, checkpointKey(rID))
	pipe.SRem(ctx, runIDsKey, rID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("invoiceflow/redis: delete checkpoint: %w", err)
	}

	return nil
}

// Close implements run.Store.
func (s *Store) Close() error {
	return s.client.Close()
}
