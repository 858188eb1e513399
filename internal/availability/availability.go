// Package availability supplies the per-tick "does this screen have
// content?" snapshot. The scheduler has no opinion on why a screen is dark;
// sources here only answer the question.
package availability

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Source produces one availability snapshot per tick.
type Source interface {
	Snapshot(ctx context.Context) (map[string]bool, error)
}

// Static reports a fixed snapshot. The nil map means every screen is
// available, which is what previews and bare run loops want.
type Static map[string]bool

// AllOn is the snapshot source used when no live source is configured.
func AllOn() Static {
	return Static(nil)
}

func (s Static) Snapshot(context.Context) (map[string]bool, error) {
	return s, nil
}

// Func adapts a snapshot to the callback form the scheduler consumes. A nil
// snapshot reports every screen available; in a non-nil snapshot, missing
// ids read as unavailable.
func Func(snapshot map[string]bool) func(string) bool {
	if snapshot == nil {
		return func(string) bool { return true }
	}
	return func(id string) bool { return snapshot[id] }
}

// Redis reads availability from keys the fetch layer maintains: one
// "<prefix><id>" key per catalog screen, refreshed with a liveness TTL as
// data arrives. A missing or expired key, or a value like "0" or "false",
// reads as dark.
type Redis struct {
	client *redis.Client
	prefix string
	ids    []string
}

func NewRedis(addr, username, password, prefix string, ids []string) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Username: username,
		Password: password,
		DB:       0,
	})
	return &Redis{client: client, prefix: prefix, ids: ids}
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) Snapshot(ctx context.Context) (map[string]bool, error) {
	keys := make([]string, len(r.ids))
	for i, id := range r.ids {
		keys[i] = r.prefix + id
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("availability: mget: %w", err)
	}
	out := make(map[string]bool, len(r.ids))
	for i, id := range r.ids {
		out[id] = truthy(values[i])
	}
	return out, nil
}

// truthy interprets a redis value; missing keys arrive as nil.
func truthy(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	switch strings.ToLower(s) {
	case "", "0", "false", "no", "off":
		return false
	}
	return true
}
