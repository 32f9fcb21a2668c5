// Package storage is the JSON persistence layer shared by every stateful
// component. Failures never escape it: reads fall back to a default and
// writes degrade to a logged no-op.
package storage

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
)

// Backend is the raw key/value store. *repo.Repo satisfies it.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Adapter wraps a Backend with JSON encoding and error containment.
type Adapter struct {
	backend Backend
	logger  *zap.SugaredLogger
}

func NewAdapter(b Backend, logger *zap.SugaredLogger) *Adapter {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Adapter{backend: b, logger: logger}
}

// Read decodes the value at key into a T. A missing key, a backend error or
// a decode error all yield initial. Decoding is typed, so one record with a
// mismatched field type makes the whole value undecodable; the stored bytes
// are kept until the next Write at key replaces them.
func Read[T any](ctx context.Context, a *Adapter, key string, initial T) T {
	raw, ok, err := a.backend.Get(ctx, key)
	if err != nil {
		a.logger.Errorw("error reading storage key", "key", key, "err", err)
		return initial
	}
	if !ok {
		a.logger.Debugw("storage key not set, using default", "key", key)
		return initial
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		a.logger.Errorw("error decoding storage key, next write replaces it",
			"key", key, "bytes", len(raw), "err", err)
		return initial
	}
	return v
}

// Write encodes value and stores it at key. On failure the previous value
// at key is left untouched and the error is only logged.
func (a *Adapter) Write(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		a.logger.Errorw("error encoding storage key", "key", key, "err", err)
		return
	}
	if err := a.backend.Set(ctx, key, raw); err != nil {
		a.logger.Errorw("error setting storage key", "key", key, "err", err)
	}
}

// Remove deletes key; failures are logged.
func (a *Adapter) Remove(ctx context.Context, key string) {
	if err := a.backend.Delete(ctx, key); err != nil {
		a.logger.Errorw("error removing storage key", "key", key, "err", err)
	}
}
