package cache

import (
	"context"
	"time"
)

// Cache guarda resúmenes ya calculados (dashboard, reportes). La clave
// siempre incluye la bodega.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Noop se usa cuando no hay Redis configurado.
type Noop struct{}

func (Noop) Get(_ context.Context, _ string) ([]byte, bool, error) { return nil, false, nil }

func (Noop) Set(_ context.Context, _ string, _ []byte, _ time.Duration) error { return nil }

func (Noop) Delete(_ context.Context, _ string) error { return nil }
