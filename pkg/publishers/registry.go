package publishers

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Builder creates a Publisher from a validated config entry.
type Builder func(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error)

// Registry maps publisher types to builders.
type Registry struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]Builder)}
}

// DefaultRegistry knows every built-in sink type.
func DefaultRegistry() *Registry {
	return NewRegistry().
		Register(TypeHTTP, newHTTPPublisher).
		Register(TypeSQS, newSQSPublisher).
		Register(TypeSNS, newSNSPublisher).
		Register(TypePubSub, newPubSubPublisher)
}

// Register binds typ to builder, replacing any earlier binding.
func (r *Registry) Register(typ string, builder Builder) *Registry {
	typ = strings.ToLower(strings.TrimSpace(typ))
	if typ == "" || builder == nil {
		return r
	}
	r.mu.Lock()
	r.builders[typ] = builder
	r.mu.Unlock()
	return r
}

// Build validates cfg and hands it to the builder registered for its type.
func (r *Registry) Build(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	cfg = cfg.normalized()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	builder, ok := r.builders[cfg.Type]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no publisher registered for type %q", cfg.Type)
	}
	return builder(ctx, cfg, log)
}

// BuildAll builds every enabled entry. On failure the publishers built so far are
// closed before the error is returned.
func BuildAll(ctx context.Context, reg *Registry, cfgs []PublisherConfig, log Logger) ([]Publisher, error) {
	if reg == nil {
		return nil, nil
	}

	var pubs []Publisher
	for _, cfg := range cfgs {
		if !cfg.IsEnabled() {
			continue
		}
		pub, err := reg.Build(ctx, cfg, log)
		if err != nil {
			NewFanout(pubs).Close()
			return nil, fmt.Errorf("publisher %q: %w", cfg.ID, err)
		}
		pubs = append(pubs, pub)
	}
	return pubs, nil
}
