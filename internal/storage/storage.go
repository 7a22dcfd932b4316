// Package storage provides the local upload ledger.
package storage

import (
	"fmt"
	"strings"
	"time"
)

// Store remembers which file contents were last uploaded under each remote path
// of a site, so unchanged files can be skipped on the next push. Records of
// different sites never match each other.
type Store interface {
	Close() error
	SeenUpload(site, remote string, digest []byte) (bool, error)
	MarkUpload(site, remote string, digest []byte) error
	ForgetUpload(site, remote string) error
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	UploadTTL       time.Duration
	CleanupInterval time.Duration
}

const (
	defaultUploadTTL       = 30 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.UploadTTL <= 0 {
		opts.UploadTTL = defaultUploadTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                                     { return nil }
func (noopStore) SeenUpload(string, string, []byte) (bool, error) { return false, nil }
func (noopStore) MarkUpload(string, string, []byte) error         { return nil }
func (noopStore) ForgetUpload(string, string) error               { return nil }
