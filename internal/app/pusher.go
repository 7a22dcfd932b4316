package app

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/samvad-hq/neocities-go/internal/config"
	"github.com/samvad-hq/neocities-go/internal/logger"
	"github.com/samvad-hq/neocities-go/internal/manifest"
	"github.com/samvad-hq/neocities-go/internal/storage"
	"github.com/samvad-hq/neocities-go/pkg/neocities"
	"github.com/samvad-hq/neocities-go/pkg/publishers"
)

// SiteClient is the subset of *neocities.Client the pusher drives.
type SiteClient interface {
	Upload(ctx context.Context, files []neocities.UploadFile) error
	DeleteFiles(ctx context.Context, filenames []string) error
	Close()
}

// Pusher keeps a site in sync with a local manifest. It skips files whose content
// was already uploaded, and announces every change to the configured publishers.
type Pusher struct {
	client       SiteClient
	store        storage.Store
	fanout       *publishers.Fanout
	log          logger.Logger
	manifestFile string
	sitename     string
	interval     time.Duration
}

// PushResult reports what a single push did.
type PushResult struct {
	Uploaded []string `json:"uploaded"`
	Skipped  []string `json:"skipped"`
}

// NewClient builds an API client from config.
func NewClient(cfg *config.Config, log logger.Logger) (*neocities.Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	return neocities.New(cfg.Username, cfg.Password,
		neocities.WithBaseURL(cfg.APIBaseURL),
		neocities.WithTimeout(cfg.RequestTimeout),
		neocities.WithUserAgent(cfg.UserAgent),
		neocities.WithLogger(log),
	)
}

// NewPusher builds a pusher runtime from config: API client, upload ledger and publishers.
func NewPusher(ctx context.Context, cfg *config.Config, log logger.Logger) (*Pusher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	client, err := NewClient(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("init client: %w", err)
	}

	storeOpts := storage.Options{
		UploadTTL:       cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	}
	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storeOpts)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"upload_ttl_seconds":       int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	fanout, err := buildFanout(ctx, cfg.PublishersFile, log)
	if err != nil {
		store.Close()
		client.Close()
		return nil, err
	}

	return &Pusher{
		client:       client,
		store:        store,
		fanout:       fanout,
		log:          log,
		manifestFile: cfg.ManifestFile,
		sitename:     cfg.Username,
		interval:     cfg.PushInterval,
	}, nil
}

// buildFanout loads the publishers file; an empty path means no publishers.
func buildFanout(ctx context.Context, path string, log logger.Logger) (*publishers.Fanout, error) {
	if path == "" {
		return publishers.NewFanout(nil), nil
	}

	reg, err := publishers.LoadRegistry(path)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabled := reg.Enabled()
	pubs, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, c := range enabled {
		summaries = append(summaries, map[string]string{"id": c.ID, "type": c.Type})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(pubs), nil
}

// Run pushes once, then again on every interval tick until ctx is cancelled.
// With a zero interval it returns after the first push.
func (p *Pusher) Run(ctx context.Context) error {
	if p == nil || p.client == nil {
		return fmt.Errorf("pusher is not initialized")
	}

	if _, err := p.PushOnce(ctx); err != nil {
		if p.interval <= 0 {
			return err
		}
		p.log.ErrorObj("initial push failed", "error", err)
	}
	if p.interval <= 0 {
		return nil
	}

	p.log.InfoObj("push loop starting", "pusher_state", map[string]any{
		"manifest_file":    p.manifestFile,
		"publishers_count": p.fanout.Size(),
		"push_interval":    p.interval.String(),
	})

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.InfoObj("push loop exiting", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if _, err := p.PushOnce(ctx); err != nil {
				p.log.ErrorObj("scheduled push failed", "error", err)
			}
		}
	}
}

// PushOnce uploads every manifest file whose content changed since its last upload.
func (p *Pusher) PushOnce(ctx context.Context) (PushResult, error) {
	start := time.Now()
	m, err := manifest.Load(p.manifestFile)
	if err != nil {
		return PushResult{}, fmt.Errorf("load manifest: %w", err)
	}
	sitename := p.sitename
	if m.Sitename != "" {
		sitename = m.Sitename
	}

	var (
		result  PushResult
		changed []neocities.UploadFile
		digests = make(map[string][]byte, len(m.Files))
	)
	for _, f := range m.UploadFiles() {
		digest, err := fileDigest(f.Local)
		if err != nil {
			return PushResult{}, err
		}
		seen, err := p.store.SeenUpload(sitename, f.Remote, digest)
		if err != nil {
			return PushResult{}, fmt.Errorf("check upload ledger: %w", err)
		}
		if seen {
			result.Skipped = append(result.Skipped, f.Remote)
			continue
		}
		digests[f.Remote] = digest
		changed = append(changed, f)
	}

	if len(changed) > 0 {
		if err := p.upload(ctx, sitename, changed, digests); err != nil {
			return result, err
		}
		for _, f := range changed {
			result.Uploaded = append(result.Uploaded, f.Remote)
		}
	}

	p.log.InfoObj("push completed", "push_result", map[string]any{
		"sitename":   sitename,
		"uploaded":   len(result.Uploaded),
		"skipped":    len(result.Skipped),
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	return result, nil
}

// Upload sends files as given, records them in the ledger and announces the change.
func (p *Pusher) Upload(ctx context.Context, files []neocities.UploadFile) error {
	digests := make(map[string][]byte, len(files))
	for _, f := range files {
		// The client reports missing files itself, before any request.
		if d, err := fileDigest(f.Local); err == nil {
			digests[f.Remote] = d
		}
	}
	return p.upload(ctx, p.site(), files, digests)
}

func (p *Pusher) upload(ctx context.Context, sitename string, files []neocities.UploadFile, digests map[string][]byte) error {
	if err := p.client.Upload(ctx, files); err != nil {
		return fmt.Errorf("upload: %w", err)
	}

	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Remote)
		d, ok := digests[f.Remote]
		if !ok {
			continue
		}
		if err := p.store.MarkUpload(sitename, f.Remote, d); err != nil {
			p.log.WarnObj("upload ledger update failed", "ledger_error", map[string]any{
				"sitename": sitename,
				"remote":   f.Remote,
				"error":    err.Error(),
			})
		}
	}
	p.announce(ctx, publishers.NewEvent(sitename, publishers.ActionUpload, names))
	return nil
}

// Delete removes filenames from the site and from the ledger.
func (p *Pusher) Delete(ctx context.Context, filenames []string) error {
	if p == nil || p.client == nil {
		return fmt.Errorf("pusher is not initialized")
	}
	if err := p.client.DeleteFiles(ctx, filenames); err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	sitename := p.site()
	var errs []error
	for _, name := range filenames {
		remote, err := manifest.CleanRemote(name)
		if err != nil {
			continue
		}
		if err := p.store.ForgetUpload(sitename, remote); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		p.log.WarnObj("upload ledger cleanup failed", "error", err)
	}

	p.announce(ctx, publishers.NewEvent(sitename, publishers.ActionDelete, filenames))
	return nil
}

// site is the name ledger records and events are filed under: the manifest's
// sitename when it declares one, the account name otherwise.
func (p *Pusher) site() string {
	if name := manifest.Sitename(p.manifestFile); name != "" {
		return name
	}
	return p.sitename
}

func (p *Pusher) announce(ctx context.Context, evt publishers.Event) {
	if p.fanout.Size() == 0 {
		return
	}
	delivered, err := p.fanout.Publish(ctx, evt)
	if err != nil {
		p.log.ErrorObj("change event publish failed", "publish_error", map[string]any{
			"action":    evt.Action,
			"delivered": delivered,
			"error":     err.Error(),
		})
		return
	}
	p.log.DebugObj("change event published", "publish_result", map[string]any{
		"action":    evt.Action,
		"delivered": delivered,
	})
}

// Close releases the ledger, publishers and client credentials.
func (p *Pusher) Close() {
	if p == nil {
		return
	}
	if p.store != nil {
		if err := p.store.Close(); err != nil {
			p.log.ErrorObj("storage close failed", "error", err)
		}
	}
	if err := p.fanout.Close(); err != nil {
		p.log.ErrorObj("publishers close failed", "error", err)
	}
	if p.client != nil {
		p.client.Close()
	}
}

func fileDigest(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", neocities.ErrFileNotFound, path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, fmt.Errorf("hash %s: %w", path, err)
	}
	return h.Sum(nil), nil
}
