package storage

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	uploadBucket     = "uploads"
	expiryValueBytes = 8
)

// boltStore implements a Store backed by BoltDB. Keys are site NUL remote; values
// are an 8-byte big-endian expiry followed by the content digest.
type boltStore struct {
	db              *bolt.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	uploadTTL       time.Duration
	cleanupInterval time.Duration
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string, opts Options) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(uploadBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	store := &boltStore{
		db:              db,
		uploadTTL:       opts.UploadTTL,
		cleanupInterval: opts.CleanupInterval,
	}
	store.lastCleanup.Store(time.Now().Unix())
	return store, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// SeenUpload reports whether remote was last uploaded to site with the same
// digest and the record has not expired.
func (b *boltStore) SeenUpload(site, remote string, digest []byte) (bool, error) {
	if b == nil || b.db == nil {
		return false, nil
	}

	now := time.Now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return false, err
	}

	var seen bool
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(uploadBucket))
		if bucket == nil {
			return fmt.Errorf("upload bucket missing")
		}

		key := recordKey(site, remote)
		value := bucket.Get(key)
		if value == nil {
			return nil
		}

		expiry, stored, ok := decodeRecord(value)
		if !ok || !expiry.After(now) {
			return bucket.Delete(key)
		}

		seen = bytes.Equal(stored, digest)
		return nil
	})
	return seen, err
}

// MarkUpload records digest as the current content of remote on site.
func (b *boltStore) MarkUpload(site, remote string, digest []byte) error {
	if b == nil || b.db == nil {
		return nil
	}

	now := time.Now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return err
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(uploadBucket))
		if bucket == nil {
			return fmt.Errorf("upload bucket missing")
		}
		return bucket.Put(recordKey(site, remote), encodeRecord(now.Add(b.uploadTTL), digest))
	})
}

// ForgetUpload drops the record for remote on site, if any.
func (b *boltStore) ForgetUpload(site, remote string) error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(uploadBucket))
		if bucket == nil {
			return fmt.Errorf("upload bucket missing")
		}
		return bucket.Delete(recordKey(site, remote))
	})
}

// maybeCleanupExpired removes expired records on a fixed cadence to avoid unbounded growth.
func (b *boltStore) maybeCleanupExpired(now time.Time) error {
	if b == nil || b.db == nil {
		return nil
	}

	last := time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()

	last = time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(uploadBucket))
		if bucket == nil {
			return fmt.Errorf("upload bucket missing")
		}

		cursor := bucket.Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			expiry, _, ok := decodeRecord(v)
			if !ok || !expiry.After(now) {
				if err := cursor.Delete(); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err == nil {
		b.lastCleanup.Store(now.Unix())
	}
	return err
}

// recordKey scopes remote to site. Site names cannot contain NUL.
func recordKey(site, remote string) []byte {
	key := make([]byte, 0, len(site)+1+len(remote))
	key = append(key, site...)
	key = append(key, 0)
	return append(key, remote...)
}

func encodeRecord(expiry time.Time, digest []byte) []byte {
	buf := make([]byte, expiryValueBytes+len(digest))
	binary.BigEndian.PutUint64(buf, uint64(expiry.Unix()))
	copy(buf[expiryValueBytes:], digest)
	return buf
}

// decodeRecord splits a stored value into expiry and digest. The digest is copied
// because bbolt values are only valid inside the transaction.
func decodeRecord(value []byte) (time.Time, []byte, bool) {
	if len(value) < expiryValueBytes {
		return time.Time{}, nil, false
	}
	unix := int64(binary.BigEndian.Uint64(value[:expiryValueBytes]))
	if unix <= 0 {
		return time.Time{}, nil, false
	}
	digest := append([]byte(nil), value[expiryValueBytes:]...)
	return time.Unix(unix, 0), digest, true
}
