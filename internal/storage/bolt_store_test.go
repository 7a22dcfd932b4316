package storage

import (
	"crypto/sha256"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func digestOf(s string) []byte {
	sum := sha256.Sum256([]byte(s))
	return sum[:]
}

func TestBoltStoreTracksDigests(t *testing.T) {
	storeRaw, err := openBolt(t.TempDir()+"/uploads.db", normalizeOptions(Options{}))
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store := storeRaw.(*boltStore)
	defer store.Close()

	v1, v2 := digestOf("v1"), digestOf("v2")

	seen, err := store.SeenUpload("alice", "index.html", v1)
	if err != nil || seen {
		t.Fatalf("expected unseen upload, seen=%v err=%v", seen, err)
	}

	if err := store.MarkUpload("alice", "index.html", v1); err != nil {
		t.Fatalf("MarkUpload: %v", err)
	}
	if seen, err := store.SeenUpload("alice", "index.html", v1); err != nil || !seen {
		t.Fatalf("expected same digest to be seen, seen=%v err=%v", seen, err)
	}
	if seen, err := store.SeenUpload("alice", "index.html", v2); err != nil || seen {
		t.Fatalf("expected changed digest to be unseen, seen=%v err=%v", seen, err)
	}

	if err := store.ForgetUpload("alice", "index.html"); err != nil {
		t.Fatalf("ForgetUpload: %v", err)
	}
	if seen, err := store.SeenUpload("alice", "index.html", v1); err != nil || seen {
		t.Fatalf("expected forgotten upload to be unseen, seen=%v err=%v", seen, err)
	}
}

func TestBoltStoreScopesRecordsBySite(t *testing.T) {
	storeRaw, err := openBolt(t.TempDir()+"/uploads.db", normalizeOptions(Options{}))
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store := storeRaw.(*boltStore)
	defer store.Close()

	d := digestOf("home")
	if err := store.MarkUpload("alice", "index.html", d); err != nil {
		t.Fatalf("MarkUpload: %v", err)
	}
	if seen, err := store.SeenUpload("bob", "index.html", d); err != nil || seen {
		t.Fatalf("record leaked across sites, seen=%v err=%v", seen, err)
	}
	if err := store.ForgetUpload("bob", "index.html"); err != nil {
		t.Fatalf("ForgetUpload: %v", err)
	}
	if seen, err := store.SeenUpload("alice", "index.html", d); err != nil || !seen {
		t.Fatalf("forgetting bob's record dropped alice's, seen=%v err=%v", seen, err)
	}
}

func TestBoltStoreExpiresRecords(t *testing.T) {
	opts := Options{
		UploadTTL:       1 * time.Second,
		CleanupInterval: 1 * time.Second,
	}
	storeRaw, err := openBolt(t.TempDir()+"/uploads.db", opts)
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store := storeRaw.(*boltStore)
	defer store.Close()

	d := digestOf("page")
	if err := store.MarkUpload("alice", "page.html", d); err != nil {
		t.Fatalf("MarkUpload: %v", err)
	}

	// Fast-forward cleanup cadence and trigger expiry.
	store.lastCleanup.Store(time.Now().Add(-2 * time.Second).Unix())
	time.Sleep(1100 * time.Millisecond)

	seen, err := store.SeenUpload("alice", "page.html", d)
	if err != nil {
		t.Fatalf("SeenUpload after expiry: %v", err)
	}
	if seen {
		t.Fatalf("expected entry to expire and be removed")
	}
}

func TestDecodeRecordRejectsShortValues(t *testing.T) {
	if _, _, ok := decodeRecord([]byte{1, 2, 3}); ok {
		t.Fatalf("expected short value to be rejected")
	}
	exp := time.Unix(1700000000, 0)
	got, digest, ok := decodeRecord(encodeRecord(exp, []byte{9, 9}))
	if !ok || !got.Equal(exp) || len(digest) != 2 || digest[0] != 9 {
		t.Fatalf("decodeRecord = %v %v %v", got, digest, ok)
	}
}

func TestNewStoreSupportsNoop(t *testing.T) {
	store, err := NewStore("none", "", Options{})
	if err != nil {
		t.Fatalf("NewStore none: %v", err)
	}
	if err := store.MarkUpload("alice", "x", nil); err != nil {
		t.Fatalf("noop store MarkUpload: %v", err)
	}
	if seen, _ := store.SeenUpload("alice", "x", nil); seen {
		t.Fatalf("noop store should never report seen")
	}
}

func TestNewStoreRejectsUnknownType(t *testing.T) {
	if _, err := NewStore("redis", "", Options{}); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
	if _, err := NewStore("bbolt", " ", Options{}); err == nil {
		t.Fatalf("expected error for empty bbolt path")
	}
}
