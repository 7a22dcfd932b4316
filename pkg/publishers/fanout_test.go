package publishers

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type stubPublisher struct {
	id     string
	typ    string
	err    error
	calls  int
	closed bool
}

func (s *stubPublisher) ID() string   { return s.id }
func (s *stubPublisher) Type() string { return s.typ }
func (s *stubPublisher) Publish(context.Context, Event) error {
	s.calls++
	return s.err
}
func (s *stubPublisher) Close() error {
	s.closed = true
	return nil
}

func TestFanoutPublishAggregatesErrors(t *testing.T) {
	ok := &stubPublisher{id: "ok", typ: "http"}
	bad := &stubPublisher{id: "bad", typ: "http", err: errors.New("failed")}
	fanout := NewFanout([]Publisher{ok, nil, bad})

	if fanout.Size() != 2 {
		t.Fatalf("expected nil publishers to be dropped, size=%d", fanout.Size())
	}
	count, err := fanout.Publish(context.Background(), Event{})
	if count != 1 {
		t.Fatalf("expected 1 success, got %d", count)
	}
	if err == nil {
		t.Fatalf("expected aggregated error")
	}
	if ok.calls != 1 || bad.calls != 1 {
		t.Fatalf("expected every publisher to be called once")
	}
}

func TestFanoutCloseClosesPublishers(t *testing.T) {
	p := &stubPublisher{id: "p", typ: "gcp_pubsub"}
	if err := NewFanout([]Publisher{p}).Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !p.closed {
		t.Fatalf("publisher was not closed")
	}
}

func TestNilFanoutIsSafe(t *testing.T) {
	var f *Fanout
	if n, err := f.Publish(context.Background(), Event{}); n != 0 || err != nil {
		t.Fatalf("nil fanout Publish = %d, %v", n, err)
	}
	if f.Size() != 0 || f.Close() != nil {
		t.Fatalf("nil fanout should be empty")
	}
}

func TestBuildAllWithDefaultRegistry(t *testing.T) {
	reg := DefaultRegistry()
	pubs, err := BuildAll(context.Background(), reg, []PublisherConfig{
		{ID: "http", Type: TypeHTTP, HTTP: &HTTPPublisherConfig{URL: "https://example.com"}},
	}, nil)
	if err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	if len(pubs) != 1 {
		t.Fatalf("expected 1 publisher, got %d", len(pubs))
	}
}


func TestFanoutJoinsErrorsInPublisherOrder(t *testing.T) {
	first := &stubPublisher{id: "first", typ: "http", err: errors.New("one")}
	second := &stubPublisher{id: "second", typ: "sqs", err: errors.New("two")}

	n, err := NewFanout([]Publisher{first, second}).Publish(context.Background(), Event{})
	if n != 0 || err == nil {
		t.Fatalf("Publish = %d, %v", n, err)
	}
	msg := err.Error()
	if strings.Index(msg, "publisher[first]") > strings.Index(msg, "publisher[second]") {
		t.Fatalf("errors out of order: %s", msg)
	}
}
