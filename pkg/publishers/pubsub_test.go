package publishers

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
)

func TestPubSubPublisherPublishes(t *testing.T) {
	// Use the in-memory Pub/Sub emulator.
	server := pstest.NewServer()
	defer server.Close()
	t.Setenv("PUBSUB_EMULATOR_HOST", server.Addr)

	ctx := context.Background()
	admin, err := pubsub.NewClient(ctx, "test-project")
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	defer admin.Close()
	if _, err := admin.CreateTopic(ctx, "site-events"); err != nil {
		t.Fatalf("create topic: %v", err)
	}

	pub, err := newPubSubPublisher(ctx, PublisherConfig{
		ID:   "gcp",
		Type: TypePubSub,
		PubSub: &PubSubPublisherConfig{
			ProjectID: "test-project",
			Topic:     "site-events",
		},
	}, nil)
	if err != nil {
		t.Fatalf("newPubSubPublisher: %v", err)
	}
	defer pub.(*pubsubPublisher).Close()

	pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := pub.Publish(pctx, NewEvent("mysite", ActionUpload, []string{"index.html"})); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	msgs := server.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].Attributes["action"] != ActionUpload {
		t.Fatalf("unexpected attributes %v", msgs[0].Attributes)
	}
	var evt Event
	if err := json.Unmarshal(msgs[0].Data, &evt); err != nil || evt.Sitename != "mysite" {
		t.Fatalf("unexpected payload %s (%v)", msgs[0].Data, err)
	}
}
