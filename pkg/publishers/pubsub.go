package publishers

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// pubsubPublisher publishes events to a Google Cloud Pub/Sub topic. With ordering
// enabled, events of one site carry the same ordering key.
type pubsubPublisher struct {
	id      string
	ordered bool
	client  *pubsub.Client
	topic   *pubsub.Topic
	log     Logger
}

// newPubSubPublisher connects to the configured project. PUBSUB_EMULATOR_HOST is
// honoured by the client library.
func newPubSubPublisher(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.PubSub == nil {
		return nil, fmt.Errorf("publisher %q missing gcp_pubsub configuration", cfg.ID)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var opts []option.ClientOption
	if cfg.PubSub.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.PubSub.CredentialsFile))
	}
	if cfg.PubSub.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.PubSub.Endpoint))
	}

	client, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}

	topic := client.Topic(cfg.PubSub.Topic)
	topic.EnableMessageOrdering = cfg.PubSub.Ordered

	return &pubsubPublisher{
		id:      cfg.ID,
		ordered: cfg.PubSub.Ordered,
		client:  client,
		topic:   topic,
		log:     ensureLogger(log),
	}, nil
}

func (p *pubsubPublisher) ID() string   { return p.id }
func (p *pubsubPublisher) Type() string { return TypePubSub }

// Publish waits for the server acknowledgement.
func (p *pubsubPublisher) Publish(ctx context.Context, evt Event) error {
	body, err := evt.payload()
	if err != nil {
		return err
	}

	msg := &pubsub.Message{Data: body, Attributes: evt.attributes()}
	if p.ordered {
		msg.OrderingKey = evt.groupKey()
	}

	if _, err := p.topic.Publish(ctx, msg).Get(ctx); err != nil {
		if p.ordered {
			// A failed ordered publish pauses its key until resumed.
			p.topic.ResumePublish(msg.OrderingKey)
		}
		p.log.ErrorObj("pubsub publisher send failed", "publisher_pubsub_error", deliveryFields(p.id, evt, err))
		return fmt.Errorf("publish to pubsub: %w", err)
	}
	p.log.DebugObj("pubsub publisher delivered event", "publisher_pubsub_delivery", deliveryFields(p.id, evt, nil))
	return nil
}

// Close flushes pending messages and releases the client.
func (p *pubsubPublisher) Close() error {
	p.topic.Stop()
	return p.client.Close()
}
