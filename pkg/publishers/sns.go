package publishers

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// SNS rejects subjects longer than this.
const snsMaxSubject = 100

type snsClient interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// snsPublisher broadcasts events on an SNS topic. The subject line is meant for
// email subscribers; FIFO topics get a per-site message group.
type snsPublisher struct {
	id       string
	topicARN string
	fifo     bool
	client   snsClient
	log      Logger
}

func newSNSPublisher(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.SNS == nil {
		return nil, fmt.Errorf("publisher %q missing sns configuration", cfg.ID)
	}

	awsCfg, err := loadAWSConfig(ctx, cfg.SNS.Region, cfg.SNS.AWSCredentials)
	if err != nil {
		return nil, err
	}

	return &snsPublisher{
		id:       cfg.ID,
		topicARN: cfg.SNS.TopicARN,
		fifo:     strings.HasSuffix(cfg.SNS.TopicARN, ".fifo"),
		client:   sns.NewFromConfig(awsCfg),
		log:      ensureLogger(log),
	}, nil
}

func (s *snsPublisher) ID() string   { return s.id }
func (s *snsPublisher) Type() string { return TypeSNS }

func (s *snsPublisher) Publish(ctx context.Context, evt Event) error {
	body, err := evt.payload()
	if err != nil {
		return err
	}

	input := &sns.PublishInput{
		TopicArn:          aws.String(s.topicARN),
		Message:           aws.String(string(body)),
		Subject:           aws.String(snsSubject(evt)),
		MessageAttributes: snsAttributes(evt.attributes()),
	}
	if s.fifo {
		input.MessageGroupId = aws.String(evt.groupKey())
		input.MessageDeduplicationId = aws.String(evt.dedupKey())
	}

	if _, err := s.client.Publish(ctx, input); err != nil {
		s.log.ErrorObj("sns publisher send failed", "publisher_sns_error", deliveryFields(s.id, evt, err))
		return fmt.Errorf("publish to sns: %w", err)
	}
	s.log.DebugObj("sns publisher delivered event", "publisher_sns_delivery", deliveryFields(s.id, evt, nil))
	return nil
}

func snsSubject(evt Event) string {
	subject := fmt.Sprintf("neocities %s: %s (%d files)", evt.Action, evt.groupKey(), len(evt.Files))
	if len(subject) > snsMaxSubject {
		subject = subject[:snsMaxSubject]
	}
	return subject
}

func snsAttributes(attrs map[string]string) map[string]types.MessageAttributeValue {
	out := make(map[string]types.MessageAttributeValue, len(attrs))
	for k, v := range attrs {
		out[k] = types.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(v)}
	}
	return out
}
