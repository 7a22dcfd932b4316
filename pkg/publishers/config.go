package publishers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Supported publisher types.
const (
	TypeSQS    = "sqs"
	TypeSNS    = "sns"
	TypeHTTP   = "http"
	TypePubSub = "gcp_pubsub"
)

const defaultHTTPTimeoutSeconds = 5

// PublisherConfig is one entry of the publishers file. Only the block matching
// Type is used.
type PublisherConfig struct {
	ID      string                 `json:"id" yaml:"id"`
	Type    string                 `json:"type" yaml:"type"`
	Enabled *bool                  `json:"enabled" yaml:"enabled"`
	SQS     *SQSPublisherConfig    `json:"sqs" yaml:"sqs"`
	SNS     *SNSPublisherConfig    `json:"sns" yaml:"sns"`
	HTTP    *HTTPPublisherConfig   `json:"http" yaml:"http"`
	PubSub  *PubSubPublisherConfig `json:"gcp_pubsub" yaml:"gcp_pubsub"`
}

// AWSCredentials optionally pins a static key pair; otherwise the default chain is used.
type AWSCredentials struct {
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
	SessionToken    string `json:"session_token" yaml:"session_token"`
}

// SQSPublisherConfig targets a queue. A ".fifo" queue URL enables per-site ordering.
type SQSPublisherConfig struct {
	QueueURL       string `json:"uri" yaml:"uri"`
	Region         string `json:"region" yaml:"region"`
	AWSCredentials `yaml:",inline"`
}

// SNSPublisherConfig targets a topic. A ".fifo" topic ARN enables per-site ordering.
type SNSPublisherConfig struct {
	TopicARN       string `json:"topic_arn" yaml:"topic_arn"`
	Region         string `json:"region" yaml:"region"`
	AWSCredentials `yaml:",inline"`
}

// PubSubPublisherConfig targets a Google Cloud Pub/Sub topic.
type PubSubPublisherConfig struct {
	ProjectID       string `json:"project_id" yaml:"project_id"`
	Topic           string `json:"topic" yaml:"topic"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
	Endpoint        string `json:"endpoint" yaml:"endpoint"`
	Ordered         bool   `json:"ordered" yaml:"ordered"`
}

// HTTPPublisherConfig targets a webhook. Secret, when set, signs every body.
type HTTPPublisherConfig struct {
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	Secret         string            `json:"secret" yaml:"secret"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// sink is the type-specific block of a PublisherConfig.
type sink interface {
	normalize()
	validate() error
}

// IsEnabled reports the enabled flag, defaulting to true.
func (cfg PublisherConfig) IsEnabled() bool {
	return cfg.Enabled == nil || *cfg.Enabled
}

// normalized returns a trimmed copy with defaults applied. Sink blocks are copied
// so the caller's config is left untouched.
func (cfg PublisherConfig) normalized() PublisherConfig {
	cfg.ID = strings.TrimSpace(cfg.ID)
	cfg.Type = strings.ToLower(strings.TrimSpace(cfg.Type))

	if cfg.SQS != nil {
		c := *cfg.SQS
		cfg.SQS = &c
	}
	if cfg.SNS != nil {
		c := *cfg.SNS
		cfg.SNS = &c
	}
	if cfg.HTTP != nil {
		c := *cfg.HTTP
		cfg.HTTP = &c
	}
	if cfg.PubSub != nil {
		c := *cfg.PubSub
		cfg.PubSub = &c
	}
	if s, ok := cfg.sink(); ok {
		s.normalize()
	}
	return cfg
}

// sink returns the block selected by Type; ok is false when that block is absent.
func (cfg PublisherConfig) sink() (sink, bool) {
	switch cfg.Type {
	case TypeSQS:
		return cfg.SQS, cfg.SQS != nil
	case TypeSNS:
		return cfg.SNS, cfg.SNS != nil
	case TypeHTTP:
		return cfg.HTTP, cfg.HTTP != nil
	case TypePubSub:
		return cfg.PubSub, cfg.PubSub != nil
	}
	return nil, false
}

func (cfg PublisherConfig) validate() error {
	if cfg.ID == "" {
		return errors.New("id is required")
	}
	switch cfg.Type {
	case "":
		return fmt.Errorf("type is required for publisher %q", cfg.ID)
	case TypeSQS, TypeSNS, TypeHTTP, TypePubSub:
	default:
		return fmt.Errorf("unsupported type %q for publisher %q", cfg.Type, cfg.ID)
	}

	s, ok := cfg.sink()
	if !ok {
		return fmt.Errorf("%s config required for publisher %q", cfg.Type, cfg.ID)
	}
	if err := s.validate(); err != nil {
		return fmt.Errorf("publisher %q: %w", cfg.ID, err)
	}
	return nil
}

func (c *AWSCredentials) normalize() {
	c.AccessKeyID = strings.TrimSpace(c.AccessKeyID)
	c.SecretAccessKey = strings.TrimSpace(c.SecretAccessKey)
	c.SessionToken = strings.TrimSpace(c.SessionToken)
}

func (c *AWSCredentials) validate() error {
	if (c.AccessKeyID == "") != (c.SecretAccessKey == "") {
		return errors.New("access_key_id and secret_access_key must be set together")
	}
	return nil
}

func (c *SQSPublisherConfig) normalize() {
	c.QueueURL = strings.TrimSpace(c.QueueURL)
	c.Region = strings.TrimSpace(c.Region)
	c.AWSCredentials.normalize()
}

func (c *SQSPublisherConfig) validate() error {
	switch {
	case c.QueueURL == "":
		return errors.New("sqs.uri is required")
	case c.Region == "":
		return errors.New("sqs.region is required")
	}
	return c.AWSCredentials.validate()
}

func (c *SNSPublisherConfig) normalize() {
	c.TopicARN = strings.TrimSpace(c.TopicARN)
	c.Region = strings.TrimSpace(c.Region)
	c.AWSCredentials.normalize()
}

func (c *SNSPublisherConfig) validate() error {
	switch {
	case c.TopicARN == "":
		return errors.New("sns.topic_arn is required")
	case c.Region == "":
		return errors.New("sns.region is required")
	}
	return c.AWSCredentials.validate()
}

func (c *PubSubPublisherConfig) normalize() {
	c.ProjectID = strings.TrimSpace(c.ProjectID)
	c.Topic = strings.TrimSpace(c.Topic)
	c.CredentialsFile = strings.TrimSpace(c.CredentialsFile)
	c.Endpoint = strings.TrimSpace(c.Endpoint)
}

func (c *PubSubPublisherConfig) validate() error {
	if c.ProjectID == "" || c.Topic == "" {
		return errors.New("gcp_pubsub.project_id and gcp_pubsub.topic are required")
	}
	return nil
}

func (c *HTTPPublisherConfig) normalize() {
	c.URL = strings.TrimSpace(c.URL)
	c.Method = strings.ToUpper(strings.TrimSpace(c.Method))
	if c.Method == "" {
		c.Method = http.MethodPost
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = defaultHTTPTimeoutSeconds
	}

	var headers map[string]string
	for k, v := range c.Headers {
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		if headers == nil {
			headers = make(map[string]string, len(c.Headers))
		}
		headers[k] = v
	}
	c.Headers = headers
}

func (c *HTTPPublisherConfig) validate() error {
	if c.URL == "" {
		return errors.New("http.url is required")
	}
	return nil
}
