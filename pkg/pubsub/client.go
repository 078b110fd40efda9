package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/gwon477/dmarket/pkg/config"
	"github.com/gwon477/dmarket/pkg/logger"
)

const (
	kindTopic        = "topics"
	kindSubscription = "subscriptions"
)

var errProjectIDRequired = errors.New("gcp project id is required")

// Client is shared by the outbox publisher (topics) and the worker
// (subscriptions). Each process names the resources it depends on; those are
// what NewClient and Ping verify.
type Client struct {
	client    *pubsub.Client
	projectID string
	required  []resource

	mu         sync.Mutex
	publishers map[string]*pubsub.Publisher
}

type resource struct {
	kind string
	name string
}

type Option func(*Client)

// RequireTopic makes NewClient and Ping fail while topic does not exist.
func RequireTopic(topic string) Option {
	return func(c *Client) { c.require(kindTopic, topic) }
}

// RequireSubscription makes NewClient and Ping fail while sub does not exist.
func RequireSubscription(sub string) Option {
	return func(c *Client) { c.require(kindSubscription, sub) }
}

func NewClient(ctx context.Context, gcp config.GCPConfig, logg *logger.Logger, opts ...Option) (*Client, error) {
	c, err := newClient(gcp.ProjectID, opts...)
	if err != nil {
		return nil, err
	}
	raw, err := pubsub.NewClient(ctx, c.projectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}
	c.client = raw

	if err := c.Ping(ctx); err != nil {
		_ = raw.Close()
		return nil, err
	}
	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"project_id": c.projectID,
			"resources":  len(c.required),
		}), "pubsub client initialized")
	}
	return c, nil
}

func newClient(projectID string, opts ...Option) (*Client, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return nil, errProjectIDRequired
	}
	c := &Client{projectID: projectID, publishers: map[string]*pubsub.Publisher{}}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) require(kind, name string) {
	if name = strings.TrimSpace(name); name != "" {
		c.required = append(c.required, resource{kind: kind, name: name})
	}
}

// Ping checks every required topic and subscription.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errors.New("pubsub client not initialized")
	}
	for _, r := range c.required {
		if err := c.exists(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) exists(ctx context.Context, r resource) error {
	full := resourceName(c.projectID, r.kind, r.name)
	var err error
	switch r.kind {
	case kindTopic:
		_, err = c.client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: full})
	case kindSubscription:
		_, err = c.client.SubscriptionAdminClient.GetSubscription(ctx, &pubsubpb.GetSubscriptionRequest{Subscription: full})
	default:
		return fmt.Errorf("unknown pubsub resource kind %q", r.kind)
	}
	switch {
	case err == nil:
		return nil
	case status.Code(err) == codes.NotFound:
		return fmt.Errorf("%s does not exist", full)
	default:
		return fmt.Errorf("checking %s: %w", full, err)
	}
}

// Subscription returns a Subscriber for an ID or full resource name.
func (c *Client) Subscription(name string) *pubsub.Subscriber {
	if c == nil || c.client == nil {
		return nil
	}
	full := resourceName(c.projectID, kindSubscription, name)
	if full == "" {
		return nil
	}
	return c.client.Subscriber(full)
}

// Publisher returns the ordering-enabled publisher for a topic. Publishers are
// reused so one ordering key is always sequenced by the same scheduler.
func (c *Client) Publisher(name string) *pubsub.Publisher {
	if c == nil || c.client == nil {
		return nil
	}
	full := resourceName(c.projectID, kindTopic, name)
	if full == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if pub, ok := c.publishers[full]; ok {
		return pub
	}
	pub := c.client.Publisher(full)
	pub.EnableMessageOrdering = true
	c.publishers[full] = pub
	return pub
}

// Close flushes pending publishes before closing the connection.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	c.mu.Lock()
	for full, pub := range c.publishers {
		pub.Stop()
		delete(c.publishers, full)
	}
	c.mu.Unlock()
	return c.client.Close()
}

// resourceName expands a short id into projects/<p>/<kind>/<id>.
func resourceName(projectID, kind, name string) string {
	n := strings.TrimSpace(name)
	if n == "" {
		return ""
	}
	if strings.HasPrefix(n, "projects/") && strings.Contains(n, "/"+kind+"/") {
		return n
	}
	p := strings.TrimSpace(projectID)
	if p == "" {
		return ""
	}
	return "projects/" + p + "/" + kind + "/" + n
}
