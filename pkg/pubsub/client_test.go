package pubsub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gwon477/dmarket/pkg/config"
)

func TestResourceName(t *testing.T) {
	tests := []struct {
		name    string
		project string
		kind    string
		input   string
		want    string
	}{
		{name: "short topic", project: "dm-prod", kind: kindTopic, input: "dmarket-notifications", want: "projects/dm-prod/topics/dmarket-notifications"},
		{name: "full subscription", project: "other", kind: kindSubscription, input: "projects/dm-prod/subscriptions/worker", want: "projects/dm-prod/subscriptions/worker"},
		{name: "blank", project: "dm-prod", kind: kindTopic, input: "  ", want: ""},
		{name: "missing project", project: "", kind: kindTopic, input: "t", want: ""},
		{name: "wrong kind prefix", project: "dm", kind: kindTopic, input: "projects/x/subscriptions/s", want: "projects/dm/topics/projects/x/subscriptions/s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, resourceName(tt.project, tt.kind, tt.input))
		})
	}
}

func TestOptionsCollectRequiredResources(t *testing.T) {
	c, err := newClient(" dm-prod ",
		RequireTopic("dmarket-notifications"),
		RequireSubscription(" "),
		RequireSubscription("dmarket-notifications-worker"),
	)
	require.NoError(t, err)
	require.Equal(t, "dm-prod", c.projectID)
	require.Equal(t, []resource{
		{kind: kindTopic, name: "dmarket-notifications"},
		{kind: kindSubscription, name: "dmarket-notifications-worker"},
	}, c.required)

	_, err = newClient("", RequireTopic("t"))
	require.ErrorIs(t, err, errProjectIDRequired)
}

func TestUninitializedClient(t *testing.T) {
	var c *Client
	require.Nil(t, c.Publisher("topic"))
	require.Nil(t, c.Subscription("sub"))
	require.Error(t, c.Ping(context.Background()))
	require.NoError(t, c.Close())

	unconnected, err := newClient("dm-prod")
	require.NoError(t, err)
	require.Nil(t, unconnected.Publisher("topic"))
	require.Error(t, unconnected.Ping(context.Background()))

	_, err = NewClient(context.Background(), config.GCPConfig{}, nil)
	require.ErrorIs(t, err, errProjectIDRequired)
}
