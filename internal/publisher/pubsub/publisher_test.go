package pubsub

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/JakeFAU/gazette-archiver/internal/gazette"
)

func TestPublisherPublishesJSON(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Create a fake Pub/Sub server.
	srv := pstest.NewServer()
	defer srv.Close()

	conn, err := grpc.Dial(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	client, err := pubsub.NewClient(ctx, "project-id", option.WithGRPCConn(conn))
	require.NoError(t, err)
	defer client.Close()

	topic, err := client.CreateTopic(ctx, "gazettes-archived")
	require.NoError(t, err)
	sub, err := client.CreateSubscription(ctx, "sub-id", pubsub.SubscriptionConfig{Topic: topic})
	require.NoError(t, err)

	pub := New(client)
	event := gazette.Archived{
		UniqueID:         "tender-bulletin-ZA-no-2923",
		ArchivePath:      "ZA/2016/tender-bulletin-ZA-no-2923-dated-2016-01-08.pdf",
		OriginalURI:      "http://www.gpwonline.co.za/Gazettes/Gazettes/2923_1-7_TenderBulletin.pdf",
		JurisdictionCode: "ZA",
		PublicationDate:  "2016-01-08",
	}
	id, err := pub.Publish(ctx, "gazettes-archived", event)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	received := make(chan *pubsub.Message, 1)
	recvCtx, stop := context.WithCancel(ctx)
	go func() {
		_ = sub.Receive(recvCtx, func(_ context.Context, msg *pubsub.Message) {
			msg.Ack()
			select {
			case received <- msg:
			default:
			}
			stop()
		})
	}()

	select {
	case msg := <-received:
		var got gazette.Archived
		require.NoError(t, json.Unmarshal(msg.Data, &got))
		assert.Equal(t, event, got)
		assert.Equal(t, "application/json", msg.Attributes["content_type"])
	case <-ctx.Done():
		t.Fatal("timed out waiting for message")
	}

	require.NoError(t, pub.Close())
}

func TestPublisherRejectsUnmarshalablePayload(t *testing.T) {
	t.Parallel()

	pub := &Publisher{client: &pubsub.Client{}, topics: map[string]*pubsub.Topic{}}
	_, err := pub.Publish(context.Background(), "t", make(chan int))
	require.Error(t, err)
}

func TestPublisherWithoutClient(t *testing.T) {
	t.Parallel()

	_, err := (&Publisher{}).Publish(context.Background(), "t", "x")
	require.Error(t, err)
}
