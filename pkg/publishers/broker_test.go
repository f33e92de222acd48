package publishers

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

func TestPubSubPublisherPublishes(t *testing.T) {
	srv := pstest.NewServer()
	defer srv.Close()
	t.Setenv("PUBSUB_EMULATOR_HOST", srv.Addr)

	ctx := context.Background()
	admin, err := pubsub.NewClient(ctx, "test-project")
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	defer admin.Close()
	if _, err := admin.CreateTopic(ctx, "blogs"); err != nil {
		t.Fatalf("create topic: %v", err)
	}

	pub, err := newPubSubPublisher(ctx, PublisherConfig{
		ID:     "ps",
		Type:   TypePubSub,
		PubSub: &PubSubPublisherConfig{ProjectID: "test-project", Topic: "blogs"},
	}, nil)
	if err != nil {
		t.Fatalf("newPubSubPublisher: %v", err)
	}
	defer pub.(Closer).Close()

	if err := pub.Publish(ctx, sampleEvent()); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	msgs := srv.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if got := msgs[0].Attributes["event_type"]; got != EventBlogCreated {
		t.Fatalf("event_type attribute = %q", got)
	}
}

func startNATS(t *testing.T) *natsserver.Server {
	t.Helper()
	ns, err := natsserver.NewServer(&natsserver.Options{Port: -1})
	if err != nil {
		t.Fatalf("nats server: %v", err)
	}
	ns.Start()
	if !ns.ReadyForConnections(5 * time.Second) {
		t.Fatal("nats not ready")
	}
	t.Cleanup(ns.Shutdown)
	return ns
}

func TestNATSPublisherPublishes(t *testing.T) {
	ns := startNATS(t)

	sub, err := nats.Connect(ns.ClientURL())
	if err != nil {
		t.Fatalf("nats connect: %v", err)
	}
	defer sub.Close()
	received := make(chan *nats.Msg, 1)
	if _, err := sub.ChanSubscribe("blogs.changes", received); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := sub.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	pub, err := newNATSPublisher(context.Background(), PublisherConfig{
		ID:   "n",
		Type: TypeNATS,
		NATS: &NATSPublisherConfig{URL: ns.ClientURL(), Subject: "blogs.changes", TimeoutSeconds: 2},
	}, nil)
	if err != nil {
		t.Fatalf("newNATSPublisher: %v", err)
	}
	defer pub.(Closer).Close()

	if err := pub.Publish(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case msg := <-received:
		if got := msg.Header.Get("event_type"); got != EventBlogCreated {
			t.Fatalf("event_type header = %q", got)
		}
		var evt Event
		if err := json.Unmarshal(msg.Data, &evt); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if evt.Blog.ID != "b1" {
			t.Fatalf("unexpected blog id %q", evt.Blog.ID)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no message received")
	}
}

func TestNATSPublisherConnectFailure(t *testing.T) {
	_, err := newNATSPublisher(context.Background(), PublisherConfig{
		ID:   "n",
		Type: TypeNATS,
		NATS: &NATSPublisherConfig{URL: "nats://127.0.0.1:1", Subject: "x", TimeoutSeconds: 1},
	}, nil)
	if err == nil {
		t.Fatal("expected connect error")
	}
}
