package publishers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/samvad-hq/blogmeta/internal/domain"
)

type fakeSQSClient struct {
	input *sqs.SendMessageInput
	err   error
}

func (f *fakeSQSClient) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("msg-123")}, nil
}

type fakeSNSClient struct {
	input *sns.PublishInput
	err   error
}

func (f *fakeSNSClient) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("msg-456")}, nil
}

func sampleEvent() Event {
	url := "https://medium.com/@jane/post-1a2b3c"
	return NewEvent(EventBlogCreated, domain.BlogView{
		BlogRef:     domain.BlogRef{ID: "b1", Provider: "medium", ExternalID: url, Tags: []string{}},
		ExternalURL: &url,
	})
}

func TestSQSPublisherSendsEventWithAttributes(t *testing.T) {
	client := &fakeSQSClient{}
	pub := &sqsPublisher{id: "q", queueURL: "https://example.com/queue", client: client, log: noopLogger{}}

	if err := pub.Publish(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if client.input == nil {
		t.Fatal("client was not called")
	}
	if got := aws.ToString(client.input.QueueUrl); got != "https://example.com/queue" {
		t.Fatalf("QueueUrl = %s", got)
	}
	attr, ok := client.input.MessageAttributes["event_type"]
	if !ok || aws.ToString(attr.StringValue) != EventBlogCreated || aws.ToString(attr.DataType) != "String" {
		t.Fatalf("event_type attribute missing or wrong: %#v", attr)
	}

	var decoded Event
	if err := json.Unmarshal([]byte(aws.ToString(client.input.MessageBody)), &decoded); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if decoded.Blog.ID != "b1" || decoded.ExternalURL == nil || *decoded.ExternalURL != "https://medium.com/@jane/post-1a2b3c" {
		t.Fatalf("unexpected body %#v", decoded)
	}
}

func TestSQSPublisherReturnsClientError(t *testing.T) {
	pub := &sqsPublisher{id: "q", client: &fakeSQSClient{err: errors.New("boom")}, log: noopLogger{}}
	if err := pub.Publish(context.Background(), sampleEvent()); err == nil {
		t.Fatal("expected error from Publish")
	}
}

func TestSNSPublisherSendsEvent(t *testing.T) {
	client := &fakeSNSClient{}
	pub := &snsPublisher{id: "t", topicARN: "arn:aws:sns:::topic", client: client, log: noopLogger{}}

	if err := pub.Publish(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if got := aws.ToString(client.input.TopicArn); got != "arn:aws:sns:::topic" {
		t.Fatalf("TopicArn = %s", got)
	}
	if attr := client.input.MessageAttributes["provider"]; aws.ToString(attr.StringValue) != "medium" {
		t.Fatalf("provider attribute = %#v", attr)
	}
}

func TestSNSPublisherReturnsClientError(t *testing.T) {
	pub := &snsPublisher{id: "t", client: &fakeSNSClient{err: errors.New("boom")}, log: noopLogger{}}
	if err := pub.Publish(context.Background(), sampleEvent()); err == nil {
		t.Fatal("expected error from Publish")
	}
}

func TestEmptyAttributeValuesArePlaceholders(t *testing.T) {
	client := &fakeSQSClient{}
	pub := &sqsPublisher{id: "q", client: client, log: noopLogger{}}
	if err := pub.Publish(context.Background(), Event{Type: EventBlogDeleted}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if got := aws.ToString(client.input.MessageAttributes["blog_id"].StringValue); got != "-" {
		t.Fatalf("expected placeholder for empty attribute, got %q", got)
	}
}
