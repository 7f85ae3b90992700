package publishers

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Adda-Baaj/kijiji-ledger/internal/domain"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
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

func TestSQSPublisherSendsEventWithRunAttribute(t *testing.T) {
	client := &fakeSQSClient{}
	pub := &sqsPublisher{id: "q", queueURL: "https://example.com/queue", client: client, log: nopLogger{}}

	if err := pub.Publish(context.Background(), NewEvent("run-7", domain.Row{GUID: "g1"})); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if got := aws.ToString(client.input.QueueUrl); got != "https://example.com/queue" {
		t.Fatalf("QueueUrl = %s", got)
	}
	attr, ok := client.input.MessageAttributes["run_id"]
	if !ok || aws.ToString(attr.StringValue) != "run-7" || aws.ToString(attr.DataType) != "String" {
		t.Fatalf("run_id attribute missing or wrong: %#v", attr)
	}
	if !strings.Contains(aws.ToString(client.input.MessageBody), `"guid":"g1"`) {
		t.Fatalf("MessageBody missing guid: %s", aws.ToString(client.input.MessageBody))
	}
}

func TestSQSPublisherReturnsSendError(t *testing.T) {
	pub := &sqsPublisher{id: "q", client: &fakeSQSClient{err: errors.New("boom")}, log: nopLogger{}}
	if err := pub.Publish(context.Background(), Event{}); err == nil {
		t.Fatalf("expected error from Publish")
	}
}

func TestSNSPublisherPublishesToTopic(t *testing.T) {
	client := &fakeSNSClient{}
	pub := &snsPublisher{id: "t", topicARN: "arn:aws:sns:ca-central-1:123:ads", client: client, log: nopLogger{}}

	if err := pub.Publish(context.Background(), NewEvent("run-7", domain.Row{GUID: "g2"})); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if got := aws.ToString(client.input.TopicArn); got != "arn:aws:sns:ca-central-1:123:ads" {
		t.Fatalf("TopicArn = %s", got)
	}
	if !strings.Contains(aws.ToString(client.input.Message), `"run_id":"run-7"`) {
		t.Fatalf("Message missing run id: %s", aws.ToString(client.input.Message))
	}

	client.err = errors.New("throttled")
	if err := pub.Publish(context.Background(), Event{}); err == nil {
		t.Fatalf("expected error from Publish")
	}
}

func TestLoadAWSConfigUsesStaticCredentials(t *testing.T) {
	cfg, err := loadAWSConfig(context.Background(), "ca-central-1", &AWSCredentials{
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "secret",
	})
	if err != nil {
		t.Fatalf("loadAWSConfig: %v", err)
	}
	if cfg.Region != "ca-central-1" {
		t.Fatalf("Region = %s", cfg.Region)
	}
	creds, err := cfg.Credentials.Retrieve(context.Background())
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if creds.AccessKeyID != "AKIDEXAMPLE" {
		t.Fatalf("AccessKeyID = %s", creds.AccessKeyID)
	}
}
