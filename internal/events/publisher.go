package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/healthconnect/pkg/logging"
)

var tracer = otel.Tracer("healthconnect.internal.events")

// Publisher emits canonical events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, aggregate string, evt CanonicalEvent) error
}

// SQSAPI is the subset of *sqs.Client used by SQSPublisher.
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSPublisher sends event envelopes to an AWS/LocalStack SQS queue.
type SQSPublisher struct {
	client   SQSAPI
	queueURL string
	logger   *logging.Logger
}

// NewSQSPublisher creates a publisher around the provided SQS client.
func NewSQSPublisher(client SQSAPI, queueURL string, logger *logging.Logger) *SQSPublisher {
	if client == nil {
		panic("events: SQS client cannot be nil")
	}
	if strings.TrimSpace(queueURL) == "" {
		panic("events: SQS queueURL cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SQSPublisher{client: client, queueURL: queueURL, logger: logger}
}

func (p *SQSPublisher) Publish(ctx context.Context, aggregate string, evt CanonicalEvent) error {
	ctx, span := tracer.Start(ctx, "events.sqs.publish")
	defer span.End()

	env, err := NewEnvelope(aggregate, "", evt)
	if err != nil {
		span.RecordError(err)
		return err
	}
	span.SetAttributes(
		attribute.String("event.type", env.EventType),
		attribute.String("event.aggregate", env.Aggregate),
	)

	body, err := json.Marshal(env)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("events: marshal envelope: %w", err)
	}

	_, err = p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"event_type": {DataType: aws.String("String"), StringValue: aws.String(env.EventType)},
		},
	})
	if err != nil {
		span.RecordError(err)
		p.logger.Error("events: sqs publish failed", "error", err, "event_type", env.EventType, "aggregate", env.Aggregate)
		return fmt.Errorf("events: failed to send SQS message: %w", err)
	}
	p.logger.Debug("events: published", "event_type", env.EventType, "event_id", env.EventID.String())
	return nil
}

// NoopPublisher drops events. Used when no queue is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, CanonicalEvent) error { return nil }

var (
	_ Publisher = (*SQSPublisher)(nil)
	_ Publisher = NoopPublisher{}
)
