// Package aws publishes match events to an SNS topic.
package aws

import (
	"context"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	json "github.com/goccy/go-json"

	apperrors "compatibility-workers/internal/common/errors"
	"compatibility-workers/internal/common/logger"
	"compatibility-workers/internal/models"
)

// PublishAPI is the subset of the SNS client the publisher needs.
type PublishAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type SNSPublisher struct {
	client   PublishAPI
	topicARN string
	logger   logger.Logger
}

func NewSNSPublisher(ctx context.Context, region, topicARN string, log logger.Logger) (*SNSPublisher, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, apperrors.NewExternalServiceError("sns", err)
	}
	return NewSNSPublisherWithClient(sns.NewFromConfig(cfg), topicARN, log), nil
}

func NewSNSPublisherWithClient(client PublishAPI, topicARN string, log logger.Logger) *SNSPublisher {
	return &SNSPublisher{
		client:   client,
		topicARN: topicARN,
		logger:   log.WithFields(map[string]interface{}{"component": "sns-publisher"}),
	}
}

// Publish sends the event as JSON with its type as a message attribute so
// subscribers can filter on it.
func (p *SNSPublisher) Publish(ctx context.Context, event models.MatchEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return apperrors.NewEventPublishFailedError(event.Type, err)
	}

	attrs := map[string]types.MessageAttributeValue{
		"eventType": {DataType: awssdk.String("String"), StringValue: awssdk.String(event.Type)},
	}
	if event.UserID != "" {
		attrs["userId"] = types.MessageAttributeValue{DataType: awssdk.String("String"), StringValue: awssdk.String(event.UserID)}
	}

	out, err := p.client.Publish(ctx, &sns.PublishInput{
		TopicArn:          awssdk.String(p.topicARN),
		Message:           awssdk.String(string(body)),
		MessageAttributes: attrs,
	})
	if err != nil {
		return apperrors.NewEventPublishFailedError(event.Type, err)
	}

	p.logger.Debug("Match event published", map[string]interface{}{
		"type":      event.Type,
		"userId":    event.UserID,
		"messageId": awssdk.ToString(out.MessageId),
	})
	return nil
}
