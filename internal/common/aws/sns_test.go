package aws

import (
	"context"
	"errors"
	"testing"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "compatibility-workers/internal/common/errors"
	"compatibility-workers/internal/common/logger"
	"compatibility-workers/internal/models"
)

type fakeSNS struct {
	input *sns.PublishInput
	err   error
}

func (f *fakeSNS) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: awssdk.String("msg-1")}, nil
}

func TestSNSPublisher_Publish(t *testing.T) {
	client := &fakeSNS{}
	pub := NewSNSPublisherWithClient(client, "arn:aws:sns:us-east-1:123:matches", logger.NewTestLogger(t))

	event := models.MatchEvent{
		Type:       models.EventMatchesRecomputed,
		UserID:     "user-1",
		MatchCount: 7,
		Version:    "v-1",
		OccurredAt: time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC),
	}
	require.NoError(t, pub.Publish(context.Background(), event))

	require.NotNil(t, client.input)
	assert.Equal(t, "arn:aws:sns:us-east-1:123:matches", awssdk.ToString(client.input.TopicArn))
	assert.Equal(t, models.EventMatchesRecomputed, awssdk.ToString(client.input.MessageAttributes["eventType"].StringValue))
	assert.Equal(t, "user-1", awssdk.ToString(client.input.MessageAttributes["userId"].StringValue))

	var decoded models.MatchEvent
	require.NoError(t, json.Unmarshal([]byte(awssdk.ToString(client.input.Message)), &decoded))
	assert.Equal(t, event, decoded)
}

func TestSNSPublisher_BatchEventHasNoUserAttribute(t *testing.T) {
	client := &fakeSNS{}
	pub := NewSNSPublisherWithClient(client, "arn", logger.NewNoOpLogger())

	require.NoError(t, pub.Publish(context.Background(), models.MatchEvent{Type: models.EventMatchesPrecomputed, MatchCount: 5}))
	_, ok := client.input.MessageAttributes["userId"]
	assert.False(t, ok)
}

func TestSNSPublisher_PublishError(t *testing.T) {
	client := &fakeSNS{err: errors.New("throttled")}
	pub := NewSNSPublisherWithClient(client, "arn", logger.NewNoOpLogger())

	err := pub.Publish(context.Background(), models.MatchEvent{Type: models.EventMatchesPrecomputed})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeEventPublishFailed))
}
