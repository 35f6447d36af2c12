package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub/v2"
)

// Publisher enqueues worker jobs on a Pub/Sub topic. It implements the API's
// recompute enqueuer.
type Publisher struct {
	client    *pubsub.Client
	publisher *pubsub.Publisher
	topicName string
}

// NewPublisher creates a new job publisher for the given topic.
func NewPublisher(ctx context.Context, projectID, topicName string) (*Publisher, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	return &Publisher{
		client:    client,
		publisher: client.Publisher(topicName),
		topicName: topicName,
	}, nil
}

// EnqueueRecompute publishes a recompute job for one itinerary.
func (p *Publisher) EnqueueRecompute(ctx context.Context, itineraryID string) error {
	return p.publish(ctx, JobMessage{
		JobType:     JobTypeRecompute,
		ItineraryID: itineraryID,
	})
}

// EnqueueRecomputeAll publishes a bulk recompute job.
func (p *Publisher) EnqueueRecomputeAll(ctx context.Context) error {
	return p.publish(ctx, JobMessage{JobType: JobTypeRecomputeAll})
}

func (p *Publisher) publish(ctx context.Context, job JobMessage) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job message: %w", err)
	}

	result := p.publisher.Publish(ctx, &pubsub.Message{Data: data})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish %s job: %w", job.JobType, err)
	}
	return nil
}

// Close stops the publisher and closes the client.
func (p *Publisher) Close() error {
	p.publisher.Stop()
	return p.client.Close()
}
