// Package jobxstream implements the jobx.Broker contract on Redis Streams.
// Each topic is one stream; the consumer group owns delivery so that every
// entry is processed by exactly one group member at a time. Entry IDs serve
// as offsets, XACK as the offset commit. Delivery within one stream preserves
// producer order; there is no ordering across streams.
package jobxstream

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tracefield/astro-reason/pkg/jobx"
)

const payloadField = "job"

// Broker is a Redis Streams implementation of jobx.Broker.
type Broker struct {
	rdb      *redis.Client
	group    string
	consumer string
	topics   []string
	streams  []string // topics followed by one ">" per topic, as XREADGROUP wants
}

// NewBroker creates a broker for the given consumer group identity. The
// topics are the streams this consumer subscribes to; a pure producer may
// pass none.
func NewBroker(rdb *redis.Client, group, consumer string, topics ...string) *Broker {
	streams := make([]string, 0, len(topics)*2)
	streams = append(streams, topics...)
	for range topics {
		streams = append(streams, ">")
	}
	return &Broker{
		rdb:      rdb,
		group:    group,
		consumer: consumer,
		topics:   topics,
		streams:  streams,
	}
}

// EnsureGroups creates the consumer group on every subscribed topic,
// creating the streams as needed. Existing groups are left untouched.
func (b *Broker) EnsureGroups(ctx context.Context) error {
	for _, topic := range b.topics {
		err := b.rdb.XGroupCreateMkStream(ctx, topic, b.group, "0").Err()
		if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
			return streamErrors.NewWithCause(ErrGroupCreate, err).
				WithDetail("topic", topic).
				WithDetail("group", b.group)
		}
	}
	return nil
}

// Publish appends the record to the topic's stream.
func (b *Broker) Publish(ctx context.Context, topic string, rec jobx.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return streamErrors.NewWithCause(ErrMarshal, err).WithDetail("job_id", rec.ID)
	}

	err = b.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: topic,
		Values: map[string]interface{}{payloadField: string(data)},
	}).Err()
	if err != nil {
		return streamErrors.NewWithCause(ErrPublish, err).
			WithDetail("job_id", rec.ID).
			WithDetail("topic", topic)
	}
	return nil
}

// Dequeue reads the next undelivered entry for this consumer, blocking up to
// timeout. Returns (nil, nil) when the wait elapses with nothing to deliver.
func (b *Broker) Dequeue(ctx context.Context, timeout time.Duration) (*jobx.Envelope, error) {
	res, err := b.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    b.group,
		Consumer: b.consumer,
		Streams:  b.streams,
		Count:    1,
		Block:    timeout,
	}).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // empty poll
		}
		if ctx.Err() != nil {
			return nil, nil
		}
		return nil, streamErrors.NewWithCause(ErrRead, err)
	}

	for _, stream := range res {
		for _, msg := range stream.Messages {
			payload, ok := msg.Values[payloadField].(string)
			if !ok {
				return nil, streamErrors.New(ErrUnmarshal).
					WithDetail("topic", stream.Stream).
					WithDetail("offset", msg.ID)
			}
			var rec jobx.Record
			if err := json.Unmarshal([]byte(payload), &rec); err != nil {
				return nil, streamErrors.NewWithCause(ErrUnmarshal, err).
					WithDetail("topic", stream.Stream).
					WithDetail("offset", msg.ID)
			}
			return &jobx.Envelope{
				Record: rec,
				Topic:  stream.Stream,
				Offset: msg.ID,
			}, nil
		}
	}
	return nil, nil
}

// Ack commits the entry's offset for the consumer group.
func (b *Broker) Ack(ctx context.Context, env *jobx.Envelope) error {
	if err := b.rdb.XAck(ctx, env.Topic, b.group, env.Offset).Err(); err != nil {
		return streamErrors.NewWithCause(ErrAck, err).
			WithDetail("topic", env.Topic).
			WithDetail("offset", env.Offset)
	}
	return nil
}
