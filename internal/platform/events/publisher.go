// Package events publishes engagement change notifications to NATS JetStream.
// Publishing is fire-and-forget: a lost event only delays cache invalidation
// on other instances until the cache TTL expires.
package events

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Subjects published by the engagement service.
const (
	SubjectReactionChanged   = "engagement.reaction.changed"
	SubjectCommentSubmitted  = "engagement.comment.submitted"
	SubjectCommentModerated  = "engagement.comment.moderated"
	SubjectCommentDeleted    = "engagement.comment.deleted"
	SubjectSubjectRegistered = "engagement.subject.registered"

	// SubjectAll matches every engagement event.
	SubjectAll = "engagement.>"
	StreamName = "ENGAGEMENT_EVENTS"
)

// Event is the envelope sent to every engagement.* subject.
type Event struct {
	EventID    string         `json:"event_id"`
	EventName  string         `json:"event_name"`
	Origin     string         `json:"origin"`
	ActorID    string         `json:"actor_id,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Decode parses an event envelope.
func Decode(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, err
	}
	if ev.EventName == "" {
		return Event{}, errors.New("events: missing event_name")
	}
	return ev, nil
}

type asyncPublisher interface {
	PublishAsync(subj string, data []byte, opts ...nats.PubOpt) (nats.PubAckFuture, error)
}

// Publisher publishes engagement events to NATS JetStream.
// The zero value and a nil pointer are both safe no-op stubs.
type Publisher struct {
	js     asyncPublisher
	log    *zap.Logger
	origin string
}

// New creates a Publisher using an existing JetStream context. origin
// identifies this process so consumers can skip their own events.
// Pass js=nil to get a no-op stub (useful in tests and without NATS).
func New(js nats.JetStreamContext, log *zap.Logger, origin string) *Publisher {
	p := &Publisher{log: log, origin: origin}
	if js != nil {
		p.js = js
	}
	return p
}

// Origin returns the instance id stamped on published events.
func (p *Publisher) Origin() string {
	if p == nil {
		return ""
	}
	return p.origin
}

// Publish sends an event asynchronously. Failures are logged as warnings and
// never surface to the caller. Safe to call with a nil receiver.
func (p *Publisher) Publish(subject, eventName, actorID string, props map[string]any) {
	if p == nil || p.js == nil {
		return
	}
	ev := Event{
		EventID:    uuid.NewString(),
		EventName:  eventName,
		Origin:     p.origin,
		ActorID:    actorID,
		OccurredAt: time.Now().UTC(),
		Properties: props,
	}
	data, err := json.Marshal(ev)
	if err != nil {
		p.log.Warn("events: marshal failed", zap.String("event", eventName), zap.Error(err))
		return
	}
	if _, err := p.js.PublishAsync(subject, data); err != nil {
		p.log.Warn("events: publish failed", zap.String("subject", subject), zap.Error(err))
	}
}

// EnsureStream creates the ENGAGEMENT_EVENTS stream or widens its subjects.
func EnsureStream(js nats.JetStreamManager) error {
	info, err := js.StreamInfo(StreamName)
	if err == nil {
		for _, s := range info.Config.Subjects {
			if s == SubjectAll {
				return nil
			}
		}
		cfg := info.Config
		cfg.Subjects = []string{SubjectAll}
		_, err = js.UpdateStream(&cfg)
		return err
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return err
	}
	_, err = js.AddStream(&nats.StreamConfig{
		Name:     StreamName,
		Subjects: []string{SubjectAll},
		Storage:  nats.FileStorage,
		MaxAge:   24 * time.Hour,
	})
	return err
}
