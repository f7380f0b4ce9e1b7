package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gatherly/apiserver/internal/mq"
)

const (
	activityChannel        = "event-registrations"
	activityPublishTimeout = 5 * time.Second

	ActionRegistered   = "registered"
	ActionUnregistered = "unregistered"
)

// RegistrationActivity is the message published after a registration
// change.
type RegistrationActivity struct {
	UserID  int    `json:"user_id"`
	EventID int    `json:"event_id"`
	Action  string `json:"action"`
}

// ActivityPublisher fans registration changes out to the configured
// message broker. Publishing is best-effort: failures are logged and
// never fail the request that triggered them.
type ActivityPublisher struct {
	mq *mq.MQ
}

func NewActivityPublisher(broker *mq.MQ) *ActivityPublisher {
	return &ActivityPublisher{mq: broker}
}

// Channel returns the channel activity messages are published to.
func (p *ActivityPublisher) Channel() string {
	return activityChannel
}

func (p *ActivityPublisher) Publish(ctx context.Context, userID, eventID int, action string) {
	data, err := json.Marshal(RegistrationActivity{
		UserID:  userID,
		EventID: eventID,
		Action:  action,
	})
	if err != nil {
		log.Printf("activity publisher: marshal failed: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, activityPublishTimeout)
	defer cancel()

	attrs := map[string]string{"action": action}
	if _, err := p.mq.Publish(ctx, activityChannel, data, attrs); err != nil {
		log.Printf("activity publisher: publish failed: %v", err)
	}
}
