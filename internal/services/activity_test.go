package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/gatherly/apiserver/internal/mq"
)

type recordingBackend struct {
	channel    string
	data       []byte
	attrs      map[string]string
	publishErr error
}

func (b *recordingBackend) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if b.publishErr != nil {
		return "", b.publishErr
	}
	b.channel = channel
	b.data = data
	b.attrs = attrs
	return "msg-1", nil
}

func (b *recordingBackend) Subscribe(ctx context.Context, channel string, handler mq.Handler) error {
	return errors.New("not implemented")
}

func (b *recordingBackend) Close() error { return nil }

func TestActivityPublisherMessageShape(t *testing.T) {
	backend := &recordingBackend{}
	publisher := NewActivityPublisher(mq.New(backend))

	publisher.Publish(context.Background(), 7, 42, ActionRegistered)

	if backend.channel != publisher.Channel() {
		t.Fatalf("published to %q, want %q", backend.channel, publisher.Channel())
	}
	if backend.attrs["action"] != ActionRegistered {
		t.Fatalf("unexpected attrs %v", backend.attrs)
	}

	var activity RegistrationActivity
	if err := json.Unmarshal(backend.data, &activity); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	want := RegistrationActivity{UserID: 7, EventID: 42, Action: ActionRegistered}
	if activity != want {
		t.Fatalf("payload %+v, want %+v", activity, want)
	}
}

func TestActivityPublisherSwallowsBrokerErrors(t *testing.T) {
	backend := &recordingBackend{publishErr: errors.New("broker down")}
	publisher := NewActivityPublisher(mq.New(backend))

	// Must not panic or propagate; fanout is best-effort.
	publisher.Publish(context.Background(), 7, 42, ActionUnregistered)
}
