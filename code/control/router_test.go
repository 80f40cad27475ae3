package control_test

import (
	"testing"
	"time"

	"github.com/Voltaic314/eventbus/code/control"
)

func TestPublishDeliversToSubscribers(t *testing.T) {
	r := control.NewRouter()
	mailbox := make(chan control.Signal, 1)
	r.Subscribe("topic.a", mailbox)

	r.Publish(control.Signal{Topic: "topic.a", Payload: "hello"})

	select {
	case sig := <-mailbox:
		if sig.Payload != "hello" {
			t.Fatalf("expected payload %q, got %v", "hello", sig.Payload)
		}
		if sig.ID == "" {
			t.Fatalf("expected Publish to assign an ID")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for delivery")
	}
}

func TestPublishToUnknownTopicIsDropped(t *testing.T) {
	r := control.NewRouter()
	// No subscriber anywhere; this must not panic or block.
	r.Publish(control.Signal{Topic: "nobody.listens"})
}

func TestSubscribeReplacesPriorMailbox(t *testing.T) {
	r := control.NewRouter()
	old := make(chan control.Signal, 1)
	replacement := make(chan control.Signal, 1)
	r.Subscribe("topic.a", old)
	r.Subscribe("topic.a", replacement)

	r.Publish(control.Signal{Topic: "topic.a", Payload: "hello"})

	select {
	case <-old:
		t.Fatalf("expected the replaced mailbox to receive nothing")
	default:
	}
	select {
	case sig := <-replacement:
		if sig.Payload != "hello" {
			t.Fatalf("expected payload %q, got %v", "hello", sig.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for delivery to replacement mailbox")
	}
}

func TestPublishWithAckWaitsForTheSubscriber(t *testing.T) {
	for _, mode := range []control.AckMode{control.AckAny, control.AckAll} {
		mailbox := make(chan control.Signal, 1)
		r := control.NewRouter()
		r.Subscribe("topic.ack", mailbox)

		go func() {
			sig := <-mailbox
			if sig.Ack != nil {
				sig.Ack <- struct{}{}
			}
		}()

		if err := r.PublishWithAck(control.Signal{Topic: "topic.ack", AckMode: mode}, time.Second); err != nil {
			t.Fatalf("PublishWithAck(mode=%v): %v", mode, err)
		}
	}
}

func TestPublishWithAckTimesOutWithoutSubscribers(t *testing.T) {
	r := control.NewRouter()
	err := r.PublishWithAck(control.Signal{Topic: "nobody.home", AckMode: control.AckAll}, 20*time.Millisecond)
	if err == nil {
		t.Fatalf("expected timeout error")
	}
}

func TestPublishWithAckNoneDoesNotBlock(t *testing.T) {
	r := control.NewRouter()
	done := make(chan struct{})
	go func() {
		r.PublishWithAck(control.Signal{Topic: "fire.and.forget", AckMode: control.AckNone}, time.Second)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("AckNone publish blocked unexpectedly")
	}
}
