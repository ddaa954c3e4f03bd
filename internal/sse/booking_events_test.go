package sse

import (
	"context"
	"testing"
	"time"

	"turfbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func confirmEvent() models.BookingEvent {
	return models.BookingEvent{
		Type:      models.EventBookingConfirmed,
		BookingID: "bk-1",
		GroundID:  "match",
		Date:      "2030-06-10",
		Status:    "confirmed",
	}
}

func TestEmitReachesBookingSubscriber(t *testing.T) {
	emitter := NewBookingEventEmitter()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := emitter.SubscribeToBooking(ctx, "bk-1")
	emitter.Emit(confirmEvent())

	select {
	case got := <-ch:
		assert.Equal(t, "bk-1", got.BookingID)
		assert.Equal(t, models.EventBookingConfirmed, got.Type)
	case <-time.After(time.Second):
		t.Fatal("expected event on booking channel")
	}
}

func TestEmitReachesGroundDaySubscriber(t *testing.T) {
	emitter := NewBookingEventEmitter()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dayCh := emitter.SubscribeToGroundDay(ctx, "match", "2030-06-10")
	otherDayCh := emitter.SubscribeToGroundDay(ctx, "practice", "2030-06-10")

	emitter.Emit(confirmEvent())

	select {
	case got := <-dayCh:
		assert.Equal(t, "match", got.GroundID)
	case <-time.After(time.Second):
		t.Fatal("expected event on ground-day channel")
	}

	select {
	case <-otherDayCh:
		t.Fatal("event leaked to a different ground")
	default:
	}
}

func TestEmitIgnoresUnrelatedBooking(t *testing.T) {
	emitter := NewBookingEventEmitter()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := emitter.SubscribeToBooking(ctx, "bk-other")
	emitter.Emit(confirmEvent())

	select {
	case <-ch:
		t.Fatal("event leaked to a different booking")
	default:
	}
}

func TestUnsubscribeOnContextCancel(t *testing.T) {
	emitter := NewBookingEventEmitter()
	ctx, cancel := context.WithCancel(context.Background())

	emitter.SubscribeToBooking(ctx, "bk-1")
	require.Equal(t, 1, emitter.BookingClientCount("bk-1"))

	cancel()

	// Removal runs in a goroutine; poll until the client count drops.
	deadline := time.Now().Add(time.Second)
	for emitter.BookingClientCount("bk-1") != 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber was not removed after context cancel")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestEmitDuringSubscriberChurn(t *testing.T) {
	emitter := NewBookingEventEmitter()

	stop := make(chan struct{})
	emitDone := make(chan struct{})
	go func() {
		defer close(emitDone)
		for {
			select {
			case <-stop:
				return
			default:
				emitter.Emit(confirmEvent())
			}
		}
	}()

	// Subscribers connect and drop off while events are in flight. A send
	// must never land on a channel torn down by the cancel path.
	for i := 0; i < 200; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		emitter.SubscribeToBooking(ctx, "bk-1")
		emitter.SubscribeToGroundDay(ctx, "match", "2030-06-10")
		cancel()
	}

	close(stop)
	select {
	case <-emitDone:
	case <-time.After(2 * time.Second):
		t.Fatal("emit loop did not finish")
	}

	deadline := time.Now().Add(time.Second)
	for emitter.BookingClientCount("bk-1") != 0 || emitter.DayClientCount("match", "2030-06-10") != 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscribers were not removed after context cancel")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSlowClientDoesNotBlockEmit(t *testing.T) {
	emitter := NewBookingEventEmitter()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	emitter.SubscribeToBooking(ctx, "bk-1")

	done := make(chan struct{})
	go func() {
		// Channel buffer is 10; emitting more must not block.
		for i := 0; i < 25; i++ {
			emitter.Emit(confirmEvent())
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Emit blocked on a full client channel")
	}
}
