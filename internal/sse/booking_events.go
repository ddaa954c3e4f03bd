package sse

import (
	"context"
	"sync"

	"turfbook/internal/models"
)

// BookingEventEmitter manages SSE connections and fan-out for booking
// lifecycle events. Customers follow a single booking while it awaits
// payment; the availability board follows a whole ground-day.
type BookingEventEmitter struct {
	// Booking channel clients map - key: bookingID
	bookingClients     map[string][]chan models.BookingEvent
	bookingClientMutex sync.RWMutex

	// Ground-day channel clients map - key: groundID + "|" + date
	dayClients     map[string][]chan models.BookingEvent
	dayClientMutex sync.RWMutex
}

func NewBookingEventEmitter() *BookingEventEmitter {
	return &BookingEventEmitter{
		bookingClients: make(map[string][]chan models.BookingEvent),
		dayClients:     make(map[string][]chan models.BookingEvent),
	}
}

func dayKey(groundID, date string) string {
	return groundID + "|" + date
}

// SubscribeToBooking adds a client following one booking's status stream.
func (e *BookingEventEmitter) SubscribeToBooking(ctx context.Context, bookingID string) chan models.BookingEvent {
	clientChan := make(chan models.BookingEvent, 10)

	e.bookingClientMutex.Lock()
	e.bookingClients[bookingID] = append(e.bookingClients[bookingID], clientChan)
	e.bookingClientMutex.Unlock()

	go func() {
		<-ctx.Done()
		e.removeBookingClient(bookingID, clientChan)
	}()

	return clientChan
}

// SubscribeToGroundDay adds a client watching one ground's availability for
// a given date.
func (e *BookingEventEmitter) SubscribeToGroundDay(ctx context.Context, groundID, date string) chan models.BookingEvent {
	clientChan := make(chan models.BookingEvent, 10)
	key := dayKey(groundID, date)

	e.dayClientMutex.Lock()
	e.dayClients[key] = append(e.dayClients[key], clientChan)
	e.dayClientMutex.Unlock()

	go func() {
		<-ctx.Done()
		e.removeDayClient(key, clientChan)
	}()

	return clientChan
}

// Emit broadcasts a booking event to everyone following the booking or its
// ground-day. Sends are non-blocking; a slow client just misses the event.
func (e *BookingEventEmitter) Emit(event models.BookingEvent) {
	e.bookingClientMutex.RLock()
	clients := e.bookingClients[event.BookingID]
	e.bookingClientMutex.RUnlock()

	for _, clientChan := range clients {
		select {
		case clientChan <- event:
		default:
		}
	}

	e.dayClientMutex.RLock()
	dayClients := e.dayClients[dayKey(event.GroundID, event.Date)]
	e.dayClientMutex.RUnlock()

	for _, clientChan := range dayClients {
		select {
		case clientChan <- event:
		default:
		}
	}
}

// removeBookingClient drops a channel from the booking map. The channel is
// never closed: Emit may have copied a reference to it before the removal
// took the write lock, and a send on a closed channel panics. The subscriber
// exits on ctx.Done and the channel is garbage collected.
func (e *BookingEventEmitter) removeBookingClient(bookingID string, clientChan chan models.BookingEvent) {
	e.bookingClientMutex.Lock()
	defer e.bookingClientMutex.Unlock()

	clients := e.bookingClients[bookingID]
	for i, ch := range clients {
		if ch == clientChan {
			e.bookingClients[bookingID] = append(clients[:i], clients[i+1:]...)
			break
		}
	}

	if len(e.bookingClients[bookingID]) == 0 {
		delete(e.bookingClients, bookingID)
	}
}

func (e *BookingEventEmitter) removeDayClient(key string, clientChan chan models.BookingEvent) {
	e.dayClientMutex.Lock()
	defer e.dayClientMutex.Unlock()

	clients := e.dayClients[key]
	for i, ch := range clients {
		if ch == clientChan {
			e.dayClients[key] = append(clients[:i], clients[i+1:]...)
			break
		}
	}

	if len(e.dayClients[key]) == 0 {
		delete(e.dayClients, key)
	}
}

// BookingClientCount returns how many clients follow a booking.
func (e *BookingEventEmitter) BookingClientCount(bookingID string) int {
	e.bookingClientMutex.RLock()
	defer e.bookingClientMutex.RUnlock()
	return len(e.bookingClients[bookingID])
}

// DayClientCount returns how many clients watch a ground-day.
func (e *BookingEventEmitter) DayClientCount(groundID, date string) int {
	e.dayClientMutex.RLock()
	defer e.dayClientMutex.RUnlock()
	return len(e.dayClients[dayKey(groundID, date)])
}
