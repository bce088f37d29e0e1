package sse

import (
	"context"
	"sync"
	"time"

	"ms-fidelity/internal/models"
)

const EventCardAdded = "card_added"

// CardEvent is pushed to the open pages of the viewer who owns the card.
type CardEvent struct {
	Type          string    `json:"type"`
	EnrollmentID  string    `json:"enrollment_id"`
	LoyaltyCardID string    `json:"loyalty_card_id"`
	CardNumber    int64     `json:"card_number"`
	At            time.Time `json:"at"`
}

// CardEventEmitter manages SSE subscribers per viewer.
type CardEventEmitter struct {
	clients map[string][]chan CardEvent
	mu      sync.RWMutex
}

func NewCardEventEmitter() *CardEventEmitter {
	return &CardEventEmitter{
		clients: make(map[string][]chan CardEvent),
	}
}

// Subscribe registers a client for viewerID until ctx is done; the channel
// is closed on removal.
func (e *CardEventEmitter) Subscribe(ctx context.Context, viewerID string) chan CardEvent {
	clientChan := make(chan CardEvent, 10)

	e.mu.Lock()
	e.clients[viewerID] = append(e.clients[viewerID], clientChan)
	e.mu.Unlock()

	go func() {
		<-ctx.Done()
		e.removeClient(viewerID, clientChan)
	}()

	return clientChan
}

// Emit broadcasts event to the viewer's clients without blocking on slow
// ones.
func (e *CardEventEmitter) Emit(viewerID string, event CardEvent) {
	// the read lock also keeps removeClient from closing a channel mid-send
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, clientChan := range e.clients[viewerID] {
		select {
		case clientChan <- event:
		default:
			// buffer full, drop for this client
		}
	}
}

// CardAdded emits a card_added event for a freshly inserted card.
func (e *CardEventEmitter) CardAdded(viewerID string, card models.Enrollment) {
	e.Emit(viewerID, CardEvent{
		Type:          EventCardAdded,
		EnrollmentID:  card.ID,
		LoyaltyCardID: card.LoyaltyCardID,
		CardNumber:    card.CardNumber,
		At:            card.CreatedAt,
	})
}

// EnrollmentCreated adapts a consumed Kafka event.
func (e *CardEventEmitter) EnrollmentCreated(event models.EnrollmentCreatedEvent) {
	e.Emit(event.CustomerID, CardEvent{
		Type:          EventCardAdded,
		EnrollmentID:  event.EnrollmentID,
		LoyaltyCardID: event.LoyaltyCardID,
		CardNumber:    event.CardNumber,
		At:            event.CreatedAt,
	})
}

func (e *CardEventEmitter) removeClient(viewerID string, clientChan chan CardEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()

	clients := e.clients[viewerID]
	for i, ch := range clients {
		if ch == clientChan {
			e.clients[viewerID] = append(clients[:i], clients[i+1:]...)
			close(clientChan)
			break
		}
	}

	if len(e.clients[viewerID]) == 0 {
		delete(e.clients, viewerID)
	}
}

// ClientCount returns the number of open streams of viewerID.
func (e *CardEventEmitter) ClientCount(viewerID string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.clients[viewerID])
}
