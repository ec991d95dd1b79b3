// Package events provides an in-process dispatcher for best-effort side
// effects (snapshots, audit trail, notifications). Delivery is
// asynchronous and non-blocking; handler failures and panics are logged
// and never propagate to the operation that published the event.
package events

import (
	"sync"

	"captable/internal/logger"
)

// Event names published by the engine.
const (
	TransactionConfirmed = "transaction_confirmed"
	TransactionCancelled = "transaction_cancelled"
)

// Event is an outbound record of something that already happened.
type Event struct {
	Name          string
	CompanyID     string
	TransactionID string
	ActorID       string
	Payload       map[string]any
}

// Handler consumes a single event. Returned errors are logged, not retried.
type Handler func(Event) error

// Dispatcher fans events out to subscribed handlers on separate goroutines.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	wg       sync.WaitGroup
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string][]Handler)}
}

// Subscribe registers a handler for the named event.
func (d *Dispatcher) Subscribe(name string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[name] = append(d.handlers[name], h)
}

// Publish delivers the event to all handlers asynchronously and returns
// immediately. Handler errors and panics are swallowed after logging.
func (d *Dispatcher) Publish(evt Event) {
	d.mu.RLock()
	handlers := d.handlers[evt.Name]
	d.mu.RUnlock()

	for _, h := range handlers {
		h := h
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					logger.Get().Errorw("event handler panicked",
						"event", evt.Name,
						"company_id", evt.CompanyID,
						"panic", r,
					)
				}
			}()
			if err := h(evt); err != nil {
				logger.Get().Errorw("event handler failed",
					"event", evt.Name,
					"company_id", evt.CompanyID,
					"transaction_id", evt.TransactionID,
					"error", err,
				)
			}
		}()
	}
}

// Wait blocks until all in-flight handlers finish. Used in tests and
// during graceful shutdown.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
