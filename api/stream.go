package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/Coachraj/Reminder-tool/domain"
)

// Broker fans reminder activity out to SSE subscribers. Notify is safe to
// call from any goroutine and never blocks; slow subscribers coalesce
// pending notifications into one.
type Broker struct {
	mu   sync.Mutex
	subs map[chan struct{}]struct{}
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[chan struct{}]struct{})}
}

func (b *Broker) subscribe() chan struct{} {
	ch := make(chan struct{}, 1)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) unsubscribe(ch chan struct{}) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
}

// Notify wakes every subscriber.
func (b *Broker) Notify() {
	b.mu.Lock()
	for ch := range b.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	b.mu.Unlock()
}

type stateSnapshot struct {
	Tasks  []domain.Task  `json:"tasks"`
	Emails []domain.Email `json:"emails"`
}

// streamState serves the live task and inbox snapshot over SSE: once on
// connect and again on every broker notification.
func streamState(store Store, broker *Broker) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
		c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
		c.Response().Header().Set(echo.HeaderConnection, "keep-alive")
		c.Response().Header().Set("X-Accel-Buffering", "no")
		flusher, ok := c.Response().Writer.(http.Flusher)
		if !ok {
			return c.String(http.StatusInternalServerError, "stream unsupported")
		}
		ctx := c.Request().Context()
		ch := broker.subscribe()
		defer broker.unsubscribe(ch)
		for {
			snapshot := stateSnapshot{Tasks: store.GetTasks(), Emails: store.GetEmails()}
			data, err := json.Marshal(snapshot)
			if err != nil {
				c.Logger().Error(err)
				return err
			}
			if _, err := c.Response().Write([]byte("data: ")); err != nil {
				c.Logger().Error(err)
				return err
			}
			if _, err := c.Response().Write(data); err != nil {
				c.Logger().Error(err)
				return err
			}
			if _, err := c.Response().Write([]byte("\n\n")); err != nil {
				c.Logger().Error(err)
				return err
			}
			flusher.Flush()
			select {
			case <-ctx.Done():
				return nil
			case <-ch:
				continue
			}
		}
	}
}
