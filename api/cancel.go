package api

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"tripcast/internal/logger"
)

// RequestClass groups outbound calls that supersede each other. Issuing a new
// request of a class cancels the previous in-flight request of that class.
type RequestClass string

const (
	// ClassMaps covers reverse geocoding and POI searches.
	ClassMaps RequestClass = "maps"
	// ClassWeather covers forecast fetches.
	ClassWeather RequestClass = "weather"
)

// CancellationCoordinator tracks at most one outstanding abortable request
// per RequestClass. A superseded request observes context cancellation; its
// eventual settlement must be swallowed by the caller, never surfaced or
// written into shared state.
type CancellationCoordinator struct {
	mu     sync.Mutex
	active map[RequestClass]*activeRequest
}

type activeRequest struct {
	id     string
	cancel context.CancelFunc
}

// NewCancellationCoordinator creates an empty coordinator.
func NewCancellationCoordinator() *CancellationCoordinator {
	return &CancellationCoordinator{
		active: make(map[RequestClass]*activeRequest),
	}
}

// Begin cancels any in-flight request of the given class and registers a new
// one derived from parent. It returns the request context, a request ID for
// log correlation, and a release function the caller must invoke once the
// request settles. Release is idempotent and leaves newer requests untouched.
func (c *CancellationCoordinator) Begin(parent context.Context, class RequestClass) (context.Context, string, func()) {
	ctx, cancel := context.WithCancel(parent)
	req := &activeRequest{
		id:     uuid.NewString(),
		cancel: cancel,
	}

	c.mu.Lock()
	if prev, ok := c.active[class]; ok {
		logger.Debug("Superseding %s request %s with %s", class, prev.id, req.id)
		prev.cancel()
	}
	c.active[class] = req
	c.mu.Unlock()

	release := func() {
		c.mu.Lock()
		if cur, ok := c.active[class]; ok && cur == req {
			delete(c.active, class)
		}
		c.mu.Unlock()
		cancel()
	}

	return ctx, req.id, release
}

// CancelAll aborts every in-flight request, e.g. on shutdown.
func (c *CancellationCoordinator) CancelAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for class, req := range c.active {
		req.cancel()
		delete(c.active, class)
	}
}

// Aborted reports whether err stems from a superseded (cancelled) request
// rather than a genuine network failure. Aborted requests are a no-op for the
// caller, not an error to surface.
func Aborted(err error) bool {
	return errors.Is(err, context.Canceled)
}
