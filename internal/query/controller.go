// Package query implements the fetch lifecycle for one user session: it owns
// the current selection, validates it, calls the pricing API, and classifies
// the outcome into a State.
package query

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/seenimoa/commodityavg/internal/infra"
	"github.com/seenimoa/commodityavg/pkg/models"
)

// MissingDatesMessage is shown when a submission lacks a start or end date.
const MissingDatesMessage = "Please select both start and end dates."

// ErrUnknownResource is returned by SetResource for codes outside the catalogue.
type ErrUnknownResource struct {
	Resource models.Resource
}

func (e *ErrUnknownResource) Error() string {
	return fmt.Sprintf("invalid resource: %s", e.Resource)
}

// ErrIntervalNotAllowed is returned by SetInterval when the interval is not
// offered for the current resource.
type ErrIntervalNotAllowed struct {
	Resource models.Resource
	Interval models.Interval
}

func (e *ErrIntervalNotAllowed) Error() string {
	return fmt.Sprintf("invalid interval %q for resource %q", e.Interval, e.Resource)
}

// Listener observes state transitions. It runs synchronously after each
// transition and must not call the controller's mutating methods.
type Listener func(State, Params)

// Controller owns the selection and fetch state of a single session.
// All methods are safe for concurrent use.
type Controller struct {
	baseURL string
	client  infra.Doer
	logger  *zap.Logger

	mu     sync.Mutex
	params Params
	state  State
	seq    uint64

	// notifyMu keeps listener calls in transition order.
	notifyMu  sync.Mutex
	listeners map[int]Listener
	nextID    int
}

// Option configures a Controller.
type Option func(*Controller)

// WithClient sets the HTTP client used for the pricing API.
func WithClient(d infra.Doer) Option {
	return func(c *Controller) { c.client = d }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// NewController creates a controller in the Idle state with default params.
func NewController(baseURL string, opts ...Option) *Controller {
	c := &Controller{
		baseURL:   baseURL,
		params:    DefaultParams(),
		state:     Idle{},
		listeners: make(map[int]Listener),
	}
	for _, o := range opts {
		o(c)
	}
	if c.client == nil {
		c.client = http.DefaultClient
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Params returns the current selection.
func (c *Controller) Params() Params {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.params
}

// Snapshot returns the current state and selection in one consistent read.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snap(c.state, c.params)
}

// SetResource selects r and resets the interval to r's first allowed interval.
func (c *Controller) SetResource(r models.Resource) error {
	if _, ok := models.LookupResource(r); !ok {
		return &ErrUnknownResource{Resource: r}
	}
	c.mu.Lock()
	c.params.Resource = r
	c.params.Interval = models.DefaultInterval(r)
	c.mu.Unlock()
	c.logger.Debug("resource changed",
		zap.String("resource", string(r)),
		zap.Any("intervals", models.AllowedIntervals(r)))
	return nil
}

// SetInterval selects i. Setting the current interval is a no-op.
func (c *Controller) SetInterval(i models.Interval) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.params.Interval == i {
		return nil
	}
	if !models.IntervalAllowed(c.params.Resource, i) {
		return &ErrIntervalNotAllowed{Resource: c.params.Resource, Interval: i}
	}
	c.params.Interval = i
	return nil
}

// SetStartDate sets the start date; the zero time clears it.
func (c *Controller) SetStartDate(d time.Time) {
	c.mu.Lock()
	c.params.StartDate = d
	c.mu.Unlock()
}

// SetEndDate sets the end date; the zero time clears it.
func (c *Controller) SetEndDate(d time.Time) {
	c.mu.Lock()
	c.params.EndDate = d
	c.mu.Unlock()
}

// Subscribe registers fn for state transitions and returns a function that
// removes it.
func (c *Controller) Subscribe(fn Listener) (unsubscribe func()) {
	c.notifyMu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.notifyMu.Unlock()
	return func() {
		c.notifyMu.Lock()
		delete(c.listeners, id)
		c.notifyMu.Unlock()
	}
}

// Submit runs one fetch for the current selection and returns the state it
// settled into. It blocks until the request settles; see SubmitAsync for a
// caller that must stay responsive while State reports Loading.
//
// Each call takes a new sequence number. When submissions overlap, only the
// most recent one may settle the state; older responses are dropped and the
// returned State is whatever is current at that moment.
func (c *Controller) Submit(ctx context.Context) State {
	seq, params := c.begin()
	return c.run(ctx, seq, params)
}

// SubmitAsync enters Loading before returning and settles in the background.
// The channel yields the same State Submit would have returned, then closes.
func (c *Controller) SubmitAsync(ctx context.Context) <-chan State {
	seq, params := c.begin()
	done := make(chan State, 1)
	go func() {
		done <- c.run(ctx, seq, params)
		close(done)
	}()
	return done
}

// begin takes a sequence number and publishes Loading.
func (c *Controller) begin() (uint64, Params) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	c.mu.Lock()
	c.seq++
	seq := c.seq
	params := c.params
	c.state = Loading{Seq: seq}
	c.mu.Unlock()
	c.notifyLocked(Loading{Seq: seq}, params)
	return seq, params
}

func (c *Controller) run(ctx context.Context, seq uint64, params Params) State {
	log := c.logger.With(zap.Uint64("seq", seq), zap.String("resource", string(params.Resource)),
		zap.String("interval", string(params.Interval)))

	var next State
	if !params.DatesSet() {
		next = Failure{Err: ErrorInfo{Message: MissingDatesMessage, Category: CategoryMissingInput}}
	} else {
		reqURL := params.RequestURL(c.baseURL)
		log.Debug("fetching daily average", zap.String("url", reqURL))
		next = c.fetch(ctx, reqURL)
	}

	if f, ok := next.(Failure); ok {
		log.Info("query failed",
			zap.String("category", string(f.Err.Category)),
			zap.String("message", f.Err.Message),
			zap.Int("status", f.Err.Status))
	} else {
		log.Info("query succeeded")
	}

	return c.settle(seq, params, next, log)
}

// settle applies next if seq is still the latest submission.
func (c *Controller) settle(seq uint64, params Params, next State, log *zap.Logger) State {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	if seq != c.seq {
		current := c.state
		c.mu.Unlock()
		log.Debug("discarding stale response", zap.Uint64("latest_seq", c.latestSeq()))
		return current
	}
	c.state = next
	c.mu.Unlock()

	c.notifyLocked(next, params)
	return next
}

func (c *Controller) latestSeq() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// notifyLocked must be called with notifyMu held.
func (c *Controller) notifyLocked(s State, p Params) {
	for _, fn := range c.listeners {
		fn(s, p)
	}
}
