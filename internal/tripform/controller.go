package tripform

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"tourvisto/internal/session"
	"tourvisto/pkg/tripapi"
)

type State int

const (
	StateIdle State = iota
	StateValidating
	StateAuthenticating
	StateSubmitting
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateAuthenticating:
		return "authenticating"
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IdentitySource is the part of session.Session the controller needs.
type IdentitySource interface {
	CurrentIdentity(ctx context.Context) (*session.Identity, error)
}

// Creator issues the create-trip request.
type Creator interface {
	CreateTrip(ctx context.Context, in tripapi.CreateTripRequest) (*tripapi.CreateTripResponse, error)
}

// Navigator receives the one-time hand-off to the created trip.
type Navigator interface {
	Navigate(path string)
}

type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

// Recorder keeps a log of terminal submission outcomes.
type Recorder interface {
	Record(ctx context.Context, a Attempt) error
}

type Outcome string

const (
	OutcomeSucceeded       Outcome = "succeeded"
	OutcomeInvalid         Outcome = "invalid"
	OutcomeUnauthenticated Outcome = "unauthenticated"
	OutcomeFailed          Outcome = "failed"
)

// Attempt is one terminal submission outcome.
type Attempt struct {
	UserID  string
	Data    TripFormData
	Outcome Outcome
	TripID  string
	Error   string
	At      time.Time
}

// Status is a snapshot of the controller's transient UI state.
type Status struct {
	State   State
	Error   string
	Loading bool
	TripID  string
}

type Deps struct {
	Session   IdentitySource
	Creator   Creator
	Navigator Navigator
	// Recorder is optional.
	Recorder Recorder
	Logger   *slog.Logger
}

// Controller validates and submits one form session.
type Controller struct {
	session   IdentitySource
	creator   Creator
	navigator Navigator
	recorder  Recorder
	logger    *slog.Logger

	inFlight atomic.Bool

	mu     sync.Mutex
	status Status
}

func NewController(deps Deps) *Controller {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		session:   deps.Session,
		creator:   deps.Creator,
		navigator: deps.Navigator,
		recorder:  deps.Recorder,
		logger:    logger,
	}
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// TripPath is the detail route of a created trip.
func TripPath(id string) string {
	return "/trips/" + url.PathEscape(id)
}

// Submit runs Validating -> Authenticating -> Submitting and ends in
// Succeeded or Failed. Validation failures never reach the network.
// A call made while another is in flight returns ErrSubmitInProgress and
// leaves the state untouched.
func (c *Controller) Submit(ctx context.Context, data TripFormData) error {
	if !c.inFlight.CompareAndSwap(false, true) {
		return ErrSubmitInProgress
	}
	defer c.inFlight.Store(false)

	c.update(func(s *Status) {
		*s = Status{State: StateValidating, Loading: true}
	})
	defer c.update(func(s *Status) { s.Loading = false })

	attempt := Attempt{Data: data}

	if err := Validate(data); err != nil {
		attempt.Outcome = OutcomeInvalid
		return c.fail(ctx, attempt, err)
	}

	c.update(func(s *Status) { s.State = StateAuthenticating })
	user, err := c.session.CurrentIdentity(ctx)
	if err != nil || user == nil || user.ID == "" {
		c.logger.Warn("user not authenticated", "error", err)
		attempt.Outcome = OutcomeUnauthenticated
		if err != nil {
			return c.fail(ctx, attempt, fmt.Errorf("%w: %v", ErrNotAuthenticated, err))
		}
		return c.fail(ctx, attempt, ErrNotAuthenticated)
	}
	attempt.UserID = user.ID

	c.update(func(s *Status) { s.State = StateSubmitting })
	resp, err := c.creator.CreateTrip(ctx, tripapi.CreateTripRequest{
		Country:      data.Country,
		TravelStyle:  data.TravelStyle,
		Interests:    data.Interest,
		Budget:       data.Budget,
		GroupType:    data.GroupType,
		NumberOfDays: data.Duration,
		UserID:       user.ID,
	})
	if err != nil {
		c.logger.Error("error creating trip", "user_id", user.ID, "error", err)
		attempt.Outcome = OutcomeFailed
		return c.fail(ctx, attempt, fmt.Errorf("create trip: %w", err))
	}
	if resp == nil || resp.ID == "" {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		c.logger.Error("failed to generate trip", "user_id", user.ID, "status", status)
		attempt.Outcome = OutcomeFailed
		return c.fail(ctx, attempt, ErrNoTripID)
	}

	c.update(func(s *Status) {
		s.State = StateSucceeded
		s.TripID = resp.ID
	})
	attempt.Outcome = OutcomeSucceeded
	attempt.TripID = resp.ID
	c.record(ctx, attempt)

	c.navigator.Navigate(TripPath(resp.ID))
	return nil
}

func (c *Controller) fail(ctx context.Context, a Attempt, err error) error {
	msg := UserMessage(err)
	c.update(func(s *Status) {
		s.State = StateFailed
		s.Error = msg
	})
	a.Error = err.Error()
	c.record(ctx, a)
	return err
}

func (c *Controller) record(ctx context.Context, a Attempt) {
	if c.recorder == nil {
		return
	}
	a.At = time.Now()
	if err := c.recorder.Record(ctx, a); err != nil {
		c.logger.Warn("record trip attempt failed", "outcome", a.Outcome, "error", err)
	}
}

func (c *Controller) update(fn func(s *Status)) {
	c.mu.Lock()
	fn(&c.status)
	c.mu.Unlock()
}
