package linkflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"
)

var ErrInvalidVariant = errors.New("invalid link variant")

// Provider is the external link widget. Open hands control to the widget; the widget reports
// back through Controller.OnSuccess, OnExit and OnEvent.
type Provider interface {
	Ready() bool
	Open(ctx context.Context, session LinkSession) error
}

// Callbacks receive the outcome of a link attempt. Any of them may be nil.
type Callbacks struct {
	OnSuccess func(publicToken string, md Metadata, record LinkedAccountRecord)
	OnExit    func(err *ExitError, md Metadata)
	OnEvent   func(name string, md Metadata)
}

type options struct {
	linkToken string
	variant   Variant
	loading   bool
	demoDelay time.Duration
	now       func() time.Time
	rng       *rand.Rand
	logger    *slog.Logger
}

// Option configures a Controller
type Option func(*options)

// WithLinkToken sets the caller supplied link token. An empty token forces the simulated flow.
func WithLinkToken(token string) Option {
	return func(o *options) { o.linkToken = token }
}

func WithVariant(v Variant) Option {
	return func(o *options) { o.variant = v }
}

// WithLoading marks the control as disabled while the caller is still loading
func WithLoading(loading bool) Option {
	return func(o *options) { o.loading = loading }
}

func WithDemoDelay(d time.Duration) Option {
	return func(o *options) { o.demoDelay = d }
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithRand(rng *rand.Rand) Option {
	return func(o *options) { o.rng = rng }
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// Controller drives a single account link attempt at a time.
//
// State moves Idle -> Pending -> (Success | Cancelled) -> Idle. Start while Pending is ignored.
// When no link token is supplied or the provider is not ready, a simulated flow completes with
// demo data after the demo delay.
type Controller struct {
	provider Provider
	cb       Callbacks
	opts     options

	mu        sync.Mutex
	session   *LinkSession
	simulated bool
	timer     *time.Timer
	gen       uint64
	closed    bool
	lastID    int64
}

// New creates a controller. provider may be nil, in which case every attempt is simulated.
func New(provider Provider, cb Callbacks, opts ...Option) *Controller {
	o := options{
		variant:   VariantDefault,
		demoDelay: DefaultDemoDelay,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewSource(o.now().UnixNano()))
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if !o.variant.IsValid() {
		o.variant = VariantDefault
	}

	return &Controller{
		provider: provider,
		cb:       cb,
		opts:     o,
	}
}

// Start begins a link attempt
func (c *Controller) Start(ctx context.Context) StartResult {
	c.mu.Lock()
	if c.closed || c.session != nil {
		c.mu.Unlock()
		return StartIgnored
	}

	token := c.opts.linkToken
	useProvider := token != "" && c.provider != nil && c.provider.Ready()
	if token == "" {
		token = SandboxLinkToken
	}

	c.session = &LinkSession{
		Token:   token,
		Ready:   useProvider,
		Pending: true,
	}
	c.gen++
	gen := c.gen

	if !useProvider {
		c.simulated = true
		c.timer = time.AfterFunc(c.opts.demoDelay, func() { c.completeSimulated(gen) })
		c.mu.Unlock()

		c.opts.logger.InfoContext(ctx, "link flow started",
			"branch", string(StartSimulated),
			"delay", c.opts.demoDelay,
		)
		return StartSimulated
	}

	c.simulated = false
	snapshot := *c.session
	c.mu.Unlock()

	c.opts.logger.InfoContext(ctx, "link flow started", "branch", string(StartProvider))

	if err := c.provider.Open(ctx, snapshot); err != nil {
		c.opts.logger.WarnContext(ctx, "link provider failed to open", "error", err)
		c.OnExit(&ExitError{Code: "OPEN_FAILED", Message: err.Error()}, Metadata{})
	}
	return StartProvider
}

func (c *Controller) completeSimulated(gen uint64) {
	c.succeed(DemoPublicToken, DemoMetadata(), gen)
}

// OnSuccess resolves the current attempt with a public token. It returns the built record and
// true, or false when the controller has been closed.
func (c *Controller) OnSuccess(publicToken string, md Metadata) (*LinkedAccountRecord, bool) {
	return c.succeed(publicToken, md, 0)
}

// succeed resolves an attempt. A non-zero gen restricts it to the attempt that scheduled it.
func (c *Controller) succeed(publicToken string, md Metadata, gen uint64) (*LinkedAccountRecord, bool) {
	c.mu.Lock()
	if c.closed || (gen != 0 && (c.gen != gen || c.session == nil)) {
		c.mu.Unlock()
		return nil, false
	}
	c.stopTimerLocked()
	now := c.opts.now()
	record := BuildRecord(md, now, c.opts.rng)
	record.ID = c.uniqueIDLocked(now)
	c.session = nil
	c.mu.Unlock()

	c.opts.logger.Info("link flow succeeded",
		"institution", record.Institution,
		"record_id", record.ID,
	)

	if c.cb.OnSuccess != nil {
		c.cb.OnSuccess(publicToken, md, record)
	}
	return &record, true
}

// OnExit resolves the current attempt as cancelled. err may be nil. It reports false, and
// fires no callback, when no attempt is pending.
func (c *Controller) OnExit(err *ExitError, md Metadata) bool {
	c.mu.Lock()
	if c.closed || c.session == nil {
		c.mu.Unlock()
		return false
	}
	c.stopTimerLocked()
	c.session = nil
	c.mu.Unlock()

	if err != nil {
		c.opts.logger.Info("link flow exited", "error_code", err.Code)
	} else {
		c.opts.logger.Info("link flow exited")
	}

	if c.cb.OnExit != nil {
		c.cb.OnExit(err, md)
	}
	return true
}

// OnEvent forwards an intermediate provider event. The attempt state is unchanged.
func (c *Controller) OnEvent(name string, md Metadata) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed || c.cb.OnEvent == nil {
		return
	}
	c.cb.OnEvent(name, md)
}

// Close tears the controller down. A scheduled simulated completion is cancelled and later
// provider callbacks are dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopTimerLocked()
	c.session = nil
	c.closed = true
}

// State reports whether an attempt is in flight
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		return StatePending
	}
	return StateIdle
}

// Session returns a copy of the current session, if any
func (c *Controller) Session() (LinkSession, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return LinkSession{}, false
	}
	return *c.session, true
}

// Simulated reports whether the current attempt runs the simulated flow
func (c *Controller) Simulated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil && c.simulated
}

func (c *Controller) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// View returns the presentation state of the link control
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	demoPending := c.session != nil && c.simulated
	label := "Connect Bank Account"
	if demoPending {
		label = "Connecting to " + DemoInstitutionName + "..."
	}

	state := StateIdle
	if c.session != nil {
		state = StatePending
	}

	return View{
		Label:    label,
		Disabled: c.opts.loading || demoPending,
		Variant:  c.opts.variant,
		State:    state,
	}
}

func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.simulated = false
}

// uniqueIDLocked bumps the millisecond component so two records built in the same
// millisecond by this controller never share an id.
func (c *Controller) uniqueIDLocked(now time.Time) string {
	millis := now.UnixMilli()
	if millis <= c.lastID {
		millis = c.lastID + 1
	}
	c.lastID = millis
	return fmt.Sprintf("acc_%d", millis)
}
