package chainfsm

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/librescoot/chainfsm/observable"
)

// Machine is the runtime FSM instance. All mutating methods return the
// machine so calls can be chained.
type Machine struct {
	id          string
	logger      *slog.Logger
	scheduler   observable.Scheduler
	diagnostics func(error)

	mu             sync.RWMutex
	config         Config
	initialContext map[string]any

	transitionListeners []TransitionListener
	stateCallbacks      map[StateID][]StateCallback
	handlers            map[EventID][]*Handler
	onceHandlers        map[EventID][]*Handler

	store   *Store
	watcher contextWatcher
}

type options struct {
	id           string
	history      bool
	historySize  int
	onTransition TransitionListener
	logger       *slog.Logger
	scheduler    observable.Scheduler
	diagnostics  func(error)
}

// MachineOption is a functional option for configuring a Machine
type MachineOption func(*options)

// WithID sets the machine identifier used in log records
func WithID(id string) MachineOption {
	return func(o *options) {
		o.id = id
	}
}

// WithHistory enables transition history recording
func WithHistory(enabled bool) MachineOption {
	return func(o *options) {
		o.history = enabled
	}
}

// WithHistorySize sets the maximum number of retained history records
func WithHistorySize(size int) MachineOption {
	return func(o *options) {
		o.historySize = size
	}
}

// WithTransitionListener registers a listener invoked after each state change
func WithTransitionListener(fn TransitionListener) MachineOption {
	return func(o *options) {
		o.onTransition = fn
	}
}

// WithLogger sets the logger for the machine
func WithLogger(logger *slog.Logger) MachineOption {
	return func(o *options) {
		o.logger = logger
	}
}

// WithScheduler sets how context change notifications are delivered.
// The default is a per-machine observable.Queue drained by Flush.
func WithScheduler(s observable.Scheduler) MachineOption {
	return func(o *options) {
		o.scheduler = s
	}
}

// WithDiagnostics sets a hook that receives rejected transitions
func WithDiagnostics(fn func(error)) MachineOption {
	return func(o *options) {
		o.diagnostics = fn
	}
}

// New creates a machine in the initial state. The configuration and the
// initial context are copied; a nil context starts as an empty record.
// The initial state's onEnter handler is not run.
func New(initial StateID, cfg Config, initialContext map[string]any, opts ...MachineOption) *Machine {
	o := options{
		historySize: DefaultHistorySize,
		logger:      Logger,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.id == "" {
		o.id = uuid.NewString()
	}
	if o.scheduler == nil {
		o.scheduler = observable.NewQueue()
	}
	if initialContext == nil {
		initialContext = map[string]any{}
	}

	m := &Machine{
		id:             o.id,
		logger:         o.logger.With("machine_id", o.id),
		scheduler:      o.scheduler,
		diagnostics:    o.diagnostics,
		config:         cfg.Clone(),
		initialContext: observable.Clone(initialContext).(map[string]any),
		stateCallbacks: make(map[StateID][]StateCallback),
		handlers:       make(map[EventID][]*Handler),
		onceHandlers:   make(map[EventID][]*Handler),
	}
	if o.onTransition != nil {
		m.transitionListeners = append(m.transitionListeners, o.onTransition)
	}

	m.store = newStore(initial, m.freshContext(), o.history, o.historySize, o.scheduler)
	m.watcher.reset(m.store.Context().Snapshot())

	m.logger.Debug("machine created", "state", initial, "history", o.history)
	return m
}

// ID returns the machine identifier
func (m *Machine) ID() string {
	return m.id
}

// Current returns the current state
func (m *Machine) Current() StateID {
	return m.store.State()
}

// IsIn reports whether the machine is in state
func (m *Machine) IsIn(state StateID) bool {
	return m.store.State() == state
}

// Context returns the live context record
func (m *Machine) Context() *observable.Map {
	return m.store.Context()
}

// Store returns the reactive store backing the machine
func (m *Machine) Store() *Store {
	return m.store
}

// Scheduler returns the scheduler change notifications are delivered through
func (m *Machine) Scheduler() observable.Scheduler {
	return m.scheduler
}

// Flush delivers pending change notifications now if the scheduler is
// drained synchronously (Queue, Timer). Other schedulers are left alone.
func (m *Machine) Flush() *Machine {
	if f, ok := m.scheduler.(interface{ Flush() }); ok {
		f.Flush()
	}
	return m
}

// MoveTo transitions to target. An invalid target is reported through the
// diagnostics channel and otherwise ignored. A nil payload is replaced by an
// empty map.
func (m *Machine) MoveTo(target StateID, payload any) *Machine {
	if payload == nil {
		payload = map[string]any{}
	}

	from := m.store.State()
	if !m.CanMoveTo(target) {
		m.report(&InvalidTransitionError{From: from, To: target})
		return m
	}

	m.logger.Debug("executing transition", "from", from, "to", target)

	if exit := m.stateConfig(from).OnExit; exit != nil {
		m.logger.Debug("exiting state", "state", from)
		exit(m.newContext(from, target, nil), payload)
	}

	m.store.record(HistoryRecord{
		From:      from,
		To:        target,
		Timestamp: time.Now(),
		Payload:   payload,
	})
	m.store.setState(target)

	for _, fn := range m.listeners() {
		fn(from, target, payload)
	}

	if enter := m.stateConfig(target).OnEnter; enter != nil {
		m.logger.Debug("entering state", "state", target)
		enter(m.newContext(from, target, nil), payload)
	}

	if callbacks := m.callbacks(target); len(callbacks) > 0 {
		c := m.newContext(from, target, nil)
		for _, cb := range callbacks {
			cb(c)
		}
	}

	m.logger.Debug("transition complete", "state", target)
	return m
}

// ResetContext replaces the context with a fresh copy of the initial
// context. Context listeners stay subscribed and see the reset as a change.
func (m *Machine) ResetContext() *Machine {
	fresh := m.freshContext()
	m.store.setContext(fresh)

	m.watcher.mu.Lock()
	for _, sub := range m.watcher.subs {
		sub.unsubscribe()
		sub.unsubscribe = fresh.Subscribe(m.detectContextChanges)
	}
	m.watcher.mu.Unlock()

	m.logger.Debug("context reset")
	fresh.Notify()
	return m
}

func (m *Machine) freshContext() *observable.Map {
	data := observable.Clone(m.initialContext).(map[string]any)
	return observable.NewMap(data, m.scheduler)
}

func (m *Machine) newContext(from, to StateID, event *Event) *Context {
	return &Context{
		Map:       m.store.Context(),
		FSM:       m,
		Event:     event,
		FromState: from,
		ToState:   to,
		Logger:    m.logger,
	}
}

// report sends a rejected operation to the diagnostics channel
func (m *Machine) report(err error) {
	if e, ok := err.(*InvalidTransitionError); ok {
		m.logger.Warn("invalid transition", "from", e.From, "to", e.To)
	} else {
		m.logger.Warn("machine error", "error", err)
	}
	if m.diagnostics != nil {
		m.diagnostics(err)
	}
}
