// Package questionnaire implements the per-attempt questionnaire state machine:
// a rotating queue of unanswered questions, a per-question countdown, a shallow
// back-navigation history and reconciliation into a finalized answer set.
package questionnaire

import (
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"strengths-service/internal/domain"
	"strengths-service/internal/observability"
	"strengths-service/internal/scoring"
)

const (
	DefaultCountdown   = 30 * time.Second
	DefaultTick        = time.Second
	DefaultDebounce    = 300 * time.Millisecond
	DefaultHistorySize = 3
)

var (
	ErrAlreadyStarted  = errors.New("questionnaire already started")
	ErrNotActive       = errors.New("questionnaire is not active")
	ErrNotCompleted    = errors.New("questionnaire is not completed")
	ErrEmptyQueue      = errors.New("question queue is empty")
	ErrEmptyHistory    = errors.New("no history to navigate back")
	ErrUnknownQuestion = errors.New("unknown question")
	ErrNotFocused      = errors.New("question is not the current question")
)

// State is the lifecycle phase of a session.
type State int

const (
	StateLoading State = iota
	StateActive
	StateCompleted
	// StateClosed follows handoff or teardown; no further transitions happen.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateActive:
		return "active"
	case StateCompleted:
		return "completed"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// EventType names what changed.
type EventType string

const (
	EventFocus     EventType = "focus"
	EventTick      EventType = "tick"
	EventCompleted EventType = "completed"
)

// Event is delivered to the observer after the transition that produced it.
type Event struct {
	Type     EventType
	Snapshot Snapshot
}

// Snapshot is a read-only copy of the session state.
type Snapshot struct {
	ID        string           `json:"id"`
	State     string           `json:"state"`
	Current   *domain.Question `json:"question,omitempty"`
	Selected  int              `json:"selected,omitempty"`
	Remaining int              `json:"remaining"`
	Queue     []int            `json:"-"`
	History   []int            `json:"-"`
	CanGoBack bool             `json:"canGoBack"`
	Answered  int              `json:"answered"`
	Total     int              `json:"total"`
	Progress  float64          `json:"progress"`
}

type options struct {
	countdown   time.Duration
	tick        time.Duration
	debounce    time.Duration
	historySize int
	scheduler   Scheduler
	rnd         *rand.Rand
	observers   []func(Event)
	logger      *slog.Logger
}

// Option customises a Session.
type Option func(*options)

// WithCountdown sets the per-question countdown and its tick interval.
func WithCountdown(countdown, tick time.Duration) Option {
	return func(o *options) {
		if countdown > 0 {
			o.countdown = countdown
		}
		if tick > 0 {
			o.tick = tick
		}
	}
}

// WithDebounce sets the delay between recording an answer and advancing.
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.debounce = d
		}
	}
}

func WithScheduler(s Scheduler) Option {
	return func(o *options) { o.scheduler = s }
}

// WithRand makes the initial shuffle deterministic.
func WithRand(r *rand.Rand) Option {
	return func(o *options) { o.rnd = r }
}

// WithObserver adds an event sink; sinks run in the order they were added.
// They must not call mutating Session methods.
func WithObserver(f func(Event)) Option {
	return func(o *options) {
		if f != nil {
			o.observers = append(o.observers, f)
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Session is one questionnaire attempt. All transitions are serialized.
type Session struct {
	id   string
	opts options

	mu        sync.Mutex
	state     State
	questions []domain.Question
	index     map[string]int
	queue     *Deque
	history   *History
	answers   map[string]domain.Answer
	remaining int
	gen       uint64
	countdown slot
	debounce  slot
	pending   []Event

	emitMu sync.Mutex
}

// New creates a session in the Loading state over a copy of questions.
func New(questions []domain.Question, opts ...Option) *Session {
	o := options{
		countdown:   DefaultCountdown,
		tick:        DefaultTick,
		debounce:    DefaultDebounce,
		historySize: DefaultHistorySize,
		scheduler:   RealScheduler{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rnd == nil {
		o.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	id := uuid.NewString()
	if o.logger == nil {
		o.logger = observability.WithFields("session_id", id)
	}

	qs := make([]domain.Question, len(questions))
	copy(qs, questions)

	return &Session{
		id:        id,
		opts:      o,
		state:     StateLoading,
		questions: qs,
		index:     make(map[string]int, len(qs)),
		queue:     NewDeque(len(qs)),
		history:   NewHistory(o.historySize),
		answers:   make(map[string]domain.Answer, len(qs)),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Start shuffles the questions once, seeds the queue and focuses the first question.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.state != StateLoading {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.opts.rnd.Shuffle(len(s.questions), func(i, j int) {
		s.questions[i], s.questions[j] = s.questions[j], s.questions[i]
	})
	for i, q := range s.questions {
		s.index[q.ID] = i
		s.queue.PushBack(i)
	}
	s.state = StateActive
	if s.allAnsweredLocked() {
		s.completeLocked()
	} else {
		s.focusLocked()
	}
	s.mu.Unlock()
	s.flush()
	return nil
}

// RecordAnswer stores value for the focused question and schedules an advance
// after the debounce. Completion is evaluated by that advance, not here.
func (s *Session) RecordAnswer(questionID, domainName string, value int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateActive {
		return ErrNotActive
	}
	if value < domain.MinValue || value > domain.MaxValue {
		return domain.Invalidf("value must be between %d and %d", domain.MinValue, domain.MaxValue)
	}
	idx, ok := s.index[questionID]
	if !ok {
		return ErrUnknownQuestion
	}
	if head, ok := s.queue.Front(); !ok || head != idx {
		return ErrNotFocused
	}
	q := s.questions[idx]
	if domainName != "" && domainName != q.Domain {
		return domain.Invalidf("question %s belongs to domain %s, not %s", q.ID, q.Domain, domainName)
	}

	s.answers[q.ID] = domain.Answer{QuestionID: q.ID, Domain: q.Domain, Value: value}

	// An answered head must not also be advanced by its countdown.
	s.countdown.cancel()
	s.debounce.cancel()
	gen := s.nextGen()
	s.debounce = slot{
		gen:  gen,
		task: s.opts.scheduler.AfterFunc(s.opts.debounce, func() { s.onDebounce(gen) }),
	}
	return nil
}

// Advance is the explicit skip: it runs the same transition as a countdown expiry.
func (s *Session) Advance() error {
	s.mu.Lock()
	err := s.advanceLocked()
	s.mu.Unlock()
	s.flush()
	return err
}

// GoBack refocuses the most recently retired question. It reports false
// when there is nothing to go back to or the session is not active.
func (s *Session) GoBack() bool {
	s.mu.Lock()
	ok := s.goBackLocked()
	s.mu.Unlock()
	s.flush()
	return ok
}

// Completed reports whether every question has an answer.
func (s *Session) Completed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateCompleted || (s.state == StateClosed && s.allAnsweredLocked())
}

// State returns the current lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Responses returns the finalized answers in presentation order. It does not
// close the session, so a failed submission can be retried.
func (s *Session) Responses() ([]domain.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateCompleted && s.state != StateClosed {
		return nil, ErrNotCompleted
	}
	if !s.allAnsweredLocked() {
		return nil, ErrNotCompleted
	}
	return s.responsesLocked(), nil
}

// Preview scores the finalized answers the same way the server does.
func (s *Session) Preview() (scoring.Report, error) {
	responses, err := s.Responses()
	if err != nil {
		return scoring.Report{}, err
	}
	return scoring.BuildReport(responses), nil
}

// Finalize hands off the answers and closes the session.
func (s *Session) Finalize() ([]domain.Answer, error) {
	responses, err := s.Responses()
	if err != nil {
		return nil, err
	}
	s.Close()
	return responses, nil
}

// Close cancels every live timer. Later transitions are no-ops.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.countdown.cancel()
	s.debounce.cancel()
	s.state = StateClosed
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) advanceLocked() error {
	if s.state != StateActive {
		return ErrNotActive
	}
	head, ok := s.queue.Front()
	if !ok {
		s.opts.logger.Warn("advance on empty queue")
		return ErrEmptyQueue
	}
	s.countdown.cancel()
	s.debounce.cancel()

	s.queue.PopFront()
	if _, answered := s.answers[s.questions[head].ID]; answered {
		s.history.Push(head)
	} else {
		s.queue.PushBack(head)
	}

	if s.allAnsweredLocked() {
		s.completeLocked()
		return nil
	}
	s.focusLocked()
	return nil
}

func (s *Session) goBackLocked() bool {
	if s.state != StateActive {
		s.opts.logger.Debug("go back ignored", "state", s.state.String())
		return false
	}
	idx, ok := s.history.Pop()
	if !ok {
		s.opts.logger.Debug(ErrEmptyHistory.Error())
		return false
	}
	if s.queue.Contains(idx) {
		s.opts.logger.Warn("history entry already queued", "index", idx)
		return false
	}
	s.debounce.cancel()
	s.queue.PushFront(idx)
	s.focusLocked()
	return true
}

// focusLocked resets the countdown for the new head.
func (s *Session) focusLocked() {
	s.countdown.cancel()
	s.remaining = s.countdownTicks()
	s.armTickLocked()
	s.enqueueLocked(EventFocus)
}

func (s *Session) armTickLocked() {
	gen := s.nextGen()
	s.countdown = slot{
		gen:  gen,
		task: s.opts.scheduler.AfterFunc(s.opts.tick, func() { s.onTick(gen) }),
	}
}

func (s *Session) onTick(gen uint64) {
	s.mu.Lock()
	if s.state != StateActive || !s.countdown.live(gen) {
		s.mu.Unlock()
		return
	}
	s.countdown = slot{}
	if s.remaining > 0 {
		s.remaining--
	}
	s.enqueueLocked(EventTick)
	if s.remaining == 0 {
		_ = s.advanceLocked()
	} else {
		s.armTickLocked()
	}
	s.mu.Unlock()
	s.flush()
}

func (s *Session) onDebounce(gen uint64) {
	s.mu.Lock()
	if s.state != StateActive || !s.debounce.live(gen) {
		s.mu.Unlock()
		return
	}
	s.debounce = slot{}
	_ = s.advanceLocked()
	s.mu.Unlock()
	s.flush()
}

func (s *Session) completeLocked() {
	s.countdown.cancel()
	s.debounce.cancel()
	s.remaining = 0
	s.state = StateCompleted
	s.enqueueLocked(EventCompleted)
}

// allAnsweredLocked rescans every question rather than keeping a counter.
func (s *Session) allAnsweredLocked() bool {
	for _, q := range s.questions {
		if _, ok := s.answers[q.ID]; !ok {
			return false
		}
	}
	return true
}

func (s *Session) responsesLocked() []domain.Answer {
	out := make([]domain.Answer, 0, len(s.questions))
	for _, q := range s.questions {
		out = append(out, s.answers[q.ID])
	}
	return out
}

func (s *Session) countdownTicks() int {
	n := int(s.opts.countdown / s.opts.tick)
	if n < 1 {
		n = 1
	}
	return n
}

func (s *Session) nextGen() uint64 {
	s.gen++
	return s.gen
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:        s.id,
		State:     s.state.String(),
		Remaining: s.remaining,
		Queue:     s.queue.Values(),
		History:   s.history.Values(),
		CanGoBack: s.state == StateActive && s.history.Len() > 0,
		Answered:  len(s.answers),
		Total:     len(s.questions),
	}
	if snap.Total > 0 {
		snap.Progress = scoring.Round2(float64(snap.Answered) / float64(snap.Total) * 100)
	}
	if s.state == StateActive {
		if head, ok := s.queue.Front(); ok {
			q := s.questions[head]
			snap.Current = &q
			snap.Selected = s.answers[q.ID].Value
		}
	}
	return snap
}

func (s *Session) enqueueLocked(t EventType) {
	if len(s.opts.observers) == 0 {
		return
	}
	s.pending = append(s.pending, Event{Type: t, Snapshot: s.snapshotLocked()})
}

// flush delivers queued events in order, outside the state lock.
func (s *Session) flush() {
	if len(s.opts.observers) == 0 {
		return
	}
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	events := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, e := range events {
		for _, observe := range s.opts.observers {
			observe(e)
		}
	}
}
