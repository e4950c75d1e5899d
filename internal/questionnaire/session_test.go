package questionnaire

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"strengths-service/internal/domain"
)

func TestStartFocusesFirstQuestion(t *testing.T) {
	s, _ := newTestSession(t, sampleQuestions(4))

	snap := s.Snapshot()
	if snap.State != "active" {
		t.Fatalf("expected active, got %s", snap.State)
	}
	if snap.Current == nil {
		t.Fatalf("expected a focused question")
	}
	if snap.Remaining != 30 {
		t.Fatalf("expected 30 seconds, got %d", snap.Remaining)
	}
	if len(snap.Queue) != 4 || len(snap.History) != 0 {
		t.Fatalf("unexpected queue %v history %v", snap.Queue, snap.History)
	}
	if err := s.Start(); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("expected ErrAlreadyStarted, got %v", err)
	}
}

func TestStartShufflesOnce(t *testing.T) {
	questions := sampleQuestions(8)
	a := New(questions, WithScheduler(&fakeScheduler{}), WithRand(rand.New(rand.NewSource(7))))
	b := New(questions, WithScheduler(&fakeScheduler{}), WithRand(rand.New(rand.NewSource(7))))
	_ = a.Start()
	_ = b.Start()

	if a.Snapshot().Current.ID != b.Snapshot().Current.ID {
		t.Fatalf("same seed should give the same order")
	}
	// source slice is untouched
	if questions[0].ID != "q1" {
		t.Fatalf("input slice was mutated")
	}
}

func TestAnswerAdvancesAfterDebounce(t *testing.T) {
	s, clock := newTestSession(t, sampleQuestions(3))
	first := current(t, s)

	if err := s.RecordAnswer(first.ID, first.Domain, 4); err != nil {
		t.Fatalf("record: %v", err)
	}
	clock.Advance(299 * time.Millisecond)
	if current(t, s).ID != first.ID {
		t.Fatalf("advanced before debounce elapsed")
	}
	if got := s.Snapshot().Selected; got != 4 {
		t.Fatalf("expected selection 4 to be visible, got %d", got)
	}

	clock.Advance(time.Millisecond)
	snap := s.Snapshot()
	if snap.Current.ID == first.ID {
		t.Fatalf("expected to move past answered question")
	}
	if len(snap.History) != 1 || len(snap.Queue) != 2 {
		t.Fatalf("unexpected queue %v history %v", snap.Queue, snap.History)
	}
	if snap.Remaining != 30 {
		t.Fatalf("expected countdown reset, got %d", snap.Remaining)
	}
}

func TestRecordAnswerOverwritesAndKeepsSingleDebounce(t *testing.T) {
	s, clock := newTestSession(t, sampleQuestions(3))
	first := current(t, s)

	_ = s.RecordAnswer(first.ID, first.Domain, 2)
	clock.Advance(200 * time.Millisecond)
	_ = s.RecordAnswer(first.ID, first.Domain, 5)
	clock.Advance(200 * time.Millisecond)
	if current(t, s).ID != first.ID {
		t.Fatalf("re-selection should restart the debounce")
	}
	clock.Advance(100 * time.Millisecond)

	snap := s.Snapshot()
	if len(snap.History) != 1 {
		t.Fatalf("expected exactly one advance, history %v", snap.History)
	}
	s.mu.Lock()
	got := s.answers[first.ID].Value
	s.mu.Unlock()
	if got != 5 {
		t.Fatalf("expected overwritten value 5, got %d", got)
	}
}

func TestTimeoutRequeuesUnanswered(t *testing.T) {
	s, clock := newTestSession(t, sampleQuestions(3))
	before := s.Snapshot().Queue

	clock.Advance(30 * time.Second)

	after := s.Snapshot()
	want := append(append([]int{}, before[1:]...), before[0])
	if fmt.Sprint(after.Queue) != fmt.Sprint(want) {
		t.Fatalf("expected rotation %v, got %v", want, after.Queue)
	}
	if len(after.History) != 0 {
		t.Fatalf("skipped question must not enter history")
	}
	if after.Remaining != 30 {
		t.Fatalf("expected countdown reset, got %d", after.Remaining)
	}
}

func TestCountdownTicksDown(t *testing.T) {
	s, clock := newTestSession(t, sampleQuestions(2))
	clock.Advance(10 * time.Second)
	if got := s.Snapshot().Remaining; got != 20 {
		t.Fatalf("expected 20 seconds left, got %d", got)
	}
}

func TestTimedOutQuestionIsRevisitedUntilAnswered(t *testing.T) {
	s, clock := newTestSession(t, []domain.Question{
		{ID: "q1", Text: "one", Domain: "A"},
		{ID: "q2", Text: "two", Domain: "A"},
	})

	// Rotate until q1 is focused so the scenario is independent of the shuffle.
	if current(t, s).ID != "q1" {
		clock.Advance(30 * time.Second)
	}
	clock.Advance(30 * time.Second) // q1 times out once
	if current(t, s).ID != "q2" {
		t.Fatalf("expected q2 after q1 timed out")
	}
	_ = s.RecordAnswer("q2", "A", 3)
	clock.Advance(DefaultDebounce)

	if current(t, s).ID != "q1" {
		t.Fatalf("expected q1 to come back")
	}
	clock.Advance(30 * time.Second) // q1 times out twice
	snap := s.Snapshot()
	if snap.Current == nil || snap.Current.ID != "q1" || snap.State != "active" {
		t.Fatalf("expected q1 still pending, got %+v", snap)
	}
	if s.Completed() {
		t.Fatalf("must not complete while q1 is unanswered")
	}

	_ = s.RecordAnswer("q1", "A", 5)
	if s.Completed() {
		t.Fatalf("completion is evaluated on advance")
	}
	clock.Advance(DefaultDebounce)
	if !s.Completed() {
		t.Fatalf("expected completion after q1 answered")
	}

	responses, err := s.Responses()
	if err != nil {
		t.Fatalf("responses: %v", err)
	}
	sum := 0
	for _, r := range responses {
		sum += r.Value
	}
	if len(responses) != 2 || sum != 8 {
		t.Fatalf("unexpected responses %+v", responses)
	}
}

func TestAnsweredHeadCannotBeAdvancedTwice(t *testing.T) {
	s, clock := newTestSession(t, sampleQuestions(3))
	first := current(t, s)

	clock.Advance(29 * time.Second)
	_ = s.RecordAnswer(first.ID, first.Domain, 3)
	// The old countdown would have expired at 30s; only the debounce may advance.
	clock.Advance(2 * time.Second)

	snap := s.Snapshot()
	if len(snap.History) != 1 {
		t.Fatalf("expected one retired question, history %v", snap.History)
	}
	if len(snap.Queue) != 2 {
		t.Fatalf("expected 2 queued, got %v", snap.Queue)
	}
	if snap.Remaining != 29 {
		t.Fatalf("new head should have a fresh countdown, got %d", snap.Remaining)
	}
}

func TestHistoryIsBoundedToThree(t *testing.T) {
	s, clock := newTestSession(t, sampleQuestions(6))

	var retired []int
	for i := 0; i < 4; i++ {
		head := s.Snapshot().Queue[0]
		answerCurrent(t, s, 4)
		clock.Advance(DefaultDebounce)
		retired = append(retired, head)
	}

	got := s.Snapshot().History
	if fmt.Sprint(got) != fmt.Sprint(retired[1:]) {
		t.Fatalf("expected oldest evicted, want %v got %v", retired[1:], got)
	}
}

func TestGoBack(t *testing.T) {
	s, clock := newTestSession(t, sampleQuestions(4))

	before := s.Snapshot()
	if s.GoBack() {
		t.Fatalf("go back on empty history must be a no-op")
	}
	if fmt.Sprint(s.Snapshot().Queue) != fmt.Sprint(before.Queue) {
		t.Fatalf("queue changed on no-op go back")
	}

	answerCurrent(t, s, 2)
	clock.Advance(DefaultDebounce)
	answerCurrent(t, s, 3)
	clock.Advance(DefaultDebounce)
	clock.Advance(5 * time.Second)

	mid := s.Snapshot()
	lastRetired := mid.History[len(mid.History)-1]

	if !s.GoBack() {
		t.Fatalf("expected go back to succeed")
	}
	after := s.Snapshot()
	if after.Queue[0] != lastRetired {
		t.Fatalf("expected %d at head, got %v", lastRetired, after.Queue)
	}
	if len(after.History) != len(mid.History)-1 {
		t.Fatalf("history should shrink by one: %v -> %v", mid.History, after.History)
	}
	if after.Remaining != 30 {
		t.Fatalf("countdown should reset on go back, got %d", after.Remaining)
	}
	if after.Selected != 3 {
		t.Fatalf("revisited question should show its answer, got %d", after.Selected)
	}

	// Timing out on a revisited, answered question retires it again.
	clock.Advance(30 * time.Second)
	if got := s.Snapshot().History; len(got) != len(mid.History) || got[len(got)-1] != lastRetired {
		t.Fatalf("expected %d retired again, history %v", lastRetired, got)
	}
}

func TestGoBackAfterLastAnswerStaysActive(t *testing.T) {
	s, clock := newTestSession(t, sampleQuestions(2))
	first := current(t, s)
	answerCurrent(t, s, 4)
	clock.Advance(DefaultDebounce)
	answerCurrent(t, s, 2)

	if s.State() != StateActive || s.Completed() {
		t.Fatalf("expected active until the debounce fires, got %s", s.State())
	}
	if !s.GoBack() {
		t.Fatalf("expected go back to the first question")
	}
	if got := current(t, s); got.ID != first.ID {
		t.Fatalf("expected %s refocused, got %s", first.ID, got.ID)
	}
	clock.Advance(DefaultDebounce)
	if s.State() != StateActive {
		t.Fatalf("cancelled debounce must not complete the session, got %s", s.State())
	}
	if snap := s.Snapshot(); snap.Answered != 2 {
		t.Fatalf("expected both answers kept, got %d", snap.Answered)
	}

	clock.Advance(30 * time.Second)
	if s.State() != StateCompleted {
		t.Fatalf("expected completion on the next advance, got %s", s.State())
	}
}

func TestGoBackCancelsPendingDebounce(t *testing.T) {
	s, clock := newTestSession(t, sampleQuestions(3))
	answerCurrent(t, s, 2)
	clock.Advance(DefaultDebounce)

	answerCurrent(t, s, 4)
	if !s.GoBack() {
		t.Fatalf("expected go back")
	}
	revisited := current(t, s).ID
	clock.Advance(DefaultDebounce)
	if current(t, s).ID != revisited {
		t.Fatalf("stale debounce advanced the revisited question")
	}
}

func TestCompletedIsTerminal(t *testing.T) {
	s, clock := newTestSession(t, sampleQuestions(2))
	answerCurrent(t, s, 5)
	clock.Advance(DefaultDebounce)
	answerCurrent(t, s, 1)
	clock.Advance(DefaultDebounce)

	if !s.Completed() || s.State() != StateCompleted {
		t.Fatalf("expected completed, got %s", s.State())
	}
	if clock.live() != 0 {
		t.Fatalf("expected no live timers after completion, got %d", clock.live())
	}
	if err := s.Advance(); !errors.Is(err, ErrNotActive) {
		t.Fatalf("expected ErrNotActive, got %v", err)
	}
	if s.GoBack() {
		t.Fatalf("go back must not reopen a completed session")
	}
	snap := s.Snapshot()
	if err := s.RecordAnswer(snap.ID, "A", 3); !errors.Is(err, ErrNotActive) {
		t.Fatalf("expected ErrNotActive, got %v", err)
	}

	report, err := s.Preview()
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if report.TotalScore != 60 {
		t.Fatalf("expected 60%%, got %v", report.TotalScore)
	}

	responses, err := s.Finalize()
	if err != nil || len(responses) != 2 {
		t.Fatalf("finalize: %v %v", responses, err)
	}
	if s.State() != StateClosed {
		t.Fatalf("expected closed after handoff")
	}
}

func TestRecordAnswerGuards(t *testing.T) {
	s, _ := newTestSession(t, sampleQuestions(3))
	head := current(t, s)
	var other domain.Question
	for _, q := range sampleQuestions(3) {
		if q.ID != head.ID {
			other = q
			break
		}
	}

	if err := s.RecordAnswer(head.ID, head.Domain, 0); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for 0, got %v", err)
	}
	if err := s.RecordAnswer(head.ID, head.Domain, 6); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for 6, got %v", err)
	}
	if err := s.RecordAnswer("nope", "", 3); !errors.Is(err, ErrUnknownQuestion) {
		t.Fatalf("expected ErrUnknownQuestion, got %v", err)
	}
	if err := s.RecordAnswer(other.ID, other.Domain, 3); !errors.Is(err, ErrNotFocused) {
		t.Fatalf("expected ErrNotFocused, got %v", err)
	}
	if err := s.RecordAnswer(head.ID, "juggling", 3); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected domain mismatch, got %v", err)
	}
	if got := s.Snapshot().Answered; got != 0 {
		t.Fatalf("rejected answers must not be stored, got %d", got)
	}
}

func TestRecordAnswerBeforeStart(t *testing.T) {
	s := New(sampleQuestions(1), WithScheduler(&fakeScheduler{}))
	if err := s.RecordAnswer("q1", "", 3); !errors.Is(err, ErrNotActive) {
		t.Fatalf("expected ErrNotActive, got %v", err)
	}
	if _, err := s.Responses(); !errors.Is(err, ErrNotCompleted) {
		t.Fatalf("expected ErrNotCompleted, got %v", err)
	}
}

func TestEmptyPoolCompletesImmediately(t *testing.T) {
	s, _ := newTestSession(t, nil)
	if !s.Completed() {
		t.Fatalf("expected empty questionnaire to complete")
	}
}

func TestCloseCancelsTimers(t *testing.T) {
	s, clock := newTestSession(t, sampleQuestions(3))
	answerCurrent(t, s, 3)
	s.Close()

	if clock.live() != 0 {
		t.Fatalf("expected timers cancelled, %d live", clock.live())
	}
	clock.Advance(time.Minute)
	if len(s.Snapshot().History) != 0 {
		t.Fatalf("closed session must not advance")
	}
}

func TestObserverReceivesOrderedEvents(t *testing.T) {
	var (
		mu     sync.Mutex
		events []EventType
	)
	clock := &fakeScheduler{}
	s := New(sampleQuestions(1),
		WithScheduler(clock),
		WithCountdown(3*time.Second, time.Second),
		WithObserver(func(e Event) {
			mu.Lock()
			events = append(events, e.Type)
			mu.Unlock()
		}),
	)
	_ = s.Start()
	clock.Advance(3 * time.Second) // tick, tick, tick -> requeue -> focus
	answerCurrent(t, s, 4)
	clock.Advance(DefaultDebounce)

	want := []EventType{EventFocus, EventTick, EventTick, EventTick, EventFocus, EventCompleted}
	mu.Lock()
	defer mu.Unlock()
	if fmt.Sprint(events) != fmt.Sprint(want) {
		t.Fatalf("expected %v, got %v", want, events)
	}
}

// Random stimuli must preserve the queue/answer invariants at every step.
func TestInvariantsUnderRandomStimuli(t *testing.T) {
	for seed := int64(1); seed <= 25; seed++ {
		rnd := rand.New(rand.NewSource(seed))
		questions := sampleQuestions(2 + rnd.Intn(6))
		clock := &fakeScheduler{}
		s := New(questions, WithScheduler(clock), WithRand(rand.New(rand.NewSource(seed))))
		_ = s.Start()

		for step := 0; step < 400 && !s.Completed(); step++ {
			switch rnd.Intn(5) {
			case 0:
				clock.Advance(30 * time.Second)
			case 1:
				_ = s.GoBack()
			case 2:
				_ = s.Advance()
			default:
				if snap := s.Snapshot(); snap.Current != nil {
					_ = s.RecordAnswer(snap.Current.ID, snap.Current.Domain, 1+rnd.Intn(5))
				}
				clock.Advance(time.Duration(rnd.Intn(400)) * time.Millisecond)
			}
			checkInvariants(t, s, seed)
		}
	}
}

func checkInvariants(t *testing.T, s *Session, seed int64) {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.history.Len() > DefaultHistorySize {
		t.Fatalf("seed %d: history too long: %v", seed, s.history.Values())
	}
	seen := make(map[int]bool)
	for _, idx := range s.queue.Values() {
		if seen[idx] {
			t.Fatalf("seed %d: duplicate index %d in queue %v", seed, idx, s.queue.Values())
		}
		seen[idx] = true
	}
	all := s.allAnsweredLocked()
	if s.state == StateActive {
		for i, q := range s.questions {
			if _, ok := s.answers[q.ID]; !ok && !seen[i] {
				t.Fatalf("seed %d: question %s dropped", seed, q.ID)
			}
		}
		// Completion is decided by the next advance, so a fully answered
		// session stays active only while a debounce or countdown is pending.
		if all && s.debounce.task == nil && s.countdown.task == nil {
			t.Fatalf("seed %d: active with every question answered and no pending advance", seed)
		}
	}
	if s.state == StateCompleted && !all {
		t.Fatalf("seed %d: completed with unanswered questions", seed)
	}
	if s.remaining < 0 {
		t.Fatalf("seed %d: negative countdown", seed)
	}
}

func newTestSession(t *testing.T, questions []domain.Question) (*Session, *fakeScheduler) {
	t.Helper()
	clock := &fakeScheduler{}
	s := New(questions, WithScheduler(clock), WithRand(rand.New(rand.NewSource(42))))
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	return s, clock
}

func current(t *testing.T, s *Session) domain.Question {
	t.Helper()
	snap := s.Snapshot()
	if snap.Current == nil {
		t.Fatalf("no focused question (state %s)", snap.State)
	}
	return *snap.Current
}

func answerCurrent(t *testing.T, s *Session, value int) {
	t.Helper()
	q := current(t, s)
	if err := s.RecordAnswer(q.ID, q.Domain, value); err != nil {
		t.Fatalf("record %s: %v", q.ID, err)
	}
}

func sampleQuestions(n int) []domain.Question {
	domains := []string{"leadership", "creativity", "collaboration"}
	out := make([]domain.Question, n)
	for i := range out {
		out[i] = domain.Question{
			ID:     fmt.Sprintf("q%d", i+1),
			Text:   fmt.Sprintf("Statement %d", i+1),
			Domain: domains[i%len(domains)],
		}
	}
	return out
}
