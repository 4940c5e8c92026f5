package retry

import (
	"testing"
	"time"
)

func TestPolicyDelayDoublesUpToCap(t *testing.T) {
	policy := DefaultPolicy()

	expected := []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second, 10 * time.Second, 10 * time.Second}
	for i, want := range expected {
		if got := policy.Delay(i + 1); got != want {
			t.Fatalf("expected delay %v for attempt %d, got %v", want, i+1, got)
		}
	}
}

func TestPolicyZeroValueUsesDefaults(t *testing.T) {
	if got := (Policy{}).Delay(1); got != DefaultInitialDelay {
		t.Fatalf("expected zero policy to start at %v, got %v", DefaultInitialDelay, got)
	}
}

func TestControllerRetriesThreeTimesThenAbandons(t *testing.T) {
	scheduler := NewManualScheduler()
	restarts := []int{}
	controller := NewController(
		func(attempt int) { restarts = append(restarts, attempt) },
		WithScheduler(scheduler),
	)

	for attempt := 1; attempt <= 3; attempt++ {
		decision := controller.OnNetworkError()
		if decision.Action != ActionRetry {
			t.Fatalf("expected retry on error %d, got %v", attempt, decision.Action)
		}
		if decision.Attempt != attempt || decision.MaxAttempts != 3 {
			t.Fatalf("expected attempt %d/3, got %d/%d", attempt, decision.Attempt, decision.MaxAttempts)
		}
		if !controller.Pending() {
			t.Fatalf("expected restart to be pending after error %d", attempt)
		}
		if _, ok := scheduler.FireNext(); !ok {
			t.Fatalf("expected scheduled restart for error %d", attempt)
		}
	}

	decision := controller.OnNetworkError()
	if decision.Action != ActionExhausted {
		t.Fatalf("expected retries to be exhausted, got %v", decision.Action)
	}
	if controller.Pending() {
		t.Fatalf("expected no pending restart after exhaustion")
	}

	scheduled := scheduler.Scheduled()
	expected := []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}
	if len(scheduled) != len(expected) {
		t.Fatalf("expected delays %v, got %v", expected, scheduled)
	}
	for i := range expected {
		if scheduled[i] != expected[i] {
			t.Fatalf("expected delays %v, got %v", expected, scheduled)
		}
	}
	if len(restarts) != 3 || restarts[0] != 1 || restarts[1] != 2 || restarts[2] != 3 {
		t.Fatalf("expected restarts for attempts [1 2 3], got %v", restarts)
	}

	if decision := controller.OnNetworkError(); decision.Action != ActionRetry || decision.Attempt != 1 {
		t.Fatalf("expected attempts to start over after exhaustion, got %+v", decision)
	}
}

func TestControllerStartResetsAttempts(t *testing.T) {
	scheduler := NewManualScheduler()
	controller := NewController(func(int) {}, WithScheduler(scheduler))

	controller.OnNetworkError()
	scheduler.FireNext()
	controller.OnStarted()

	decision := controller.OnNetworkError()
	if decision.Attempt != 1 || decision.Delay != 2*time.Second {
		t.Fatalf("expected fresh first attempt after start, got attempt %d delay %v", decision.Attempt, decision.Delay)
	}
}

func TestControllerOfflineAbandonsWithoutScheduling(t *testing.T) {
	scheduler := NewManualScheduler()
	online := false
	controller := NewController(
		func(int) { t.Fatalf("expected no restart while offline") },
		WithScheduler(scheduler),
		WithConnectivity(func() bool { return online }),
	)

	decision := controller.OnNetworkError()
	if decision.Action != ActionOffline {
		t.Fatalf("expected offline decision, got %v", decision.Action)
	}
	if len(scheduler.Scheduled()) != 0 {
		t.Fatalf("expected nothing scheduled, got %v", scheduler.Scheduled())
	}
}

func TestControllerStopCancelsPendingRestart(t *testing.T) {
	scheduler := NewManualScheduler()
	restarted := false
	controller := NewController(func(int) { restarted = true }, WithScheduler(scheduler))

	controller.OnNetworkError()
	controller.OnStopped()

	if len(scheduler.Pending()) != 0 {
		t.Fatalf("expected stop to cancel the timer, pending %v", scheduler.Pending())
	}
	if _, ok := scheduler.FireNext(); ok {
		t.Fatalf("expected no timer left to fire")
	}
	if restarted {
		t.Fatalf("expected no restart after stop")
	}
}

func TestControllerIgnoresStaleTimer(t *testing.T) {
	restarted := 0
	var captured func()
	controller := NewController(
		func(int) { restarted++ },
		WithScheduler(schedulerFunc(func(_ time.Duration, fn func()) func() bool {
			captured = fn
			return func() bool { return false }
		})),
	)

	controller.OnNetworkError()
	stale := captured
	controller.Reset()

	stale()
	if restarted != 0 {
		t.Fatalf("expected stale timer to be ignored, got %d restarts", restarted)
	}
}

func TestControllerOnlineRunsPendingRetryImmediately(t *testing.T) {
	scheduler := NewManualScheduler()
	restarts := []int{}
	controller := NewController(func(attempt int) { restarts = append(restarts, attempt) }, WithScheduler(scheduler))

	if controller.OnOnline() {
		t.Fatalf("expected nothing to run without a pending retry")
	}

	controller.OnNetworkError()
	if !controller.OnOnline() {
		t.Fatalf("expected pending retry to run on reconnect")
	}
	if len(restarts) != 1 || restarts[0] != 1 {
		t.Fatalf("expected a single immediate restart, got %v", restarts)
	}
	if _, ok := scheduler.FireNext(); ok {
		t.Fatalf("expected original timer to be cancelled")
	}
	if len(restarts) != 1 {
		t.Fatalf("expected no duplicate restart, got %v", restarts)
	}
}

type schedulerFunc func(time.Duration, func()) func() bool

func (f schedulerFunc) AfterFunc(d time.Duration, fn func()) func() bool { return f(d, fn) }
