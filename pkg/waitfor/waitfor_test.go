package waitfor

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/romaklym/kronsteen/pkg/match"
)

func singleMatch(text string, conf float64) []match.Match {
	m, _ := match.New(match.KindText, text, match.Region{X: 10, Y: 20, Width: 30, Height: 10}, conf)
	return []match.Match{m}
}

// sequenceQuery returns the canned result sets one after another, sticking
// on the last one once exhausted.
func sequenceQuery(results ...[]match.Match) (Query, *int) {
	calls := 0
	q := func(ctx context.Context) ([]match.Match, error) {
		i := calls
		if i >= len(results) {
			i = len(results) - 1
		}
		calls++
		return results[i], nil
	}
	return q, &calls
}

func TestUntil_FoundOnFirstAttempt(t *testing.T) {
	q, calls := sequenceQuery(singleMatch("OK", 0.9))

	out, err := Until(context.Background(), Options{Timeout: time.Second, Interval: time.Millisecond}, q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != Found {
		t.Errorf("expected Found, got %v", out.Status)
	}
	if out.Match.Text != "OK" {
		t.Errorf("expected match text OK, got %q", out.Match.Text)
	}
	if *calls != 1 {
		t.Errorf("expected exactly 1 query call, got %d", *calls)
	}
}

func TestUntil_FoundAfterRetries(t *testing.T) {
	q, calls := sequenceQuery(nil, nil, singleMatch("Loaded", 0.85))

	out, err := Until(context.Background(), Options{Timeout: time.Second, Interval: time.Millisecond}, q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != Found {
		t.Errorf("expected Found, got %v", out.Status)
	}
	if out.Attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", out.Attempts)
	}
	if *calls != 3 {
		t.Errorf("expected 3 query calls, got %d", *calls)
	}
}

func TestUntil_TimeoutReturnsNotFoundError(t *testing.T) {
	q, _ := sequenceQuery(nil)

	opts := Options{Timeout: 30 * time.Millisecond, Interval: 5 * time.Millisecond, Describe: `text "Submit"`}
	start := time.Now()
	out, err := Until(context.Background(), opts, q)
	elapsed := time.Since(start)

	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if notFound.Query != `text "Submit"` {
		t.Errorf("expected query description in error, got %q", notFound.Query)
	}
	if out.Status != TimedOut {
		t.Errorf("expected TimedOut, got %v", out.Status)
	}
	if elapsed < opts.Timeout {
		t.Errorf("returned before the deadline: %v < %v", elapsed, opts.Timeout)
	}
	// One interval plus scheduling latency of slack past the deadline.
	if elapsed > opts.Timeout+200*time.Millisecond {
		t.Errorf("overshot the deadline by too much: %v", elapsed)
	}
}

func TestUntil_AtLeastOneAttemptWhenTimeoutBelowInterval(t *testing.T) {
	q, calls := sequenceQuery(nil)

	_, err := Until(context.Background(), Options{Timeout: time.Millisecond, Interval: time.Hour}, q)
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if *calls < 1 {
		t.Error("expected the query to run at least once")
	}
}

func TestUntil_FinalSleepClampedToDeadline(t *testing.T) {
	q, _ := sequenceQuery(nil)

	opts := Options{Timeout: 20 * time.Millisecond, Interval: time.Hour}
	start := time.Now()
	_, err := Until(context.Background(), opts, q)
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("expected timeout error")
	}
	// The hour-long interval must be clamped to the remaining time.
	if elapsed > 500*time.Millisecond {
		t.Errorf("final sleep was not clamped: elapsed %v", elapsed)
	}
}

func TestUntil_ProviderErrorAbortsImmediately(t *testing.T) {
	boom := fmt.Errorf("ocr backend unreachable")
	calls := 0
	q := func(ctx context.Context) ([]match.Match, error) {
		calls++
		return nil, boom
	}

	start := time.Now()
	_, err := Until(context.Background(), Options{Timeout: time.Hour, Interval: time.Hour, Describe: "text"}, q)
	elapsed := time.Since(start)

	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Error("expected wrapped provider error to unwrap to the cause")
	}
	if calls != 1 {
		t.Errorf("provider errors must not be retried, got %d calls", calls)
	}
	if elapsed > time.Second {
		t.Errorf("abort was not immediate: %v", elapsed)
	}
}

func TestUntil_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := func(ctx context.Context) ([]match.Match, error) {
		return nil, nil
	}

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := Until(ctx, Options{Timeout: time.Hour, Interval: time.Hour}, q)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestUntil_BestMatchWins(t *testing.T) {
	m1, _ := match.New(match.KindText, "a", match.Region{Width: 10, Height: 10}, 0.9)
	m2, _ := match.New(match.KindText, "b", match.Region{Width: 10, Height: 10}, 0.95)
	q, _ := sequenceQuery([]match.Match{m1, m2})

	out, err := Until(context.Background(), Options{Timeout: time.Second, Interval: time.Millisecond}, q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Match.Text != "b" {
		t.Errorf("expected highest-confidence match, got %q", out.Match.Text)
	}
}

func TestUntilGone_ObservedDisappearance(t *testing.T) {
	// Present for two checks, then gone.
	q, _ := sequenceQuery(singleMatch("Loading...", 0.9), singleMatch("Loading...", 0.9), nil)

	out, err := UntilGone(context.Background(), Options{Timeout: time.Second, Interval: time.Millisecond}, q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != Disappeared {
		t.Errorf("expected Disappeared, got %v", out.Status)
	}
	if !out.EverPresent {
		t.Error("expected EverPresent=true for an observed disappearance")
	}
	if out.Attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", out.Attempts)
	}
}

func TestUntilGone_VacuousDisappearance(t *testing.T) {
	q, calls := sequenceQuery(nil)

	out, err := UntilGone(context.Background(), Options{Timeout: time.Second, Interval: time.Hour}, q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != Disappeared {
		t.Errorf("expected Disappeared, got %v", out.Status)
	}
	if out.EverPresent {
		t.Error("expected EverPresent=false when the target was never seen")
	}
	if *calls != 1 {
		t.Errorf("vacuous absence should be reported on the first check, got %d calls", *calls)
	}
}

func TestUntilGone_TimeoutReturnsStillPresentError(t *testing.T) {
	q, _ := sequenceQuery(singleMatch("Modal", 0.9))

	out, err := UntilGone(context.Background(), Options{Timeout: 20 * time.Millisecond, Interval: 5 * time.Millisecond, Describe: `text "Modal"`}, q)
	var stillPresent *StillPresentError
	if !errors.As(err, &stillPresent) {
		t.Fatalf("expected StillPresentError, got %v", err)
	}
	if out.Status != TimedOut {
		t.Errorf("expected TimedOut, got %v", out.Status)
	}
	if !out.EverPresent {
		t.Error("expected EverPresent=true when matches persisted")
	}
}

func TestPoll_ElapsedAndAttemptsReported(t *testing.T) {
	q, _ := sequenceQuery(nil, nil, singleMatch("x", 1))

	out, err := Poll(context.Background(), Options{Timeout: time.Second, Interval: time.Millisecond}, q,
		func(matches []match.Match) bool { return len(matches) > 0 })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", out.Attempts)
	}
	if out.Elapsed <= 0 {
		t.Error("expected positive elapsed time")
	}
}

func TestStatusString(t *testing.T) {
	cases := map[Status]string{
		Found:       "found",
		TimedOut:    "timed_out",
		Disappeared: "disappeared",
		Status(99):  "unknown",
	}
	for status, want := range cases {
		if got := status.String(); got != want {
			t.Errorf("Status(%d).String() = %q, want %q", status, got, want)
		}
	}
}
