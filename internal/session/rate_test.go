package session

import (
	"context"
	"errors"
	"testing"

	"github.com/repeticio/repeticio/internal/backend"
)

func resolved(t *testing.T, c *fakeClient, id string) *Machine {
	t.Helper()
	c.submitFn = reply("correct")
	m := loaded(t, c, id)
	if err := m.SubmitAnswer(context.Background(), 1); err != nil {
		t.Fatalf("submit: %v", err)
	}
	return m
}

func TestRate_NothingToRate(t *testing.T) {
	c := &fakeClient{}
	m := loaded(t, c, "unanswered")

	err := m.RateLast(context.Background(), true)
	var gr *GuardRejection
	if !errors.As(err, &gr) || !errors.Is(err, ErrNothingToRate) {
		t.Fatalf("err = %v, want ErrNothingToRate", err)
	}
	if len(c.rates) != 0 {
		t.Errorf("rates = %+v, want none", c.rates)
	}
}

func TestRate_LastExercise(t *testing.T) {
	c := &fakeClient{}
	m := resolved(t, c, "done")

	var events []Event
	m.Subscribe(func(ev Event) { events = append(events, ev) })

	if !m.State().CanRate() {
		t.Fatal("expected the resolved exercise to be rateable")
	}
	if err := m.RateLast(context.Background(), false); err != nil {
		t.Fatalf("rate: %v", err)
	}

	if len(c.rates) != 1 || c.rates[0] != (backend.RateRequest{ExerciseID: "done", Positive: false}) {
		t.Errorf("rates = %+v", c.rates)
	}
	s := m.State()
	if s.LastRating == nil || *s.LastRating {
		t.Errorf("LastRating = %v, want thumbs down", s.LastRating)
	}
	if s.InFlight || s.CanRate() {
		t.Errorf("state after rating = %+v", s)
	}
	if len(events) != 1 || events[0].Kind != EventRated || events[0].Positive {
		t.Errorf("events = %+v", events)
	}

	if err := m.RateLast(context.Background(), true); !errors.Is(err, ErrAlreadyRated) {
		t.Errorf("second rating err = %v, want ErrAlreadyRated", err)
	}
	if len(c.rates) != 1 {
		t.Errorf("second rating reached the backend")
	}
}

func TestRate_FailureAllowsRetry(t *testing.T) {
	c := &fakeClient{rateErr: &backend.BackendError{Op: backend.OpRate, Message: "exercise not found"}}
	m := resolved(t, c, "done")

	err := m.RateLast(context.Background(), true)
	if KindOf(err) != KindBackend {
		t.Fatalf("err = %v, want backend error", err)
	}
	if s := m.State(); s.LastRating != nil || !s.CanRate() {
		t.Errorf("state after failed rating = %+v", s)
	}

	c.mu.Lock()
	c.rateErr = nil
	c.mu.Unlock()
	if err := m.RateLast(context.Background(), true); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if r := m.State().LastRating; r == nil || !*r {
		t.Error("retry should record thumbs up")
	}
}

func TestRate_BlocksOtherRequestsWhileInFlight(t *testing.T) {
	c := &fakeClient{}
	m := resolved(t, c, "done")

	tk, err := m.BeginRate(true)
	if err != nil {
		t.Fatal(err)
	}
	if tk.Op() != backend.OpRate || tk.ExerciseID() != "done" || !tk.Positive() {
		t.Errorf("ticket = %s/%s/%v", tk.Op(), tk.ExerciseID(), tk.Positive())
	}
	if _, err := m.BeginFetch(); !errors.Is(err, ErrBusy) {
		t.Errorf("fetch err = %v, want ErrBusy", err)
	}
	if _, err := m.BeginRate(false); !errors.Is(err, ErrBusy) {
		t.Errorf("rate err = %v, want ErrBusy", err)
	}
	if err := m.Complete(m.Dispatch(context.Background(), tk)); err != nil {
		t.Fatal(err)
	}
	if m.State().InFlight {
		t.Error("InFlight not cleared")
	}
}

func TestRate_NewResolutionClearsRating(t *testing.T) {
	c := &fakeClient{}
	m := resolved(t, c, "first")
	if err := m.RateLast(context.Background(), true); err != nil {
		t.Fatal(err)
	}

	c.fetchFn = serve(testExercise("second"))
	if err := m.FetchNewExercise(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := m.SubmitAnswer(context.Background(), 0); err != nil {
		t.Fatal(err)
	}
	s := m.State()
	if s.LastID != "second" || s.LastRating != nil || !s.CanRate() {
		t.Errorf("state = %+v", s)
	}
}
