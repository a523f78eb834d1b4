package view_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"planline/internal/engine"
	"planline/internal/schedule"
	"planline/internal/view"
)

type fnFetcher func(ctx context.Context, anchor time.Time, mode schedule.ViewMode) (engine.Agenda, error)

func (f fnFetcher) ComputeAgenda(ctx context.Context, anchor time.Time, mode schedule.ViewMode) (engine.Agenda, error) {
	return f(ctx, anchor, mode)
}

func okFetcher() fnFetcher {
	return func(_ context.Context, anchor time.Time, mode schedule.ViewMode) (engine.Agenda, error) {
		return engine.Agenda{Mode: string(mode), From: anchor.Format("2006-01-02")}, nil
	}
}

func TestRefreshLoadsAgenda(t *testing.T) {
	c := view.NewController(okFetcher(), view.State{
		Mode:   schedule.ViewDay,
		Anchor: time.Date(2025, 4, 7, 0, 0, 0, 0, time.UTC),
	})
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	a, ok := c.Agenda()
	if !ok || a.From != "2025-04-07" {
		t.Fatalf("agenda = %+v, %v", a, ok)
	}
}

func TestStepPerView(t *testing.T) {
	anchor := time.Date(2025, 4, 7, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		mode schedule.ViewMode
		want string
	}{
		{schedule.ViewDay, "2025-04-08"},
		{schedule.ViewWeek, "2025-04-14"},
		{schedule.ViewMonth, "2025-05-07"},
		{schedule.ViewQuarter, "2025-05-07"},
	}
	for _, tc := range cases {
		c := view.NewController(okFetcher(), view.State{Mode: tc.mode, Anchor: anchor})
		if err := c.Step(context.Background(), 1); err != nil {
			t.Fatalf("%s: step: %v", tc.mode, err)
		}
		if got := c.State().Anchor.Format("2006-01-02"); got != tc.want {
			t.Fatalf("%s: anchor = %s, want %s", tc.mode, got, tc.want)
		}
	}
}

func TestStaleFetchIsDiscarded(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var first int32
	f := fnFetcher(func(_ context.Context, anchor time.Time, mode schedule.ViewMode) (engine.Agenda, error) {
		if atomic.CompareAndSwapInt32(&first, 0, 1) {
			close(entered)
			<-release
		}
		return engine.Agenda{Mode: string(mode), From: anchor.Format("2006-01-02")}, nil
	})
	c := view.NewController(f, view.State{
		Mode:   schedule.ViewDay,
		Anchor: time.Date(2025, 4, 7, 0, 0, 0, 0, time.UTC),
	})

	done := make(chan error, 1)
	go func() { done <- c.Refresh(context.Background()) }()
	<-entered

	// a newer fetch completes while the first is still in flight
	if err := c.SetAnchor(context.Background(), time.Date(2025, 4, 9, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("set anchor: %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("stale refresh: %v", err)
	}

	a, ok := c.Agenda()
	if !ok || a.From != "2025-04-09" {
		t.Fatalf("stale fetch overwrote newer agenda: %+v", a)
	}
}

func TestFetchErrorDegradesToEmptyAgenda(t *testing.T) {
	boom := errors.New("service unavailable")
	f := fnFetcher(func(context.Context, time.Time, schedule.ViewMode) (engine.Agenda, error) {
		return engine.Agenda{}, boom
	})
	c := view.NewController(f, view.State{
		Mode:   schedule.ViewWeek,
		Anchor: time.Date(2025, 4, 7, 0, 0, 0, 0, time.UTC),
	})
	if err := c.Refresh(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("refresh = %v", err)
	}
	a, ok := c.Agenda()
	if !ok || len(a.Days) != 0 {
		t.Fatalf("expected empty agenda, got %+v", a)
	}
	if !errors.Is(c.Err(), boom) {
		t.Fatalf("err = %v", c.Err())
	}
}
