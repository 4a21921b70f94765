package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-audio/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-audio/internal/monitor"
	"github.com/nerrad567/gray-logic-audio/migrations"
)

func openTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "history.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if err := db.Migrate(context.Background(), migrations.FS); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return NewSQLiteRepository(db.DB)
}

func sinkDescriptor(card string) monitor.Descriptor {
	return monitor.Descriptor{
		ID:      "USB Audio",
		State:   monitor.StateAvailable,
		Name:    "USB Audio",
		Class:   monitor.ClassSink,
		Factory: monitor.FactorySink,
		Info: []monitor.Property{
			{Key: "alsa.card", Value: card},
			{Key: "device.api", Value: "alsa"},
		},
	}
}

func TestFromDescriptor(t *testing.T) {
	at := time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)
	e := FromDescriptor("site-001", monitor.EventAdded, sinkDescriptor("hw:1,0"), at)

	if e.ALSACard != "hw:1,0" || e.Kind != monitor.EventAdded || e.SiteID != "site-001" {
		t.Errorf("event = %+v", e)
	}
	if e.Class != monitor.ClassSink || e.Factory != monitor.FactorySink || !e.OccurredAt.Equal(at) {
		t.Errorf("event = %+v", e)
	}
}

func TestRecordAndList(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

	kinds := []monitor.EventKind{monitor.EventAdded, monitor.EventChanged, monitor.EventRemoved}
	for i, k := range kinds {
		e := FromDescriptor("site-001", k, sinkDescriptor("hw:1,0"), base.Add(time.Duration(i)*time.Minute))
		if err := repo.Record(ctx, &e); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
		if e.ID == "" {
			t.Error("Record() did not assign an ID")
		}
	}
	other := FromDescriptor("site-001", monitor.EventAdded, sinkDescriptor("hw:2,0"), base.Add(10*time.Minute))
	if err := repo.Record(ctx, &other); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	res, err := repo.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if res.Total != 4 || len(res.Events) != 4 || res.Limit != defaultLimit {
		t.Fatalf("List() = total %d, %d events, limit %d", res.Total, len(res.Events), res.Limit)
	}
	if res.Events[0].ID != other.ID {
		t.Errorf("newest first: got %s, want %s", res.Events[0].ID, other.ID)
	}
	got := res.Events[1]
	if got.Kind != monitor.EventRemoved || got.ALSACard != "hw:1,0" || len(got.Info) != 2 {
		t.Errorf("event = %+v", got)
	}
	if !got.OccurredAt.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("OccurredAt = %v", got.OccurredAt)
	}
	if got.Info[1] != (monitor.Property{Key: "device.api", Value: "alsa"}) {
		t.Errorf("Info[1] = %+v", got.Info[1])
	}
}

func TestList_Filters(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	for i, card := range []string{"hw:0,0", "hw:0,0", "hw:1,0"} {
		kind := monitor.EventAdded
		if i == 1 {
			kind = monitor.EventRemoved
		}
		e := FromDescriptor("s", kind, sinkDescriptor(card), time.Now().Add(time.Duration(i)*time.Second))
		if err := repo.Record(ctx, &e); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	tests := []struct {
		name      string
		filter    Filter
		wantTotal int
		wantLen   int
	}{
		{"by kind", Filter{Kind: monitor.EventAdded}, 2, 2},
		{"by card", Filter{ALSACard: "hw:0,0"}, 2, 2},
		{"kind and card", Filter{Kind: monitor.EventRemoved, ALSACard: "hw:0,0"}, 1, 1},
		{"no match", Filter{ALSACard: "hw:9,0"}, 0, 0},
		{"page", Filter{Limit: 2, Offset: 2}, 3, 1},
		{"negative offset", Filter{Limit: 1, Offset: -5}, 3, 1},
		{"limit clamped", Filter{Limit: 10000}, 3, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := repo.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if res.Total != tt.wantTotal || len(res.Events) != tt.wantLen {
				t.Errorf("List() = total %d len %d, want %d %d", res.Total, len(res.Events), tt.wantTotal, tt.wantLen)
			}
			if res.Limit > maxLimit || res.Offset < 0 {
				t.Errorf("limit/offset not clamped: %d/%d", res.Limit, res.Offset)
			}
		})
	}
}

func TestList_EmptyIsNotNil(t *testing.T) {
	repo := openTestRepo(t)
	res, err := repo.List(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if res.Events == nil {
		t.Error("Events = nil, want empty slice")
	}
}

func TestPrune(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

	for _, age := range []time.Duration{48 * time.Hour, 25 * time.Hour, time.Hour, 0} {
		e := FromDescriptor("s", monitor.EventAdded, sinkDescriptor("hw:0,0"), now.Add(-age))
		if err := repo.Record(ctx, &e); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	p := NewPruner(repo, 24*time.Hour, time.Minute)
	p.now = func() time.Time { return now }

	n, err := p.PruneOnce(ctx)
	if err != nil {
		t.Fatalf("PruneOnce() error = %v", err)
	}
	if n != 2 {
		t.Errorf("PruneOnce() deleted %d, want 2", n)
	}
	res, _ := repo.List(ctx, Filter{})
	if res.Total != 2 {
		t.Errorf("remaining = %d, want 2", res.Total)
	}

	keepAll := NewPruner(repo, 0, 0)
	if n, err := keepAll.PruneOnce(ctx); n != 0 || err != nil {
		t.Errorf("PruneOnce() with no retention = %d, %v", n, err)
	}
}

func TestPruner_RunStopsOnCancel(t *testing.T) {
	repo := openTestRepo(t)
	p := NewPruner(repo, time.Hour, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}
