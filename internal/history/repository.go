// Package history keeps a journal of announced hotplug events in the
// hotplug_events table. The journal is write-mostly: it backs the
// events API and is never read back into the card registry.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-audio/internal/monitor"
)

const (
	defaultLimit = 50
	maxLimit     = 500

	// timeLayout sorts lexically in time order, which the prune and
	// list queries rely on.
	timeLayout = "2006-01-02T15:04:05.000000Z"
)

// Event is one journalled device event.
type Event struct {
	ID         string             `json:"id"`
	SiteID     string             `json:"site_id"`
	Kind       monitor.EventKind  `json:"kind"`
	DeviceID   string             `json:"device_id"`
	Name       string             `json:"name"`
	Class      string             `json:"class"`
	Factory    string             `json:"factory"`
	ALSACard   string             `json:"alsa_card,omitempty"`
	Info       []monitor.Property `json:"info"`
	OccurredAt time.Time          `json:"occurred_at"`
}

// FromDescriptor builds an Event for a delivered descriptor.
func FromDescriptor(siteID string, kind monitor.EventKind, d monitor.Descriptor, at time.Time) Event {
	card, _ := d.Property("alsa.card")
	return Event{
		SiteID:     siteID,
		Kind:       kind,
		DeviceID:   d.ID,
		Name:       d.Name,
		Class:      d.Class,
		Factory:    d.Factory,
		ALSACard:   card,
		Info:       d.Info,
		OccurredAt: at,
	}
}

// Filter selects journal entries.
type Filter struct {
	Kind     monitor.EventKind // optional
	ALSACard string            // optional, e.g. "hw:0,3"
	Limit    int               // default 50, max 500
	Offset   int
}

// ListResult is one page of journal entries, newest first.
type ListResult struct {
	Events []Event `json:"events"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}

// Repository is the journal store.
type Repository interface {
	Record(ctx context.Context, e *Event) error
	List(ctx context.Context, f Filter) (*ListResult, error)
	Prune(ctx context.Context, olderThan time.Time) (int64, error)
}

// SQLiteRepository stores the journal in SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository returns a journal over db, which must have the
// hotplug_events migration applied.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Record inserts e, filling in ID and OccurredAt when empty.
func (r *SQLiteRepository) Record(ctx context.Context, e *Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now()
	}
	e.OccurredAt = e.OccurredAt.UTC()

	info := e.Info
	if info == nil {
		info = []monitor.Property{}
	}
	infoJSON, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("marshalling event info: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO hotplug_events (id, site_id, kind, device_id, name, class, factory, alsa_card, info, occurred_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.SiteID, e.Kind.String(), e.DeviceID, e.Name, e.Class, e.Factory,
		e.ALSACard, string(infoJSON), e.OccurredAt.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting hotplug event: %w", err)
	}
	return nil
}

// List returns entries matching f, newest first.
func (r *SQLiteRepository) List(ctx context.Context, f Filter) (*ListResult, error) {
	if f.Limit <= 0 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	var (
		conds []string
		args  []any
	)
	if f.Kind != 0 {
		conds = append(conds, "kind = ?")
		args = append(args, f.Kind.String())
	}
	if f.ALSACard != "" {
		conds = append(conds, "alsa_card = ?")
		args = append(args, f.ALSACard)
	}
	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM hotplug_events " + where //nolint:gosec // placeholders only
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting hotplug events: %w", err)
	}

	query := "SELECT id, site_id, kind, device_id, name, class, factory, alsa_card, info, occurred_at " + //nolint:gosec // placeholders only
		"FROM hotplug_events " + where + " ORDER BY occurred_at DESC, rowid DESC LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, query, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, fmt.Errorf("querying hotplug events: %w", err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating hotplug events: %w", err)
	}

	return &ListResult{Events: events, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}

func scanEvent(rows *sql.Rows) (Event, error) {
	var (
		e                Event
		kind, info, when string
	)
	if err := rows.Scan(&e.ID, &e.SiteID, &kind, &e.DeviceID, &e.Name, &e.Class,
		&e.Factory, &e.ALSACard, &info, &when); err != nil {
		return Event{}, fmt.Errorf("scanning hotplug event: %w", err)
	}
	if err := e.Kind.UnmarshalText([]byte(kind)); err != nil {
		return Event{}, fmt.Errorf("hotplug event %s: %w", e.ID, err)
	}
	if err := json.Unmarshal([]byte(info), &e.Info); err != nil {
		return Event{}, fmt.Errorf("hotplug event %s info: %w", e.ID, err)
	}
	t, err := time.Parse(timeLayout, when)
	if err != nil {
		return Event{}, fmt.Errorf("parsing hotplug event timestamp %q: %w", when, err)
	}
	e.OccurredAt = t
	return e, nil
}

// Prune deletes entries older than olderThan and returns how many went.
func (r *SQLiteRepository) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM hotplug_events WHERE occurred_at < ?",
		olderThan.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("pruning hotplug events: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("pruning hotplug events: %w", err)
	}
	return n, nil
}
