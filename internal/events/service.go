// Package events manages the family calendar: events that collect RSVPs and
// important dates that do not.
package events

import (
	"context"
	"maps"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/google/uuid"

	"github.com/romiluz13/Studio-Oscar/internal/auth"
	"github.com/romiluz13/Studio-Oscar/internal/db"
	"github.com/romiluz13/Studio-Oscar/internal/feed"
	"github.com/romiluz13/Studio-Oscar/internal/models"
	"github.com/romiluz13/Studio-Oscar/internal/shared/apperr"
	"github.com/romiluz13/Studio-Oscar/internal/stream"
)

type ChangeNotifier interface {
	Notify(ctx context.Context, topic string)
}

type Options struct {
	Attempts int
	Backoff  time.Duration
}

type Service struct {
	db       db.Querier
	cache    *feed.Cache[models.Event]
	changes  ChangeNotifier
	attempts int
	backoff  time.Duration
}

func NewService(q db.Querier, cache *feed.Cache[models.Event], changes ChangeNotifier, opts Options) *Service {
	if cache == nil {
		cache = feed.NewCache[models.Event](0)
	}
	if opts.Attempts <= 0 {
		opts.Attempts = 1
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 200 * time.Millisecond
	}
	return &Service{db: q, cache: cache, changes: changes, attempts: opts.Attempts, backoff: opts.Backoff}
}

func (s *Service) Current() []models.Event {
	items := s.cache.CurrentItems()
	if items == nil {
		return []models.Event{}
	}
	return items
}

// Snapshot returns every calendar entry ordered by start.
func (s *Service) Snapshot(ctx context.Context) ([]models.Event, error) {
	return s.queryEvents(ctx, `
		SELECT id, title, description, start_at, end_at, all_day, is_event, location, created_by, created_at
		FROM events
		ORDER BY start_at, created_at
	`)
}

func (s *Service) Get(ctx context.Context, id string) (models.Event, error) {
	list, err := s.queryEvents(ctx, `
		SELECT id, title, description, start_at, end_at, all_day, is_event, location, created_by, created_at
		FROM events WHERE id = $1
	`, id)
	if err != nil {
		return models.Event{}, err
	}
	if len(list) == 0 {
		return models.Event{}, apperr.ErrNotFound
	}
	return list[0], nil
}

// Create adds a calendar entry owned by the caller. Only events get an RSVP
// map and a location.
func (s *Service) Create(ctx context.Context, ident auth.Identity, in EventInput) (models.Event, error) {
	if !ident.SignedIn() {
		return models.Event{}, apperr.ErrUnauthenticated
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return models.Event{}, apperr.Validation("title is required")
	}
	if in.Start.IsZero() {
		return models.Event{}, apperr.Validation("start is required")
	}
	if in.End.IsZero() {
		in.End = in.Start
	}
	if in.End.Before(in.Start) {
		return models.Event{}, apperr.Validation("end is before start")
	}

	ev := models.Event{
		ID:          uuid.NewString(),
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Start:       in.Start,
		End:         in.End,
		AllDay:      in.AllDay,
		IsEvent:     in.IsEvent,
		CreatedBy:   ident.ID,
	}
	if ev.IsEvent {
		ev.Location = strings.TrimSpace(in.Location)
		ev.RSVP = map[string]models.RSVP{}
	}

	err := s.run(ctx, "create event", func(ctx context.Context) error {
		row := s.db.QueryRow(ctx, `
			WITH inserted AS (
				INSERT INTO events (id, title, description, start_at, end_at, all_day, is_event, location, created_by)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
				ON CONFLICT (id) DO NOTHING
				RETURNING created_at
			)
			SELECT created_at FROM inserted
			UNION ALL
			SELECT created_at FROM events WHERE id = $1
			LIMIT 1
		`, ev.ID, ev.Title, ev.Description, ev.Start, ev.End, ev.AllDay, ev.IsEvent, ev.Location, ev.CreatedBy)
		return row.Scan(&ev.CreatedAt)
	})
	if err != nil {
		return models.Event{}, err
	}
	s.changed(ctx, stream.TopicEvents)
	return ev, nil
}

// Delete removes an entry. Only its creator may delete it; blessings tied
// to it stay and lose the link.
func (s *Service) Delete(ctx context.Context, ident auth.Identity, id string) error {
	if !ident.SignedIn() {
		return apperr.ErrUnauthenticated
	}
	err := s.run(ctx, "delete event", func(ctx context.Context) error {
		tag, err := s.db.Exec(ctx, `
			DELETE FROM events WHERE id = $1 AND created_by = $2
		`, id, ident.ID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			var creator string
			if err := s.db.QueryRow(ctx, `SELECT created_by FROM events WHERE id = $1`, id).Scan(&creator); err != nil {
				return apperr.Classify(err)
			}
			return apperr.ErrPermissionDenied
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.changed(ctx, stream.TopicEvents)
	s.changed(ctx, stream.TopicPosts)
	return nil
}

// RSVP sets the caller's response on an event, overwriting any earlier one.
func (s *Service) RSVP(ctx context.Context, ident auth.Identity, eventID string, status models.RSVPStatus) (models.RSVP, error) {
	if !ident.SignedIn() {
		return models.RSVP{}, apperr.ErrUnauthenticated
	}
	if !status.Valid() {
		return models.RSVP{}, apperr.Validation("status must be yes or maybe")
	}

	rsvp := models.RSVP{Status: status, Name: ident.Name()}
	tag := "rsvp:" + eventID + ":" + ident.ID
	s.cache.Apply(tag, setRSVP(eventID, ident.ID, rsvp), rsvpReflected(eventID, ident.ID, rsvp))

	err := s.run(ctx, "rsvp", func(ctx context.Context) error {
		res, err := s.db.Exec(ctx, `
			INSERT INTO event_rsvps (event_id, user_id, status, display_name)
			SELECT id, $2, $3, $4 FROM events WHERE id = $1 AND is_event
			ON CONFLICT (event_id, user_id) DO UPDATE
			SET status = EXCLUDED.status, display_name = EXCLUDED.display_name, updated_at = now()
		`, eventID, ident.ID, string(status), rsvp.Name)
		if err != nil {
			return err
		}
		if res.RowsAffected() == 0 {
			var isEvent bool
			if err := s.db.QueryRow(ctx, `SELECT is_event FROM events WHERE id = $1`, eventID).Scan(&isEvent); err != nil {
				return apperr.Classify(err)
			}
			return apperr.Validation("important dates take no RSVPs")
		}
		return nil
	})
	if err != nil {
		s.cache.Discard(tag)
		return models.RSVP{}, err
	}
	s.changed(ctx, stream.TopicEvents)
	return rsvp, nil
}

func (s *Service) changed(ctx context.Context, topic string) {
	if s.changes != nil {
		s.changes.Notify(ctx, topic)
	}
}

func (s *Service) run(ctx context.Context, op string, fn func(context.Context) error) error {
	if err := db.Retry(ctx, s.attempts, s.backoff, fn); err != nil {
		glog.Errorf("%s: %v", op, err)
		return err
	}
	return nil
}

func (s *Service) queryEvents(ctx context.Context, sql string, args ...any) ([]models.Event, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, apperr.Classify(err)
	}
	defer rows.Close()

	list := []models.Event{}
	var ids []string
	for rows.Next() {
		var ev models.Event
		if err := rows.Scan(&ev.ID, &ev.Title, &ev.Description, &ev.Start, &ev.End, &ev.AllDay, &ev.IsEvent, &ev.Location, &ev.CreatedBy, &ev.CreatedAt); err != nil {
			return nil, err
		}
		if ev.IsEvent {
			ev.RSVP = map[string]models.RSVP{}
			ids = append(ids, ev.ID)
		}
		list = append(list, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Classify(err)
	}
	rows.Close()

	rsvps, err := s.loadRSVPs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range list {
		for userID, r := range rsvps[list[i].ID] {
			list[i].RSVP[userID] = r
		}
	}
	return list, nil
}

func (s *Service) loadRSVPs(ctx context.Context, eventIDs []string) (map[string]map[string]models.RSVP, error) {
	if len(eventIDs) == 0 {
		return map[string]map[string]models.RSVP{}, nil
	}
	rows, err := s.db.Query(ctx, `
		SELECT event_id, user_id, status, display_name
		FROM event_rsvps WHERE event_id = ANY($1)
	`, eventIDs)
	if err != nil {
		return nil, apperr.Classify(err)
	}
	defer rows.Close()

	out := map[string]map[string]models.RSVP{}
	for rows.Next() {
		var eventID, userID, status, name string
		if err := rows.Scan(&eventID, &userID, &status, &name); err != nil {
			return nil, err
		}
		if out[eventID] == nil {
			out[eventID] = map[string]models.RSVP{}
		}
		out[eventID][userID] = models.RSVP{Status: models.RSVPStatus(status), Name: name}
	}
	return out, rows.Err()
}

func setRSVP(eventID, userID string, r models.RSVP) feed.Patch[models.Event] {
	return func(items []models.Event) []models.Event {
		out := make([]models.Event, len(items))
		for i, ev := range items {
			if ev.ID == eventID && ev.IsEvent {
				rsvp := maps.Clone(ev.RSVP)
				if rsvp == nil {
					rsvp = map[string]models.RSVP{}
				}
				rsvp[userID] = r
				ev.RSVP = rsvp
			}
			out[i] = ev
		}
		return out
	}
}

func rsvpReflected(eventID, userID string, r models.RSVP) feed.Reflected[models.Event] {
	return func(snapshot []models.Event) bool {
		for _, ev := range snapshot {
			if ev.ID == eventID {
				return ev.RSVP[userID] == r
			}
		}
		return true
	}
}
