// Package audit records who changed what. Recording is best effort: it runs after the
// primary transaction commits and its failures are logged, never returned.
package audit

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"garage-backend/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const defaultActor = "system"

type actorKey struct{}

// Event describes one mutation. Before and After are marshalled to JSON as given.
type Event struct {
	Actor    string
	Action   string
	Entity   string
	EntityID string
	Before   any
	After    any
}

// Sink accepts audit events.
type Sink interface {
	Record(ctx context.Context, event Event)
}

// Appender persists audit rows.
type Appender interface {
	Append(ctx context.Context, entry *models.AuditLog) error
}

type Recorder struct {
	repo  Appender
	log   *zap.Logger
	clock func() time.Time
}

func NewRecorder(repo Appender, log *zap.Logger) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{repo: repo, log: log, clock: time.Now}
}

// Record writes the event. A cancelled request context does not stop the write.
func (r *Recorder) Record(ctx context.Context, event Event) {
	if r == nil || r.repo == nil {
		return
	}

	actor := strings.TrimSpace(event.Actor)
	if actor == "" {
		actor = ActorFromContext(ctx)
	}
	entry := &models.AuditLog{
		ID:        uuid.New(),
		Actor:     actor,
		Action:    event.Action,
		Entity:    event.Entity,
		EntityID:  event.EntityID,
		Before:    r.encode(event.Before, event),
		After:     r.encode(event.After, event),
		CreatedAt: r.clock().UTC(),
	}

	if err := r.repo.Append(context.WithoutCancel(ctx), entry); err != nil {
		r.log.Warn("audit log append failed",
			zap.String("action", event.Action),
			zap.String("entity", event.Entity),
			zap.String("entity_id", event.EntityID),
			zap.Error(err),
		)
	}
}

func (r *Recorder) encode(v any, event Event) datatypes.JSON {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		r.log.Warn("audit payload not encodable", zap.String("action", event.Action), zap.Error(err))
		return nil
	}
	return datatypes.JSON(raw)
}

// WithActor attaches the acting user to ctx.
func WithActor(ctx context.Context, actor string) context.Context {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return ctx
	}
	return context.WithValue(ctx, actorKey{}, actor)
}

func ActorFromContext(ctx context.Context) string {
	if actor, ok := ctx.Value(actorKey{}).(string); ok && actor != "" {
		return actor
	}
	return defaultActor
}

// Nop discards events.
type Nop struct{}

func (Nop) Record(context.Context, Event) {}
