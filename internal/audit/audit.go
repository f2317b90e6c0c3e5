package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// Entry describes one state-changing action for the activity log.
type Entry struct {
	Actor       string
	Action      string
	Resource    string
	Description string
	Metadata    map[string]any
}

// Recorder writes activity-log entries. Recording is best-effort: a failed
// write must never fail or roll back the operation being recorded.
type Recorder interface {
	Record(ctx context.Context, entry Entry)
}

type postgresRecorder struct {
	db *pgxpool.Pool
}

func NewRecorder(db *pgxpool.Pool) Recorder {
	return &postgresRecorder{db: db}
}

func (r *postgresRecorder) Record(ctx context.Context, entry Entry) {
	id, err := uuid.NewV4()
	if err != nil {
		log.Error().Err(err).Msg("audit: failed to generate entry ID")
		return
	}

	metadata := entry.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		log.Error().Err(err).Str("action", entry.Action).Msg("audit: failed to marshal metadata")
		metadataJSON = []byte("{}")
	}

	query := `
		INSERT INTO activity_logs (id, actor, action, resource, description, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.db.Exec(ctx, query,
		id,
		entry.Actor,
		entry.Action,
		entry.Resource,
		entry.Description,
		metadataJSON,
		time.Now().UTC(),
	)
	if err != nil {
		log.Error().Err(err).
			Str("action", entry.Action).
			Str("resource", entry.Resource).
			Msg("audit: failed to write activity log entry")
	}
}

// Noop discards every entry. Used where no activity log is configured.
type Noop struct{}

func (Noop) Record(ctx context.Context, entry Entry) {}
