package store

import (
	"context"
	"time"
)

type AuditStore struct {
	db DB
}

type AuditLog struct {
	ID          string    `db:"id"`
	ActorUserID *string   `db:"actor_user_id"`
	Action      string    `db:"action"`
	EntityType  string    `db:"entity_type"`
	EntityID    string    `db:"entity_id"`
	Data        string    `db:"data"`
	CreatedAt   time.Time `db:"created_at"`
}

func NewAuditStore(db DB) *AuditStore {
	return &AuditStore{db: db}
}

func (s *AuditStore) Log(ctx context.Context, tx Execer, actorID, action, entityType, entityID, data string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO audit_logs (id, actor_user_id, action, entity_type, entity_id, data)
		VALUES (gen_random_uuid()::text, $1, $2, $3, $4, $5)
	`, actorID, action, entityType, entityID, data)
	return err
}

// ListByActor returns the actor's most recent audit entries.
func (s *AuditStore) ListByActor(ctx context.Context, actorID string, limit int) ([]AuditLog, error) {
	var rows []AuditLog
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, actor_user_id, action, entity_type, entity_id, data, created_at
		FROM audit_logs
		WHERE actor_user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, actorID, limit)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
