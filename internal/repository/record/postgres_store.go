package record

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"leadform/internal/lead"
)

// PostgresStore writes responses and leads over database/sql with the pgx
// driver.
type PostgresStore struct {
	db *sql.DB

	schemaOnce sync.Once
	schemaErr  error
}

func NewPostgres(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

// NewPostgresFromDB shares an existing connection pool.
func NewPostgresFromDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS responses (
  id TEXT PRIMARY KEY,
  questionnaire_id TEXT NOT NULL,
  answers JSONB NOT NULL DEFAULT '{}',
  submitted_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_responses_questionnaire_id ON responses (questionnaire_id);

CREATE TABLE IF NOT EXISTS leads (
  id TEXT PRIMARY KEY,
  questionnaire_id TEXT NOT NULL,
  client_name TEXT NOT NULL DEFAULT '',
  email TEXT NOT NULL DEFAULT '',
  phone TEXT NOT NULL DEFAULT '',
  channel TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'new',
  partner TEXT NOT NULL DEFAULT '',
  sub_status TEXT NOT NULL DEFAULT '',
  answers JSONB NOT NULL DEFAULT '{}',
  created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_leads_questionnaire_id ON leads (questionnaire_id);
CREATE INDEX IF NOT EXISTS idx_leads_status ON leads (status);
`)
	})
	return s.schemaErr
}

func (s *PostgresStore) CreateResponse(ctx context.Context, questionnaireID string, answers map[string]any, submittedAt time.Time) (string, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return "", err
	}
	raw, err := json.Marshal(answers)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx, `
INSERT INTO responses (id, questionnaire_id, answers, submitted_at)
VALUES ($1, $2, $3, $4)`,
		id, questionnaireID, raw, submittedAt)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *PostgresStore) CreateLead(ctx context.Context, l lead.Lead) (string, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return "", err
	}
	raw, err := json.Marshal(l.Answers)
	if err != nil {
		return "", err
	}
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO leads (id, questionnaire_id, client_name, email, phone, channel, status, partner, sub_status, answers, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		l.ID, l.QuestionnaireID, l.ClientName, l.Email, l.Phone, l.Channel,
		l.Status, l.Partner, l.SubStatus, raw, l.CreatedAt)
	if err != nil {
		return "", err
	}
	return l.ID, nil
}
