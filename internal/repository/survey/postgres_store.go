package survey

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"

	"leadform/internal/question"
)

// PostgresStore reads the authoring schema over database/sql with the pgx
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

func (s *PostgresStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS questionnaires (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL DEFAULT '',
  token TEXT NOT NULL DEFAULT '',
  title TEXT NOT NULL DEFAULT '',
  description TEXT NOT NULL DEFAULT '',
  language TEXT NOT NULL DEFAULT '',
  show_logo BOOLEAN NOT NULL DEFAULT TRUE,
  show_profile_image BOOLEAN NOT NULL DEFAULT TRUE,
  link_url TEXT NOT NULL DEFAULT '',
  file_url TEXT NOT NULL DEFAULT ''
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_questionnaires_token ON questionnaires (token) WHERE token <> '';

CREATE TABLE IF NOT EXISTS questions (
  id TEXT PRIMARY KEY,
  questionnaire_id TEXT NOT NULL,
  text TEXT NOT NULL DEFAULT '',
  kind TEXT NOT NULL DEFAULT 'text',
  required BOOLEAN NOT NULL DEFAULT FALSE,
  min_value INT NOT NULL DEFAULT 0,
  max_value INT NOT NULL DEFAULT 0,
  position INT NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_questions_questionnaire_id ON questions (questionnaire_id);

CREATE TABLE IF NOT EXISTS question_options (
  id TEXT PRIMARY KEY,
  question_id TEXT NOT NULL,
  label TEXT NOT NULL DEFAULT '',
  value TEXT NOT NULL DEFAULT '',
  ord INT NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_question_options_question_id ON question_options (question_id);

CREATE TABLE IF NOT EXISTS distributions (
  token TEXT PRIMARY KEY,
  questionnaire_id TEXT NOT NULL,
  channel TEXT NOT NULL DEFAULT '',
  active BOOLEAN NOT NULL DEFAULT TRUE
);
`)
	})
	return s.schemaErr
}

func (s *PostgresStore) scanQuestionnaire(row *sql.Row) (Questionnaire, error) {
	var q Questionnaire
	err := row.Scan(
		&q.ID, &q.OwnerID, &q.Token, &q.Title, &q.Description, &q.Language,
		&q.ShowLogo, &q.ShowProfileImage, &q.LinkURL, &q.FileURL,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Questionnaire{}, ErrNotFound
	}
	if err != nil {
		return Questionnaire{}, err
	}
	return q, nil
}

const questionnaireColumns = `id, owner_id, token, title, description, language,
show_logo, show_profile_image, link_url, file_url`

func (s *PostgresStore) QuestionnaireByID(ctx context.Context, id string) (Questionnaire, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return Questionnaire{}, err
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT `+questionnaireColumns+` FROM questionnaires WHERE id = $1`,
		strings.TrimSpace(id))
	return s.scanQuestionnaire(row)
}

func (s *PostgresStore) QuestionnaireByToken(ctx context.Context, token string) (Questionnaire, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return Questionnaire{}, err
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT `+questionnaireColumns+` FROM questionnaires WHERE token = $1`,
		strings.TrimSpace(token))
	return s.scanQuestionnaire(row)
}

func (s *PostgresStore) DistributionByToken(ctx context.Context, token string) (Distribution, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return Distribution{}, err
	}
	var d Distribution
	err := s.db.QueryRowContext(ctx,
		`SELECT token, questionnaire_id, channel, active FROM distributions WHERE token = $1`,
		strings.TrimSpace(token)).
		Scan(&d.Token, &d.QuestionnaireID, &d.Channel, &d.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return Distribution{}, ErrNotFound
	}
	if err != nil {
		return Distribution{}, err
	}
	return d, nil
}

func (s *PostgresStore) Questions(ctx context.Context, questionnaireID string) ([]question.Question, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, questionnaire_id, text, kind, required, min_value, max_value, position
FROM questions WHERE questionnaire_id = $1 ORDER BY position`,
		strings.TrimSpace(questionnaireID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []question.Question
	for rows.Next() {
		var q question.Question
		if err := rows.Scan(&q.ID, &q.QuestionnaireID, &q.Text, &q.RawKind,
			&q.Required, &q.Min, &q.Max, &q.Position); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Options(ctx context.Context, questionIDs []string) ([]question.Option, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	if len(questionIDs) == 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, question_id, label, value, ord
FROM question_options WHERE question_id = ANY($1) ORDER BY question_id, ord`,
		questionIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []question.Option
	for rows.Next() {
		var o question.Option
		if err := rows.Scan(&o.ID, &o.QuestionID, &o.Label, &o.Value, &o.Order); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
