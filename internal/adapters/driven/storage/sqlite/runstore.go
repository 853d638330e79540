package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/auditrag/internal/core/domain"
	"github.com/custodia-labs/auditrag/internal/core/ports/driven"
)

// runStore implements driven.RunStore.
type runStore struct {
	store *Store
}

var _ driven.RunStore = (*runStore)(nil)

// Save stores a run, replacing any run with the same ID.
func (s *runStore) Save(ctx context.Context, run *domain.Run) error {
	if run == nil || run.ID == "" {
		return fmt.Errorf("%w: run id is required", domain.ErrInvalidInput)
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, table := range []string{"run_answers", "run_questions", "runs"} {
		col := "run_id"
		if table == "runs" {
			col = "id"
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE "+col+" = ?", run.ID); err != nil {
			return fmt.Errorf("clearing previous run: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, report_title, report_uri, llm_model, embedding_model,
			chunk_count, analysis_text, verdict, created_at, duration_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.ReportTitle, run.ReportURI, run.LLMModel, run.EmbeddingModel,
		run.ChunkCount, run.Decision.AnalysisText, run.Decision.Verdict,
		run.CreatedAt.UnixNano(), int64(run.Duration),
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	for i, q := range run.Questions {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO run_questions (run_id, position, question) VALUES (?, ?, ?)",
			run.ID, i, q,
		); err != nil {
			return fmt.Errorf("inserting question %d: %w", i, err)
		}
	}

	for i, a := range run.Answers {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO run_answers (run_id, position, question, answer) VALUES (?, ?, ?, ?)",
			run.ID, i, a.Question, a.Text,
		); err != nil {
			return fmt.Errorf("inserting answer %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing run: %w", err)
	}
	return nil
}

// Get retrieves a run by ID.
func (s *runStore) Get(ctx context.Context, id string) (*domain.Run, error) {
	var (
		run       domain.Run
		createdAt int64
		duration  int64
	)
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, report_title, report_uri, llm_model, embedding_model,
			chunk_count, analysis_text, verdict, created_at, duration_ns
		FROM runs WHERE id = ?`, id)
	err := row.Scan(&run.ID, &run.ReportTitle, &run.ReportURI, &run.LLMModel, &run.EmbeddingModel,
		&run.ChunkCount, &run.Decision.AnalysisText, &run.Decision.Verdict, &createdAt, &duration)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying run: %w", err)
	}
	run.CreatedAt = time.Unix(0, createdAt).UTC()
	run.Duration = time.Duration(duration)

	if run.Questions, err = s.questions(ctx, id); err != nil {
		return nil, err
	}
	if run.Answers, err = s.answers(ctx, id); err != nil {
		return nil, err
	}
	return &run, nil
}

func (s *runStore) questions(ctx context.Context, id string) ([]string, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT question FROM run_questions WHERE run_id = ? ORDER BY position", id)
	if err != nil {
		return nil, fmt.Errorf("querying questions: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, fmt.Errorf("scanning question: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *runStore) answers(ctx context.Context, id string) ([]domain.Answer, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT question, answer FROM run_answers WHERE run_id = ? ORDER BY position", id)
	if err != nil {
		return nil, fmt.Errorf("querying answers: %w", err)
	}
	defer rows.Close()

	var out []domain.Answer
	for rows.Next() {
		var a domain.Answer
		if err := rows.Scan(&a.Question, &a.Text); err != nil {
			return nil, fmt.Errorf("scanning answer: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// List returns run summaries, newest first.
func (s *runStore) List(ctx context.Context, limit int) ([]domain.RunSummary, error) {
	query := `
		SELECT r.id, r.report_title, r.report_uri, r.created_at,
			(SELECT COUNT(*) FROM run_answers a WHERE a.run_id = r.id)
		FROM runs r
		ORDER BY r.created_at DESC, r.id ASC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	summaries := []domain.RunSummary{}
	for rows.Next() {
		var (
			sum       domain.RunSummary
			createdAt int64
		)
		if err := rows.Scan(&sum.ID, &sum.ReportTitle, &sum.ReportURI, &createdAt, &sum.Questions); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		sum.CreatedAt = time.Unix(0, createdAt).UTC()
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// Delete removes a run. Questions and answers cascade.
func (s *runStore) Delete(ctx context.Context, id string) error {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting run: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
