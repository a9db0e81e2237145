package gallery

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PG implements Querier on a pgx connection pool.
type PG struct {
	pool *pgxpool.Pool
}

// NewPG wraps a connection pool.
func NewPG(pool *pgxpool.Pool) *PG {
	return &PG{pool: pool}
}

// InsertCreation writes the creation and, when present, its stats row in
// one transaction.
func (p *PG) InsertCreation(ctx context.Context, row Row) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO creations (id, owner_id, intent, prompt_state, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		row.ID, row.OwnerID, row.Intent, row.PromptState, row.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert creation row: %w", err)
	}

	if row.Stats != nil {
		_, err = tx.Exec(ctx, `
			INSERT INTO creation_stats
				(creation_id, total_questions, total_edits, time_spent,
				 variables_used, creativity_score, prompt_length)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			row.Stats.CreationID, row.Stats.TotalQuestions, row.Stats.TotalEdits,
			row.Stats.TimeSpent, row.Stats.VariablesUsed,
			row.Stats.CreativityScore, row.Stats.PromptLength)
		if err != nil {
			return fmt.Errorf("insert stats row: %w", err)
		}
	}

	return tx.Commit(ctx)
}

const selectColumns = `
	c.id, c.owner_id, c.intent, c.prompt_state, c.created_at,
	s.creation_id, s.total_questions, s.total_edits, s.time_spent,
	s.variables_used, s.creativity_score, s.prompt_length`

// GetCreation loads one creation with its stats left-joined.
func (p *PG) GetCreation(ctx context.Context, owner, id uuid.UUID) (Row, error) {
	sqlRow := p.pool.QueryRow(ctx, `
		SELECT `+selectColumns+`
		FROM creations c
		LEFT JOIN creation_stats s ON s.creation_id = c.id
		WHERE c.owner_id = $1 AND c.id = $2`, owner, id)

	row, err := scanRow(sqlRow)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Row{}, ErrNotFound
		}
		return Row{}, fmt.Errorf("get creation: %w", err)
	}
	return row, nil
}

// ListCreations loads all of an owner's creations, newest first.
func (p *PG) ListCreations(ctx context.Context, owner uuid.UUID) ([]Row, error) {
	sqlRows, err := p.pool.Query(ctx, `
		SELECT `+selectColumns+`
		FROM creations c
		LEFT JOIN creation_stats s ON s.creation_id = c.id
		WHERE c.owner_id = $1
		ORDER BY c.created_at DESC`, owner)
	if err != nil {
		return nil, fmt.Errorf("list creations: %w", err)
	}
	defer sqlRows.Close()

	var rows []Row
	for sqlRows.Next() {
		row, err := scanRow(sqlRows)
		if err != nil {
			return nil, fmt.Errorf("scan creation: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, sqlRows.Err()
}

// DeleteCreation removes a creation scoped to its owner, returning the
// affected row count. creation_stats cascades.
func (p *PG) DeleteCreation(ctx context.Context, owner, id uuid.UUID) (int64, error) {
	tag, err := p.pool.Exec(ctx,
		`DELETE FROM creations WHERE owner_id = $1 AND id = $2`, owner, id)
	if err != nil {
		return 0, fmt.Errorf("delete creation: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanRow(src pgx.Row) (Row, error) {
	var (
		row   Row
		stats StatsRow

		statsID         *uuid.UUID
		totalQuestions  *int
		totalEdits      *int
		timeSpent       *int
		variablesUsed   []string
		creativityScore *int
		promptLength    *int
	)
	err := src.Scan(
		&row.ID, &row.OwnerID, &row.Intent, &row.PromptState, &row.CreatedAt,
		&statsID, &totalQuestions, &totalEdits, &timeSpent,
		&variablesUsed, &creativityScore, &promptLength)
	if err != nil {
		return Row{}, err
	}

	if statsID != nil {
		stats = StatsRow{
			CreationID:      *statsID,
			TotalQuestions:  *totalQuestions,
			TotalEdits:      *totalEdits,
			TimeSpent:       *timeSpent,
			VariablesUsed:   variablesUsed,
			CreativityScore: *creativityScore,
			PromptLength:    *promptLength,
		}
		row.Stats = &stats
	}
	return row, nil
}
