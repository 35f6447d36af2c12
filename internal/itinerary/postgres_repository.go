package itinerary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
// Documents are stored as JSONB.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL itinerary repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Get retrieves an itinerary record by ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Record, error) {
	query := `
		SELECT id, title, document, created_at, updated_at
		FROM itineraries
		WHERE id = $1
	`

	var rec Record
	var doc []byte
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&rec.ID,
		&rec.Title,
		&doc,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItineraryNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(doc, &rec.Document); err != nil {
		return nil, fmt.Errorf("decode itinerary document %s: %w", id, err)
	}

	return &rec, nil
}

// List retrieves itinerary records, newest first.
func (r *PostgresRepository) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	// Fetch one extra to determine if there are more results
	fetchLimit := limit + 1

	query := `
		SELECT id, title, document, created_at, updated_at
		FROM itineraries
		WHERE ($1 = '' OR id < $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, opts.Cursor, fetchLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		var rec Record
		var doc []byte
		if err := rows.Scan(&rec.ID, &rec.Title, &doc, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(doc, &rec.Document); err != nil {
			return nil, fmt.Errorf("decode itinerary document %s: %w", rec.ID, err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := &ListResult{Items: records}
	if len(records) > limit {
		result.Items = records[:limit]
		result.NextCursor = records[limit-1].ID
	}

	return result, nil
}

// Create stores a new itinerary record.
func (r *PostgresRepository) Create(ctx context.Context, rec *Record) error {
	doc, err := json.Marshal(rec.Document)
	if err != nil {
		return fmt.Errorf("encode itinerary document: %w", err)
	}

	query := `
		INSERT INTO itineraries (id, title, document, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err = r.pool.Exec(ctx, query, rec.ID, rec.Title, doc, rec.CreatedAt, rec.UpdatedAt)
	return err
}

// Update replaces the document and title of an existing record.
func (r *PostgresRepository) Update(ctx context.Context, rec *Record) error {
	doc, err := json.Marshal(rec.Document)
	if err != nil {
		return fmt.Errorf("encode itinerary document: %w", err)
	}

	query := `
		UPDATE itineraries SET
			title = $2,
			document = $3,
			updated_at = $4
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, rec.ID, rec.Title, doc, rec.UpdatedAt)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrItineraryNotFound
	}

	return nil
}

// Delete removes an itinerary record by ID.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM itineraries WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

// IDs returns the IDs of all stored itineraries.
func (r *PostgresRepository) IDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM itineraries ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
