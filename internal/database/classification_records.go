package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/parakeep/organizer/internal/models"
)

// ClassificationRecordRepository handles classification audit database operations
type ClassificationRecordRepository struct {
	db *DB
}

// NewClassificationRecordRepository creates a new classification record repository
func NewClassificationRecordRepository(db *DB) *ClassificationRecordRepository {
	return &ClassificationRecordRepository{db: db}
}

// Create persists one classification decision as an audit row
func (r *ClassificationRecordRepository) Create(ctx context.Context, record *models.ClassificationRecord) error {
	query := `
		INSERT INTO classification_records (id, note_path, category, folder_name, confidence, method, reasoning, semantic_score, llm_score, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	err := r.db.QueryRowContext(ctx, query,
		record.ID,
		record.NotePath,
		record.Category,
		record.FolderName,
		record.Confidence,
		record.Method,
		record.Reasoning,
		record.SemanticScore,
		record.LLMScore,
		time.Now(),
	).Scan(&record.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create classification record: %w", err)
	}

	return nil
}

// GetByID retrieves a classification record by ID
func (r *ClassificationRecordRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ClassificationRecord, error) {
	record := &models.ClassificationRecord{}

	query := `
		SELECT id, note_path, category, folder_name, confidence, method, reasoning, semantic_score, llm_score, created_at
		FROM classification_records
		WHERE id = $1
	`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&record.ID,
		&record.NotePath,
		&record.Category,
		&record.FolderName,
		&record.Confidence,
		&record.Method,
		&record.Reasoning,
		&record.SemanticScore,
		&record.LLMScore,
		&record.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("classification record not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get classification record: %w", err)
	}

	return record, nil
}

// GetLatestByNotePath retrieves the most recent decision recorded for a note
func (r *ClassificationRecordRepository) GetLatestByNotePath(ctx context.Context, notePath string) (*models.ClassificationRecord, error) {
	record := &models.ClassificationRecord{}

	query := `
		SELECT id, note_path, category, folder_name, confidence, method, reasoning, semantic_score, llm_score, created_at
		FROM classification_records
		WHERE note_path = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	err := r.db.QueryRowContext(ctx, query, notePath).Scan(
		&record.ID,
		&record.NotePath,
		&record.Category,
		&record.FolderName,
		&record.Confidence,
		&record.Method,
		&record.Reasoning,
		&record.SemanticScore,
		&record.LLMScore,
		&record.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("no classification recorded for %s", notePath)
		}
		return nil, fmt.Errorf("failed to get classification record: %w", err)
	}

	return record, nil
}

// ListPaginated retrieves classification records ordered newest first,
// returning the requested page and the total row count
func (r *ClassificationRecordRepository) ListPaginated(ctx context.Context, page, pageSize int) ([]*models.ClassificationRecord, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM classification_records`
	if err := r.db.QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count classification records: %w", err)
	}

	query := `
		SELECT id, note_path, category, folder_name, confidence, method, reasoning, semantic_score, llm_score, created_at
		FROM classification_records
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list classification records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*models.ClassificationRecord
	for rows.Next() {
		record := &models.ClassificationRecord{}
		err := rows.Scan(
			&record.ID,
			&record.NotePath,
			&record.Category,
			&record.FolderName,
			&record.Confidence,
			&record.Method,
			&record.Reasoning,
			&record.SemanticScore,
			&record.LLMScore,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan classification record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate classification records: %w", err)
	}

	return records, total, nil
}
