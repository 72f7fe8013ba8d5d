package database

import (
	"context"

	"github.com/google/uuid"

	"github.com/parakeep/organizer/internal/models"
)

// ClassificationRecordRepositoryInterface defines the interface for classification audit operations
// This interface enables better testability by allowing mock implementations
type ClassificationRecordRepositoryInterface interface {
	Create(ctx context.Context, record *models.ClassificationRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ClassificationRecord, error)
	GetLatestByNotePath(ctx context.Context, notePath string) (*models.ClassificationRecord, error)
	ListPaginated(ctx context.Context, page, pageSize int) ([]*models.ClassificationRecord, int, error)
}

// VaultStatisticsRepositoryInterface defines the interface for vault statistics operations
type VaultStatisticsRepositoryInterface interface {
	GetByVaultRoot(ctx context.Context, vaultRoot string) (*models.VaultStatistics, error)
	GetByVaultRootOrCreate(ctx context.Context, vaultRoot string) (*models.VaultStatistics, error)
	UpdateStatistics(ctx context.Context, stats *models.VaultStatistics) (bool, error)
	MarkTainted(ctx context.Context, vaultRoot string) (bool, error)
	Upsert(ctx context.Context, stats *models.VaultStatistics) error
}

// Ensure concrete types implement the interfaces
var (
	_ ClassificationRecordRepositoryInterface = (*ClassificationRecordRepository)(nil)
	_ VaultStatisticsRepositoryInterface      = (*VaultStatisticsRepository)(nil)
)
