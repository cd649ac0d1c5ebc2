package infrastructure

import (
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yourusername/youtubify-go/internal/domain"
)

// GormJobRepository implements domain.JobRepository on top of gorm
type GormJobRepository struct {
	db *gorm.DB
}

// NewJobRepository opens the configured store and migrates the job table
func NewJobRepository(config *domain.StoreConfig) (*GormJobRepository, error) {
	var dialector gorm.Dialector
	switch config.Driver {
	case "", "sqlite":
		dialector = sqlite.Open(config.DSN)
	case "postgres":
		dialector = postgres.Open(config.DSN)
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", config.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&domain.JobRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &GormJobRepository{db: db}, nil
}

// Save inserts or updates a job record
func (r *GormJobRepository) Save(record *domain.JobRecord) error {
	return r.db.Save(record).Error
}

// FindByID finds a job record by ID. It returns nil when the job is unknown.
func (r *GormJobRepository) FindByID(id string) (*domain.JobRecord, error) {
	var record domain.JobRecord
	err := r.db.First(&record, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// FindAll finds job records matching filter, newest first
func (r *GormJobRepository) FindAll(filter domain.JobFilter) ([]*domain.JobRecord, error) {
	var records []*domain.JobRecord
	query := r.db.Model(&domain.JobRecord{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}

	err := query.Order("created_at DESC").Find(&records).Error
	return records, err
}

// GetStats returns job counts per status
func (r *GormJobRepository) GetStats() (*domain.JobStats, error) {
	stats := &domain.JobStats{}

	if err := r.db.Model(&domain.JobRecord{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	statusCounts := []struct {
		Status domain.JobStatus
		Count  int64
	}{}

	if err := r.db.Model(&domain.JobRecord{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		return nil, err
	}

	for _, sc := range statusCounts {
		switch sc.Status {
		case domain.StatusIdle:
			stats.Idle = sc.Count
		case domain.StatusValidating:
			stats.Validating = sc.Count
		case domain.StatusFetching:
			stats.Fetching = sc.Count
		case domain.StatusDownloading:
			stats.Downloading = sc.Count
		case domain.StatusPostProcessing:
			stats.PostProcessing = sc.Count
		case domain.StatusCompleted:
			stats.Completed = sc.Count
		case domain.StatusFailed:
			stats.Failed = sc.Count
		}
	}

	return stats, nil
}

// Close closes the database connection
func (r *GormJobRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
