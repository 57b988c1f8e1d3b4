package infrastructure

import (
	"fmt"
	"time"

	"github.com/yourusername/convertly-go/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQLiteConversionRepository implements ConversionRepository using SQLite
type SQLiteConversionRepository struct {
	db *gorm.DB
}

// NewSQLiteConversionRepository creates a new SQLite repository
func NewSQLiteConversionRepository(dbPath string) (*SQLiteConversionRepository, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Auto-migrate the conversion schema
	if err := db.AutoMigrate(&domain.Conversion{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteConversionRepository{db: db}, nil
}

// Create creates a new conversion
func (r *SQLiteConversionRepository) Create(conversion *domain.Conversion) error {
	return r.db.Create(conversion).Error
}

// Update updates an existing conversion
func (r *SQLiteConversionRepository) Update(conversion *domain.Conversion) error {
	return r.db.Save(conversion).Error
}

// Delete deletes a conversion by ID
func (r *SQLiteConversionRepository) Delete(id string) error {
	return r.db.Delete(&domain.Conversion{}, "id = ?", id).Error
}

// FindByID finds a conversion by ID
func (r *SQLiteConversionRepository) FindByID(id string) (*domain.Conversion, error) {
	var conversion domain.Conversion
	err := r.db.First(&conversion, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &conversion, nil
}

// FindByStatus finds conversions by status
func (r *SQLiteConversionRepository) FindByStatus(status domain.ConversionStatus) ([]*domain.Conversion, error) {
	var conversions []*domain.Conversion
	err := r.db.Where("status = ?", status).Find(&conversions).Error
	return conversions, err
}

// FindPending finds all queued conversions ordered by creation time
func (r *SQLiteConversionRepository) FindPending() ([]*domain.Conversion, error) {
	var conversions []*domain.Conversion
	err := r.db.Where("status = ?", domain.StatusQueued).
		Order("created_at ASC").
		Find(&conversions).Error
	return conversions, err
}

// FindAll finds all conversions with optional filters
func (r *SQLiteConversionRepository) FindAll(filters map[string]interface{}) ([]*domain.Conversion, error) {
	var conversions []*domain.Conversion
	query := r.db

	for key, value := range filters {
		query = query.Where(fmt.Sprintf("%s = ?", key), value)
	}

	err := query.Order("created_at DESC").Find(&conversions).Error
	return conversions, err
}

// CountByStatus returns the number of conversions by status
func (r *SQLiteConversionRepository) CountByStatus(status domain.ConversionStatus) (int64, error) {
	var count int64
	err := r.db.Model(&domain.Conversion{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

// ResetOrphanedProcessing re-queues conversions left processing by a
// previous run
func (r *SQLiteConversionRepository) ResetOrphanedProcessing() (int64, error) {
	result := r.db.Model(&domain.Conversion{}).
		Where("status = ?", domain.StatusProcessing).
		Updates(map[string]interface{}{
			"status":     domain.StatusQueued,
			"updated_at": time.Now(),
		})
	return result.RowsAffected, result.Error
}

// GetStats returns conversion statistics
func (r *SQLiteConversionRepository) GetStats() (*domain.ConversionStats, error) {
	stats := &domain.ConversionStats{}

	// Get total count
	if err := r.db.Model(&domain.Conversion{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	// Get counts by status
	statusCounts := []struct {
		Status domain.ConversionStatus
		Count  int64
	}{}

	if err := r.db.Model(&domain.Conversion{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		return nil, err
	}

	for _, sc := range statusCounts {
		switch sc.Status {
		case domain.StatusQueued:
			stats.Queued = sc.Count
		case domain.StatusProcessing:
			stats.Processing = sc.Count
		case domain.StatusCompleted:
			stats.Completed = sc.Count
		case domain.StatusFailed:
			stats.Failed = sc.Count
		case domain.StatusCancelled:
			stats.Cancelled = sc.Count
		}
	}

	return stats, nil
}

// Close closes the database connection
func (r *SQLiteConversionRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
