package domain

// ConversionRepository defines the interface for conversion persistence
type ConversionRepository interface {
	// Create creates a new conversion
	Create(conversion *Conversion) error

	// Update updates an existing conversion
	Update(conversion *Conversion) error

	// Delete deletes a conversion by ID
	Delete(id string) error

	// FindByID finds a conversion by ID
	FindByID(id string) (*Conversion, error)

	// FindByStatus finds conversions by status
	FindByStatus(status ConversionStatus) ([]*Conversion, error)

	// FindPending finds all queued conversions ordered by creation time
	FindPending() ([]*Conversion, error)

	// FindAll finds all conversions with optional filters
	FindAll(filters map[string]interface{}) ([]*Conversion, error)

	// CountByStatus returns the number of conversions by status
	CountByStatus(status ConversionStatus) (int64, error)

	// ResetOrphanedProcessing re-queues rows left processing by a previous
	// run and returns how many were reset
	ResetOrphanedProcessing() (int64, error)

	// GetStats returns conversion statistics
	GetStats() (*ConversionStats, error)
}
