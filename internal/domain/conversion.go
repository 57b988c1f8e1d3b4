package domain

import (
	"time"

	"github.com/google/uuid"
)

// ConversionStatus represents the current status of a conversion
type ConversionStatus string

const (
	StatusQueued     ConversionStatus = "queued"
	StatusProcessing ConversionStatus = "processing"
	StatusCompleted  ConversionStatus = "completed"
	StatusFailed     ConversionStatus = "failed"
	StatusCancelled  ConversionStatus = "cancelled"
)

// Conversion represents a single file conversion job
type Conversion struct {
	ID           string           `json:"id" gorm:"primaryKey"`
	InputPath    string           `json:"input_path" gorm:"not null"`
	InputExt     string           `json:"input_ext" gorm:"not null"`
	OutputFormat string           `json:"output_format" gorm:"not null"`
	OutputDir    string           `json:"output_dir,omitempty"`
	Engine       string           `json:"engine" gorm:"not null;index"`
	Status       ConversionStatus `json:"status" gorm:"not null;index"`
	RetryCount   int              `json:"retry_count" gorm:"default:0"`
	ErrorMessage string           `json:"error_message,omitempty"`
	OutputPath   string           `json:"output_path,omitempty"`
	ProcessLog   string           `json:"process_log,omitempty" gorm:"type:text"`
	CreatedAt    time.Time        `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time        `json:"updated_at" gorm:"autoUpdateTime"`
	StartedAt    *time.Time       `json:"started_at,omitempty"`
	CompletedAt  *time.Time       `json:"completed_at,omitempty"`
}

// NewConversion creates a queued conversion for the given input and target
// format, routed through the named engine
func NewConversion(inputPath, inputExt, outputFormat, outputDir, engine string) *Conversion {
	return &Conversion{
		ID:           uuid.New().String(),
		InputPath:    inputPath,
		InputExt:     NormalizeExtension(inputExt),
		OutputFormat: NormalizeExtension(outputFormat),
		OutputDir:    outputDir,
		Engine:       engine,
		Status:       StatusQueued,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
}

// MarkProcessing marks the conversion as processing
func (c *Conversion) MarkProcessing() {
	c.Status = StatusProcessing
	now := time.Now()
	c.StartedAt = &now
	c.UpdatedAt = now
}

// MarkCompleted marks the conversion as completed
func (c *Conversion) MarkCompleted(outputPath string) {
	c.Status = StatusCompleted
	c.OutputPath = outputPath
	now := time.Now()
	c.CompletedAt = &now
	c.UpdatedAt = now
}

// MarkFailed marks the conversion as failed
func (c *Conversion) MarkFailed(err error) {
	c.Status = StatusFailed
	c.ErrorMessage = err.Error()
	c.UpdatedAt = time.Now()
}

// IncrementRetry increments the retry count
func (c *Conversion) IncrementRetry() {
	c.RetryCount++
	c.UpdatedAt = time.Now()
}

// IsTerminal checks if the conversion is in a terminal state
func (c *Conversion) IsTerminal() bool {
	return c.Status == StatusCompleted || c.Status == StatusCancelled
}

// IsPending checks if the conversion is waiting in the queue
func (c *Conversion) IsPending() bool {
	return c.Status == StatusQueued
}

// ConversionStats represents conversion queue statistics
type ConversionStats struct {
	Total      int64 `json:"total"`
	Queued     int64 `json:"queued"`
	Processing int64 `json:"processing"`
	Completed  int64 `json:"completed"`
	Failed     int64 `json:"failed"`
	Cancelled  int64 `json:"cancelled"`
}
