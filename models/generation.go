package models

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JSONBMap is a custom type for PostgreSQL JSONB columns that maps to map[string]interface{}
type JSONBMap map[string]interface{}

// Value implements driver.Valuer interface
func (j JSONBMap) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner interface
func (j *JSONBMap) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSONBMap)
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*j = make(JSONBMap)
		return nil
	}

	if len(bytes) == 0 {
		*j = make(JSONBMap)
		return nil
	}

	result := make(JSONBMap)
	if err := json.Unmarshal(bytes, &result); err != nil {
		return err
	}
	*j = result
	return nil
}

// GenerationStatus tracks the outcome of a generation session
type GenerationStatus string

const (
	GenerationStatusPending        GenerationStatus = "pending"
	GenerationStatusSuccess        GenerationStatus = "success"
	GenerationStatusPartialSuccess GenerationStatus = "partial_success"
	GenerationStatusError          GenerationStatus = "error"
	GenerationStatusFatal          GenerationStatus = "fatal"
)

// GenerationSession records one workbook generation run end to end
type GenerationSession struct {
	ID            uuid.UUID        `json:"id" db:"id"`
	Identifier    string           `json:"identifier" db:"identifier"`
	Customer      string           `json:"customer" db:"customer"`
	TemplatePath  string           `json:"template_path" db:"template_path"`
	OutputPath    string           `json:"output_path" db:"output_path"`
	DAFMode       bool             `json:"daf_mode" db:"daf_mode"`
	CustomMode    bool             `json:"custom_mode" db:"custom_mode"`
	Status        GenerationStatus `json:"status" db:"status"`
	SheetsTotal   int              `json:"sheets_total" db:"sheets_total"`
	SheetsWritten int              `json:"sheets_written" db:"sheets_written"`
	DurationMS    int64            `json:"duration_ms" db:"duration_ms"`
	Error         sql.NullString   `json:"error,omitempty" db:"error_message"`
	Metadata      JSONBMap         `json:"metadata" db:"metadata"`
	StartedAt     time.Time        `json:"started_at" db:"started_at"`
	CompletedAt   *time.Time       `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at" db:"updated_at"`
	mu            sync.RWMutex
}

// NewGenerationSession creates a pending session for one invoice identifier
func NewGenerationSession(id uuid.UUID, identifier, customer string, metadata map[string]interface{}) *GenerationSession {
	now := time.Now()
	jsonbMetadata := JSONBMap(metadata)
	if jsonbMetadata == nil {
		jsonbMetadata = make(JSONBMap)
	}
	return &GenerationSession{
		ID:         id,
		Identifier: identifier,
		Customer:   customer,
		Status:     GenerationStatusPending,
		Metadata:   jsonbMetadata,
		StartedAt:  now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// RecordSheet counts one finished sheet toward the session total
func (s *GenerationSession) RecordSheet(succeeded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.SheetsTotal++
	if succeeded {
		s.SheetsWritten++
	}
}

// Finish stamps the terminal status and completion time
func (s *GenerationSession) Finish(status GenerationStatus, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Status = status
	if err != nil {
		s.Error = sql.NullString{String: err.Error(), Valid: true}
	}
	now := time.Now()
	s.CompletedAt = &now
	s.DurationMS = now.Sub(s.StartedAt).Milliseconds()
	s.UpdatedAt = now
}

// Outcome derives the terminal status from per-sheet results
func (s *GenerationSession) Outcome() GenerationStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch {
	case s.SheetsTotal == 0:
		return GenerationStatusError
	case s.SheetsWritten == s.SheetsTotal:
		return GenerationStatusSuccess
	case s.SheetsWritten > 0:
		return GenerationStatusPartialSuccess
	default:
		return GenerationStatusError
	}
}

// GenerationSheet records one sheet's outcome within a session
type GenerationSheet struct {
	ID          uuid.UUID      `json:"id" db:"id"`
	SessionID   uuid.UUID      `json:"session_id" db:"session_id"`
	SheetName   string         `json:"sheet_name" db:"sheet_name"`
	Succeeded   bool           `json:"succeeded" db:"succeeded"`
	RowsWritten int            `json:"rows_written" db:"rows_written"`
	Tables      int            `json:"tables" db:"tables"`
	DurationMS  int64          `json:"duration_ms" db:"duration_ms"`
	Error       sql.NullString `json:"error,omitempty" db:"error_message"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
}
