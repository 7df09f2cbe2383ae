package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeTextarea FieldType = "textarea"
	FieldTypeSelect   FieldType = "select"
	FieldTypeDate     FieldType = "date"
	FieldTypeNumber   FieldType = "number"
	FieldTypeCheckbox FieldType = "checkbox"
)

// FormField describes one intake-form input. Name is the machine key under
// which client records store the value; renaming it orphans previously
// stored data, so a name change is a deliberate operation, never an
// incidental label edit.
type FormField struct {
	Name     string    `json:"name"`
	Label    string    `json:"label"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required"`
	// Enabled is a pointer because configurations written before the flag
	// existed omit it entirely; an absent value means enabled.
	Enabled *bool    `json:"enabled,omitempty"`
	Options []string `json:"options,omitempty"`
}

// IsEnabled treats an absent enabled flag as true.
func (f FormField) IsEnabled() bool {
	return f.Enabled == nil || *f.Enabled
}

type FormSection struct {
	Name    string      `json:"name"`
	Enabled bool        `json:"enabled"`
	Fields  []FormField `json:"fields"`
}

// FormSchema is the ordered document driving intake-form rendering. It is
// stored as one opaque jsonb value and replaced atomically on save.
type FormSchema []FormSection

func (s FormSchema) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

func (s *FormSchema) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("failed to unmarshal form schema value: %v", value)
	}

	if len(bytes) == 0 {
		*s = FormSchema{}
		return nil
	}

	var sections []FormSection
	if err := json.Unmarshal(bytes, &sections); err != nil {
		return err
	}
	*s = FormSchema(sections)
	return nil
}

type FormConfiguration struct {
	ID             string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	OrganizationID string     `gorm:"type:varchar(36);not null;uniqueIndex" json:"organization_id"`
	Config         FormSchema `gorm:"type:jsonb" json:"config"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (fc *FormConfiguration) BeforeCreate(tx *gorm.DB) error {
	if fc.ID == "" {
		fc.ID = uuid.New().String()
	}
	return nil
}

func (fc *FormConfiguration) TableName() string {
	return "form_configurations"
}
