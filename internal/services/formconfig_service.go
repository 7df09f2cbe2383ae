package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/swivelcare/swivel-api/internal/database"
	"github.com/swivelcare/swivel-api/internal/models"
	"github.com/swivelcare/swivel-api/pkg/utils"
)

// FormConfigService persists and serves the organization-scoped intake-form
// schema. Reads fall back to the built-in default so a first-time
// organization gets a usable form with zero setup; a stored schema fully
// replaces the default, never merges with it.
type FormConfigService struct {
	db database.Database
}

func NewFormConfigService(db database.Database) *FormConfigService {
	return &FormConfigService{db: db}
}

// DefaultFormSchema is the schema served until an organization saves its
// own. Section names and ordering are part of the contract with intake-form
// rendering.
func DefaultFormSchema() models.FormSchema {
	return models.FormSchema{
		{
			Name:    "Personal Information",
			Enabled: true,
			Fields: []models.FormField{
				{Name: "first_name", Label: "First Name", Type: models.FieldTypeText, Required: true},
				{Name: "last_name", Label: "Last Name", Type: models.FieldTypeText, Required: true},
				{Name: "date_of_birth", Label: "Date of Birth", Type: models.FieldTypeDate, Required: true},
				{Name: "gender", Label: "Gender", Type: models.FieldTypeSelect, Options: []string{"Male", "Female", "Non-binary", "Prefer not to say"}},
				{Name: "address", Label: "Address", Type: models.FieldTypeTextarea},
				{Name: "phone", Label: "Phone", Type: models.FieldTypeText},
				{Name: "email", Label: "Email", Type: models.FieldTypeText},
				{Name: "emergency_contact", Label: "Emergency Contact", Type: models.FieldTypeText},
			},
		},
		{
			Name:    "Health & Support Information",
			Enabled: true,
			Fields: []models.FormField{
				{Name: "primary_diagnosis", Label: "Primary Diagnosis", Type: models.FieldTypeTextarea},
				{Name: "support_needs", Label: "Support Needs", Type: models.FieldTypeTextarea},
				{Name: "mobility", Label: "Mobility", Type: models.FieldTypeSelect, Options: []string{"Independent", "Requires aid", "Wheelchair", "Bed-bound"}},
				{Name: "medications", Label: "Current Medications", Type: models.FieldTypeTextarea},
				{Name: "allergies", Label: "Allergies", Type: models.FieldTypeTextarea},
			},
		},
		{
			Name:    "Funding Information",
			Enabled: true,
			Fields: []models.FormField{
				{Name: "funding_type", Label: "Funding Type", Type: models.FieldTypeSelect, Required: true, Options: []string{"NDIS", "Home Care Package", "Private", "Other"}},
				{Name: "ndis_number", Label: "NDIS Number", Type: models.FieldTypeText},
				{Name: "plan_start_date", Label: "Plan Start Date", Type: models.FieldTypeDate},
				{Name: "plan_end_date", Label: "Plan End Date", Type: models.FieldTypeDate},
				{Name: "plan_budget", Label: "Plan Budget", Type: models.FieldTypeNumber},
			},
		},
	}
}

// GetConfig returns the stored schema verbatim, or the default when none
// exists. Read failures also degrade to the default: a broken config row
// must not block the intake page.
func (s *FormConfigService) GetConfig(ctx context.Context, orgID string) (models.FormSchema, error) {
	var fc models.FormConfiguration
	err := s.db.DB().WithContext(ctx).Where("organization_id = ?", orgID).First(&fc).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			utils.GetLogger().Error("Form configuration read failed, serving default schema", err, utils.LogFields{
				"organization_id": orgID,
			})
		}
		return DefaultFormSchema(), nil
	}
	return fc.Config, nil
}

// PutConfig validates and upserts the whole schema document keyed by
// organization id. Last writer wins; there is no version token.
func (s *FormConfigService) PutConfig(ctx context.Context, orgID string, schema models.FormSchema) error {
	if err := ValidateSchema(schema); err != nil {
		return err
	}

	fc := models.FormConfiguration{
		OrganizationID: orgID,
		Config:         schema,
	}

	err := s.db.DB().WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "organization_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"config", "updated_at"}),
		}).
		Create(&fc).Error
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfigWriteFailed, err)
	}
	return nil
}

// ValidateSchema enforces well-formedness at the write boundary: non-blank
// section and field names, names unique within a section, and the
// select/options pairing (select fields carry a non-empty options list,
// other types carry none).
func ValidateSchema(schema models.FormSchema) error {
	if len(schema) == 0 {
		return fmt.Errorf("%w: schema has no sections", ErrInvalidSchema)
	}

	for _, section := range schema {
		if strings.TrimSpace(section.Name) == "" {
			return fmt.Errorf("%w: section name is blank", ErrInvalidSchema)
		}

		seen := make(map[string]bool, len(section.Fields))
		for _, field := range section.Fields {
			name := strings.TrimSpace(field.Name)
			if name == "" {
				return fmt.Errorf("%w: field in section %q has a blank name", ErrInvalidSchema, section.Name)
			}
			if seen[name] {
				return fmt.Errorf("%w: duplicate field name %q in section %q", ErrInvalidSchema, name, section.Name)
			}
			seen[name] = true

			if strings.TrimSpace(field.Label) == "" {
				return fmt.Errorf("%w: field %q has a blank label", ErrInvalidSchema, name)
			}

			if field.Type == models.FieldTypeSelect {
				if len(field.Options) == 0 {
					return fmt.Errorf("%w: select field %q has no options", ErrInvalidSchema, name)
				}
			} else if len(field.Options) > 0 {
				return fmt.Errorf("%w: field %q of type %q must not carry options", ErrInvalidSchema, name, field.Type)
			}
		}
	}

	return nil
}

// EffectiveFields flattens a schema to the fields that render: fields of
// enabled sections whose own enabled flag is true or absent, in stored
// order.
func EffectiveFields(schema models.FormSchema) []models.FormField {
	var fields []models.FormField
	for _, section := range schema {
		if !section.Enabled {
			continue
		}
		for _, field := range section.Fields {
			if field.IsEnabled() {
				fields = append(fields, field)
			}
		}
	}
	return fields
}

// ValidateRecord checks intake answers against a schema: required fields
// must be non-blank after trimming, and select values must be one of the
// stored options. Only effective (rendered) fields are checked.
func ValidateRecord(schema models.FormSchema, details models.JSON) error {
	for _, field := range EffectiveFields(schema) {
		raw, present := details[field.Name]

		value := ""
		if present && raw != nil {
			value = strings.TrimSpace(fmt.Sprintf("%v", raw))
		}

		if field.Required && value == "" {
			return missingField(field.Name)
		}

		if field.Type == models.FieldTypeSelect && value != "" {
			valid := false
			for _, opt := range field.Options {
				if value == opt {
					valid = true
					break
				}
			}
			if !valid {
				return &FieldError{Field: field.Name, Err: fmt.Errorf("value %q is not an option", value)}
			}
		}
	}
	return nil
}
