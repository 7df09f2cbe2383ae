package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swivelcare/swivel-api/internal/models"
)

func boolPtr(b bool) *bool { return &b }

func TestDefaultFormSchemaSections(t *testing.T) {
	schema := DefaultFormSchema()

	require.Len(t, schema, 3)
	assert.Equal(t, "Personal Information", schema[0].Name)
	assert.Equal(t, "Health & Support Information", schema[1].Name)
	assert.Equal(t, "Funding Information", schema[2].Name)

	for _, section := range schema {
		assert.True(t, section.Enabled, "default sections start enabled")
	}

	// The default must itself pass write-boundary validation.
	require.NoError(t, ValidateSchema(schema))
}

func TestGetConfigReturnsDefaultWhenNoneStored(t *testing.T) {
	db := newTestDB(t)
	svc := NewFormConfigService(db)

	schema, err := svc.GetConfig(testCtx, "org-without-config")
	require.NoError(t, err)
	assert.Equal(t, DefaultFormSchema(), schema)
}

func TestPutConfigRoundTrip(t *testing.T) {
	db := newTestDB(t)
	svc := NewFormConfigService(db)
	org := createTestOrganization(t, db, "Acme Care Services")

	custom := models.FormSchema{
		{
			Name:    "Intake",
			Enabled: true,
			Fields: []models.FormField{
				{Name: "referral_source", Label: "Referral Source", Type: models.FieldTypeText, Required: true},
				{Name: "region", Label: "Region", Type: models.FieldTypeSelect, Options: []string{"North", "South"}},
			},
		},
	}

	require.NoError(t, svc.PutConfig(testCtx, org.ID, custom))

	got, err := svc.GetConfig(testCtx, org.ID)
	require.NoError(t, err)
	assert.Equal(t, custom, got)
}

func TestPutConfigReplacesWholeDocument(t *testing.T) {
	db := newTestDB(t)
	svc := NewFormConfigService(db)
	org := createTestOrganization(t, db, "Acme Care Services")

	first := models.FormSchema{
		{Name: "One", Enabled: true, Fields: []models.FormField{
			{Name: "a", Label: "A", Type: models.FieldTypeText},
		}},
	}
	second := models.FormSchema{
		{Name: "Two", Enabled: true, Fields: []models.FormField{
			{Name: "b", Label: "B", Type: models.FieldTypeText},
		}},
	}

	require.NoError(t, svc.PutConfig(testCtx, org.ID, first))
	require.NoError(t, svc.PutConfig(testCtx, org.ID, second))

	got, err := svc.GetConfig(testCtx, org.ID)
	require.NoError(t, err)
	assert.Equal(t, second, got)

	// The upsert keys on organization id; a second save must not add a row.
	assert.Equal(t, int64(1), countRows(t, db, &models.FormConfiguration{}))
}

func TestValidateSchemaRejectsMalformedSchemas(t *testing.T) {
	cases := []struct {
		name   string
		schema models.FormSchema
	}{
		{"empty schema", models.FormSchema{}},
		{"blank section name", models.FormSchema{
			{Name: "  ", Enabled: true},
		}},
		{"blank field name", models.FormSchema{
			{Name: "S", Enabled: true, Fields: []models.FormField{
				{Name: "", Label: "X", Type: models.FieldTypeText},
			}},
		}},
		{"duplicate field name", models.FormSchema{
			{Name: "S", Enabled: true, Fields: []models.FormField{
				{Name: "x", Label: "X", Type: models.FieldTypeText},
				{Name: "x", Label: "X again", Type: models.FieldTypeText},
			}},
		}},
		{"blank label", models.FormSchema{
			{Name: "S", Enabled: true, Fields: []models.FormField{
				{Name: "x", Label: " ", Type: models.FieldTypeText},
			}},
		}},
		{"select without options", models.FormSchema{
			{Name: "S", Enabled: true, Fields: []models.FormField{
				{Name: "x", Label: "X", Type: models.FieldTypeSelect},
			}},
		}},
		{"options on non-select", models.FormSchema{
			{Name: "S", Enabled: true, Fields: []models.FormField{
				{Name: "x", Label: "X", Type: models.FieldTypeText, Options: []string{"a"}},
			}},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateSchema(tc.schema)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidSchema)
		})
	}
}

func TestPutConfigRejectsInvalidSchema(t *testing.T) {
	db := newTestDB(t)
	svc := NewFormConfigService(db)

	err := svc.PutConfig(testCtx, "org-1", models.FormSchema{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidSchema)

	assert.Equal(t, int64(0), countRows(t, db, &models.FormConfiguration{}))
}

func TestPutConfigSurfacesBackendWriteError(t *testing.T) {
	db := newTestDB(t)
	svc := NewFormConfigService(db)

	sqlDB, err := db.DB().DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	err = svc.PutConfig(testCtx, "org-1", DefaultFormSchema())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfigWriteFailed)
	// The underlying driver message must survive wrapping; clients display it.
	assert.Contains(t, err.Error(), "closed")
}

func TestEffectiveFieldsFiltering(t *testing.T) {
	schema := models.FormSchema{
		{
			Name:    "Visible",
			Enabled: true,
			Fields: []models.FormField{
				{Name: "kept", Label: "Kept", Type: models.FieldTypeText},
				{Name: "absent_flag", Label: "Absent flag", Type: models.FieldTypeText, Enabled: nil},
				{Name: "dropped", Label: "Dropped", Type: models.FieldTypeText, Enabled: boolPtr(false)},
				{Name: "explicit", Label: "Explicit", Type: models.FieldTypeText, Enabled: boolPtr(true)},
			},
		},
		{
			Name:    "Hidden",
			Enabled: false,
			Fields: []models.FormField{
				{Name: "never", Label: "Never", Type: models.FieldTypeText},
			},
		},
	}

	fields := EffectiveFields(schema)
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Name)
	}

	// An absent enabled flag means enabled; stored order is preserved.
	assert.Equal(t, []string{"kept", "absent_flag", "explicit"}, names)
}

func TestValidateRecord(t *testing.T) {
	schema := models.FormSchema{
		{
			Name:    "Intake",
			Enabled: true,
			Fields: []models.FormField{
				{Name: "full_name", Label: "Full Name", Type: models.FieldTypeText, Required: true},
				{Name: "region", Label: "Region", Type: models.FieldTypeSelect, Options: []string{"North", "South"}},
				{Name: "hidden_required", Label: "Hidden", Type: models.FieldTypeText, Required: true, Enabled: boolPtr(false)},
			},
		},
	}

	t.Run("valid record", func(t *testing.T) {
		err := ValidateRecord(schema, models.JSON{"full_name": "Jordan Reeves", "region": "North"})
		assert.NoError(t, err)
	})

	t.Run("missing required field", func(t *testing.T) {
		err := ValidateRecord(schema, models.JSON{"region": "North"})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMissingRequiredField)
	})

	t.Run("whitespace does not satisfy required", func(t *testing.T) {
		err := ValidateRecord(schema, models.JSON{"full_name": "   "})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMissingRequiredField)
	})

	t.Run("select value outside options", func(t *testing.T) {
		err := ValidateRecord(schema, models.JSON{"full_name": "Jordan", "region": "East"})
		require.Error(t, err)

		var fieldErr *FieldError
		require.ErrorAs(t, err, &fieldErr)
		assert.Equal(t, "region", fieldErr.Field)
	})

	t.Run("disabled required field is not enforced", func(t *testing.T) {
		err := ValidateRecord(schema, models.JSON{"full_name": "Jordan"})
		assert.NoError(t, err)
	})
}
