package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/swivelcare/swivel-api/internal/database"
	"github.com/swivelcare/swivel-api/internal/models"
)

// ClientService manages care-recipient records. Intake details are
// validated against the organization's current form schema before any
// write, and stored under the schema's field names.
type ClientService struct {
	db    database.Database
	forms *FormConfigService
}

type ClientInput struct {
	FirstName   string
	LastName    string
	DateOfBirth *time.Time
	Status      string
	Details     models.JSON
}

func NewClientService(db database.Database, forms *FormConfigService) *ClientService {
	return &ClientService{db: db, forms: forms}
}

func (s *ClientService) CreateClient(ctx context.Context, orgID string, input ClientInput) (*models.Client, error) {
	if strings.TrimSpace(input.FirstName) == "" {
		return nil, missingField("firstName")
	}
	if strings.TrimSpace(input.LastName) == "" {
		return nil, missingField("lastName")
	}

	if err := s.validateDetails(ctx, orgID, input.Details); err != nil {
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = models.ClientStatusActive
	}

	client := &models.Client{
		OrganizationID: orgID,
		FirstName:      strings.TrimSpace(input.FirstName),
		LastName:       strings.TrimSpace(input.LastName),
		DateOfBirth:    input.DateOfBirth,
		Status:         status,
		Details:        input.Details,
	}

	if err := s.db.DB().WithContext(ctx).Create(client).Error; err != nil {
		return nil, err
	}
	return client, nil
}

func (s *ClientService) GetClient(ctx context.Context, orgID, clientID string) (*models.Client, error) {
	var client models.Client
	err := s.db.DB().WithContext(ctx).
		Where("id = ? AND organization_id = ?", clientID, orgID).
		First(&client).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	return &client, nil
}

func (s *ClientService) ListClients(ctx context.Context, orgID string, limit, offset int) ([]models.Client, int64, error) {
	var clients []models.Client
	var total int64

	db := s.db.DB().WithContext(ctx).Model(&models.Client{}).Where("organization_id = ?", orgID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Order("last_name, first_name").Limit(limit).Offset(offset).Find(&clients).Error
	return clients, total, err
}

func (s *ClientService) UpdateClient(ctx context.Context, orgID, clientID string, input ClientInput) (*models.Client, error) {
	client, err := s.GetClient(ctx, orgID, clientID)
	if err != nil {
		return nil, err
	}

	if input.Details != nil {
		if err := s.validateDetails(ctx, orgID, input.Details); err != nil {
			return nil, err
		}
		client.Details = input.Details
	}
	if strings.TrimSpace(input.FirstName) != "" {
		client.FirstName = strings.TrimSpace(input.FirstName)
	}
	if strings.TrimSpace(input.LastName) != "" {
		client.LastName = strings.TrimSpace(input.LastName)
	}
	if input.DateOfBirth != nil {
		client.DateOfBirth = input.DateOfBirth
	}
	if input.Status != "" {
		client.Status = input.Status
	}

	if err := s.db.DB().WithContext(ctx).Save(client).Error; err != nil {
		return nil, err
	}
	return client, nil
}

func (s *ClientService) DeleteClient(ctx context.Context, orgID, clientID string) error {
	result := s.db.DB().WithContext(ctx).
		Where("id = ? AND organization_id = ?", clientID, orgID).
		Delete(&models.Client{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrClientNotFound
	}
	return nil
}

// validateDetails checks submitted intake answers against the current
// schema. A record without intake details is allowed; required-field
// enforcement applies once a form submission is present.
func (s *ClientService) validateDetails(ctx context.Context, orgID string, details models.JSON) error {
	if len(details) == 0 {
		return nil
	}
	schema, err := s.forms.GetConfig(ctx, orgID)
	if err != nil {
		return err
	}
	return ValidateRecord(schema, details)
}
