package models

import (
	"encoding/json"
	"time"
)

// PendingOrganizationRequest is the provisioning intent captured at sign-up
// and consumed exactly once after e-mail verification. It is staged
// transiently (redis, or in-process when redis is absent) keyed by user id;
// it is never a database row.
type PendingOrganizationRequest struct {
	UserID           string    `json:"user_id"`
	Email            string    `json:"email"`
	OrganizationName string    `json:"organization_name"`
	ABN              string    `json:"abn,omitempty"`
	Phone            string    `json:"phone,omitempty"`
	FullName         string    `json:"full_name"`
	Plan             string    `json:"plan,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

func (r *PendingOrganizationRequest) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

func PendingOrganizationRequestFromJSON(data []byte) (*PendingOrganizationRequest, error) {
	var req PendingOrganizationRequest
	err := json.Unmarshal(data, &req)
	return &req, err
}
