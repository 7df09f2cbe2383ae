package e2e_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// FormConfigSuite exercises the configurable intake form endpoints.
type FormConfigSuite struct {
	suite.Suite
	env   *testEnv
	token string
}

func TestFormConfigSuite(t *testing.T) {
	suite.Run(t, new(FormConfigSuite))
}

func (s *FormConfigSuite) SetupTest() {
	s.env = newTestEnv(s.T())
	_, _, s.token = s.env.provisionedUser(s.T(), "alice@acmecare.example", "Acme Care Services")
}

func (s *FormConfigSuite) TestDefaultSchemaServedUntilSaved() {
	t := s.T()

	status, body := s.env.do(t, http.MethodGet, "/api/form-config", s.token, nil)
	require.Equal(t, http.StatusOK, status)

	sections, ok := body["config"].([]interface{})
	require.True(t, ok, "config missing: %v", body)
	require.Len(t, sections, 3)

	first, ok := sections[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Personal Information", first["name"])
}

func (s *FormConfigSuite) TestSaveAndReadBack() {
	t := s.T()

	custom := []map[string]interface{}{
		{
			"name":    "Intake",
			"enabled": true,
			"fields": []map[string]interface{}{
				{"name": "referral_source", "label": "Referral Source", "type": "text", "required": true},
				{"name": "region", "label": "Region", "type": "select", "options": []string{"North", "South"}},
			},
		},
	}

	status, body := s.env.do(t, http.MethodPost, "/api/form-config", s.token, map[string]interface{}{
		"config": custom,
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])

	status, body = s.env.do(t, http.MethodGet, "/api/form-config", s.token, nil)
	require.Equal(t, http.StatusOK, status)

	sections, ok := body["config"].([]interface{})
	require.True(t, ok)
	require.Len(t, sections, 1)

	section, ok := sections[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Intake", section["name"])

	fields, ok := section["fields"].([]interface{})
	require.True(t, ok)
	assert.Len(t, fields, 2)
}

func (s *FormConfigSuite) TestRejectsInvalidSchema() {
	t := s.T()

	// A select field without options must be refused at the write boundary.
	invalid := []map[string]interface{}{
		{
			"name":    "Broken",
			"enabled": true,
			"fields": []map[string]interface{}{
				{"name": "choice", "label": "Choice", "type": "select"},
			},
		},
	}

	status, _ := s.env.do(t, http.MethodPost, "/api/form-config", s.token, map[string]interface{}{
		"config": invalid,
	})
	assert.Equal(t, http.StatusBadRequest, status)

	// The stored config is untouched: reads still serve the default.
	status, body := s.env.do(t, http.MethodGet, "/api/form-config", s.token, nil)
	require.Equal(t, http.StatusOK, status)
	sections, ok := body["config"].([]interface{})
	require.True(t, ok)
	assert.Len(t, sections, 3)
}

func (s *FormConfigSuite) TestSaveFailureReportsBackendError() {
	t := s.T()

	valid := []map[string]interface{}{
		{
			"name":    "Personal Information",
			"enabled": true,
			"fields": []map[string]interface{}{
				{"name": "first_name", "label": "First Name", "type": "text"},
			},
		},
	}

	// Break only the config table so the profile lookup still succeeds and
	// the failure happens at the write itself.
	require.NoError(t, s.env.db.DB().Exec("DROP TABLE form_configurations").Error)

	status, body := s.env.do(t, http.MethodPost, "/api/form-config", s.token, map[string]interface{}{
		"config": valid,
	})
	require.Equal(t, http.StatusInternalServerError, status)

	// The response carries the driver's message, not a generic placeholder.
	msg, ok := body["error"].(string)
	require.True(t, ok, "error missing: %v", body)
	assert.Contains(t, msg, "form_configurations")
}

func (s *FormConfigSuite) TestRequiresCompleteProfile() {
	t := s.T()

	_, token := s.env.verifiedUserWithoutOrg(t, "pending@nowhere.example")

	status, body := s.env.do(t, http.MethodGet, "/api/form-config", token, nil)
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Profile setup incomplete", body["message"])
}

func (s *FormConfigSuite) TestConfigIsTenantScoped() {
	t := s.T()

	_, _, otherToken := s.env.provisionedUser(t, "bob@othercare.example", "Other Care Co")

	custom := []map[string]interface{}{
		{
			"name":    "Acme Only",
			"enabled": true,
			"fields": []map[string]interface{}{
				{"name": "x", "label": "X", "type": "text"},
			},
		},
	}
	status, _ := s.env.do(t, http.MethodPost, "/api/form-config", s.token, map[string]interface{}{
		"config": custom,
	})
	require.Equal(t, http.StatusOK, status)

	// The other organization still sees the default.
	status, body := s.env.do(t, http.MethodGet, "/api/form-config", otherToken, nil)
	require.Equal(t, http.StatusOK, status)
	sections, ok := body["config"].([]interface{})
	require.True(t, ok)
	assert.Len(t, sections, 3)
}
