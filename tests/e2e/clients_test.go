package e2e_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// ClientsSuite exercises client records and funding buckets over HTTP,
// including tenant isolation between two provisioned organizations.
type ClientsSuite struct {
	suite.Suite
	env        *testEnv
	tokenA     string
	tokenB     string
	orgAClient string
}

func TestClientsSuite(t *testing.T) {
	suite.Run(t, new(ClientsSuite))
}

func (s *ClientsSuite) SetupTest() {
	t := s.T()
	s.env = newTestEnv(t)
	_, _, s.tokenA = s.env.provisionedUser(t, "alice@acmecare.example", "Acme Care Services")
	_, _, s.tokenB = s.env.provisionedUser(t, "bob@othercare.example", "Other Care Co")

	status, body := s.env.do(t, http.MethodPost, "/api/clients", s.tokenA, map[string]interface{}{
		"first_name": "Jordan",
		"last_name":  "Reeves",
	})
	require.Equal(t, http.StatusCreated, status)

	id, _ := dataField(t, body, "id").(string)
	require.NotEmpty(t, id)
	s.orgAClient = id
}

func (s *ClientsSuite) TestCreateAndGetClient() {
	t := s.T()

	status, body := s.env.do(t, http.MethodGet, "/api/clients/"+s.orgAClient, s.tokenA, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Jordan", dataField(t, body, "first_name"))
	assert.Equal(t, "active", dataField(t, body, "status"))
}

func (s *ClientsSuite) TestClientDetailsValidatedAgainstSchema() {
	t := s.T()

	status, _ := s.env.do(t, http.MethodPost, "/api/clients", s.tokenA, map[string]interface{}{
		"first_name": "Sam",
		"last_name":  "Field",
		"details": map[string]interface{}{
			"first_name":    "Sam",
			"last_name":     "Field",
			"date_of_birth": "1960-01-01",
			"funding_type":  "Crowdfunding",
		},
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func (s *ClientsSuite) TestTenantIsolation() {
	t := s.T()

	// Org B cannot read, update or delete org A's client.
	status, _ := s.env.do(t, http.MethodGet, "/api/clients/"+s.orgAClient, s.tokenB, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = s.env.do(t, http.MethodDelete, "/api/clients/"+s.orgAClient, s.tokenB, nil)
	assert.Equal(t, http.StatusNotFound, status)

	// Org B's client list is empty.
	status, body := s.env.do(t, http.MethodGet, "/api/clients", s.tokenB, nil)
	require.Equal(t, http.StatusOK, status)
	data, _ := body["data"].([]interface{})
	assert.Empty(t, data)
}

func (s *ClientsSuite) TestBucketLifecycle() {
	t := s.T()

	status, body := s.env.do(t, http.MethodPost, fmt.Sprintf("/api/clients/%s/buckets", s.orgAClient), s.tokenA, map[string]interface{}{
		"name":         "Core Supports",
		"total_amount": 1000.0,
	})
	require.Equal(t, http.StatusCreated, status)

	bucketID, _ := dataField(t, body, "id").(string)
	require.NotEmpty(t, bucketID)

	// Drawdown within the limit.
	status, _ = s.env.do(t, http.MethodPost, fmt.Sprintf("/api/buckets/%s/transactions", bucketID), s.tokenA, map[string]interface{}{
		"amount": 900.0,
		"note":   "support sessions",
	})
	require.Equal(t, http.StatusCreated, status)

	// Overdraw is refused.
	status, body = s.env.do(t, http.MethodPost, fmt.Sprintf("/api/buckets/%s/transactions", bucketID), s.tokenA, map[string]interface{}{
		"amount": 200.0,
	})
	require.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "Insufficient funds remaining", body["message"])

	// Spend state reflects only the accepted drawdown.
	status, body = s.env.do(t, http.MethodGet, "/api/buckets/"+bucketID, s.tokenA, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 900.0, dataField(t, body, "spent_amount"))

	// Org B cannot spend from org A's bucket.
	status, _ = s.env.do(t, http.MethodPost, fmt.Sprintf("/api/buckets/%s/transactions", bucketID), s.tokenB, map[string]interface{}{
		"amount": 10.0,
	})
	assert.Equal(t, http.StatusNotFound, status)
}
