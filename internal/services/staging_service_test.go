package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swivelcare/swivel-api/internal/models"
)

func pendingReq(userID string) *models.PendingOrganizationRequest {
	return &models.PendingOrganizationRequest{
		UserID:           userID,
		Email:            "alice@acmecare.example",
		OrganizationName: "Acme Care Services",
		FullName:         "Alice Admin",
		CreatedAt:        time.Now().UTC(),
	}
}

func TestMemoryPendingStorePutGetDelete(t *testing.T) {
	store := newMemoryPendingStore(time.Hour)

	require.NoError(t, store.Put(testCtx, pendingReq("user-1")))

	got, err := store.Get(testCtx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Acme Care Services", got.OrganizationName)

	// Get does not consume the entry.
	again, err := store.Get(testCtx, "user-1")
	require.NoError(t, err)
	assert.NotNil(t, again)

	require.NoError(t, store.Delete(testCtx, "user-1"))

	gone, err := store.Get(testCtx, "user-1")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestMemoryPendingStoreMissingEntry(t *testing.T) {
	store := newMemoryPendingStore(time.Hour)

	got, err := store.Get(testCtx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, got)

	// Deleting a missing entry is not an error.
	assert.NoError(t, store.Delete(testCtx, "nobody"))
}

func TestMemoryPendingStoreExpiry(t *testing.T) {
	store := newMemoryPendingStore(10 * time.Millisecond)

	require.NoError(t, store.Put(testCtx, pendingReq("user-1")))
	time.Sleep(30 * time.Millisecond)

	got, err := store.Get(testCtx, "user-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestNewPendingRequestStoreFallsBackWithoutRedis(t *testing.T) {
	store := NewPendingRequestStore(nil, time.Hour)
	_, ok := store.(*memoryPendingStore)
	assert.True(t, ok)
}

func TestPendingRequestJSONRoundTrip(t *testing.T) {
	req := pendingReq("user-1")
	req.ABN = "51824753556"
	req.Plan = "starter"

	data, err := req.ToJSON()
	require.NoError(t, err)

	got, err := models.PendingOrganizationRequestFromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, req.OrganizationName, got.OrganizationName)
	assert.Equal(t, req.ABN, got.ABN)
	assert.Equal(t, req.Plan, got.Plan)
}
