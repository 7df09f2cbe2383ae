package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/swivelcare/swivel-api/internal/services"
	"github.com/swivelcare/swivel-api/pkg/utils"
)

type CreateBucketRequest struct {
	Name        string     `json:"name" binding:"required"`
	TotalAmount float64    `json:"total_amount" binding:"required"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
}

type RecordTransactionRequest struct {
	Amount float64 `json:"amount" binding:"required"`
	Note   string  `json:"note"`
}

type BucketHandler struct {
	bucketService *services.BucketService
}

func NewBucketHandler(bucketService *services.BucketService) *BucketHandler {
	return &BucketHandler{bucketService: bucketService}
}

func (h *BucketHandler) CreateBucket(c *gin.Context) {
	orgID, ok := currentOrganization(c)
	if !ok {
		return
	}

	var req CreateBucketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request body")
		return
	}

	bucket, err := h.bucketService.CreateBucket(c.Request.Context(), orgID, c.Param("id"), services.BucketInput{
		Name:        req.Name,
		TotalAmount: req.TotalAmount,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	})
	if err != nil {
		if writeFieldError(c, err) {
			return
		}
		if errors.Is(err, services.ErrClientNotFound) {
			utils.NotFound(c, "Client not found")
			return
		}
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to create funding bucket", err)
		return
	}

	utils.Created(c, "Funding bucket created", bucket)
}

func (h *BucketHandler) GetBucket(c *gin.Context) {
	orgID, ok := currentOrganization(c)
	if !ok {
		return
	}

	bucket, err := h.bucketService.GetBucket(c.Request.Context(), orgID, c.Param("bucketId"))
	if err != nil {
		if errors.Is(err, services.ErrBucketNotFound) {
			utils.NotFound(c, "Funding bucket not found")
			return
		}
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to load funding bucket", err)
		return
	}

	utils.SendSuccessResponse(c, bucket)
}

func (h *BucketHandler) ListBuckets(c *gin.Context) {
	orgID, ok := currentOrganization(c)
	if !ok {
		return
	}

	buckets, err := h.bucketService.ListBuckets(c.Request.Context(), orgID, c.Param("id"))
	if err != nil {
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to list funding buckets", err)
		return
	}

	utils.SendSuccessResponse(c, buckets)
}

// RecordTransaction draws down a bucket. Overdraws are rejected atomically
// against the bucket's remaining balance.
func (h *BucketHandler) RecordTransaction(c *gin.Context) {
	orgID, ok := currentOrganization(c)
	if !ok {
		return
	}

	var req RecordTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request body")
		return
	}

	tx, err := h.bucketService.RecordTransaction(c.Request.Context(), orgID, c.Param("bucketId"), req.Amount, req.Note)
	if err != nil {
		if writeFieldError(c, err) {
			return
		}
		switch {
		case errors.Is(err, services.ErrBucketNotFound):
			utils.NotFound(c, "Funding bucket not found")
		case errors.Is(err, services.ErrBucketExceeded):
			utils.Error(c, http.StatusUnprocessableEntity, "Insufficient funds remaining", ErrorResponse{
				Error:   "bucket_exceeded",
				Message: err.Error(),
			})
		default:
			utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to record transaction", err)
		}
		return
	}

	utils.Created(c, "Transaction recorded", tx)
}
