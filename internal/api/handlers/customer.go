package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bizops-suite/customer-import/internal/api/response"
	"github.com/bizops-suite/customer-import/internal/models"
	"github.com/bizops-suite/customer-import/internal/repository"
)

// CustomerHandler serves the customer read endpoints.
type CustomerHandler struct {
	repo *repository.CustomerRepository
}

// NewCustomerHandler creates a new customer handler.
func NewCustomerHandler(repo *repository.CustomerRepository) *CustomerHandler {
	return &CustomerHandler{repo: repo}
}

// HandleList handles GET /api/v1/customers with pagination and an optional
// name/phone search.
func (h *CustomerHandler) HandleList(c *gin.Context) {
	tenantID := c.MustGet("tenant_id").(uuid.UUID)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}
	search := c.Query("search")

	customers, total, err := h.repo.List(c.Request.Context(), tenantID, search, page, pageSize)
	if err != nil {
		response.InternalError(c, fmt.Sprintf("failed to list customers: %v", err))
		return
	}

	totalPages := (total + pageSize - 1) / pageSize
	response.Success(c, http.StatusOK, gin.H{
		"customers": customers,
		"pagination": models.Pagination{
			Page:         page,
			PageSize:     pageSize,
			TotalResults: total,
			TotalPages:   totalPages,
		},
	})
}

// HandleGet handles GET /api/v1/customers/:id.
func (h *CustomerHandler) HandleGet(c *gin.Context) {
	tenantID := c.MustGet("tenant_id").(uuid.UUID)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid customer id format", nil)
		return
	}

	customer, err := h.repo.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		response.InternalError(c, fmt.Sprintf("failed to load customer: %v", err))
		return
	}
	if customer == nil {
		response.NotFound(c, "customer not found")
		return
	}

	response.Success(c, http.StatusOK, customer)
}
