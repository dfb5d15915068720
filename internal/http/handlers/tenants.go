package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chadayu1004/smart-apartment-ai/internal/http/response"
	"github.com/chadayu1004/smart-apartment-ai/internal/services"
)

type TenantHandler struct {
	tenants services.TenantService
}

func NewTenantHandler(tenants services.TenantService) *TenantHandler {
	return &TenantHandler{tenants: tenants}
}

// GET /api/tenants
func (h *TenantHandler) List(c *gin.Context) {
	list, err := h.tenants.List(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, list)
}

// GET /api/tenants/:id
func (h *TenantHandler) Get(c *gin.Context) {
	id, err := uintParam(c, "id")
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	t, err := h.tenants.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, t)
}

// POST /api/tenants
func (h *TenantHandler) Create(c *gin.Context) {
	var req struct {
		FirstName    string `json:"first_name"`
		LastName     string `json:"last_name"`
		Phone        string `json:"phone"`
		Email        string `json:"email"`
		IDCardNumber string `json:"id_card_number"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	t, err := h.tenants.Create(c.Request.Context(), services.CreateTenantInput{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		Email:        req.Email,
		IDCardNumber: req.IDCardNumber,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, t)
}
