package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/chadayu1004/smart-apartment-ai/internal/http/response"
	"github.com/chadayu1004/smart-apartment-ai/internal/services"
)

type ContractHandler struct {
	contracts services.ContractService
}

func NewContractHandler(contracts services.ContractService) *ContractHandler {
	return &ContractHandler{contracts: contracts}
}

// GET /api/contracts/by-booking/:booking_id
func (h *ContractHandler) ByBooking(c *gin.Context) {
	id, err := uintParam(c, "booking_id")
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	contract, err := h.contracts.ByBooking(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, contract)
}

// GET /api/contracts/me/latest
func (h *ContractHandler) MyLatest(c *gin.Context) {
	contract, err := h.contracts.MyLatest(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, contract)
}
