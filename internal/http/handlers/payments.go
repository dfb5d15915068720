package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/chadayu1004/smart-apartment-ai/internal/http/response"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/apierr"
	"github.com/chadayu1004/smart-apartment-ai/internal/services"
)

type PaymentHandler struct {
	payments services.PaymentService
}

func NewPaymentHandler(payments services.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// POST /api/payments (multipart)
// fields: contract_id, bank_name, reference_number, amount_paid, payer_name; file "slip".
// Fields other than contract_id may be left blank when the slip is legible.
func (h *PaymentHandler) Create(c *gin.Context) {
	contractID, err := strconv.ParseUint(strings.TrimSpace(c.PostForm("contract_id")), 10, 64)
	if err != nil || contractID == 0 {
		response.RespondAPIError(c, apierr.Wrap(apierr.ErrInvalidArgument, "contract_id must be a positive integer"))
		return
	}
	var amount float64
	if raw := strings.TrimSpace(c.PostForm("amount_paid")); raw != "" {
		if amount, err = strconv.ParseFloat(raw, 64); err != nil {
			response.RespondAPIError(c, apierr.Wrap(apierr.ErrInvalidArgument, "amount_paid must be a number"))
			return
		}
	}
	h.submit(c, services.SubmitPaymentInput{
		ContractID:      uint(contractID),
		BankName:        c.PostForm("bank_name"),
		ReferenceNumber: c.PostForm("reference_number"),
		AmountPaid:      amount,
		PayerName:       c.PostForm("payer_name"),
	}, "slip")
}

// POST /api/contracts/:id/upload-slip (multipart, file "file")
func (h *PaymentHandler) UploadSlip(c *gin.Context) {
	id, err := uintParam(c, "id")
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	h.submit(c, services.SubmitPaymentInput{ContractID: id}, "file")
}

func (h *PaymentHandler) submit(c *gin.Context, in services.SubmitPaymentInput, fileField string) {
	fh, err := c.FormFile(fileField)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	data, err := readUpload(fh)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	in.SlipName = fh.Filename
	in.Slip = data
	p, err := h.payments.Submit(c.Request.Context(), in)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{
		"message":     "payment submitted for review",
		"payment":     p,
		"slip_status": p.SlipStatus,
		"slip_remark": p.SlipRemark,
	})
}

// GET /api/payments/me
func (h *PaymentHandler) ListMine(c *gin.Context) {
	list, err := h.payments.ListMine(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, list)
}

// GET /api/payments
func (h *PaymentHandler) ListAll(c *gin.Context) {
	list, err := h.payments.ListAll(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, list)
}

// POST /api/payments/:id/approve
func (h *PaymentHandler) Approve(c *gin.Context) {
	id, err := uintParam(c, "id")
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	p, err := h.payments.Approve(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"payment": p})
}

// POST /api/payments/:id/reject
func (h *PaymentHandler) Reject(c *gin.Context) {
	id, err := uintParam(c, "id")
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	p, err := h.payments.Reject(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"payment": p})
}
