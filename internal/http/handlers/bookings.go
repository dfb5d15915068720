package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/chadayu1004/smart-apartment-ai/internal/http/response"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/apierr"
	"github.com/chadayu1004/smart-apartment-ai/internal/services"
)

type BookingHandler struct {
	bookings services.BookingService
}

func NewBookingHandler(bookings services.BookingService) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

// POST /api/bookings (multipart)
// fields: room_id, first_name, last_name, phone, id_card_number; file "file".
func (h *BookingHandler) Submit(c *gin.Context) {
	roomID, err := strconv.ParseUint(strings.TrimSpace(c.PostForm("room_id")), 10, 64)
	if err != nil || roomID == 0 {
		response.RespondAPIError(c, apierr.Wrap(apierr.ErrInvalidArgument, "room_id must be a positive integer"))
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	data, err := readUpload(fh)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	b, err := h.bookings.Submit(c.Request.Context(), services.SubmitBookingInput{
		RoomID:       uint(roomID),
		FirstName:    c.PostForm("first_name"),
		LastName:     c.PostForm("last_name"),
		Phone:        c.PostForm("phone"),
		IDCardNumber: c.PostForm("id_card_number"),
		ImageName:    fh.Filename,
		Image:        data,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{
		"message":       "booking submitted",
		"booking":       b,
		"ai_status":     b.AIStatus,
		"ai_confidence": b.AIConfidence,
		"ai_remark":     b.AIRemark,
	})
}

// GET /api/bookings
func (h *BookingHandler) List(c *gin.Context) {
	list, err := h.bookings.List(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, list)
}

type approveBookingRequest struct {
	ContractText string `json:"contract_text"`
}

// POST /api/bookings/:id/approve
// Optional body: {"contract_text": "..."}.
func (h *BookingHandler) Approve(c *gin.Context) {
	id, err := uintParam(c, "id")
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	var req approveBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := h.bookings.Approve(c.Request.Context(), id, req.ContractText)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, res)
}

// POST /api/bookings/:id/reject
func (h *BookingHandler) Reject(c *gin.Context) {
	id, err := uintParam(c, "id")
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	b, err := h.bookings.Reject(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"booking": b})
}
