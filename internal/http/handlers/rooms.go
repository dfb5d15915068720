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

type RoomHandler struct {
	rooms services.RoomService
}

func NewRoomHandler(rooms services.RoomService) *RoomHandler {
	return &RoomHandler{rooms: rooms}
}

// GET /api/rooms
func (h *RoomHandler) List(c *gin.Context) {
	list, err := h.rooms.List(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, list)
}

// POST /api/rooms (multipart)
// fields: room_number, building, floor, room_type, price, amenities (JSON list),
// promotion, description; optional file "image".
func (h *RoomHandler) Create(c *gin.Context) {
	floor, err := formInt(c, "floor")
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	price, err := formFloat(c, "price")
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	name, data, err := optionalUpload(c, "image")
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	room, err := h.rooms.Create(c.Request.Context(), services.CreateRoomInput{
		RoomNumber:  c.PostForm("room_number"),
		Building:    c.PostForm("building"),
		Floor:       floor,
		RoomType:    c.PostForm("room_type"),
		Price:       price,
		Amenities:   services.ParseAmenities(c.DefaultPostForm("amenities", "[]")),
		Promotion:   c.PostForm("promotion"),
		Description: c.PostForm("description"),
		ImageName:   name,
		Image:       data,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, room)
}

// DELETE /api/rooms/:id
func (h *RoomHandler) Delete(c *gin.Context) {
	id, err := uintParam(c, "id")
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	if err := h.rooms.Delete(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func formInt(c *gin.Context, field string) (int, error) {
	raw := strings.TrimSpace(c.PostForm(field))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apierr.Wrap(apierr.ErrInvalidArgument, "%s must be an integer", field)
	}
	return v, nil
}

func formFloat(c *gin.Context, field string) (float64, error) {
	raw := strings.TrimSpace(c.PostForm(field))
	if raw == "" {
		return 0, apierr.Wrap(apierr.ErrInvalidArgument, "%s is required", field)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, apierr.Wrap(apierr.ErrInvalidArgument, "%s must be a number", field)
	}
	return v, nil
}
