package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/chadayu1004/smart-apartment-ai/internal/data/repos"
	types "github.com/chadayu1004/smart-apartment-ai/internal/domain"
	"github.com/chadayu1004/smart-apartment-ai/internal/domain/rooms"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/apierr"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/dbctx"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/localmedia"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/logger"
)

var roomImageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}

type CreateRoomInput struct {
	RoomNumber  string
	Building    string
	Floor       int
	RoomType    string
	Price       float64
	Amenities   []string
	Promotion   string
	Description string

	ImageName string
	Image     []byte
}

type RoomService interface {
	List(ctx context.Context) ([]*types.Room, error)
	Create(ctx context.Context, in CreateRoomInput) (*types.Room, error)
	Delete(ctx context.Context, id uint) error
}

type roomService struct {
	log   *logger.Logger
	rooms repos.RoomRepo
	media localmedia.Store
}

func NewRoomService(log *logger.Logger, roomRepo repos.RoomRepo, media localmedia.Store) RoomService {
	return &roomService{log: log.With("service", "RoomService"), rooms: roomRepo, media: media}
}

func (s *roomService) List(ctx context.Context) ([]*types.Room, error) {
	return s.rooms.List(dbctx.Context{Ctx: ctx})
}

func (s *roomService) Create(ctx context.Context, in CreateRoomInput) (*types.Room, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	in.RoomNumber = strings.TrimSpace(in.RoomNumber)
	if in.RoomNumber == "" {
		return nil, apierr.Wrap(apierr.ErrInvalidArgument, "room_number is required")
	}
	if in.Price < 0 {
		return nil, apierr.Wrap(apierr.ErrInvalidArgument, "price must not be negative")
	}

	dbc := dbctx.Context{Ctx: ctx}
	exists, err := s.rooms.ExistsByNumber(dbc, in.RoomNumber)
	if err != nil {
		return nil, fmt.Errorf("check room number: %w", err)
	}
	if exists {
		return nil, apierr.Wrap(apierr.ErrInvalidArgument, "room number %s is already in use", in.RoomNumber)
	}

	imageURL := ""
	if len(in.Image) > 0 {
		if !roomImageExts[strings.ToLower(filepath.Ext(in.ImageName))] {
			return nil, apierr.Wrap(apierr.ErrInvalidArgument, "image must be jpg, jpeg, png or webp")
		}
		if s.media == nil {
			return nil, fmt.Errorf("media storage not configured")
		}
		imageURL, err = s.media.Save(ctx, "rooms", in.ImageName, in.Image)
		if err != nil {
			return nil, fmt.Errorf("save room image: %w", err)
		}
	}

	amenities := in.Amenities
	if amenities == nil {
		amenities = []string{}
	}
	rawAmenities, err := json.Marshal(amenities)
	if err != nil {
		return nil, err
	}

	room, err := s.rooms.Create(dbc, &types.Room{
		RoomNumber:  in.RoomNumber,
		Building:    strings.TrimSpace(in.Building),
		Floor:       in.Floor,
		RoomType:    strings.TrimSpace(in.RoomType),
		Price:       in.Price,
		Status:      rooms.RoomAvailable,
		Amenities:   datatypes.JSON(rawAmenities),
		Promotion:   strings.TrimSpace(in.Promotion),
		Description: strings.TrimSpace(in.Description),
		ImageURL:    imageURL,
	})
	if err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}
	s.log.Info("Room created", "room_id", room.ID, "room_number", room.RoomNumber)
	return room, nil
}

func (s *roomService) Delete(ctx context.Context, id uint) error {
	if _, err := requireAdmin(ctx); err != nil {
		return err
	}
	deleted, err := s.rooms.Delete(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	if !deleted {
		return apierr.Wrap(apierr.ErrNotFound, "room not found")
	}
	return nil
}

// ParseAmenities accepts a JSON list; anything else yields an empty list.
func ParseAmenities(raw string) []string {
	var out []string
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &out); err != nil {
		return []string{}
	}
	return out
}

func notFoundAs(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apierr.Wrap(apierr.ErrNotFound, format, args...)
	}
	return err
}
