package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/datatypes"

	"github.com/chadayu1004/smart-apartment-ai/internal/data/repos"
	types "github.com/chadayu1004/smart-apartment-ai/internal/domain"
	"github.com/chadayu1004/smart-apartment-ai/internal/domain/notification"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/apierr"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/dbctx"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/logger"
	"github.com/chadayu1004/smart-apartment-ai/internal/realtime"
)

type NotificationInput struct {
	UserID  uint
	Title   string
	Message string
	Type    string
	Data    map[string]any
}

type NotificationService interface {
	// Create persists inside dbc (possibly a transaction) without pushing.
	Create(dbc dbctx.Context, in NotificationInput) (*types.Notification, error)
	// Push emits a persisted notification on the owner's SSE channel.
	Push(ctx context.Context, n *types.Notification)
	// Notify is Create followed by Push.
	Notify(ctx context.Context, in NotificationInput) (*types.Notification, error)

	ListMine(ctx context.Context, limit int) ([]*types.Notification, error)
	UnreadCount(ctx context.Context) (int64, error)
	MarkRead(ctx context.Context, id uint) error
	MarkAllRead(ctx context.Context) (int64, error)
}

type notificationService struct {
	log     *logger.Logger
	repo    repos.NotificationRepo
	emitter SSEEmitter
}

func NewNotificationService(log *logger.Logger, repo repos.NotificationRepo, emitter SSEEmitter) NotificationService {
	return &notificationService{log: log.With("service", "NotificationService"), repo: repo, emitter: emitter}
}

func (s *notificationService) Create(dbc dbctx.Context, in NotificationInput) (*types.Notification, error) {
	if in.UserID == 0 {
		return nil, apierr.Wrap(apierr.ErrInvalidArgument, "notification needs a user")
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, apierr.Wrap(apierr.ErrInvalidArgument, "notification needs a title")
	}
	if in.Type == "" {
		in.Type = notification.TypeSystem
	}
	var data datatypes.JSON
	if in.Data != nil {
		raw, err := json.Marshal(in.Data)
		if err != nil {
			return nil, fmt.Errorf("encode notification data: %w", err)
		}
		data = datatypes.JSON(raw)
	}
	return s.repo.Create(dbc, &types.Notification{
		UserID:  in.UserID,
		Title:   strings.TrimSpace(in.Title),
		Message: strings.TrimSpace(in.Message),
		Type:    in.Type,
		Data:    data,
	})
}

func (s *notificationService) Push(ctx context.Context, n *types.Notification) {
	if n == nil || s.emitter == nil {
		return
	}
	s.emitter.Emit(ctx, realtime.SSEMessage{
		Channel: realtime.UserChannel(n.UserID),
		Event:   realtime.SSEEventNotificationCreated,
		Data:    n,
	})
}

func (s *notificationService) Notify(ctx context.Context, in NotificationInput) (*types.Notification, error) {
	n, err := s.Create(dbctx.Context{Ctx: ctx}, in)
	if err != nil {
		return nil, err
	}
	s.Push(ctx, n)
	return n, nil
}

func (s *notificationService) ListMine(ctx context.Context, limit int) ([]*types.Notification, error) {
	id, err := IdentityFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByUser(dbctx.Context{Ctx: ctx}, id.UserID, limit)
}

func (s *notificationService) UnreadCount(ctx context.Context) (int64, error) {
	id, err := IdentityFromContext(ctx)
	if err != nil {
		return 0, err
	}
	return s.repo.CountUnread(dbctx.Context{Ctx: ctx}, id.UserID)
}

func (s *notificationService) MarkRead(ctx context.Context, notificationID uint) error {
	id, err := IdentityFromContext(ctx)
	if err != nil {
		return err
	}
	ok, err := s.repo.MarkRead(dbctx.Context{Ctx: ctx}, id.UserID, notificationID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if !ok {
		return apierr.Wrap(apierr.ErrNotFound, "notification not found")
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context) (int64, error) {
	id, err := IdentityFromContext(ctx)
	if err != nil {
		return 0, err
	}
	n, err := s.repo.MarkAllRead(dbctx.Context{Ctx: ctx}, id.UserID)
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	if n > 0 && s.emitter != nil {
		s.emitter.Emit(ctx, realtime.SSEMessage{
			Channel: realtime.UserChannel(id.UserID),
			Event:   realtime.SSEEventNotificationsRead,
			Data:    map[string]any{"updated": n},
		})
	}
	return n, nil
}
