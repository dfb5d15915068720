package services

import (
	"context"
	"sync"
	"testing"

	"gorm.io/gorm"

	"github.com/chadayu1004/smart-apartment-ai/internal/data/repos"
	"github.com/chadayu1004/smart-apartment-ai/internal/data/repos/testutil"
	"github.com/chadayu1004/smart-apartment-ai/internal/domain/user"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/ctxutil"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/gcp"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/localmedia"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/logger"
	"github.com/chadayu1004/smart-apartment-ai/internal/realtime"
)

func ctxFor(id user.Identity) context.Context {
	return ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{
		UserID:   id.UserID,
		Role:     id.Role,
		TenantID: id.TenantID,
	})
}

func adminCtx() context.Context {
	return ctxFor(user.Identity{UserID: 1, Role: user.RoleAdmin})
}

type recordingEmitter struct {
	mu   sync.Mutex
	msgs []realtime.SSEMessage
}

func (e *recordingEmitter) Emit(_ context.Context, msg realtime.SSEMessage) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.msgs = append(e.msgs, msg)
}

func (e *recordingEmitter) sent() []realtime.SSEMessage {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]realtime.SSEMessage(nil), e.msgs...)
}

type fakeOCR struct {
	text string
	err  error
}

func (f fakeOCR) OCRImageBytes(context.Context, []byte, string) (*gcp.VisionOCRResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &gcp.VisionOCRResult{Provider: "fake", RawText: f.text}, nil
}

type env struct {
	db  *gorm.DB
	log *logger.Logger

	users    repos.UserRepo
	tenants  repos.TenantRepo
	rooms    repos.RoomRepo
	bookings repos.BookingRepo
	contract repos.ContractRepo
	payments repos.PaymentRepo
	notifs   repos.NotificationRepo
	messages repos.ChatMessageRepo

	emitter *recordingEmitter
	notify  NotificationService
	media   localmedia.Store
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	e := &env{
		db:       db,
		log:      log,
		users:    repos.NewUserRepo(db, log),
		tenants:  repos.NewTenantRepo(db, log),
		rooms:    repos.NewRoomRepo(db, log),
		bookings: repos.NewBookingRepo(db, log),
		contract: repos.NewContractRepo(db, log),
		payments: repos.NewPaymentRepo(db, log),
		notifs:   repos.NewNotificationRepo(db, log),
		messages: repos.NewChatMessageRepo(db, log),
		emitter:  &recordingEmitter{},
		media:    localmedia.New(log, t.TempDir()),
	}
	e.notify = NewNotificationService(log, e.notifs, e.emitter)
	return e
}

func (e *env) bookingService(ocr TextRecognizer) BookingService {
	return NewBookingService(e.db, e.log, BookingDeps{
		Rooms:         e.rooms,
		Bookings:      e.bookings,
		Tenants:       e.tenants,
		Users:         e.users,
		Contracts:     e.contract,
		Notifications: e.notify,
		Media:         e.media,
		OCR:           ocr,
	})
}

func (e *env) paymentService(ocr TextRecognizer) PaymentService {
	return NewPaymentService(e.db, e.log, PaymentDeps{
		Payments:          e.payments,
		Contracts:         e.contract,
		Users:             e.users,
		NotificationsRepo: e.notifs,
		Notifications:     e.notify,
		Media:             e.media,
		OCR:               ocr,
	})
}
