package services

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chadayu1004/smart-apartment-ai/internal/data/repos/testutil"
	"github.com/chadayu1004/smart-apartment-ai/internal/domain/billing"
	"github.com/chadayu1004/smart-apartment-ai/internal/domain/notification"
	"github.com/chadayu1004/smart-apartment-ai/internal/domain/rooms"
	"github.com/chadayu1004/smart-apartment-ai/internal/domain/user"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/apierr"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/dbctx"
	"github.com/chadayu1004/smart-apartment-ai/internal/realtime"
)

const validID = "1101700203450"

var fakeJPEG = []byte{0xff, 0xd8, 0xff, 0xe0, 0, 0x10, 'J', 'F', 'I', 'F', 0}

func TestAssessIDCard(t *testing.T) {
	cases := []struct {
		name   string
		ocr    string
		status string
		score  float64
	}{
		{"exact", "บัตรประจำตัวประชาชน 1 1017 00203 45 0", rooms.AIStatusPass, 100},
		{"confused letters", "l lOl7 OO2O3 45 O", rooms.AIStatusPass, 100},
		{"one digit off", "1 1117 00203 45 0", rooms.AIStatusWarning, 12.0 / 13 * 100},
		{"other person", "3 1006 00123 45 0", rooms.AIStatusFail, 8.0 / 13 * 100},
		{"nothing readable", "ชื่อ สมชาย", rooms.AIStatusFail, 20},
		{"bad checksum", "1 1017 00203 45 1", rooms.AIStatusFail, 20},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := AssessIDCard(validID, tc.ocr)
			require.Equal(t, tc.status, got.Status)
			require.InDelta(t, tc.score, got.Confidence, 0.01)
			require.NotEmpty(t, got.Remark)
		})
	}
}

func TestFormatAmount(t *testing.T) {
	require.Equal(t, "0.00", FormatAmount(0))
	require.Equal(t, "999.50", FormatAmount(999.5))
	require.Equal(t, "1,000.00", FormatAmount(1000))
	require.Equal(t, "12,345,678.90", FormatAmount(12345678.9))
	require.Equal(t, "-4,500.00", FormatAmount(-4500))
}

func submitInput(roomID uint) SubmitBookingInput {
	return SubmitBookingInput{
		RoomID:       roomID,
		FirstName:    "Somchai",
		LastName:     "Jaidee",
		Phone:        "0812345678",
		IDCardNumber: validID,
		ImageName:    "card.jpg",
		Image:        fakeJPEG,
	}
}

func TestSubmitBookingReservesRoom(t *testing.T) {
	e := newEnv(t)
	u := testutil.SeedUser(t, e.db, "applicant", user.RoleUser, nil)
	room := testutil.SeedRoom(t, e.db, "101", 4500, rooms.RoomAvailable)
	svc := e.bookingService(fakeOCR{text: "1 1017 00203 45 0"})
	ctx := ctxFor(user.Identity{UserID: u.ID, Role: user.RoleUser})

	b, err := svc.Submit(ctx, submitInput(room.ID))
	require.NoError(t, err)
	require.Equal(t, rooms.BookingPending, b.Status)
	require.Equal(t, u.ID, b.UserID)
	require.Equal(t, rooms.AIStatusPass, b.AIStatus)
	require.InDelta(t, 100, b.AIConfidence, 0.001)
	require.InDelta(t, 4500, b.AgreedMonthlyRent, 0.001)
	require.InDelta(t, 9000, b.DepositAmount, 0.001)
	require.Equal(t, rooms.DefaultLeaseTermMonths, b.LeaseTermMonths)

	require.True(t, strings.HasPrefix(b.IDImageURL, "/media/id_cards/id_"), b.IDImageURL)
	stored := filepath.Join(e.media.Root(), strings.TrimPrefix(b.IDImageURL, "/media/"))
	raw, err := os.ReadFile(stored)
	require.NoError(t, err)
	require.Equal(t, fakeJPEG, raw)

	got, err := e.rooms.GetByID(dbctx.Context{Ctx: context.Background()}, room.ID)
	require.NoError(t, err)
	require.Equal(t, rooms.RoomReserved, got.Status)

	_, err = svc.Submit(ctx, submitInput(room.ID))
	require.ErrorIs(t, err, apierr.ErrInvalidArgument)
}

func TestSubmitBookingValidation(t *testing.T) {
	e := newEnv(t)
	u := testutil.SeedUser(t, e.db, "applicant", user.RoleUser, nil)
	room := testutil.SeedRoom(t, e.db, "101", 4500, rooms.RoomOccupied)
	svc := e.bookingService(nil)
	ctx := ctxFor(user.Identity{UserID: u.ID, Role: user.RoleUser})

	_, err := svc.Submit(context.Background(), submitInput(room.ID))
	require.ErrorIs(t, err, apierr.ErrUnauthenticated)

	in := submitInput(room.ID)
	in.IDCardNumber = "1101700203451"
	_, err = svc.Submit(ctx, in)
	require.ErrorIs(t, err, apierr.ErrInvalidArgument)

	in = submitInput(room.ID)
	in.Image = nil
	_, err = svc.Submit(ctx, in)
	require.ErrorIs(t, err, apierr.ErrInvalidArgument)

	_, err = svc.Submit(ctx, submitInput(room.ID+100))
	require.ErrorIs(t, err, apierr.ErrNotFound)

	_, err = svc.Submit(ctx, submitInput(room.ID))
	require.ErrorIs(t, err, apierr.ErrInvalidArgument, "occupied rooms are not bookable")
}

func TestSubmitBookingRecordsOCRProblems(t *testing.T) {
	for name, ocr := range map[string]TextRecognizer{
		"not configured": nil,
		"provider error": fakeOCR{err: errors.New("quota exceeded")},
	} {
		t.Run(name, func(t *testing.T) {
			e := newEnv(t)
			u := testutil.SeedUser(t, e.db, "applicant", user.RoleUser, nil)
			room := testutil.SeedRoom(t, e.db, "101", 4500, rooms.RoomAvailable)
			svc := e.bookingService(ocr)

			b, err := svc.Submit(ctxFor(user.Identity{UserID: u.ID, Role: user.RoleUser}), submitInput(room.ID))
			require.NoError(t, err)
			require.Equal(t, rooms.AIStatusError, b.AIStatus)
			require.Zero(t, b.AIConfidence)
			require.True(t, strings.HasPrefix(b.AIRemark, "AI error"), b.AIRemark)
		})
	}
}

func TestApproveBookingPromotesUserAndNotifies(t *testing.T) {
	e := newEnv(t)
	u := testutil.SeedUser(t, e.db, "applicant", user.RoleUser, nil)
	room := testutil.SeedRoom(t, e.db, "204", 5000, rooms.RoomReserved)
	b := testutil.SeedBooking(t, e.db, room.ID, u.ID, validID, 5000)
	svc := e.bookingService(nil)

	_, err := svc.Approve(ctxFor(user.Identity{UserID: u.ID, Role: user.RoleUser}), b.ID, "")
	require.ErrorIs(t, err, apierr.ErrForbidden)

	res, err := svc.Approve(adminCtx(), b.ID, "  Deposit terms for room 204  ")
	require.NoError(t, err)
	require.Equal(t, rooms.BookingApproved, res.Booking.Status)
	require.Equal(t, validID, res.Tenant.IDCardNumber)

	dbc := dbctx.Context{Ctx: context.Background()}
	promoted, err := e.users.GetByID(dbc, u.ID)
	require.NoError(t, err)
	require.Equal(t, user.RoleTenant, promoted.Role)
	require.NotNil(t, promoted.TenantID)
	require.Equal(t, res.Tenant.ID, *promoted.TenantID)

	occupied, err := e.rooms.GetByID(dbc, room.ID)
	require.NoError(t, err)
	require.Equal(t, rooms.RoomOccupied, occupied.Status)

	c := res.Contract
	require.NotNil(t, c)
	require.Equal(t, billing.ContractTypeDeposit, c.ContractType)
	require.Equal(t, billing.FormatContractNo(billing.ContractTypeDeposit, time.Now().UTC(), 1), c.ContractNo)
	require.Equal(t, billing.DepositPending, c.DepositStatus)
	require.Equal(t, "Deposit terms for room 204", c.ContractText)
	require.Equal(t, res.Tenant.ID, c.TenantID)
	require.Equal(t, b.ID, c.BookingID)
	require.Equal(t, u.ID, c.UserID)
	require.InDelta(t, 10000, c.DepositAmount, 0.001)
	require.InDelta(t, 5000, c.MonthlyRent, 0.001)
	require.NotNil(t, c.EndDate)
	require.Equal(t, b.LeaseStartDate.AddDate(0, 0, 30*rooms.DefaultLeaseTermMonths).Unix(), c.EndDate.Unix())

	n := res.Notification
	require.NotNil(t, n)
	require.Equal(t, notification.TypeDepositDue, n.Type)
	require.Equal(t, u.ID, n.UserID)
	require.Contains(t, n.Message, "room 204")
	require.Contains(t, n.Message, "10,000.00 THB")
	due := b.LeaseStartDate.AddDate(0, 0, DepositDueDays)
	require.Contains(t, n.Message, due.Format("02/01/2006"))

	var data map[string]any
	require.NoError(t, json.Unmarshal(n.Data, &data))
	require.EqualValues(t, b.ID, data["booking_id"])
	require.EqualValues(t, res.Tenant.ID, data["tenant_id"])
	require.EqualValues(t, c.ID, data["contract_id"])
	require.Equal(t, c.ContractNo, data["contract_no"])
	require.Equal(t, due.Format("2006-01-02"), data["deposit_due_date"])

	sent := e.emitter.sent()
	require.Len(t, sent, 1)
	require.Equal(t, realtime.UserChannel(u.ID), sent[0].Channel)
	require.Equal(t, realtime.SSEEventNotificationCreated, sent[0].Event)

	_, err = svc.Approve(adminCtx(), b.ID, "")
	require.ErrorIs(t, err, apierr.ErrInvalidArgument)
	require.Len(t, e.emitter.sent(), 1, "a processed booking is not approved twice")

	_, err = svc.Approve(adminCtx(), b.ID+100, "")
	require.ErrorIs(t, err, apierr.ErrNotFound)
}

func TestApproveReusesExistingTenant(t *testing.T) {
	e := newEnv(t)
	existing := testutil.SeedTenant(t, e.db, validID)
	u := testutil.SeedUser(t, e.db, "applicant", user.RoleUser, nil)
	room := testutil.SeedRoom(t, e.db, "301", 3000, rooms.RoomReserved)
	b := testutil.SeedBooking(t, e.db, room.ID, u.ID, validID, 3000)

	res, err := e.bookingService(nil).Approve(adminCtx(), b.ID, "")
	require.NoError(t, err)
	require.Equal(t, existing.ID, res.Tenant.ID)

	all, err := e.tenants.List(dbctx.Context{Ctx: context.Background()})
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestRejectBookingReleasesRoom(t *testing.T) {
	e := newEnv(t)
	u := testutil.SeedUser(t, e.db, "applicant", user.RoleUser, nil)
	room := testutil.SeedRoom(t, e.db, "105", 4000, rooms.RoomReserved)
	b := testutil.SeedBooking(t, e.db, room.ID, u.ID, validID, 4000)
	svc := e.bookingService(nil)

	got, err := svc.Reject(adminCtx(), b.ID)
	require.NoError(t, err)
	require.Equal(t, rooms.BookingRejected, got.Status)

	dbc := dbctx.Context{Ctx: context.Background()}
	released, err := e.rooms.GetByID(dbc, room.ID)
	require.NoError(t, err)
	require.Equal(t, rooms.RoomAvailable, released.Status)

	applicant, err := e.users.GetByID(dbc, u.ID)
	require.NoError(t, err)
	require.Equal(t, user.RoleUser, applicant.Role)

	_, err = svc.Reject(adminCtx(), b.ID)
	require.ErrorIs(t, err, apierr.ErrInvalidArgument)
	_, err = svc.Approve(adminCtx(), b.ID, "")
	require.ErrorIs(t, err, apierr.ErrInvalidArgument)
	require.Empty(t, e.emitter.sent())
}

func TestListBookingsNewestFirst(t *testing.T) {
	e := newEnv(t)
	u := testutil.SeedUser(t, e.db, "applicant", user.RoleUser, nil)
	r1 := testutil.SeedRoom(t, e.db, "101", 4000, rooms.RoomReserved)
	r2 := testutil.SeedRoom(t, e.db, "102", 4000, rooms.RoomReserved)
	first := testutil.SeedBooking(t, e.db, r1.ID, u.ID, validID, 4000)
	second := testutil.SeedBooking(t, e.db, r2.ID, u.ID, validID, 4000)
	svc := e.bookingService(nil)

	_, err := svc.List(ctxFor(user.Identity{UserID: u.ID, Role: user.RoleTenant}))
	require.ErrorIs(t, err, apierr.ErrForbidden)

	list, err := svc.List(adminCtx())
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, second.ID, list[0].ID)
	require.Equal(t, first.ID, list[1].ID)
}
