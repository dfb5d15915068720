package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chadayu1004/smart-apartment-ai/internal/data/repos/testutil"
	types "github.com/chadayu1004/smart-apartment-ai/internal/domain"
	"github.com/chadayu1004/smart-apartment-ai/internal/domain/billing"
	"github.com/chadayu1004/smart-apartment-ai/internal/domain/notification"
	"github.com/chadayu1004/smart-apartment-ai/internal/domain/rooms"
	"github.com/chadayu1004/smart-apartment-ai/internal/domain/user"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/apierr"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/dbctx"
	"github.com/chadayu1004/smart-apartment-ai/internal/realtime"
)

const slipText = "โอนเงินสำเร็จ\nนาย สมชาย ใจดี\nเลขที่รายการ: 015349123456789012\nจำนวน: 10,000.00 บาท"

// approvedContract runs a booking through approval and returns the applicant
// and the deposit contract it opened.
func approvedContract(t *testing.T, e *env) (*types.User, *types.Contract) {
	t.Helper()
	u := testutil.SeedUser(t, e.db, "applicant", user.RoleUser, nil)
	room := testutil.SeedRoom(t, e.db, "204", 5000, rooms.RoomReserved)
	b := testutil.SeedBooking(t, e.db, room.ID, u.ID, validID, 5000)
	res, err := e.bookingService(nil).Approve(adminCtx(), b.ID, "")
	require.NoError(t, err)
	return u, res.Contract
}

func tenantCtx(u *types.User) context.Context {
	return ctxFor(user.Identity{UserID: u.ID, Role: user.RoleTenant})
}

func TestAssessSlip(t *testing.T) {
	cases := []struct {
		name   string
		ref    string
		amount float64
		ocr    string
		status string
	}{
		{"matches", "015349123456789012", 10000, slipText, billing.SlipVerified},
		{"nothing typed", "", 0, slipText, billing.SlipVerified},
		{"wrong amount", "015349123456789012", 9000, slipText, billing.SlipMismatch},
		{"wrong reference", "999999999999", 10000, slipText, billing.SlipMismatch},
		{"blank slip", "015349123456789012", 10000, "ขอบคุณ", billing.SlipUnreadable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := AssessSlip(tc.ref, tc.amount, tc.ocr)
			require.Equal(t, tc.status, got.Status)
			require.NotEmpty(t, got.Remark)
		})
	}
}

func TestSubmitPaymentMovesDepositToReview(t *testing.T) {
	e := newEnv(t)
	boss := testutil.SeedUser(t, e.db, "boss", user.RoleAdmin, nil)
	u, contract := approvedContract(t, e)
	svc := e.paymentService(fakeOCR{text: slipText})
	dbc := dbctx.Context{Ctx: context.Background()}

	unread, err := e.notifs.CountUnread(dbc, u.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, unread, "deposit reminder from approval")

	p, err := svc.Submit(tenantCtx(u), SubmitPaymentInput{
		ContractID:      contract.ID,
		BankName:        "KBank",
		ReferenceNumber: "015349123456789012",
		AmountPaid:      10000,
		SlipName:        "slip.jpg",
		Slip:            fakeJPEG,
	})
	require.NoError(t, err)
	require.Equal(t, billing.PaymentPending, p.Status)
	require.Equal(t, billing.SlipVerified, p.SlipStatus)
	require.Equal(t, "สมชาย ใจดี", p.PayerName, "payer filled from the slip")
	require.Equal(t, contract.TenantID, p.TenantID)
	require.Contains(t, p.SlipImageURL, "/media/slips/")

	got, err := e.contract.GetByID(dbc, contract.ID)
	require.NoError(t, err)
	require.Equal(t, billing.DepositPendingReview, got.DepositStatus)
	require.Equal(t, p.SlipImageURL, got.DepositSlipURL)

	unread, err = e.notifs.CountUnread(dbc, u.ID)
	require.NoError(t, err)
	require.Zero(t, unread, "deposit reminder is cleared by the submission")

	adminNotes, err := e.notifs.ListByUser(dbc, boss.ID, 10)
	require.NoError(t, err)
	require.Len(t, adminNotes, 1)
	require.Equal(t, notification.TypePayment, adminNotes[0].Type)
	require.Contains(t, adminNotes[0].Message, contract.ContractNo)

	var toBoss []realtime.SSEMessage
	for _, m := range e.emitter.sent() {
		if m.Channel == realtime.UserChannel(boss.ID) {
			toBoss = append(toBoss, m)
		}
	}
	require.Len(t, toBoss, 1)

	list, err := svc.ListMine(tenantCtx(u))
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, p.ID, list[0].ID)
}

func TestSubmitPaymentValidation(t *testing.T) {
	e := newEnv(t)
	u, contract := approvedContract(t, e)
	other := testutil.SeedUser(t, e.db, "other", user.RoleTenant, nil)
	in := SubmitPaymentInput{ContractID: contract.ID, ReferenceNumber: "123456789012", AmountPaid: 10000, SlipName: "s.jpg", Slip: fakeJPEG}

	_, err := e.paymentService(nil).Submit(context.Background(), in)
	require.ErrorIs(t, err, apierr.ErrUnauthenticated)

	_, err = e.paymentService(nil).Submit(tenantCtx(other), in)
	require.ErrorIs(t, err, apierr.ErrForbidden)

	bad := in
	bad.Slip = []byte("just some text")
	_, err = e.paymentService(nil).Submit(tenantCtx(u), bad)
	require.ErrorIs(t, err, apierr.ErrInvalidArgument)

	missing := in
	missing.ContractID = contract.ID + 100
	_, err = e.paymentService(nil).Submit(tenantCtx(u), missing)
	require.ErrorIs(t, err, apierr.ErrNotFound)

	blank := in
	blank.ReferenceNumber, blank.AmountPaid = "", 0
	_, err = e.paymentService(nil).Submit(tenantCtx(u), blank)
	require.ErrorIs(t, err, apierr.ErrInvalidArgument, "nothing typed and no reader")

	p, err := e.paymentService(fakeOCR{text: slipText}).Submit(tenantCtx(u), blank)
	require.NoError(t, err, "blank fields come from the slip")
	require.Equal(t, "015349123456789012", p.ReferenceNumber)
	require.InDelta(t, 10000, p.AmountPaid, 0.001)

	p, err = e.paymentService(nil).Submit(tenantCtx(u), in)
	require.NoError(t, err)
	require.Equal(t, billing.SlipError, p.SlipStatus)
}

func TestApprovePaymentMarksDepositPaid(t *testing.T) {
	e := newEnv(t)
	u, contract := approvedContract(t, e)
	svc := e.paymentService(fakeOCR{text: slipText})
	p, err := svc.Submit(tenantCtx(u), SubmitPaymentInput{ContractID: contract.ID, SlipName: "s.png", Slip: fakeJPEG})
	require.NoError(t, err)

	_, err = svc.Approve(tenantCtx(u), p.ID)
	require.ErrorIs(t, err, apierr.ErrForbidden)

	approved, err := svc.Approve(adminCtx(), p.ID)
	require.NoError(t, err)
	require.Equal(t, billing.PaymentApproved, approved.Status)

	dbc := dbctx.Context{Ctx: context.Background()}
	got, err := e.contract.GetByID(dbc, contract.ID)
	require.NoError(t, err)
	require.Equal(t, billing.DepositPaid, got.DepositStatus)
	require.NotNil(t, got.DepositPaidAt)

	notes, err := e.notifs.ListByUser(dbc, u.ID, 10)
	require.NoError(t, err)
	require.Equal(t, notification.TypePayment, notes[0].Type)
	var data map[string]any
	require.NoError(t, json.Unmarshal(notes[0].Data, &data))
	require.Equal(t, billing.PaymentApproved, data["payment_status"])

	_, err = svc.Approve(adminCtx(), p.ID)
	require.ErrorIs(t, err, apierr.ErrInvalidArgument)
	_, err = svc.Reject(adminCtx(), p.ID)
	require.ErrorIs(t, err, apierr.ErrInvalidArgument)
	_, err = svc.Approve(adminCtx(), p.ID+100)
	require.ErrorIs(t, err, apierr.ErrNotFound)

	_, err = svc.Submit(tenantCtx(u), SubmitPaymentInput{ContractID: contract.ID, SlipName: "s.png", Slip: fakeJPEG})
	require.ErrorIs(t, err, apierr.ErrInvalidArgument, "a paid deposit takes no more slips")
}

func TestRejectPaymentReopensDeposit(t *testing.T) {
	e := newEnv(t)
	u, contract := approvedContract(t, e)
	svc := e.paymentService(fakeOCR{text: slipText})
	p, err := svc.Submit(tenantCtx(u), SubmitPaymentInput{ContractID: contract.ID, SlipName: "s.jpg", Slip: fakeJPEG})
	require.NoError(t, err)

	rejected, err := svc.Reject(adminCtx(), p.ID)
	require.NoError(t, err)
	require.Equal(t, billing.PaymentRejected, rejected.Status)

	got, err := e.contract.GetByID(dbctx.Context{Ctx: context.Background()}, contract.ID)
	require.NoError(t, err)
	require.Equal(t, billing.DepositPending, got.DepositStatus)
}

func TestListAllPaymentsForAdmin(t *testing.T) {
	e := newEnv(t)
	u, contract := approvedContract(t, e)
	svc := e.paymentService(fakeOCR{text: slipText})
	p, err := svc.Submit(tenantCtx(u), SubmitPaymentInput{ContractID: contract.ID, SlipName: "s.jpg", Slip: fakeJPEG})
	require.NoError(t, err)

	_, err = svc.ListAll(tenantCtx(u))
	require.ErrorIs(t, err, apierr.ErrForbidden)

	rows, err := svc.ListAll(adminCtx())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, p.ID, rows[0].ID)
	require.Equal(t, "Somchai Jaidee", rows[0].TenantName)
	require.Equal(t, "204", rows[0].RoomNumber)
	require.InDelta(t, 10000, rows[0].AmountPaid, 0.001)
}

func TestContractLookups(t *testing.T) {
	e := newEnv(t)
	u, contract := approvedContract(t, e)
	other := testutil.SeedUser(t, e.db, "other", user.RoleUser, nil)
	svc := NewContractService(e.log, e.contract)

	got, err := svc.ByBooking(adminCtx(), contract.BookingID)
	require.NoError(t, err)
	require.Equal(t, contract.ID, got.ID)

	got, err = svc.ByBooking(tenantCtx(u), contract.BookingID)
	require.NoError(t, err)
	require.Equal(t, contract.ContractNo, got.ContractNo)

	_, err = svc.ByBooking(ctxFor(user.Identity{UserID: other.ID, Role: user.RoleUser}), contract.BookingID)
	require.ErrorIs(t, err, apierr.ErrNotFound)
	_, err = svc.ByBooking(adminCtx(), contract.BookingID+100)
	require.ErrorIs(t, err, apierr.ErrNotFound)

	mine, err := svc.MyLatest(tenantCtx(u))
	require.NoError(t, err)
	require.Equal(t, contract.ID, mine.ID)

	_, err = svc.MyLatest(ctxFor(user.Identity{UserID: other.ID, Role: user.RoleUser}))
	require.ErrorIs(t, err, apierr.ErrNotFound)
}
