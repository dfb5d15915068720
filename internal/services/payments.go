package services

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/chadayu1004/smart-apartment-ai/internal/data/repos"
	types "github.com/chadayu1004/smart-apartment-ai/internal/domain"
	"github.com/chadayu1004/smart-apartment-ai/internal/domain/billing"
	"github.com/chadayu1004/smart-apartment-ai/internal/domain/notification"
	"github.com/chadayu1004/smart-apartment-ai/internal/domain/user"
	"github.com/chadayu1004/smart-apartment-ai/internal/normalization"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/apierr"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/dbctx"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/localmedia"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/logger"
)

var slipContentTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
}

// SubmitPaymentInput is a tenant's proof of transfer. Blank fields are filled
// from the slip when it can be read.
type SubmitPaymentInput struct {
	ContractID      uint
	BankName        string
	ReferenceNumber string
	AmountPaid      float64
	PayerName       string

	SlipName string
	Slip     []byte
}

// SlipCheck is the outcome of reading a slip and comparing it with the form.
type SlipCheck struct {
	Status  string
	Remark  string
	Reading normalization.SlipReading
}

type PaymentService interface {
	Submit(ctx context.Context, in SubmitPaymentInput) (*types.Payment, error)
	ListMine(ctx context.Context) ([]*types.Payment, error)
	ListAll(ctx context.Context) ([]*types.AdminPaymentView, error)
	// Approve marks the deposit of the payment's contract as paid.
	Approve(ctx context.Context, paymentID uint) (*types.Payment, error)
	// Reject returns the contract's deposit to pending.
	Reject(ctx context.Context, paymentID uint) (*types.Payment, error)
}

type paymentService struct {
	db            *gorm.DB
	log           *logger.Logger
	payments      repos.PaymentRepo
	contracts     repos.ContractRepo
	users         repos.UserRepo
	notifRepo     repos.NotificationRepo
	notifications NotificationService
	media         localmedia.Store
	ocr           TextRecognizer
	now           func() time.Time
}

type PaymentDeps struct {
	Payments          repos.PaymentRepo
	Contracts         repos.ContractRepo
	Users             repos.UserRepo
	NotificationsRepo repos.NotificationRepo
	Notifications     NotificationService
	Media             localmedia.Store
	// OCR may be nil; slips are then recorded with slip_status "error".
	OCR TextRecognizer
}

func NewPaymentService(db *gorm.DB, log *logger.Logger, deps PaymentDeps) PaymentService {
	return &paymentService{
		db:            db,
		log:           log.With("service", "PaymentService"),
		payments:      deps.Payments,
		contracts:     deps.Contracts,
		users:         deps.Users,
		notifRepo:     deps.NotificationsRepo,
		notifications: deps.Notifications,
		media:         deps.Media,
		ocr:           deps.OCR,
		now:           time.Now,
	}
}

func (s *paymentService) Submit(ctx context.Context, in SubmitPaymentInput) (*types.Payment, error) {
	caller, err := IdentityFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if len(in.Slip) == 0 {
		return nil, apierr.Wrap(apierr.ErrInvalidArgument, "slip image is required")
	}
	mime := http.DetectContentType(in.Slip)
	if _, ok := slipContentTypes[mime]; !ok {
		return nil, apierr.Wrap(apierr.ErrInvalidArgument, "slip must be a JPG, PNG or WEBP image")
	}
	if in.AmountPaid < 0 {
		return nil, apierr.Wrap(apierr.ErrInvalidArgument, "amount_paid must not be negative")
	}

	contract, err := s.contracts.GetByID(dbctx.Context{Ctx: ctx}, in.ContractID)
	if err != nil {
		return nil, notFoundAs(err, "contract not found")
	}
	if contract.UserID != caller.UserID {
		return nil, apierr.Wrap(apierr.ErrForbidden, "contract belongs to another user")
	}
	if contract.DepositStatus == billing.DepositPaid {
		return nil, apierr.Wrap(apierr.ErrInvalidArgument, "deposit is already paid")
	}

	check := s.checkSlip(ctx, in, mime)
	ref := firstNonEmpty(in.ReferenceNumber, check.Reading.Reference)
	amount := in.AmountPaid
	if amount == 0 {
		amount = check.Reading.Amount
	}
	if ref == "" || amount <= 0 {
		return nil, apierr.Wrap(apierr.ErrInvalidArgument, "reference_number and amount_paid are required when the slip cannot be read")
	}

	slipURL, err := s.media.Save(ctx, "slips", in.SlipName, in.Slip)
	if err != nil {
		return nil, fmt.Errorf("save slip: %w", err)
	}

	var (
		created *types.Payment
		pending []*types.Notification
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: ctx, Tx: tx}
		created, err = s.payments.Create(txc, &types.Payment{
			TenantID:        contract.TenantID,
			ContractID:      contract.ID,
			UserID:          caller.UserID,
			BankName:        strings.TrimSpace(in.BankName),
			ReferenceNumber: ref,
			AmountPaid:      amount,
			PayerName:       firstNonEmpty(in.PayerName, check.Reading.Payer),
			SlipImageURL:    slipURL,
			SlipStatus:      check.Status,
			SlipRemark:      check.Remark,
			Status:          billing.PaymentPending,
		})
		if err != nil {
			return fmt.Errorf("create payment: %w", err)
		}
		if err := s.contracts.UpdateFields(txc, contract.ID, map[string]any{
			"deposit_status":   billing.DepositPendingReview,
			"deposit_slip_url": slipURL,
		}); err != nil {
			return fmt.Errorf("update contract: %w", err)
		}
		if _, err := s.notifRepo.MarkReadByType(txc, caller.UserID, notification.TypeDepositDue); err != nil {
			return fmt.Errorf("clear deposit reminders: %w", err)
		}

		admins, err := s.users.IDsByRole(txc, user.RoleAdmin)
		if err != nil {
			return fmt.Errorf("list admins: %w", err)
		}
		for _, adminID := range admins {
			n, err := s.notifications.Create(txc, NotificationInput{
				UserID: adminID,
				Title:  "New payment slip submitted",
				Message: fmt.Sprintf("Contract %s: %s THB submitted for review",
					contract.ContractNo, FormatAmount(amount)),
				Type: notification.TypePayment,
				Data: map[string]any{
					"payment_id":  created.ID,
					"contract_id": contract.ID,
					"amount":      amount,
					"slip_status": check.Status,
				},
			})
			if err != nil {
				return fmt.Errorf("notify admin: %w", err)
			}
			pending = append(pending, n)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, n := range pending {
		s.notifications.Push(ctx, n)
	}
	s.log.Info("Payment submitted",
		"payment_id", created.ID,
		"contract_id", contract.ID,
		"user_id", caller.UserID,
		"slip_status", check.Status,
	)
	return created, nil
}

// checkSlip never fails the submission: reader problems become slip_status "error".
func (s *paymentService) checkSlip(ctx context.Context, in SubmitPaymentInput, mime string) SlipCheck {
	if s.ocr == nil {
		return SlipCheck{Status: billing.SlipError, Remark: "slip reader is not configured"}
	}
	res, err := s.ocr.OCRImageBytes(ctx, in.Slip, mime)
	if err != nil {
		s.log.Warn("Slip OCR failed", "contract_id", in.ContractID, "error", err)
		return SlipCheck{Status: billing.SlipError, Remark: "slip reader error: " + err.Error()}
	}
	text := ""
	if res != nil {
		text = res.RawText
	}
	return AssessSlip(strings.TrimSpace(in.ReferenceNumber), in.AmountPaid, text)
}

// AssessSlip compares the reference and amount typed by the payer (blank or
// zero when not given) with what the slip shows.
func AssessSlip(typedRef string, typedAmount float64, ocrText string) SlipCheck {
	r := normalization.ReadSlip(ocrText)
	out := SlipCheck{Reading: r}
	if r.Reference == "" && r.Amount == 0 {
		out.Status = billing.SlipUnreadable
		out.Remark = "no reference number or amount found on the slip"
		return out
	}
	var problems []string
	if typedRef != "" && r.Reference != "" && typedRef != r.Reference {
		problems = append(problems, fmt.Sprintf("reference on slip is %s", r.Reference))
	}
	if typedAmount > 0 && r.Amount > 0 && math.Abs(typedAmount-r.Amount) >= 0.01 {
		problems = append(problems, fmt.Sprintf("amount on slip is %s", FormatAmount(r.Amount)))
	}
	if len(problems) > 0 {
		out.Status = billing.SlipMismatch
		out.Remark = strings.Join(problems, "; ")
		return out
	}
	out.Status = billing.SlipVerified
	out.Remark = "slip matches the submitted details"
	return out
}

func (s *paymentService) ListMine(ctx context.Context) ([]*types.Payment, error) {
	caller, err := IdentityFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.payments.ListByUser(dbctx.Context{Ctx: ctx}, caller.UserID)
}

func (s *paymentService) ListAll(ctx context.Context) ([]*types.AdminPaymentView, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.payments.ListForAdmin(dbctx.Context{Ctx: ctx})
}

func (s *paymentService) Approve(ctx context.Context, paymentID uint) (*types.Payment, error) {
	return s.review(ctx, paymentID, billing.PaymentApproved)
}

func (s *paymentService) Reject(ctx context.Context, paymentID uint) (*types.Payment, error) {
	return s.review(ctx, paymentID, billing.PaymentRejected)
}

func (s *paymentService) review(ctx context.Context, paymentID uint, to string) (*types.Payment, error) {
	admin, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}

	var (
		out *types.Payment
		n   *types.Notification
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: ctx, Tx: tx}
		p, err := s.payments.GetByID(txc, paymentID)
		if err != nil {
			return notFoundAs(err, "payment not found")
		}
		ok, err := s.payments.TransitionStatus(txc, p.ID, billing.PaymentPending, to)
		if err != nil {
			return fmt.Errorf("review payment: %w", err)
		}
		if !ok {
			return apierr.Wrap(apierr.ErrInvalidArgument, "payment was already reviewed")
		}
		p.Status = to
		out = p

		updates := map[string]any{"deposit_status": billing.DepositPending}
		title := "Deposit payment rejected"
		msg := fmt.Sprintf("Your payment of %s THB could not be verified, please submit a new slip", FormatAmount(p.AmountPaid))
		if to == billing.PaymentApproved {
			updates = map[string]any{
				"deposit_status":   billing.DepositPaid,
				"deposit_paid_at":  s.now().UTC(),
				"deposit_slip_url": p.SlipImageURL,
			}
			title = "Deposit payment approved"
			msg = fmt.Sprintf("Your payment of %s THB has been approved", FormatAmount(p.AmountPaid))
		}
		if err := s.contracts.UpdateFields(txc, p.ContractID, updates); err != nil {
			return fmt.Errorf("update contract: %w", err)
		}

		n, err = s.notifications.Create(txc, NotificationInput{
			UserID:  p.UserID,
			Title:   title,
			Message: msg,
			Type:    notification.TypePayment,
			Data: map[string]any{
				"payment_id":     p.ID,
				"contract_id":    p.ContractID,
				"payment_status": to,
			},
		})
		if err != nil {
			return fmt.Errorf("notify payer: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifications.Push(ctx, n)
	s.log.Info("Payment reviewed",
		"payment_id", paymentID,
		"payment_status", to,
		"admin_user_id", admin.UserID,
	)
	return out, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
