package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/chadayu1004/smart-apartment-ai/internal/data/repos"
	types "github.com/chadayu1004/smart-apartment-ai/internal/domain"
	"github.com/chadayu1004/smart-apartment-ai/internal/domain/billing"
	"github.com/chadayu1004/smart-apartment-ai/internal/domain/notification"
	"github.com/chadayu1004/smart-apartment-ai/internal/domain/rooms"
	"github.com/chadayu1004/smart-apartment-ai/internal/domain/user"
	"github.com/chadayu1004/smart-apartment-ai/internal/normalization"
	"github.com/chadayu1004/smart-apartment-ai/internal/observability"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/apierr"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/dbctx"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/gcp"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/localmedia"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/logger"
)

const (
	// DepositDueDays counts from the lease start.
	DepositDueDays = 7
	// leaseMonthDays approximates a lease month when computing the end date.
	leaseMonthDays = 30

	idScorePass    = 95.0
	idScoreWarning = 70.0
	idScoreNoMatch = 20.0
)

// TextRecognizer reads the text printed on an image.
type TextRecognizer interface {
	OCRImageBytes(ctx context.Context, img []byte, mimeType string) (*gcp.VisionOCRResult, error)
}

type SubmitBookingInput struct {
	RoomID       uint
	FirstName    string
	LastName     string
	Phone        string
	IDCardNumber string

	ImageName string
	Image     []byte
}

// IDCheck is the outcome of comparing the typed ID number with the card image.
type IDCheck struct {
	Status     string
	Confidence float64
	Remark     string
}

type ApproveResult struct {
	Booking      *types.BookingRequest `json:"booking"`
	Tenant       *types.Tenant         `json:"tenant"`
	Contract     *types.Contract       `json:"contract"`
	Notification *types.Notification   `json:"notification,omitempty"`
}

type BookingService interface {
	Submit(ctx context.Context, in SubmitBookingInput) (*types.BookingRequest, error)
	List(ctx context.Context) ([]*types.BookingRequest, error)
	// Approve turns the applicant into a tenant and opens a deposit contract
	// carrying contractText.
	Approve(ctx context.Context, bookingID uint, contractText string) (*ApproveResult, error)
	Reject(ctx context.Context, bookingID uint) (*types.BookingRequest, error)
}

type bookingService struct {
	db            *gorm.DB
	log           *logger.Logger
	rooms         repos.RoomRepo
	bookings      repos.BookingRepo
	tenants       repos.TenantRepo
	users         repos.UserRepo
	contracts     repos.ContractRepo
	notifications NotificationService
	media         localmedia.Store
	ocr           TextRecognizer
	now           func() time.Time
}

type BookingDeps struct {
	Rooms         repos.RoomRepo
	Bookings      repos.BookingRepo
	Tenants       repos.TenantRepo
	Users         repos.UserRepo
	Contracts     repos.ContractRepo
	Notifications NotificationService
	Media         localmedia.Store
	// OCR may be nil; bookings then record ai_status "error".
	OCR TextRecognizer
}

func NewBookingService(db *gorm.DB, log *logger.Logger, deps BookingDeps) BookingService {
	return &bookingService{
		db:            db,
		log:           log.With("service", "BookingService"),
		rooms:         deps.Rooms,
		bookings:      deps.Bookings,
		tenants:       deps.Tenants,
		users:         deps.Users,
		contracts:     deps.Contracts,
		notifications: deps.Notifications,
		media:         deps.Media,
		ocr:           deps.OCR,
		now:           time.Now,
	}
}

func (s *bookingService) Submit(ctx context.Context, in SubmitBookingInput) (*types.BookingRequest, error) {
	caller, err := IdentityFromContext(ctx)
	if err != nil {
		return nil, err
	}
	in.IDCardNumber = strings.TrimSpace(in.IDCardNumber)
	if !normalization.ValidThaiID(in.IDCardNumber) {
		return nil, apierr.Wrap(apierr.ErrInvalidArgument, "invalid national ID number")
	}
	if strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "" {
		return nil, apierr.Wrap(apierr.ErrInvalidArgument, "first_name and last_name are required")
	}
	if len(in.Image) == 0 {
		return nil, apierr.Wrap(apierr.ErrInvalidArgument, "ID card image is required")
	}

	dbc := dbctx.Context{Ctx: ctx}
	room, err := s.rooms.GetByID(dbc, in.RoomID)
	if err != nil {
		return nil, notFoundAs(err, "room not found")
	}
	if !roomBookable(room.Status) {
		return nil, apierr.Wrap(apierr.ErrInvalidArgument, "room is already reserved or occupied")
	}

	imageURL, err := s.media.Save(ctx, "id_cards", in.ImageName, in.Image)
	if err != nil {
		return nil, fmt.Errorf("save ID card image: %w", err)
	}
	check := s.checkIDCard(ctx, in.IDCardNumber, in.Image)
	observability.Current().IncIDCheck(check.Status)

	now := s.now().UTC()
	var created *types.BookingRequest
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: ctx, Tx: tx}
		ok, err := s.rooms.TransitionStatus(txc, room.ID, []string{rooms.RoomAvailable, rooms.RoomMaintenance}, rooms.RoomReserved)
		if err != nil {
			return fmt.Errorf("reserve room: %w", err)
		}
		if !ok {
			return apierr.Wrap(apierr.ErrInvalidArgument, "room is already reserved or occupied")
		}
		created, err = s.bookings.Create(txc, &types.BookingRequest{
			RoomID:            room.ID,
			UserID:            caller.UserID,
			FirstName:         strings.TrimSpace(in.FirstName),
			LastName:          strings.TrimSpace(in.LastName),
			Phone:             strings.TrimSpace(in.Phone),
			IDCardNumber:      in.IDCardNumber,
			LeaseStartDate:    now,
			LeaseTermMonths:   rooms.DefaultLeaseTermMonths,
			AgreedMonthlyRent: room.Price,
			DepositAmount:     room.Price * rooms.DepositRentMultiple,
			IDImageURL:        imageURL,
			AIStatus:          check.Status,
			AIConfidence:      check.Confidence,
			AIRemark:          check.Remark,
			Status:            rooms.BookingPending,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Booking submitted",
		"booking_id", created.ID,
		"room_id", room.ID,
		"user_id", caller.UserID,
		"ai_status", check.Status,
	)
	return created, nil
}

func roomBookable(status string) bool {
	return status != rooms.RoomReserved && status != rooms.RoomOccupied
}

// checkIDCard never fails the booking: OCR problems become ai_status "error".
func (s *bookingService) checkIDCard(ctx context.Context, typed string, img []byte) IDCheck {
	if s.ocr == nil {
		return IDCheck{Status: rooms.AIStatusError, Remark: "AI error: OCR is not configured"}
	}
	res, err := s.ocr.OCRImageBytes(ctx, img, http.DetectContentType(img))
	if err != nil {
		s.log.Warn("ID card OCR failed", "error", err)
		return IDCheck{Status: rooms.AIStatusError, Remark: "AI error: " + err.Error()}
	}
	text := ""
	if res != nil {
		text = res.RawText
	}
	return AssessIDCard(typed, text)
}

// AssessIDCard scores the typed ID number against OCR text from the card.
func AssessIDCard(typed, ocrText string) IDCheck {
	candidates := normalization.IDCandidates(ocrText)
	if len(candidates) == 0 {
		return IDCheck{
			Status:     rooms.AIStatusFail,
			Confidence: idScoreNoMatch,
			Remark:     "AI could not find an ID number in the image, or the image is unclear",
		}
	}
	detected := candidates[0]
	score := normalization.PositionalSimilarity(typed, detected)
	switch {
	case score >= idScorePass:
		return IDCheck{Status: rooms.AIStatusPass, Confidence: score, Remark: "AI reading matches the entered number"}
	case score >= idScoreWarning:
		return IDCheck{Status: rooms.AIStatusWarning, Confidence: score,
			Remark: fmt.Sprintf("AI reading is close (%s), please verify", detected)}
	default:
		return IDCheck{Status: rooms.AIStatusFail, Confidence: score,
			Remark: fmt.Sprintf("AI reading does not match (%s)", detected)}
	}
}

func (s *bookingService) List(ctx context.Context) ([]*types.BookingRequest, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.bookings.ListNewestFirst(dbctx.Context{Ctx: ctx})
}

func (s *bookingService) Approve(ctx context.Context, bookingID uint, contractText string) (*ApproveResult, error) {
	admin, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}

	out := &ApproveResult{}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: ctx, Tx: tx}
		b, err := s.loadPending(txc, bookingID)
		if err != nil {
			return err
		}

		tenant, err := s.tenants.UpsertByIDCard(txc, &types.Tenant{
			FirstName:    b.FirstName,
			LastName:     b.LastName,
			Phone:        b.Phone,
			IDCardNumber: b.IDCardNumber,
		})
		if err != nil {
			return fmt.Errorf("upsert tenant: %w", err)
		}
		out.Tenant = tenant

		if err := s.users.UpdateFields(txc, b.UserID, map[string]any{
			"role":      user.RoleTenant,
			"tenant_id": tenant.ID,
		}); err != nil {
			return fmt.Errorf("promote user: %w", err)
		}

		roomNumber := strconv.FormatUint(uint64(b.RoomID), 10)
		if room, err := s.rooms.GetByID(txc, b.RoomID); err == nil {
			roomNumber = room.RoomNumber
			if err := s.rooms.SetStatus(txc, room.ID, rooms.RoomOccupied); err != nil {
				return fmt.Errorf("occupy room: %w", err)
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("load room: %w", err)
		}

		ok, err := s.bookings.TransitionStatus(txc, b.ID, rooms.BookingPending, rooms.BookingApproved)
		if err != nil {
			return fmt.Errorf("approve booking: %w", err)
		}
		if !ok {
			return apierr.Wrap(apierr.ErrInvalidArgument, "booking was already processed")
		}
		b.Status = rooms.BookingApproved
		out.Booking = b

		contract, err := s.openDepositContract(txc, b, tenant.ID, contractText)
		if err != nil {
			return err
		}
		out.Contract = contract

		due := *contract.DepositDueDate
		n, err := s.notifications.Create(txc, NotificationInput{
			UserID: b.UserID,
			Title:  "Deposit payment due",
			Message: fmt.Sprintf("Please pay the deposit for room %s of %s THB by %s",
				roomNumber, FormatAmount(b.DepositAmount), due.Format("02/01/2006")),
			Type: notification.TypeDepositDue,
			Data: map[string]any{
				"booking_id":       b.ID,
				"contract_id":      contract.ID,
				"contract_no":      contract.ContractNo,
				"room_id":          b.RoomID,
				"tenant_id":        tenant.ID,
				"deposit_amount":   b.DepositAmount,
				"deposit_due_date": due.Format("2006-01-02"),
			},
		})
		if err != nil {
			return fmt.Errorf("create deposit notification: %w", err)
		}
		out.Notification = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifications.Push(ctx, out.Notification)
	s.log.Info("Booking approved",
		"booking_id", bookingID,
		"tenant_id", out.Tenant.ID,
		"contract_no", out.Contract.ContractNo,
		"admin_user_id", admin.UserID,
	)
	return out, nil
}

// openDepositContract records the deposit contract for an approved booking.
func (s *bookingService) openDepositContract(txc dbctx.Context, b *types.BookingRequest, tenantID uint, contractText string) (*types.Contract, error) {
	no, err := s.contracts.NextContractNo(txc, billing.ContractTypeDeposit, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("number contract: %w", err)
	}
	term := b.LeaseTermMonths
	if term <= 0 {
		term = rooms.DefaultLeaseTermMonths
	}
	start := b.LeaseStartDate
	end := start.AddDate(0, 0, leaseMonthDays*term)
	due := start.AddDate(0, 0, DepositDueDays)

	screening, err := json.Marshal(map[string]any{
		"source":         "booking_approval",
		"ai_status":      b.AIStatus,
		"ai_score":       b.AIConfidence,
		"id_card_number": b.IDCardNumber,
	})
	if err != nil {
		return nil, fmt.Errorf("encode screening: %w", err)
	}
	c, err := s.contracts.Create(txc, &types.Contract{
		ContractNo:     no,
		ContractType:   billing.ContractTypeDeposit,
		TenantID:       tenantID,
		RoomID:         b.RoomID,
		BookingID:      b.ID,
		UserID:         b.UserID,
		StartDate:      start,
		EndDate:        &end,
		MonthlyRent:    b.AgreedMonthlyRent,
		DepositAmount:  b.DepositAmount,
		DepositStatus:  billing.DepositPending,
		DepositDueDate: &due,
		IDImageURL:     b.IDImageURL,
		ContractText:   strings.TrimSpace(contractText),
		Screening:      screening,
		Status:         billing.ContractActive,
	})
	if err != nil {
		return nil, fmt.Errorf("create contract: %w", err)
	}
	return c, nil
}

func (s *bookingService) Reject(ctx context.Context, bookingID uint) (*types.BookingRequest, error) {
	admin, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	var out *types.BookingRequest
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: ctx, Tx: tx}
		b, err := s.loadPending(txc, bookingID)
		if err != nil {
			return err
		}
		ok, err := s.bookings.TransitionStatus(txc, b.ID, rooms.BookingPending, rooms.BookingRejected)
		if err != nil {
			return fmt.Errorf("reject booking: %w", err)
		}
		if !ok {
			return apierr.Wrap(apierr.ErrInvalidArgument, "booking was already processed")
		}
		if _, err := s.rooms.TransitionStatus(txc, b.RoomID, []string{rooms.RoomReserved}, rooms.RoomAvailable); err != nil {
			return fmt.Errorf("release room: %w", err)
		}
		b.Status = rooms.BookingRejected
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Booking rejected", "booking_id", bookingID, "admin_user_id", admin.UserID)
	return out, nil
}

func (s *bookingService) loadPending(dbc dbctx.Context, bookingID uint) (*types.BookingRequest, error) {
	b, err := s.bookings.GetByID(dbc, bookingID)
	if err != nil {
		return nil, notFoundAs(err, "booking not found")
	}
	if b.Status != rooms.BookingPending {
		return nil, apierr.Wrap(apierr.ErrInvalidArgument, "booking was already processed")
	}
	return b, nil
}

// FormatAmount renders v with thousands separators and two decimals.
func FormatAmount(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac := s[:len(s)-3], s[len(s)-3:]
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + frac
}
