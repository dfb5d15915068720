package testutil

import (
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/chadayu1004/smart-apartment-ai/internal/domain"
	"github.com/chadayu1004/smart-apartment-ai/internal/domain/rooms"
	"github.com/chadayu1004/smart-apartment-ai/internal/domain/user"
)

func SeedUser(tb testing.TB, tx *gorm.DB, username, role string, tenantID *uint) *domain.User {
	tb.Helper()
	u := &domain.User{
		Username:  username,
		Email:     username + "@example.com",
		Phone:     "",
		Password:  "pw",
		FirstName: "A",
		LastName:  "B",
		Role:      role,
		TenantID:  tenantID,
	}
	if err := tx.Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedTenant(tb testing.TB, tx *gorm.DB, idCard string) *domain.Tenant {
	tb.Helper()
	t := &domain.Tenant{
		FirstName:    "Somchai",
		LastName:     "Jaidee",
		IDCardNumber: idCard,
		Status:       user.TenantStatusActive,
	}
	if err := tx.Create(t).Error; err != nil {
		tb.Fatalf("seed tenant: %v", err)
	}
	return t
}

func SeedRoom(tb testing.TB, tx *gorm.DB, number string, price float64, status string) *domain.Room {
	tb.Helper()
	r := &domain.Room{
		RoomNumber: number,
		Building:   "A",
		Floor:      1,
		RoomType:   "studio",
		Price:      price,
		Status:     status,
	}
	if err := tx.Create(r).Error; err != nil {
		tb.Fatalf("seed room: %v", err)
	}
	return r
}

func SeedBooking(tb testing.TB, tx *gorm.DB, roomID, userID uint, idCard string, rent float64) *domain.BookingRequest {
	tb.Helper()
	b := &domain.BookingRequest{
		RoomID:            roomID,
		UserID:            userID,
		FirstName:         "Somchai",
		LastName:          "Jaidee",
		Phone:             "0812345678",
		IDCardNumber:      idCard,
		LeaseStartDate:    time.Now().UTC(),
		LeaseTermMonths:   rooms.DefaultLeaseTermMonths,
		AgreedMonthlyRent: rent,
		DepositAmount:     rent * rooms.DepositRentMultiple,
		AIStatus:          rooms.AIStatusPending,
		Status:            rooms.BookingPending,
	}
	if err := tx.Create(b).Error; err != nil {
		tb.Fatalf("seed booking: %v", err)
	}
	return b
}
