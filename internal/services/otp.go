package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/chadayu1004/smart-apartment-ai/internal/platform/logger"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/sendgrid"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/twilio"
)

type OTPTarget struct {
	Email string
	Phone string
	Name  string
}

// OTPDispatcher delivers a reset code. Delivery is best effort; failures are logged.
type OTPDispatcher interface {
	DispatchOTP(ctx context.Context, target OTPTarget, code string)
}

type otpDispatcher struct {
	log   *logger.Logger
	email sendgrid.Client
	sms   twilio.Client
}

// NewOTPDispatcher accepts nil clients; the matching channel is then skipped.
func NewOTPDispatcher(log *logger.Logger, email sendgrid.Client, sms twilio.Client) OTPDispatcher {
	return &otpDispatcher{log: log.With("service", "OTPDispatcher"), email: email, sms: sms}
}

func (d *otpDispatcher) DispatchOTP(ctx context.Context, target OTPTarget, code string) {
	if email := strings.TrimSpace(target.Email); email != "" {
		if d.email == nil {
			d.log.Debug("Email delivery not configured, skipping OTP email")
		} else if _, err := d.email.Send(ctx, sendgrid.SendEmailRequest{
			To:      []sendgrid.EmailAddress{{Email: email, Name: target.Name}},
			Subject: "Verification code (OTP) - Smart Apartment",
			Text:    otpText(code),
			HTML:    otpHTML(code),
		}); err != nil {
			d.log.Warn("OTP email failed", "email", email, "error", err)
		}
	}

	if phone := strings.TrimSpace(target.Phone); phone != "" {
		if d.sms == nil {
			d.log.Debug("SMS delivery not configured, skipping OTP SMS")
		} else if _, err := d.sms.SendSMS(ctx, phone, SMSOTPBody(code)); err != nil {
			d.log.Warn("OTP SMS failed", "phone", phone, "error", err)
		}
	}
}

func SMSOTPBody(code string) string {
	return fmt.Sprintf("Smart Apartment OTP: %s (Expires in 15 mins)", code)
}

func otpText(code string) string {
	return fmt.Sprintf("Your password reset code is %s. It expires in 15 minutes. Do not share it with anyone.", code)
}

func otpHTML(code string) string {
	return fmt.Sprintf(`<div style="font-family: Arial, sans-serif; padding: 20px; border: 1px solid #ddd; border-radius: 10px;">
<h2 style="color: #2c3e50;">Password reset code</h2>
<p>You asked to reset your password. Your verification code is:</p>
<h1 style="color: #1976d2; letter-spacing: 5px;">%s</h1>
<p style="color: #7f8c8d; font-size: 12px;">This code expires in 15 minutes. Do not share it with anyone.</p>
</div>`, code)
}
