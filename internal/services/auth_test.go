package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chadayu1004/smart-apartment-ai/internal/domain/user"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/apierr"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/ctxutil"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/dbctx"
)

type capturedOTP struct {
	target OTPTarget
	code   string
}

type chanOTP chan capturedOTP

func (c chanOTP) DispatchOTP(_ context.Context, target OTPTarget, code string) {
	c <- capturedOTP{target: target, code: code}
}

func newAuth(t *testing.T) (*env, *authService, chanOTP) {
	t.Helper()
	e := newEnv(t)
	otp := make(chanOTP, 4)
	svc := NewAuthService(e.db, e.log, e.users, otp, "test-secret", time.Hour).(*authService)
	return e, svc, otp
}

func register(t *testing.T, svc AuthService) {
	t.Helper()
	_, err := svc.Register(context.Background(), RegisterInput{
		Username:  "somchai",
		Email:     "Somchai@Example.com",
		Phone:     "0812345678",
		Password:  "secret1",
		FirstName: "Somchai",
		LastName:  "Jaidee",
	})
	require.NoError(t, err)
}

func TestRegisterAndLoginByAnyIdentifier(t *testing.T) {
	_, svc, _ := newAuth(t)
	register(t, svc)

	for _, ident := range []string{"somchai@example.com", "somchai", "0812345678"} {
		res, err := svc.Login(context.Background(), ident, "secret1")
		require.NoError(t, err, ident)
		require.Equal(t, "bearer", res.TokenType)
		require.Equal(t, user.RoleUser, res.UserRole)
		require.Equal(t, "Somchai", res.UserName)
		require.Equal(t, 3600, res.ExpiresIn)

		id, err := svc.Authenticate(context.Background(), "Bearer "+res.AccessToken)
		require.NoError(t, err)
		require.Equal(t, user.RoleUser, id.Role)
		require.Nil(t, id.TenantID)
	}

	_, err := svc.Login(context.Background(), "somchai", "wrong")
	require.ErrorIs(t, err, apierr.ErrUnauthenticated)
	_, err = svc.Login(context.Background(), "nobody", "secret1")
	require.ErrorIs(t, err, apierr.ErrUnauthenticated)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	_, svc, _ := newAuth(t)
	register(t, svc)

	cases := []RegisterInput{
		{Username: "other", Email: "somchai@example.com", Password: "secret1"},
		{Username: "somchai", Email: "other@example.com", Password: "secret1"},
		{Username: "other", Email: "other@example.com", Phone: "0812345678", Password: "secret1"},
		{Username: "other", Email: "other@example.com", Password: "123"},
	}
	for i, in := range cases {
		_, err := svc.Register(context.Background(), in)
		require.ErrorIs(t, err, apierr.ErrInvalidArgument, "case %d", i)
	}
}

func TestAuthenticateResolvesAffiliationFromStore(t *testing.T) {
	e, svc, _ := newAuth(t)
	register(t, svc)
	res, err := svc.Login(context.Background(), "somchai", "secret1")
	require.NoError(t, err)

	u, err := e.users.GetByIdentifier(dbctx.Context{Ctx: context.Background()}, "somchai")
	require.NoError(t, err)
	require.NoError(t, e.users.UpdateFields(dbctx.Context{Ctx: context.Background()}, u.ID, map[string]any{
		"role":      user.RoleTenant,
		"tenant_id": 7,
	}))

	id, err := svc.Authenticate(context.Background(), res.AccessToken)
	require.NoError(t, err)
	require.Equal(t, user.RoleTenant, id.Role)
	require.NotNil(t, id.TenantID)
	require.EqualValues(t, 7, *id.TenantID)

	ctx, err := svc.SetContextFromToken(context.Background(), res.AccessToken)
	require.NoError(t, err)
	rd := ctxutil.GetRequestData(ctx)
	require.NotNil(t, rd)
	require.Equal(t, u.ID, rd.UserID)
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	e, svc, _ := newAuth(t)
	register(t, svc)
	res, err := svc.Login(context.Background(), "somchai", "secret1")
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), "")
	require.ErrorIs(t, err, apierr.ErrUnauthenticated)
	_, err = svc.Authenticate(context.Background(), res.AccessToken+"x")
	require.ErrorIs(t, err, apierr.ErrUnauthenticated)

	other := NewAuthService(e.db, e.log, e.users, nil, "other-secret", time.Hour)
	_, err = other.Authenticate(context.Background(), res.AccessToken)
	require.ErrorIs(t, err, apierr.ErrUnauthenticated)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.Authenticate(context.Background(), res.AccessToken)
	require.ErrorIs(t, err, apierr.ErrUnauthenticated)
}

func TestForgotAndResetPassword(t *testing.T) {
	_, svc, otp := newAuth(t)
	register(t, svc)

	require.NoError(t, svc.ForgotPassword(context.Background(), "nobody@example.com"))
	select {
	case got := <-otp:
		t.Fatalf("unexpected dispatch %+v", got)
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, svc.ForgotPassword(context.Background(), "somchai@example.com"))
	var sent capturedOTP
	select {
	case sent = <-otp:
	case <-time.After(2 * time.Second):
		t.Fatalf("otp was not dispatched")
	}
	require.Len(t, sent.code, 6)
	require.Equal(t, "somchai@example.com", sent.target.Email)
	require.Equal(t, "0812345678", sent.target.Phone)

	wrong := "000000"
	if sent.code == wrong {
		wrong = "111111"
	}
	err := svc.ResetPassword(context.Background(), "somchai@example.com", wrong, "newsecret")
	require.ErrorIs(t, err, apierr.ErrInvalidArgument)

	require.NoError(t, svc.ResetPassword(context.Background(), "0812345678", sent.code, "newsecret"))
	_, err = svc.Login(context.Background(), "somchai", "newsecret")
	require.NoError(t, err)

	// the code is single use
	err = svc.ResetPassword(context.Background(), "somchai", sent.code, "another1")
	require.ErrorIs(t, err, apierr.ErrInvalidArgument)
}

func TestResetPasswordRejectsExpiredCode(t *testing.T) {
	_, svc, otp := newAuth(t)
	register(t, svc)

	require.NoError(t, svc.ForgotPassword(context.Background(), "somchai"))
	sent := <-otp

	svc.now = func() time.Time { return time.Now().Add(ResetCodeTTL + time.Minute) }
	err := svc.ResetPassword(context.Background(), "somchai", sent.code, "newsecret")
	require.ErrorIs(t, err, apierr.ErrInvalidArgument)
}

func TestCurrentUserAndProfile(t *testing.T) {
	_, svc, _ := newAuth(t)
	_, err := svc.CurrentUser(context.Background())
	require.ErrorIs(t, err, apierr.ErrUnauthenticated)

	register(t, svc)
	res, err := svc.Login(context.Background(), "somchai", "secret1")
	require.NoError(t, err)
	ctx, err := svc.SetContextFromToken(context.Background(), res.AccessToken)
	require.NoError(t, err)

	u, err := svc.UpdateProfile(ctx, "  Sam ", "")
	require.NoError(t, err)
	require.Equal(t, "Sam", u.FirstName)
	require.Equal(t, "Jaidee", u.LastName)
	require.NotEmpty(t, u.Password)
}
