package services

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chadayu1004/smart-apartment-ai/internal/chat"
	types "github.com/chadayu1004/smart-apartment-ai/internal/domain"
	domainchat "github.com/chadayu1004/smart-apartment-ai/internal/domain/chat"
	"github.com/chadayu1004/smart-apartment-ai/internal/domain/user"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/apierr"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/dbctx"
)

func TestParseChatHistoryQuery(t *testing.T) {
	q, err := ParseChatHistoryQuery("7", "", "", "")
	require.NoError(t, err)
	require.EqualValues(t, 7, q.TenantID)
	require.Equal(t, 30, q.Limit)
	require.Nil(t, q.BeforeCreatedAt)
	require.Nil(t, q.BeforeID)

	q, err = ParseChatHistoryQuery("7", "100", "2026-01-02T03:04:05.123456789+07:00", "42")
	require.NoError(t, err)
	require.Equal(t, 100, q.Limit)
	require.Equal(t, time.Date(2026, 1, 1, 20, 4, 5, 123456789, time.UTC), *q.BeforeCreatedAt)
	require.EqualValues(t, 42, *q.BeforeID)

	bad := [][4]string{
		{"", "", "", ""},
		{"0", "", "", ""},
		{"x", "", "", ""},
		{"7", "0", "", ""},
		{"7", "101", "", ""},
		{"7", "ten", "", ""},
		{"7", "", "yesterday", ""},
		{"7", "", "", "-1"},
	}
	for _, b := range bad {
		_, err := ParseChatHistoryQuery(b[0], b[1], b[2], b[3])
		require.ErrorIs(t, err, apierr.ErrInvalidArgument, "%v", b)
	}
}

func TestChatHistoryPagesBackwardsWithCursor(t *testing.T) {
	e := newEnv(t)
	svc := NewChatHistoryService(e.log, e.messages, chat.Policy{})
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_, err := e.messages.Create(dbctx.Context{Ctx: context.Background()}, &types.ChatMessage{
			TenantID:   7,
			SenderRole: domainchat.SenderTenant,
			Content:    "msg " + strconv.Itoa(i),
			CreatedAt:  base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}
	tenant := uint(7)
	ctx := ctxFor(user.Identity{UserID: 70, Role: user.RoleTenant, TenantID: &tenant})

	var seen []string
	q, err := ParseChatHistoryQuery("7", "2", "", "")
	require.NoError(t, err)
	for {
		page, err := svc.Page(ctx, q)
		require.NoError(t, err)
		for _, it := range page.Items {
			seen = append(seen, it.Content)
		}
		if !page.HasMore {
			require.Nil(t, page.NextBeforeCreatedAt)
			break
		}
		require.NotNil(t, page.NextBeforeCreatedAt)
		q, err = ParseChatHistoryQuery("7", "2", *page.NextBeforeCreatedAt, strconv.FormatUint(uint64(*page.NextBeforeID), 10))
		require.NoError(t, err)
	}
	require.Equal(t, []string{"msg 4", "msg 3", "msg 2", "msg 1", "msg 0"}, seen)
}

func TestChatHistoryAuthorization(t *testing.T) {
	e := newEnv(t)
	svc := NewChatHistoryService(e.log, e.messages, chat.Policy{})
	q := ChatHistoryQuery{TenantID: 5, Limit: 10}

	_, err := svc.Page(context.Background(), q)
	require.ErrorIs(t, err, apierr.ErrUnauthenticated)

	other := uint(9)
	_, err = svc.Page(ctxFor(user.Identity{UserID: 90, Role: user.RoleTenant, TenantID: &other}), q)
	require.ErrorIs(t, err, apierr.ErrForbidden)

	_, err = svc.Page(ctxFor(user.Identity{UserID: 5, Role: user.RoleUser}), q)
	require.ErrorIs(t, err, apierr.ErrForbidden)

	page, err := svc.Page(adminCtx(), q)
	require.NoError(t, err)
	require.Empty(t, page.Items)
	require.NotNil(t, page.Items)
	require.False(t, page.HasMore)
}
