package chat

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chadayu1004/smart-apartment-ai/internal/data/repos/testutil"
	types "github.com/chadayu1004/smart-apartment-ai/internal/domain"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/dbctx"
)

func seedMessages(t *testing.T, repo ChatMessageRepo, dbc dbctx.Context, tenantID uint, times []time.Time) []*types.ChatMessage {
	t.Helper()
	out := make([]*types.ChatMessage, 0, len(times))
	for i, ts := range times {
		m, err := repo.Create(dbc, &types.ChatMessage{
			TenantID:   tenantID,
			SenderRole: "tenant",
			Content:    fmt.Sprintf("m%d", i+1),
			CreatedAt:  ts,
		})
		require.NoError(t, err)
		out = append(out, m)
	}
	return out
}

func walk(t *testing.T, repo ChatMessageRepo, dbc dbctx.Context, tenantID uint, limit int) [][]uint {
	t.Helper()
	var (
		pages  [][]uint
		before *time.Time
		id     *uint
	)
	for i := 0; i < 100; i++ {
		page, err := repo.GetPage(dbc, tenantID, limit, before, id)
		require.NoError(t, err)
		ids := make([]uint, 0, len(page.Items))
		for _, m := range page.Items {
			ids = append(ids, m.ID)
		}
		pages = append(pages, ids)
		if !page.HasMore {
			require.Nil(t, page.NextBeforeCreatedAt)
			require.Nil(t, page.NextBeforeID)
			return pages
		}
		require.NotNil(t, page.NextBeforeCreatedAt)
		require.NotNil(t, page.NextBeforeID)
		before, id = page.NextBeforeCreatedAt, page.NextBeforeID
	}
	t.Fatalf("pagination did not terminate")
	return nil
}

func TestChatMessageRepo_GetPage_FiveMessagesLimitTwo(t *testing.T) {
	db := testutil.DB(t)
	repo := NewChatMessageRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	var times []time.Time
	for i := 0; i < 5; i++ {
		times = append(times, base.Add(time.Duration(i)*time.Minute))
	}
	msgs := seedMessages(t, repo, dbc, 7, times)
	// Another tenant's history must never leak in.
	seedMessages(t, repo, dbc, 8, times[:2])

	page, err := repo.GetPage(dbc, 7, 2, nil, nil)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.Equal(t, msgs[4].ID, page.Items[0].ID)
	require.Equal(t, msgs[3].ID, page.Items[1].ID)
	require.True(t, page.HasMore)
	require.Equal(t, msgs[3].ID, *page.NextBeforeID)
	require.True(t, msgs[3].CreatedAt.Equal(*page.NextBeforeCreatedAt))

	pages := walk(t, repo, dbc, 7, 2)
	require.Equal(t, [][]uint{
		{msgs[4].ID, msgs[3].ID},
		{msgs[2].ID, msgs[1].ID},
		{msgs[0].ID},
	}, pages)
}

func TestChatMessageRepo_GetPage_TimestampTies(t *testing.T) {
	db := testutil.DB(t)
	repo := NewChatMessageRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}

	same := time.Date(2026, 3, 1, 9, 0, 0, 123456000, time.UTC)
	times := []time.Time{
		same.Add(-time.Second),
		same, same, same, same,
		same.Add(time.Second),
	}
	msgs := seedMessages(t, repo, dbc, 3, times)

	want := make([]uint, 0, len(msgs))
	for i := len(msgs) - 1; i >= 0; i-- {
		want = append(want, msgs[i].ID)
	}

	for limit := 1; limit <= len(msgs)+1; limit++ {
		var got []uint
		for _, p := range walk(t, repo, dbc, 3, limit) {
			require.LessOrEqual(t, len(p), limit)
			got = append(got, p...)
		}
		require.Equal(t, want, got, "limit=%d", limit)
	}
}

func TestChatMessageRepo_GetPage_TimestampOnlyCursor(t *testing.T) {
	db := testutil.DB(t)
	repo := NewChatMessageRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	msgs := seedMessages(t, repo, dbc, 4, []time.Time{base, base.Add(time.Minute), base.Add(time.Minute), base.Add(2 * time.Minute)})

	cut := base.Add(time.Minute)
	page, err := repo.GetPage(dbc, 4, 10, &cut, nil)
	require.NoError(t, err)
	require.False(t, page.HasMore)
	require.Len(t, page.Items, 1)
	require.Equal(t, msgs[0].ID, page.Items[0].ID)
}

func TestChatMessageRepo_GetPage_Empty(t *testing.T) {
	db := testutil.DB(t)
	repo := NewChatMessageRepo(db, testutil.Logger(t))

	page, err := repo.GetPage(dbctx.Context{Ctx: context.Background()}, 42, 5, nil, nil)
	require.NoError(t, err)
	require.Empty(t, page.Items)
	require.False(t, page.HasMore)
	require.Nil(t, page.NextBeforeID)
}

func TestChatMessageRepo_CreateRejectsBlank(t *testing.T) {
	db := testutil.DB(t)
	repo := NewChatMessageRepo(db, testutil.Logger(t))

	_, err := repo.Create(dbctx.Context{Ctx: context.Background()}, &types.ChatMessage{TenantID: 1, SenderRole: "tenant", Content: "  "})
	require.Error(t, err)
}
