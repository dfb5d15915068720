package chat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chadayu1004/smart-apartment-ai/internal/data/repos"
	"github.com/chadayu1004/smart-apartment-ai/internal/data/repos/testutil"
	types "github.com/chadayu1004/smart-apartment-ai/internal/domain"
	"github.com/chadayu1004/smart-apartment-ai/internal/domain/user"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/apierr"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/dbctx"
)

type fakeTransport struct {
	in chan []byte

	mu       sync.Mutex
	out      []map[string]any
	failSend bool
	closed   bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{in: make(chan []byte, 16)}
}

func (f *fakeTransport) ReadMessage() ([]byte, error) {
	b, ok := <-f.in
	if !ok {
		return nil, io.EOF
	}
	return b, nil
}

func (f *fakeTransport) WriteJSON(v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSend {
		return errors.New("broken pipe")
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return err
	}
	f.out = append(f.out, m)
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeTransport) say(content string) {
	raw, _ := json.Marshal(map[string]string{"content": content})
	f.in <- raw
}

func (f *fakeTransport) hangUp() { close(f.in) }

func (f *fakeTransport) events(typ string) []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []map[string]any
	for _, m := range f.out {
		if m["type"] == typ {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeTransport) messagesBy(role string) []map[string]any {
	var out []map[string]any
	for _, m := range f.events(EventMessage) {
		if m["sender_role"] == role {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeTransport) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.out)
}

type fakeAuth map[string]user.Identity

func (a fakeAuth) Authenticate(_ context.Context, token string) (user.Identity, error) {
	if token == "" {
		return user.Identity{}, apierr.Wrap(apierr.ErrUnauthenticated, "missing token")
	}
	id, ok := a[token]
	if !ok {
		return user.Identity{}, errors.New("invalid token")
	}
	return id, nil
}

type fakeResponder struct {
	calls atomic.Int32
	block chan struct{}
	text  string
}

func (r *fakeResponder) Reply(_ context.Context, _ string) string {
	r.calls.Add(1)
	if r.block != nil {
		<-r.block
	}
	return r.text
}

type failingMessages struct{ repos.ChatMessageRepo }

func (failingMessages) Create(dbctx.Context, *types.ChatMessage) (*types.ChatMessage, error) {
	return nil, errors.New("disk full")
}

func uintPtr(v uint) *uint { return &v }

var (
	adminID   = user.Identity{UserID: 1, Role: user.RoleAdmin}
	tenant7ID = user.Identity{UserID: 70, Role: user.RoleTenant, TenantID: uintPtr(7)}
	tenant9ID = user.Identity{UserID: 90, Role: user.RoleTenant, TenantID: uintPtr(9)}
)

type fixture struct {
	hub      *Hub
	threads  repos.ChatThreadRepo
	messages repos.ChatMessageRepo
	ai       *fakeResponder
	svc      *SessionService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	threads := repos.NewChatThreadRepo(db, log)
	messages := repos.NewChatMessageRepo(db, log)
	hub := NewHub(log, threads)
	ai := &fakeResponder{text: "Hello, how can I help?"}
	svc := NewSessionService(log, SessionDeps{
		Hub:      hub,
		Threads:  threads,
		Messages: messages,
		AI:       ai,
		Auth: fakeAuth{
			"admin":   adminID,
			"tenant7": tenant7ID,
			"tenant9": tenant9ID,
			"user":    {UserID: 5, Role: user.RoleUser},
		},
	})
	t.Cleanup(svc.Wait)
	return &fixture{hub: hub, threads: threads, messages: messages, ai: ai, svc: svc}
}

func (f *fixture) serve(tr Transport, token string, tenantID uint) <-chan error {
	done := make(chan error, 1)
	go func() { done <- f.svc.Serve(context.Background(), tr, token, tenantID) }()
	return done
}

func (f *fixture) aiEnabled(t *testing.T, tenantID uint) bool {
	t.Helper()
	th, err := f.threads.GetByTenantID(dbctx.Context{Ctx: context.Background()}, tenantID)
	require.NoError(t, err)
	return th.AIEnabled
}

func waitDone(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatalf("session did not finish")
	}
	return nil
}
