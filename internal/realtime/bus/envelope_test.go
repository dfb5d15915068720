package bus

import (
	"encoding/json"
	"testing"

	"github.com/chadayu1004/smart-apartment-ai/internal/realtime"
)

func TestDispatchRoutesByKindAndOrigin(t *testing.T) {
	var sse []realtime.SSEMessage
	var chat []uint
	h := Handlers{
		OnSSE:  func(m realtime.SSEMessage) { sse = append(sse, m) },
		OnChat: func(tenantID uint, _ []byte) { chat = append(chat, tenantID) },
	}

	mustRaw := func(env envelope) []byte {
		raw, err := json.Marshal(env)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		return raw
	}

	msg := realtime.SSEMessage{Channel: realtime.UserChannel(3), Event: realtime.SSEEventNotificationCreated}
	if err := dispatch("me", mustRaw(envelope{Origin: "me", Kind: kindSSE, SSE: &msg}), h); err != nil {
		t.Fatalf("sse: %v", err)
	}
	if err := dispatch("me", mustRaw(envelope{Origin: "me", Kind: kindChat, TenantID: 7, Payload: []byte(`{}`)}), h); err != nil {
		t.Fatalf("own chat: %v", err)
	}
	if err := dispatch("me", mustRaw(envelope{Origin: "other", Kind: kindChat, TenantID: 9, Payload: []byte(`{"type":"message"}`)}), h); err != nil {
		t.Fatalf("remote chat: %v", err)
	}

	if len(sse) != 1 || sse[0].Channel != "user:3" {
		t.Fatalf("sse=%v", sse)
	}
	if len(chat) != 1 || chat[0] != 9 {
		t.Fatalf("own chat events must be skipped, got %v", chat)
	}

	if err := dispatch("me", []byte("garbage"), h); err == nil {
		t.Fatalf("garbage should fail")
	}
	if err := dispatch("me", mustRaw(envelope{Kind: "nope"}), h); err == nil {
		t.Fatalf("unknown kind should fail")
	}
}
