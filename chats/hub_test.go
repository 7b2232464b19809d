package chats

import (
	"encoding/json"
	"testing"
	"time"
)

func TestHubRegisterBroadcastUnregister(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	client := &Client{
		Send:   make(chan []byte, 10),
		ChatID: "chat1",
	}

	hub.register <- client

	msg := outboundPayload{Action: "chat", Content: "hello test"}
	data, _ := json.Marshal(msg)
	hub.broadcast <- broadcastMsg{ChatID: "chat1", Data: data}

	select {
	case got := <-client.Send:
		if string(got) != string(data) {
			t.Fatalf("expected %s, got %s", data, got)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for message")
	}

	hub.unregister <- client
}

func TestHubBroadcastIsScopedToChat(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	inRoom := &Client{Send: make(chan []byte, 10), ChatID: "chatA"}
	elsewhere := &Client{Send: make(chan []byte, 10), ChatID: "chatB"}
	hub.register <- inRoom
	hub.register <- elsewhere

	hub.broadcast <- broadcastMsg{ChatID: "chatA", Data: []byte("ping")}

	select {
	case <-inRoom.Send:
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for message in chatA")
	}

	select {
	case got := <-elsewhere.Send:
		t.Fatalf("chatB client received %s, want nothing", got)
	case <-time.After(100 * time.Millisecond):
	}
}

// A history replay that finishes after the client already disconnected must
// drop its frames instead of panicking on the closed send channel.
func TestHubLateSendAfterUnregister(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	client := &Client{Send: make(chan []byte, 4), ChatID: "chat1"}
	hub.register <- client
	hub.unregister <- client

	deadline := time.After(1 * time.Second)
	for {
		select {
		case _, ok := <-client.Send:
			if ok {
				continue
			}
		case <-deadline:
			t.Fatal("timeout waiting for unregister to close the channel")
		}
		break
	}

	if client.trySend([]byte(`{"action":"chat"}`)) {
		t.Fatal("send after teardown must be rejected")
	}
}

func TestClientCloseSendIsIdempotent(t *testing.T) {
	client := &Client{Send: make(chan []byte, 1)}
	client.closeSend()
	client.closeSend()

	if client.trySend([]byte("x")) {
		t.Fatal("closed client must reject sends")
	}
}
