package websocket

import (
	"testing"
	"time"
)

func newRunningHub() *Hub {
	h := NewHub()
	go h.Run()
	return h
}

func register(t *testing.T, h *Hub, topic string) *Client {
	t.Helper()
	client := NewClient(h, nil, topic)
	select {
	case h.Register <- client:
	case <-time.After(time.Second):
		t.Fatal("hub did not accept registration")
	}
	return client
}

func receive(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case msg := <-c.Send:
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return nil
	}
}

func assertSilent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case msg := <-c.Send:
		t.Fatalf("unexpected message: %s", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_BroadcastReachesAllClients(t *testing.T) {
	h := newRunningHub()
	a := register(t, h, TopicGlobal)
	b := register(t, h, "user")

	h.Broadcast <- []byte("hello")

	if got := string(receive(t, a)); got != "hello" {
		t.Errorf("client a received %q", got)
	}
	if got := string(receive(t, b)); got != "hello" {
		t.Errorf("client b received %q", got)
	}
}

func TestHub_NotifyRoutesByTopic(t *testing.T) {
	h := newRunningHub()
	userFeed := register(t, h, "user")
	postFeed := register(t, h, "post")
	globalFeed := register(t, h, TopicGlobal)

	// Run handles registrations in order, so once a broadcast lands the
	// subscriptions are in place and Notify can be called directly.
	h.Broadcast <- []byte("sync")
	for _, c := range []*Client{userFeed, postFeed, globalFeed} {
		receive(t, c)
	}

	h.Notify("user", []byte("user event"))

	if got := string(receive(t, userFeed)); got != "user event" {
		t.Errorf("user subscriber received %q", got)
	}
	if got := string(receive(t, globalFeed)); got != "user event" {
		t.Errorf("global subscriber received %q", got)
	}
	assertSilent(t, postFeed)
}

func TestHub_NotifyDeliversOncePerClient(t *testing.T) {
	h := newRunningHub()
	globalFeed := register(t, h, TopicGlobal)
	h.Broadcast <- []byte("sync")
	receive(t, globalFeed)

	h.Notify(TopicGlobal, []byte("once"))

	receive(t, globalFeed)
	assertSilent(t, globalFeed)
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	h := newRunningHub()
	client := register(t, h, "post")

	h.Unregister <- client

	select {
	case _, ok := <-client.Send:
		if ok {
			t.Error("received message on unregistered client")
		}
	case <-time.After(time.Second):
		t.Fatal("send channel not closed after unregister")
	}

	// Events after unregister must not reach the departed client.
	h.Notify("post", []byte("late"))
}

func TestHub_SendTo(t *testing.T) {
	h := newRunningHub()
	client := register(t, h, "user")
	h.Broadcast <- []byte("sync")
	receive(t, client)

	h.SendTo(client, []byte("direct"))
	if got := string(receive(t, client)); got != "direct" {
		t.Errorf("SendTo delivered %q, want direct", got)
	}

	h.Unregister <- client
	select {
	case _, ok := <-client.Send:
		if ok {
			t.Fatal("expected closed send channel")
		}
	case <-time.After(time.Second):
		t.Fatal("send channel not closed after unregister")
	}

	// Sending to a departed client must be a no-op, not a panic on its
	// closed channel.
	h.SendTo(client, []byte("late"))
}
