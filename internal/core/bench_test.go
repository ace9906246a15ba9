package core

import (
	"fmt"
	"testing"
)

func benchmarkCursorBroadcast(b *testing.B, recipients int) {
	hub := newBenchHub(b)

	sender := NewClient("sender", "127.0.0.1", 64)
	hub.RegisterClient(sender)
	joinBench(b, hub, sender, "bench-sender")

	clients := make([]*Client, 0, recipients)
	for i := 0; i < recipients; i++ {
		c := NewClient(fmt.Sprintf("c%d", i), "127.0.0.1", 64)
		hub.RegisterClient(c)
		joinBench(b, hub, c, fmt.Sprintf("bench-%d", i))
		clients = append(clients, c)
	}

	// Drain events for all but the first recipient to avoid channel backpressure.
	target := clients[0]
	for _, c := range clients[1:] {
		go func(cl *Client) {
			for range cl.Events {
			}
		}(c)
	}
	go func() {
		for range sender.Events {
		}
	}()

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		sender.Commands <- &Command{Kind: CommandCursorMove, Room: "bench", X: 1, Y: 2}
		for {
			ev := <-target.Events
			if ev.Kind == EventCursorMoved {
				break
			}
		}
	}
}

func newBenchHub(b *testing.B) *Hub {
	b.Helper()
	hub := newHubForBench()
	b.Cleanup(hub.Close)
	return hub
}

func joinBench(b *testing.B, hub *Hub, c *Client, name string) {
	b.Helper()
	c.Commands <- &Command{
		Kind:        CommandJoin,
		Room:        "bench",
		DisplayName: name,
		Credential:  "bench-secret",
	}
	for {
		ev := <-c.Events
		if ev.Kind == EventRoomSnapshot {
			return
		}
		if ev.Kind == EventRejected {
			b.Fatalf("join rejected: %s", ev.Error.Message)
		}
	}
}

func BenchmarkCursorBroadcast_10(b *testing.B)  { benchmarkCursorBroadcast(b, 10) }
func BenchmarkCursorBroadcast_100(b *testing.B) { benchmarkCursorBroadcast(b, 100) }
func BenchmarkCursorBroadcast_500(b *testing.B) { benchmarkCursorBroadcast(b, 500) }
