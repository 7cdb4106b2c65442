package channel

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/eventdash/livechannel/internal/router"
)

func TestClientSubscribeReceivesEnvelopes(t *testing.T) {
	d := &fakeDialer{}
	opts := testOptions(d)

	c := New(opts, nil)
	defer c.Close()

	var mu sync.Mutex
	var exact, category []string
	c.Subscribe("fixtures.updated", func(env router.Envelope) {
		mu.Lock()
		exact = append(exact, env.Type)
		mu.Unlock()
	})
	c.Subscribe("fixtures", func(env router.Envelope) {
		mu.Lock()
		category = append(category, env.Type)
		mu.Unlock()
	})

	c.Connect()
	waitFor(t, time.Second, "open status", func() bool { return c.Status() == StateOpen })

	d.last().push(`{"type":"fixtures.updated","data":{"fixture_id":9}}`)

	waitFor(t, time.Second, "delivery", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(exact) == 1 && len(category) == 1
	})
}

func TestTwoClientsAreIsolated(t *testing.T) {
	d1 := &fakeDialer{}
	d2 := &fakeDialer{}

	opts1 := testOptions(d1)
	opts1.Address = "wss://dash.example.com/live/events/1/"
	opts2 := testOptions(d2)
	opts2.Address = "wss://dash.example.com/live/events/2/"

	c1 := New(opts1, nil)
	defer c1.Close()
	c2 := New(opts2, nil)
	defer c2.Close()

	var mu sync.Mutex
	var got1, got2 []string
	c1.Subscribe("fixtures", func(env router.Envelope) {
		mu.Lock()
		got1 = append(got1, string(env.Data))
		mu.Unlock()
	})
	c2.Subscribe("fixtures", func(env router.Envelope) {
		mu.Lock()
		got2 = append(got2, string(env.Data))
		mu.Unlock()
	})

	c1.Connect()
	c2.Connect()
	waitFor(t, time.Second, "both open", func() bool {
		return c1.Status() == StateOpen && c2.Status() == StateOpen
	})

	d1.last().push(`{"type":"fixtures.updated","data":"for-one"}`)
	d2.last().push(`{"type":"fixtures.updated","data":"for-two"}`)

	waitFor(t, time.Second, "both deliveries", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got1) == 1 && len(got2) == 1
	})

	mu.Lock()
	defer mu.Unlock()
	if got1[0] != `"for-one"` {
		t.Errorf("client 1 received %q, want %q", got1[0], `"for-one"`)
	}
	if got2[0] != `"for-two"` {
		t.Errorf("client 2 received %q, want %q", got2[0], `"for-two"`)
	}
}

func TestClientSendWrapsEnvelope(t *testing.T) {
	d := &fakeDialer{}
	c := New(testOptions(d), nil)
	defer c.Close()

	if c.Send("chat.message", map[string]string{"body": "hi"}) {
		t.Error("Send succeeded before connect")
	}

	c.Connect()
	waitFor(t, time.Second, "open status", func() bool { return c.Status() == StateOpen })

	if !c.Send("chat.message", map[string]string{"body": "hi"}) {
		t.Fatal("Send failed while open")
	}

	frames := d.last().sentFrames()
	if len(frames) != 1 {
		t.Fatalf("transport saw %d frames, want 1", len(frames))
	}

	var env struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(frames[0], &env); err != nil {
		t.Fatalf("sent frame not valid JSON: %v", err)
	}
	if env.Type != "chat.message" {
		t.Errorf("frame type = %q, want %q", env.Type, "chat.message")
	}
}

func TestClientSendUnmarshalablePayload(t *testing.T) {
	d := &fakeDialer{}
	c := New(testOptions(d), nil)
	defer c.Close()

	c.Connect()
	waitFor(t, time.Second, "open status", func() bool { return c.Status() == StateOpen })

	if c.Send("bad", func() {}) {
		t.Error("Send succeeded with unmarshalable payload")
	}
}

func TestClientMalformedFrameLeavesConnectionOpen(t *testing.T) {
	d := &fakeDialer{}
	c := New(testOptions(d), nil)
	defer c.Close()

	c.Connect()
	waitFor(t, time.Second, "open status", func() bool { return c.Status() == StateOpen })

	d.last().push(`this is not json`)
	d.last().push(`{"type":"fixtures.updated","data":{}}`)

	waitFor(t, time.Second, "frames counted", func() bool { return c.Stats().Received == 2 })

	if c.Status() != StateOpen {
		t.Errorf("Status = %v after malformed frame, want open", c.Status())
	}
	if got := c.Stats().ParseErrors; got != 1 {
		t.Errorf("ParseErrors = %d, want 1", got)
	}
}

func TestClientCloseReleasesEverything(t *testing.T) {
	d := &fakeDialer{}
	c := New(testOptions(d), nil)

	var invoked bool
	c.Subscribe("fixtures", func(router.Envelope) { invoked = true })

	c.Connect()
	waitFor(t, time.Second, "open status", func() bool { return c.Status() == StateOpen })

	c.Close()
	c.Close() // idempotent

	if c.Status() != StateIdle {
		t.Errorf("Status = %v after close, want idle", c.Status())
	}
	if invoked {
		t.Error("subscriber invoked with no traffic")
	}
}
