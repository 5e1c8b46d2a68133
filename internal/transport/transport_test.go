package transport

import (
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestNewBrowserTransport(t *testing.T) {
	rt := NewBrowserTransport(5 * time.Second)
	if rt == nil {
		t.Fatal("NewBrowserTransport returned nil")
	}
	if _, ok := rt.(*browserTransport); !ok {
		t.Fatalf("transport type = %T, want *browserTransport", rt)
	}
}

func TestReplayableRequestNoBody(t *testing.T) {
	req, _ := http.NewRequest("GET", "https://shop.example.com/cart", nil)

	retry, ok := replayableRequest(req)
	if !ok {
		t.Fatal("bodiless request should be replayable")
	}
	if retry != req {
		t.Error("bodiless request should be reused as-is")
	}
}

func TestReplayableRequestRewindsBody(t *testing.T) {
	// NewRequest sets GetBody for in-memory readers.
	req, _ := http.NewRequest("POST", "https://shop.example.com/cart/add",
		strings.NewReader(`{"product_id":"5"}`))

	// Simulate a failed first attempt having drained the body.
	io.ReadAll(req.Body)

	retry, ok := replayableRequest(req)
	if !ok {
		t.Fatal("in-memory body should be replayable")
	}
	body, err := io.ReadAll(retry.Body)
	if err != nil {
		t.Fatalf("reading retry body: %v", err)
	}
	if string(body) != `{"product_id":"5"}` {
		t.Errorf("retry body = %q, want full payload", body)
	}
}

func TestReplayableRequestRefusesStreamingBody(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	req, _ := http.NewRequest("POST", "https://shop.example.com/cart/add", pr)
	if req.GetBody != nil {
		t.Fatal("pipe-backed request unexpectedly has GetBody")
	}

	if _, ok := replayableRequest(req); ok {
		t.Error("streaming body must not be replayed")
	}
}
