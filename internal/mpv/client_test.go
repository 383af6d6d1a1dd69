package mpv

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"segskip/internal/logging"
)

// fakeMPV answers IPC commands on the far end of a connection.
type fakeMPV struct {
	t    *testing.T
	conn net.Conn

	mu       sync.Mutex
	props    map[string]any
	commands [][]any
}

func newFakeMPV(t *testing.T, conn net.Conn) *fakeMPV {
	f := &fakeMPV{t: t, conn: conn, props: map[string]any{"mute": false, "speed": 1.0, "time-pos": 12.5, "duration": 300.0}}
	go f.serve()
	return f
}

func (f *fakeMPV) serve() {
	scanner := bufio.NewScanner(f.conn)
	for scanner.Scan() {
		var req struct {
			Command   []any `json:"command"`
			RequestID int64 `json:"request_id"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			continue
		}
		f.mu.Lock()
		f.commands = append(f.commands, req.Command)
		resp := map[string]any{"request_id": req.RequestID, "error": "success"}
		switch req.Command[0] {
		case "get_property":
			if v, ok := f.props[req.Command[1].(string)]; ok {
				resp["data"] = v
			} else {
				resp["error"] = "property not found"
			}
		case "set_property":
			f.props[req.Command[1].(string)] = req.Command[2]
		}
		f.mu.Unlock()
		f.send(resp)
	}
}

func (f *fakeMPV) send(v any) {
	data, _ := json.Marshal(v)
	_, _ = f.conn.Write(append(data, '\n'))
}

func (f *fakeMPV) prop(name string) any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.props[name]
}

func (f *fakeMPV) commandNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.commands))
	for _, cmd := range f.commands {
		names = append(names, cmd[0].(string))
	}
	return names
}

func newPipeClient(t *testing.T) (*Client, *fakeMPV) {
	t.Helper()
	clientConn, serverConn := net.Pipe()
	fake := newFakeMPV(t, serverConn)
	client := NewClient(clientConn, logging.NewNop())
	t.Cleanup(func() {
		_ = client.Close()
		_ = serverConn.Close()
	})
	return client, fake
}

func TestClientSinkOperations(t *testing.T) {
	client, fake := newPipeClient(t)
	ctx := context.Background()

	muted, err := client.Muted(ctx)
	if err != nil || muted {
		t.Fatalf("Muted = %v, %v", muted, err)
	}
	if err := client.SetMuted(ctx, true); err != nil {
		t.Fatalf("SetMuted: %v", err)
	}
	if err := client.SetPlaybackRate(ctx, 16); err != nil {
		t.Fatalf("SetPlaybackRate: %v", err)
	}
	if fake.prop("mute") != true || fake.prop("speed") != 16.0 {
		t.Fatalf("unexpected props mute=%v speed=%v", fake.prop("mute"), fake.prop("speed"))
	}

	pos, err := client.Position(ctx)
	if err != nil || pos != 12.5 {
		t.Fatalf("Position = %v, %v", pos, err)
	}
	dur, err := client.Duration(ctx)
	if err != nil || dur != 300 {
		t.Fatalf("Duration = %v, %v", dur, err)
	}
	if err := client.Seek(ctx, 42); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	names := fake.commandNames()
	if names[len(names)-1] != "seek" {
		t.Fatalf("expected seek command, got %v", names)
	}
}

func TestClientReportsCommandErrors(t *testing.T) {
	client, _ := newPipeClient(t)
	if _, err := client.GetFloat(context.Background(), "bogus"); err == nil {
		t.Fatal("expected error for unknown property")
	}
	if _, err := client.Command(context.Background()); err == nil {
		t.Fatal("expected error for empty command")
	}
}

func TestClientDeliversEvents(t *testing.T) {
	client, fake := newPipeClient(t)

	fake.send(map[string]any{"event": "property-change", "id": 1, "name": "time-pos", "data": 3.25})
	fake.send(map[string]any{"event": "property-change", "id": 1, "name": "time-pos", "data": nil})
	fake.send(map[string]any{"event": "property-change", "id": 2, "name": "duration", "data": 120.0})
	fake.send(map[string]any{"event": "property-change", "id": 3, "name": "path", "data": "https://youtu.be/dQw4w9WgXcQ"})
	fake.send(map[string]any{"event": "pause"})
	fake.send(map[string]any{"event": "end-file", "reason": "eof"})

	want := []Event{
		{Kind: EventPosition, Value: 3.25},
		{Kind: EventDuration, Value: 120},
		{Kind: EventPath, Path: "https://youtu.be/dQw4w9WgXcQ"},
		{Kind: EventEndFile, Reason: "eof"},
	}
	for i, w := range want {
		select {
		case got := <-client.Events():
			if got != w {
				t.Fatalf("event %d: got %+v want %+v", i, got, w)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}
}

func TestClientCloseFailsPendingAndLaterCommands(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	client := NewClient(clientConn, nil)

	// Drain the request but never answer it.
	go func() {
		buf := make([]byte, 1024)
		_, _ = serverConn.Read(buf)
		_ = serverConn.Close()
	}()

	_, err := client.Command(context.Background(), "get_property", "mute")
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed for in-flight command, got %v", err)
	}
	<-client.Done()
	if _, err := client.Muted(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed after shutdown, got %v", err)
	}
	if _, ok := <-client.Events(); ok {
		t.Fatal("expected events channel closed")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("Close after remote hangup: %v", err)
	}
}

func TestClientCommandHonorsContext(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	client := NewClient(clientConn, nil)
	defer client.Close()
	go func() {
		buf := make([]byte, 1024)
		for {
			if _, err := serverConn.Read(buf); err != nil {
				return
			}
		}
	}()
	defer serverConn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := client.Muted(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestDialUnixSocket(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "mpv.sock")
	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer listener.Close()
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		newFakeMPV(t, conn)
	}()

	client, err := Dial(context.Background(), socketPath, logging.NewNop())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()
	if err := client.Observe(context.Background()); err != nil {
		t.Fatalf("Observe: %v", err)
	}

	if _, err := Dial(context.Background(), filepath.Join(t.TempDir(), "missing.sock"), nil); err == nil {
		t.Fatal("expected dial error for missing socket")
	}
}
