package engine

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/stubd/pkg/registry"
	"github.com/getmockd/stubd/pkg/stub"
	"github.com/getmockd/stubd/pkg/wire"
)

func TestStartupTime(t *testing.T) {
	start := time.Now()
	srv, err := New(Config{Addr: "127.0.0.1:0"})
	require.NoError(t, err)
	srv.Start()
	elapsed := time.Since(start)
	require.NoError(t, srv.Stop())

	assert.Less(t, elapsed, 2*time.Second, "startup took %v", elapsed)
	t.Logf("startup time: %v", elapsed)
}

func BenchmarkServerStartup(b *testing.B) {
	for i := 0; i < b.N; i++ {
		srv, err := New(Config{Addr: "127.0.0.1:0"})
		if err != nil {
			b.Fatal(err)
		}
		srv.Start()
		if err := srv.Stop(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDispatch(b *testing.B) {
	r := stub.New("/users/1")
	r.Body = []byte(`{"id":1,"name":"Alice"}`)
	r.SetHeader("X-Trace", "abc")
	reg := registry.NewWith(r)
	req := &wire.Request{Method: "GET", URL: "/users/1"}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Dispatch(req, reg)
	}
}

func BenchmarkRoundTrip(b *testing.B) {
	srv := startServer(b)
	r := stub.New("/ping")
	r.Body = []byte("pong")
	srv.Register(r)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		out := send(b, srv, "GET /ping HTTP/1.1\r\nHost: x\r\n\r\n")
		if !strings.HasSuffix(out, "pong") {
			b.Fatalf("unexpected response %q", out)
		}
	}
}

func BenchmarkRoundTripEcho(b *testing.B) {
	srv := startServer(b)
	r := stub.New("/echo")
	r.EchoRequestBody = true
	srv.Register(r)
	body := strings.Repeat("x", 4096)
	raw := "POST /echo HTTP/1.1\r\nContent-Length: 4096\r\n\r\n" + body

	b.SetBytes(int64(len(body)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		out := send(b, srv, raw)
		if !strings.HasSuffix(out, body) {
			b.Fatal("echo body mismatch")
		}
	}
}
