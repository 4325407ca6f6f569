package registry

import (
	"fmt"
	"sync"
	"testing"

	"github.com/getmockd/stubd/pkg/stub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func response(url, body string, status int) *stub.Response {
	r := stub.New(url)
	r.Body = []byte(body)
	r.StatusCode = status
	return r
}

func TestRegisterAndGet_RoundTrip(t *testing.T) {
	t.Parallel()

	reg := New()
	reg.Register(response("/users", `{"users":[]}`, 201))

	got, ok := reg.Get("/users")
	require.True(t, ok)
	assert.Equal(t, `{"users":[]}`, string(got.Body))
	assert.Equal(t, 201, got.StatusCode)
}

func TestRegister_ReplacesExisting(t *testing.T) {
	t.Parallel()

	reg := New()
	reg.Register(response("/a", "first", 200))
	reg.Register(response("/a", "second", 200))

	got, ok := reg.Get("/a")
	require.True(t, ok)
	assert.Equal(t, "second", string(got.Body))
	assert.Equal(t, 1, reg.Len())
}

func TestRegister_IgnoresNil(t *testing.T) {
	t.Parallel()

	reg := New()
	reg.Register(nil)
	assert.Equal(t, 0, reg.Len())
}

func TestGet_ExactMatchOnly(t *testing.T) {
	t.Parallel()

	reg := NewWith(response("/path", "x", 200))

	for _, url := range []string{"/path/", "/Path", "/path?x=1", "path"} {
		_, ok := reg.Get(url)
		assert.False(t, ok, url)
	}
}

func TestGet_ReturnsCopy(t *testing.T) {
	t.Parallel()

	reg := NewWith(response("/a", "orig", 200))
	got, _ := reg.Get("/a")
	got.Body = []byte("mutated")
	got.SetHeader("X", "1")

	again, _ := reg.Get("/a")
	assert.Equal(t, "orig", string(again.Body))
	assert.Empty(t, again.Headers)
}

func TestReplace(t *testing.T) {
	t.Parallel()

	reg := NewWith(response("/old", "x", 200))
	reg.Replace(response("/a", "1", 200), nil, response("/b", "2", 200), response("/a", "3", 200))

	_, ok := reg.Get("/old")
	assert.False(t, ok)
	a, _ := reg.Get("/a")
	assert.Equal(t, "3", string(a.Body))
	assert.Equal(t, 2, reg.Len())
}

func TestClearAndRemove(t *testing.T) {
	t.Parallel()

	reg := NewWith(response("/a", "1", 200), response("/b", "2", 200))
	assert.True(t, reg.Remove("/a"))
	assert.False(t, reg.Remove("/a"))
	assert.Equal(t, 1, reg.Len())

	reg.Clear()
	assert.Equal(t, 0, reg.Len())
}

func TestResolve_Echo(t *testing.T) {
	t.Parallel()

	echo := response("/echo", "initial", 200)
	echo.EchoRequestBody = true
	reg := NewWith(echo, response("/plain", "plain", 200))

	t.Run("echo replaces and persists", func(t *testing.T) {
		got, ok := reg.Resolve("/echo", []byte("X"), true)
		require.True(t, ok)
		assert.Equal(t, "X", string(got.Body))

		stored, _ := reg.Get("/echo")
		assert.Equal(t, "X", string(stored.Body))
	})

	t.Run("no echo keeps stored body", func(t *testing.T) {
		got, ok := reg.Resolve("/echo", nil, false)
		require.True(t, ok)
		assert.Equal(t, "X", string(got.Body))
	})

	t.Run("entries without the flag are untouched", func(t *testing.T) {
		got, ok := reg.Resolve("/plain", []byte("ignored"), true)
		require.True(t, ok)
		assert.Equal(t, "plain", string(got.Body))
	})

	t.Run("unknown url", func(t *testing.T) {
		_, ok := reg.Resolve("/nope", []byte("x"), true)
		assert.False(t, ok)
	})
}

func TestList_SortedByURL(t *testing.T) {
	t.Parallel()

	reg := NewWith(response("/c", "", 200), response("/a", "", 200), response("/b", "", 200))
	list := reg.List()
	require.Len(t, list, 3)
	assert.Equal(t, "/a", list[0].URL)
	assert.Equal(t, "/b", list[1].URL)
	assert.Equal(t, "/c", list[2].URL)
}

func TestConcurrentEchoAndRead(t *testing.T) {
	t.Parallel()

	echo := response("/echo", "", 200)
	echo.EchoRequestBody = true
	reg := NewWith(echo)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			reg.Resolve("/echo", []byte(fmt.Sprintf("body-%02d", i)), true)
		}(i)
		go func() {
			defer wg.Done()
			got, ok := reg.Get("/echo")
			if assert.True(t, ok) && len(got.Body) > 0 {
				assert.Len(t, got.Body, len("body-00"))
			}
		}()
	}
	wg.Wait()
}
