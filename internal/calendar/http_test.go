package calendar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractText(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "body text collapsed",
			html: "<html><body><h1>Reserva\n   Confirmada</h1><p>Martes 10:00</p></body></html>",
			want: "Reserva Confirmada Martes 10:00",
		},
		{
			name: "skips script style and head",
			html: `<html><head><title>Agenda</title><style>p{}</style></head>
<body><script>var s = "booking confirmed";</script><p>Pick a slot</p><noscript>enable js</noscript></body></html>`,
			want: "Pick a slot",
		},
		{
			name: "fragment without html element",
			html: "<div>Appointment <b>confirmed</b></div>",
			want: "Appointment confirmed",
		},
		{
			name: "empty",
			html: "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractText(strings.NewReader(tt.html))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHTTPFrame_UnreadableBeforeFirstFetch(t *testing.T) {
	f, err := NewHTTPFrame("http://127.0.0.1:1/never", HTTPOptions{})
	require.NoError(t, err)

	text, ok := f.TryReadConfirmationText()
	assert.False(t, ok)
	assert.Empty(t, text)
}

func TestNewHTTPFrame_RequiresURL(t *testing.T) {
	_, err := NewHTTPFrame("", HTTPOptions{})
	assert.Error(t, err)
}

func TestHTTPFrame_Refresh(t *testing.T) {
	var mu sync.Mutex
	status, body := http.StatusOK, "<p>Select a time</p>"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	f, err := NewHTTPFrame(srv.URL, HTTPOptions{Client: srv.Client()})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, f.Refresh(ctx))
	text, ok := f.TryReadConfirmationText()
	assert.True(t, ok)
	assert.Equal(t, "Select a time", text)

	mu.Lock()
	body = "<h2>Reserva confirmada</h2>"
	mu.Unlock()
	require.NoError(t, f.Refresh(ctx))
	text, ok = f.TryReadConfirmationText()
	assert.True(t, ok)
	assert.Equal(t, "Reserva confirmada", text)

	mu.Lock()
	status = http.StatusForbidden
	mu.Unlock()
	assert.Error(t, f.Refresh(ctx))
	_, ok = f.TryReadConfirmationText()
	assert.False(t, ok, "failed fetch drops the previous snapshot")

	st := f.Status()
	assert.False(t, st.Readable)
	assert.Error(t, st.Err)
	assert.Equal(t, srv.URL, st.URL)
}

func TestHTTPFrame_BreakerOpensAfterFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	var changes []string
	f, err := NewHTTPFrame(srv.URL, HTTPOptions{
		Client:           srv.Client(),
		FailureThreshold: 2,
		OpenTimeout:      time.Hour,
		OnBreakerChange:  func(from, to string) { changes = append(changes, from+"->"+to) },
	})
	require.NoError(t, err)
	ctx := context.Background()

	assert.Error(t, f.Refresh(ctx))
	assert.Error(t, f.Refresh(ctx))
	require.Equal(t, int32(2), hits.Load())

	err = f.Refresh(ctx)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(2), hits.Load(), "open breaker short-circuits the request")
	assert.Equal(t, "open", f.Status().Breaker)
	assert.Equal(t, []string{"closed->open"}, changes)

	_, ok := f.TryReadConfirmationText()
	assert.False(t, ok)
}

func TestHTTPFrame_RunRefreshesUntilCancelled(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("<p>booking confirmed</p>"))
	}))
	defer srv.Close()

	f, err := NewHTTPFrame(srv.URL, HTTPOptions{Client: srv.Client(), Interval: 10 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		text, ok := f.TryReadConfirmationText()
		return ok && text == "booking confirmed" && hits.Load() >= 3
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestStaticFrame(t *testing.T) {
	f := NewStaticFrame()

	_, ok := f.TryReadConfirmationText()
	assert.False(t, ok)

	f.Set("Cita confirmada")
	text, ok := f.TryReadConfirmationText()
	assert.True(t, ok)
	assert.Equal(t, "Cita confirmada", text)

	f.SetUnreadable()
	_, ok = f.TryReadConfirmationText()
	assert.False(t, ok)
	assert.Equal(t, 3, f.Reads())
}
