package calendar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/barberia/internal/logger"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// maxBody caps how much of the embed page is parsed.
const maxBody = 2 << 20

// HTTPOptions tunes an HTTPFrame. Zero values select the defaults.
type HTTPOptions struct {
	Client           *http.Client
	Interval         time.Duration // between fetches, default 1s
	FailureThreshold uint32        // consecutive failures before the breaker opens, default 5
	OpenTimeout      time.Duration // how long the breaker stays open, default 30s
	OnBreakerChange  func(from, to string)
}

// HTTPFrame fetches the calendar embed page in the background and exposes the
// latest visible text. Reads never block on the network: a failed or pending
// fetch reports the frame as unreadable, the same way a cross-origin frame
// behaves in a browser.
type HTTPFrame struct {
	url      string
	client   *http.Client
	interval time.Duration
	breaker  *gobreaker.CircuitBreaker[string]
	log      *logger.Logger

	mu        sync.RWMutex
	text      string
	readable  bool
	fetchedAt time.Time
	lastErr   error
}

// NewHTTPFrame creates a frame for url. Call Run to start fetching.
func NewHTTPFrame(url string, opts HTTPOptions) (*HTTPFrame, error) {
	if url == "" {
		return nil, fmt.Errorf("calendar url is required")
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 10 * time.Second}
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.FailureThreshold == 0 {
		opts.FailureThreshold = 5
	}
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = 30 * time.Second
	}

	f := &HTTPFrame{
		url:      url,
		client:   opts.Client,
		interval: opts.Interval,
		log:      logger.Named("calendar"),
	}
	f.breaker = gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "calendar",
		MaxRequests: 1,
		Timeout:     opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			f.log.Info("breaker %s: %s -> %s", name, from, to)
			if opts.OnBreakerChange != nil {
				opts.OnBreakerChange(from.String(), to.String())
			}
		},
	})
	return f, nil
}

// Run fetches immediately and then once per interval until ctx is done.
func (f *HTTPFrame) Run(ctx context.Context) {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		if err := f.Refresh(ctx); err != nil && ctx.Err() == nil {
			f.log.Debug("refresh failed: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Refresh performs one fetch and replaces the snapshot.
func (f *HTTPFrame) Refresh(ctx context.Context) error {
	text, err := f.breaker.Execute(func() (string, error) {
		return f.fetch(ctx)
	})

	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchedAt = time.Now()
	f.lastErr = err
	if err != nil {
		f.text, f.readable = "", false
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("calendar unavailable: %w", err)
		}
		return err
	}
	f.text, f.readable = text, true
	return nil
}

// TryReadConfirmationText implements booking.FrameReader.
func (f *HTTPFrame) TryReadConfirmationText() (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.text, f.readable
}

// Status describes the last fetch.
type Status struct {
	URL       string
	Readable  bool
	FetchedAt time.Time
	Breaker   string
	Err       error
}

// Status returns the outcome of the most recent fetch.
func (f *HTTPFrame) Status() Status {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return Status{
		URL:       f.url,
		Readable:  f.readable,
		FetchedAt: f.fetchedAt,
		Breaker:   f.breaker.State().String(),
		Err:       f.lastErr,
	}
}

func (f *HTTPFrame) fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching calendar: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetching calendar: unexpected status %d", resp.StatusCode)
	}
	return ExtractText(io.LimitReader(resp.Body, maxBody))
}

// ExtractText returns the visible text of an HTML document with whitespace
// collapsed. Script, style and template content is skipped.
func ExtractText(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("parsing calendar page: %w", err)
	}

	var words []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript, atom.Template, atom.Head:
				return
			}
		}
		if n.Type == html.TextNode {
			words = append(words, strings.Fields(n.Data)...)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.Join(words, " "), nil
}
