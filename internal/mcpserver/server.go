// Package mcpserver exposes the booking wizard as MCP tools over streamable
// HTTP so an assistant can drive a booking on behalf of a visitor.
package mcpserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/mark3labs/barberia/internal/booking"
	"github.com/mark3labs/barberia/internal/catalog"
	"github.com/mark3labs/barberia/internal/logger"
	"github.com/mark3labs/barberia/internal/scheduler"
	"github.com/mark3labs/mcp-go/server"
)

// Server manages an MCP HTTP server bound to one booking controller. Every
// tool call is executed on the controller's loop.
type Server struct {
	loop    *scheduler.Loop
	ctrl    *booking.Controller
	catalog *catalog.Catalog // only touched on the loop
	extra   map[string]http.Handler
	log     *logger.Logger

	mcpServer *server.MCPServer
	stdServer *http.Server
	addr      string
	mu        sync.Mutex
}

// Option customizes a Server.
type Option func(*Server)

// WithHandler mounts an additional handler, such as /metrics, on the same mux.
func WithHandler(pattern string, h http.Handler) Option {
	return func(s *Server) {
		s.extra[pattern] = h
	}
}

// New creates a server for ctrl. The server is not started until Start is
// called.
func New(loop *scheduler.Loop, ctrl *booking.Controller, cat *catalog.Catalog, opts ...Option) *Server {
	s := &Server{
		loop:    loop,
		ctrl:    ctrl,
		catalog: cat,
		extra:   make(map[string]http.Handler),
		log:     logger.Named("mcp"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mcpServer = server.NewMCPServer(
		"barberia",
		"1.0.0",
		server.WithToolCapabilities(true),
	)
	s.registerTools()
	return s
}

// SetCatalog swaps the barber and service cards, for example after a config
// reload.
func (s *Server) SetCatalog(cat *catalog.Catalog) {
	s.loop.Post(func() { s.catalog = cat })
}

// Handler returns the HTTP mux serving /mcp and any extra handlers.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/mcp", server.NewStreamableHTTPServer(
		s.mcpServer,
		server.WithStateLess(true),
	))
	for pattern, h := range s.extra {
		mux.Handle(pattern, h)
	}
	return mux
}

// Start listens on addr (use port 0 for a random port) and serves in the
// background. It returns the bound address.
func (s *Server) Start(ctx context.Context, addr string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stdServer != nil {
		return "", fmt.Errorf("server already started")
	}

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return "", fmt.Errorf("listening on %s: %w", addr, err)
	}
	s.addr = listener.Addr().String()
	s.stdServer = &http.Server{Handler: s.Handler()}

	// Capture stdServer for the goroutine to avoid racing with Stop.
	stdServer := s.stdServer
	go func() {
		if err := stdServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error("serve: %v", err)
		}
	}()

	s.log.Info("listening on %s", s.addr)
	return s.addr, nil
}

// Stop shuts the HTTP server down.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stdServer == nil {
		return nil
	}
	if err := s.stdServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("stopping server: %w", err)
	}
	s.stdServer = nil
	s.log.Debug("stopped")
	return nil
}

// URL returns the MCP endpoint.
func (s *Server) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("http://%s/mcp", s.addr)
}
