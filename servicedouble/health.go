package servicedouble

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthHandler answers GET /health with an empty 200, like the service does.
func HealthHandler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "")
	})
	return router
}

// HealthServer serves HealthHandler on a loopback port.
type HealthServer struct {
	server   *http.Server
	listener net.Listener
	done     chan struct{}
}

// NewHealthServer starts listening on a free loopback port.
func NewHealthServer() (*HealthServer, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	s := &HealthServer{
		server:   &http.Server{Handler: HealthHandler(), ReadHeaderTimeout: 5 * time.Second},
		listener: listener,
		done:     make(chan struct{}),
	}
	go func() {
		defer close(s.done)
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = listener.Close()
		}
	}()
	return s, nil
}

// Port is the port the server listens on.
func (s *HealthServer) Port() int {
	return s.listener.Addr().(*net.TCPAddr).Port
}

// Close shuts the server down.
func (s *HealthServer) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(ctx)
	<-s.done
}
