package monitor

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hostwatch/monitor/transfer"
)

// statusProvider returns the latest transfer snapshot.
type statusProvider interface {
	Snapshot() transfer.Snapshot
}

// Server exposes /metrics, /status and /ping.
type Server struct {
	*gin.Engine
	listen string
	status statusProvider
}

func NewServer(listen string, status statusProvider) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		Engine: gin.New(),
		listen: listen,
		status: status,
	}
	s.Use(gin.Recovery())
	s.router()
	return s
}

func (s *Server) router() {
	s.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	s.GET("/status", s.getStatus)
	s.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (s *Server) getStatus(c *gin.Context) {
	snap := s.status.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"transfer":    snap,
		"transfer_tb": snap.TotalBytes / transfer.BytesPerTB,
	})
}

// ListenAndServe serves until ctx is done, then gives in-flight requests
// five seconds to finish.
func (s *Server) ListenAndServe(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.listen,
		Handler:           s.Engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	err := server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		// clean shutdown
		return nil
	}
	return err
}
