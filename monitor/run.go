package monitor

import (
	"context"

	"golang.org/x/sync/errgroup"

	"hostwatch/pkg/log"
)

// Runner runs the monitor loop next to the HTTP server. The server is
// optional; an empty listen address disables it.
type Runner struct {
	log     *log.Logger
	monitor *Monitor
	server  *Server
}

func NewRunner(m *Monitor, listen string) *Runner {
	r := &Runner{
		log:     log.GetLogger("runner"),
		monitor: m,
	}
	if listen != "" {
		r.server = NewServer(listen, m.Accumulator())
	}
	return r
}

// Run blocks until ctx is done or the server fails. A server failure stops
// the loop too.
func (r *Runner) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return r.monitor.Run(ctx)
	})

	if r.server != nil {
		g.Go(func() error {
			r.log.Infof("metrics server listening on %s", r.server.listen)
			return r.server.ListenAndServe(ctx)
		})
	}

	return g.Wait()
}
