package common

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// ShutdownHook runs after a termination signal, before the servers stop. Errors are logged and
// shutdown continues.
type ShutdownHook func(ctx context.Context) error

// TimeoutConfig holds server and shutdown related timeouts.
type TimeoutConfig struct {
	ReadHeader time.Duration
	Read       time.Duration
	Write      time.Duration
	Idle       time.Duration
	Shutdown   time.Duration
	Hook       time.Duration
}

// RunServerWithShutdown starts every server and blocks until SIGINT or SIGTERM. The hooks run in
// order with their own timeout inside the overall shutdown deadline, then all servers shut down.
//
//	api := common.NewServerWithTimeouts(&http.Server{Addr: ":8080", Handler: mux}, timeouts)
//	debug := &http.Server{Addr: ":8081", Handler: debugMux}
//	common.RunServerWithShutdown("jobboard", timeouts, []*http.Server{api, debug}, sessions.Close)
func RunServerWithShutdown(name string, timeouts TimeoutConfig, servers []*http.Server, hooks ...ShutdownHook) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	runUntil(name, timeouts, servers, stop, hooks...)
}

func runUntil(name string, timeouts TimeoutConfig, servers []*http.Server, stop <-chan os.Signal, hooks ...ShutdownHook) {
	if timeouts.Hook <= 0 {
		timeouts.Hook = 5 * time.Second
	}
	if timeouts.Shutdown <= 0 {
		timeouts.Shutdown = 15 * time.Second
	}

	for _, server := range servers {
		go func(server *http.Server) {
			log.Printf("starting %s on %s", name, server.Addr)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("%s listen error on %s: %v", name, server.Addr, err)
			}
		}(server)
	}

	<-stop
	log.Printf("shutdown signal received for %s", name)

	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
	defer cancel()

	for i, h := range hooks {
		if h == nil {
			continue
		}
		hCtx, hCancel := context.WithTimeout(ctx, timeouts.Hook)
		if err := h(hCtx); err != nil {
			log.Printf("shutdown hook %d failed: %v", i, err)
		}
		if err := hCtx.Err(); err == context.DeadlineExceeded {
			log.Printf("shutdown hook %d timed out", i)
		}
		hCancel()
	}

	for _, server := range servers {
		if err := server.Shutdown(ctx); err != nil {
			log.Printf("graceful shutdown of %s failed: %v", server.Addr, err)
		}
	}
	log.Printf("%s shutdown complete", name)
}

// NewServerWithTimeouts attaches timeout settings to an existing *http.Server or creates a new one if nil.
func NewServerWithTimeouts(base *http.Server, cfg TimeoutConfig) *http.Server {
	if base == nil {
		base = &http.Server{}
	}
	base.ReadHeaderTimeout = cfg.ReadHeader
	base.ReadTimeout = cfg.Read
	base.WriteTimeout = cfg.Write
	base.IdleTimeout = cfg.Idle
	return base
}
