package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/matst80/jobboard/pkg/auth"
	"github.com/matst80/jobboard/pkg/board"
	"github.com/matst80/jobboard/pkg/bookmark"
	"github.com/matst80/jobboard/pkg/client"
	"github.com/matst80/jobboard/pkg/common"
	"github.com/matst80/jobboard/pkg/config"
	"github.com/matst80/jobboard/pkg/filter"
	"github.com/matst80/jobboard/pkg/popup"
	"github.com/matst80/jobboard/pkg/tracking"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var configFile = flag.String("config", "", "path to a yaml config file")
var enableProfiling = flag.Bool("profiling", false, "enable profiling endpoints")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	api := client.New(cfg.Api.Url, client.WithToken(cfg.Api.Token))

	var backend filter.Backend
	var hooks []common.ShutdownHook
	if cfg.Redis.Url != "" {
		rdb := filter.NewRedisBackend(cfg.Redis.Url, cfg.Redis.Password, cfg.Redis.Db)
		backend = rdb
		hooks = append(hooks, func(context.Context) error { return rdb.Close() })
	} else {
		log.Println("No redis url provided, facet options are cached in memory only")
	}
	options := filter.NewOptionsCache(api, backend, cfg.Board.OptionsTtl())

	var trk tracking.Tracking
	if cfg.Rabbit.Url != "" {
		rt, err := tracking.NewRabbitTracking(cfg.Rabbit.Url, cfg.Rabbit.Context)
		if err != nil {
			log.Printf("Failed to connect tracking to RabbitMQ: %v", err)
		} else {
			trk = rt
			hooks = append(hooks, func(context.Context) error { return rt.Close() })
		}
	}

	var tokens *auth.TokenService
	if cfg.Auth.TokenKey != "" {
		tokens = auth.NewTokenService([]byte(cfg.Auth.TokenKey), cfg.Auth.TokenTtl())
	} else {
		log.Println("No token key provided, bookmarks require sign in and will be rejected")
	}

	clock := clockwork.NewRealClock()
	factory := func(sessionId string, identity func() *auth.Identity) *board.Board {
		return board.New(board.Config{
			Fetcher:      api,
			Options:      options,
			SalaryBounds: cfg.SalaryBounds(),
			PageSize:     cfg.Board.PageSize,
			Debounce:     cfg.Board.Debounce(),
			Clock:        clock,
			Bookmarks: bookmark.NewReconciler(api, bookmark.Config{
				Identity: identity,
				Notify: func(jobId string, err error) {
					log.Printf("bookmark of %s in session %s was reverted: %v", jobId, sessionId, err)
				},
			}),
			Tracking:  trk,
			SessionId: sessionId,
		})
	}
	sessions := newSessionStore(factory, cfg.Board.SessionIdle(), clock)
	reapCtx, stopReaper := context.WithCancel(context.Background())
	go sessions.run(reapCtx, time.Minute)

	a := &app{
		sessions: sessions,
		tokens:   tokens,
		options:  options,
		placer:   popup.Placer{Padding: cfg.Board.PopupPadding, Gap: cfg.Board.PopupGap},
		delays:   popup.Delays{Open: cfg.Board.HoverOpen(), Close: cfg.Board.HoverClose()},
	}

	mux := http.NewServeMux()
	mux.Handle("/api/", http.StripPrefix("/api", a.Handler()))
	timeouts := cfg.Server.Timeouts()
	apiServer := common.NewServerWithTimeouts(&http.Server{Addr: cfg.Server.ListenAddress, Handler: mux}, timeouts)

	debugMux := http.NewServeMux()
	debugMux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	debugMux.Handle("/metrics", promhttp.Handler())
	if *enableProfiling {
		log.Println("Profiling enabled")
		debugMux.HandleFunc("/debug/pprof/", pprof.Index)
		debugMux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		debugMux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		debugMux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		debugMux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	debugServer := &http.Server{Addr: cfg.Server.DebugAddress, Handler: debugMux}

	hooks = append([]common.ShutdownHook{
		func(context.Context) error { stopReaper(); return nil },
		sessions.Close,
	}, hooks...)
	common.RunServerWithShutdown("jobboard", timeouts, []*http.Server{apiServer, debugServer}, hooks...)
}
