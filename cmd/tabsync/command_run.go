package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	cli "github.com/urfave/cli/v3"

	"tabsync/internal/collapse"
	"tabsync/internal/indent"
	"tabsync/internal/logging"
	"tabsync/internal/loop"
	"tabsync/internal/metrics"
	"tabsync/internal/registry"
	"tabsync/internal/sidebar"
	"tabsync/internal/store"
)

const (
	defaultSidebarWidth    = 300
	metricsShutdownTimeout = 2 * time.Second
)

func newRunCommand(wiring commandWiring) *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Follow the configured message source and keep the sidebar state in sync",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "width", Value: defaultSidebarWidth, Usage: "sidebar `WIDTH` in pixels used for indent sizing"},
			&cli.StringFlag{Name: "stylesheet-out", Usage: "write every applied stylesheet to `FILE`"},
			&cli.BoolFlag{Name: "no-cache", Usage: "ignore the persisted indent cache on start"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return wiring.runSync(ctx, runOptions{
				width:         cmd.Int("width"),
				stylesheetOut: strings.TrimSpace(cmd.String("stylesheet-out")),
				noCache:       cmd.Bool("no-cache"),
			})
		},
	}
}

type runOptions struct {
	width         int
	stylesheetOut string
	noCache       bool
}

func (w commandWiring) runSync(ctx context.Context, opts runOptions) error {
	env := envFromContext(ctx)
	cfg := env.cfg
	log := env.log.Named("run")
	windowID := cfg.WindowID()
	collector := metrics.New()

	cacheStore, err := w.openStore(cfg)
	if err != nil {
		return fmt.Errorf("open cache store: %w", err)
	}
	defer cacheStore.Close()

	source, closeSource, err := w.newSource(cfg, env.log)
	if err != nil {
		return fmt.Errorf("open message source: %w", err)
	}
	defer closeSource()

	var warm *indent.Cache
	if !opts.noCache {
		if warm, err = cacheStore.Load(ctx, windowID); err != nil {
			if !errors.Is(err, store.ErrInvalidCache) {
				return fmt.Errorf("load indent cache: %w", err)
			}
			log.Warn("discarding indent cache", logging.F("err", err))
			warm = nil
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	eventLoop := loop.New(0)
	tabs := registry.NewStore()
	animator := collapse.New(tabs, eventLoop, cfg,
		collapse.WithLogger(env.log),
		collapse.WithMetrics(collector))
	scheduler := indent.NewScheduler(tabs, eventLoop, cfg,
		indent.WithLogger(env.log),
		indent.WithMetrics(collector),
		indent.WithWindow(windowID))
	dispatcher := sidebar.New(tabs, eventLoop, animator, scheduler,
		sidebar.WithLogger(env.log),
		sidebar.WithMetrics(collector),
		sidebar.WithTrackTimeout(cfg.TrackTimeout()),
		sidebar.WithWindow(windowID))
	defer dispatcher.Close()

	surface := &headlessSurface{width: opts.width, out: opts.stylesheetOut, log: log}
	scheduler.OnStylesheetChanged.Listen(func(cache indent.Cache) {
		if err := cacheStore.Save(runCtx, windowID, cache); err != nil {
			log.Warn("save indent cache failed", logging.F("err", err))
		}
	})
	animator.OnUpdated.Listen(func(update collapse.Update) {
		log.Debug("collapsed state updated",
			logging.F("tab", update.Tab.ID()),
			logging.F("collapsed", update.Collapsed),
			logging.F("state", update.Tab.State()))
	})

	stopMetrics, err := serveMetrics(cfg.MetricsAddress(), collector, log)
	if err != nil {
		return err
	}
	defer stopMetrics()

	loopDone := make(chan error, 1)
	go func() {
		loopDone <- eventLoop.Run(runCtx)
	}()

	if err := eventLoop.Post(func() {
		scheduler.Init(surface)
		scheduler.RestoreTree(warm)
	}); err != nil {
		return err
	}

	messages, unsubscribe, err := source.Subscribe(runCtx)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	defer unsubscribe()
	log.Info("following", logging.F("source", cfg.SyncSource()), logging.F("window", windowID), logging.F("warm", warm != nil))

	runErr := dispatcher.Run(runCtx, eventLoop, messages)
	if errors.Is(runErr, context.Canceled) {
		runErr = nil
	}
	if runErr == nil {
		// Let already posted messages finish before stopping the loop.
		if err := eventLoop.Call(context.WithoutCancel(ctx), func() {}); err != nil && !errors.Is(err, loop.ErrClosed) {
			runErr = err
		}
	}
	cancel()
	if err := <-loopDone; err != nil && !errors.Is(err, context.Canceled) && runErr == nil {
		runErr = err
	}
	log.Info("stopped", logging.F("tabs", tabs.Len()))
	return runErr
}

// headlessSurface stands in for the sidebar document when running without
// a renderer: it logs what would be applied.
type headlessSurface struct {
	width int
	out   string
	log   logging.Logger
}

func (s *headlessSurface) Width() int {
	return s.width
}

func (s *headlessSurface) SetMaxTreeLevel(level int) {
	s.log.Info("max tree level", logging.F("level", level))
}

func (s *headlessSurface) ApplyStylesheet(definition string) {
	s.log.Info("stylesheet applied", logging.F("lines", strings.Count(definition, "\n")+1))
	if s.out == "" {
		return
	}
	if err := os.WriteFile(s.out, []byte(definition+"\n"), 0o644); err != nil {
		s.log.Warn("write stylesheet failed", logging.F("path", s.out), logging.F("err", err))
	}
}

func serveMetrics(addr string, collector *metrics.Metrics, log logging.Logger) (func(), error) {
	if addr == "" {
		return func() {}, nil
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen metrics on %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", logging.F("err", err))
		}
	}()
	log.Info("metrics listening", logging.F("addr", listener.Addr().String()))
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		_ = server.Shutdown(ctx)
	}, nil
}
