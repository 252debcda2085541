package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/kiosk/internal/app"
	"github.com/ayusman/kiosk/internal/catalog"
	"github.com/ayusman/kiosk/internal/config"
	"github.com/ayusman/kiosk/internal/detector"
	"github.com/ayusman/kiosk/internal/logger"
	"github.com/ayusman/kiosk/internal/notify"
	"github.com/ayusman/kiosk/internal/server"
	"github.com/ayusman/kiosk/internal/session"
	"github.com/ayusman/kiosk/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "kiosk: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.Initialize(cfg.Env)
	if err != nil {
		return err
	}
	defer log.Sync()

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	st, err := store.New(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	defer st.Close()

	cat, err := catalog.Load(st)
	if err != nil {
		return err
	}
	log.Info("catalog loaded", zap.Int("products", cat.Len()), zap.String("db", st.Path()))

	detCfg := detector.DefaultConfig()
	detCfg.ScriptsDir = cfg.ScriptsDir

	var objects detector.ObjectDetector
	if yolo, err := detector.NewYOLODetector(detCfg); err == nil {
		objects = yolo
		log.Info("using YOLO product detection")
	} else {
		log.Warn("product detection not available, using mock detector", zap.Error(err))
		objects = detector.NewMockObjectDetector()
	}

	var hands detector.HandDetector
	if mp, err := detector.NewMediaPipeDetector(detCfg); err == nil {
		hands = mp
		log.Info("using MediaPipe hand detection")
	} else {
		log.Warn("hand detection not available, using mock detector", zap.Error(err))
		hands = detector.NewMockDetector()
	}

	sinks, closeSinks := notifiers(cfg, log)
	defer closeSinks()
	dispatcher := notify.NewDispatcher(log, cfg.HookTimeout, sinks...)

	a := app.New(app.Config{
		Catalog:    cat,
		Objects:    objects,
		Hands:      hands,
		Dispatcher: dispatcher,
		Settings: session.Settings{
			ScanCooldown:   cfg.ScanCooldown,
			GestureTimeout: cfg.GestureTimeout,
			DebounceGuard:  cfg.DebounceGuard,
			PaidHold:       cfg.PaidHold,
		},
		Confidence:       cfg.Confidence,
		InferenceTimeout: cfg.InferenceTimeout,
		Logger:           log,
	})
	defer a.Close()

	staticDir := cfg.StaticDir
	if staticDir == "" {
		staticDir = findWebDir(cfg.DataDir)
	}
	if staticDir != "" {
		log.Info("serving static files", zap.String("dir", staticDir))
	}

	srv := server.New(server.Config{
		StaticDir: staticDir,
		App:       a,
		Logger:    log,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("addr", cfg.Addr))
		errCh <- srv.ListenAndServe(cfg.Addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown", zap.Error(err))
	}
	dispatcher.Wait()
	return nil
}

// notifiers builds the event sinks: discovered hooks, plus redis when configured.
// The returned func closes any connections they hold.
func notifiers(cfg config.Config, log *zap.Logger) ([]notify.Notifier, func()) {
	var out []notify.Notifier
	closer := func() {}

	hooks := notify.NewManager(cfg.HooksDir)
	if err := hooks.Discover(); err != nil {
		log.Warn("hook discovery failed", zap.String("dir", cfg.HooksDir), zap.Error(err))
	} else {
		for _, h := range hooks.List() {
			log.Info("hook loaded", zap.String("hook", h.Manifest.Name), zap.Strings("events", h.Manifest.Events))
		}
	}
	out = append(out, notify.NewHookNotifier(hooks, notify.NewExecutor(cfg.HookTimeout)))

	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		pub, err := notify.NewRedisPublisher(ctx, cfg.RedisURL, cfg.RedisChannel)
		if err != nil {
			log.Warn("redis publisher disabled", zap.Error(err))
		} else {
			log.Info("publishing events to redis", zap.String("channel", cfg.RedisChannel))
			out = append(out, pub)
			closer = func() { pub.Close() }
		}
	}

	return out, closer
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and <dataDir>/web.
// Returns the first existing directory or empty string if none found.
func findWebDir(dataDir string) string {
	for _, p := range []string{"web", "../web", "../../web", filepath.Join(dataDir, "web")} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}
