// Package app wires the kiosk collaborators together and runs the per-frame
// session loop for each connection.
package app

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/kiosk/internal/catalog"
	"github.com/ayusman/kiosk/internal/detector"
	"github.com/ayusman/kiosk/internal/notify"
	"github.com/ayusman/kiosk/internal/session"
)

// ErrBadFrame is returned when an inbound frame cannot be decoded.
var ErrBadFrame = errors.New("bad frame")

// Clock reads the current time once per frame.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Config holds the process-wide collaborators shared by every session.
type Config struct {
	Catalog *catalog.Catalog
	Objects detector.ObjectDetector
	Hands   detector.HandDetector
	// Dispatcher receives item and mode events. Nil disables notifications.
	Dispatcher *notify.Dispatcher
	Settings   session.Settings
	// Confidence is the minimum detector confidence for a product to count.
	Confidence float64
	// InferenceTimeout bounds each detector call. Zero means no bound.
	InferenceTimeout time.Duration
	// Clock defaults to the wall clock.
	Clock  Clock
	Logger *zap.Logger
}

// App is the shared, read-only part of the kiosk. Sessions created by NewLoop
// do not share mutable state.
type App struct {
	config Config
}

// New creates an App. Missing detectors fall back to mocks that never detect anything.
func New(config Config) *App {
	if config.Clock == nil {
		config.Clock = realClock{}
	}
	if config.Logger == nil {
		config.Logger = zap.L()
	}
	if config.Catalog == nil {
		config.Catalog = catalog.New(nil)
	}
	if config.Objects == nil {
		config.Objects = detector.NewMockObjectDetector()
	}
	if config.Hands == nil {
		config.Hands = detector.NewMockDetector()
	}
	return &App{config: config}
}

// Catalog returns the product catalog.
func (a *App) Catalog() *catalog.Catalog {
	return a.config.Catalog
}

// NewLoop creates a fresh IDLE session for one connection.
func (a *App) NewLoop(id string) *Loop {
	log := a.config.Logger.With(zap.String("session_id", id))
	sess := session.New(id, a.config.Settings)

	sess.OnItemAdded = func(item catalog.Item) {
		log.Debug("item added", zap.String("product", item.Name), zap.Float64("price", item.Price))
		a.dispatch(notify.Event{
			Name:      notify.EventItemAdded,
			SessionID: id,
			Item:      &item,
		})
	}
	sess.OnModeChange = func(from, to session.Mode) {
		log.Info("mode changed", zap.String("from", string(from)), zap.String("to", string(to)))
		a.dispatch(notify.Event{
			Name:      notify.EventModeChanged,
			SessionID: id,
			From:      string(from),
			To:        string(to),
		})
	}

	return &Loop{app: a, sess: sess, log: log}
}

func (a *App) dispatch(ev notify.Event) {
	if a.config.Dispatcher == nil {
		return
	}
	ev.Time = a.config.Clock.Now()
	a.config.Dispatcher.Dispatch(ev)
}

// Close releases both detectors.
func (a *App) Close() error {
	return errors.Join(a.config.Objects.Close(), a.config.Hands.Close())
}
