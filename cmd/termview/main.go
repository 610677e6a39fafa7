package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/sirupsen/logrus"

	"github.com/Garsondee/battlegrid/internal/config"
	"github.com/Garsondee/battlegrid/internal/level"
	"github.com/Garsondee/battlegrid/internal/sim"
	"github.com/Garsondee/battlegrid/internal/termview"
)

func main() {
	var cfgPath string
	var levelPath string
	var levelIndex int
	var period time.Duration
	var logPath string

	flag.StringVar(&cfgPath, "config", config.DefaultPath, "YAML config file (optional)")
	flag.StringVar(&levelPath, "level", "", "LDtk project to load (default: built-in map)")
	flag.IntVar(&levelIndex, "level-index", -1, "level index inside the project (default: config)")
	flag.DurationVar(&period, "tick", 50*time.Millisecond, "simulation tick period")
	flag.StringVar(&logPath, "log", "", "write logs to this file (the terminal is taken by the view)")
	flag.Parse()

	cfg, err := config.LoadOptional(cfgPath)
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	// Stderr is fine until tcell takes the terminal; after that, logs go to
	// -log or nowhere.
	viewOut, closeLog, err := viewLogOutput(logPath)
	if err != nil {
		logrus.WithError(err).Fatal("open log file")
	}
	defer closeLog()
	log, err := cfg.Log.NewLogger(os.Stderr)
	if err != nil {
		logrus.WithError(err).Fatal("configure logging")
	}
	if levelPath == "" {
		levelPath = cfg.Level.Path
	}
	if levelIndex < 0 {
		levelIndex = cfg.Level.Index
	}

	opts, err := cfg.WorldOptions()
	if err != nil {
		log.WithError(err).Fatal("world options")
	}
	w, err := sim.NewWorld(append(opts, sim.WithLogger(log), sim.WithEventLog(cfg.Log.NewEventLog()))...)
	if err != nil {
		log.WithError(err).Fatal("create world")
	}
	src, err := level.Open(levelPath, levelIndex)
	if err != nil {
		log.WithError(err).WithField("path", levelPath).Fatal("open level")
	}
	if _, err := w.ReloadTerrain(src); err != nil {
		log.WithError(err).WithField("level", src.Name()).Fatal("import level")
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		log.WithError(err).Fatal("open terminal")
	}
	if err := screen.Init(); err != nil {
		log.WithError(err).Fatal("init terminal")
	}
	log.SetOutput(viewOut)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = termview.New(screen, w).Run(ctx, period)
	stop()
	screen.Fini()
	log.SetOutput(os.Stderr)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("termview")
	}
	log.WithField("ticks", w.TickCount()).Info("termview closed")
}

// viewLogOutput opens the log file used while the view owns the terminal.
// With no path, logs are discarded rather than drawn over the view.
func viewLogOutput(path string) (io.Writer, func() error, error) {
	if path == "" {
		return io.Discard, func() error { return nil }, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
