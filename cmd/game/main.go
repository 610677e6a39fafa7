package main

import (
	"flag"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/sirupsen/logrus"

	"github.com/Garsondee/battlegrid/internal/config"
	"github.com/Garsondee/battlegrid/internal/game"
	"github.com/Garsondee/battlegrid/internal/level"
	"github.com/Garsondee/battlegrid/internal/sim"
)

func main() {
	var cfgPath string
	var levelPath string
	var levelIndex int
	var watch bool

	flag.StringVar(&cfgPath, "config", config.DefaultPath, "YAML config file (optional)")
	flag.StringVar(&levelPath, "level", "", "LDtk project to load (default: built-in map)")
	flag.IntVar(&levelIndex, "level-index", -1, "level index inside the project (default: config)")
	flag.BoolVar(&watch, "watch", false, "reload the level when the file changes")
	flag.Parse()

	cfg, err := config.LoadOptional(cfgPath)
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
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
	watch = watch || cfg.Level.Watch

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

	var watcher *level.Watcher
	if watch && levelPath != "" {
		watcher, err = level.NewWatcher(levelPath)
		if err != nil {
			log.WithError(err).Warn("level watch disabled")
		} else {
			defer watcher.Close()
		}
	}

	g := game.New(w,
		game.WithRender(cfg.Render),
		game.WithLogger(log),
		game.WithLevel(levelPath, levelIndex, watcher),
	)

	ebiten.SetWindowTitle("Battlegrid")
	ebiten.SetWindowSize(g.Size())
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if err := ebiten.RunGame(g); err != nil {
		log.WithError(err).Fatal("run game")
	}
}
