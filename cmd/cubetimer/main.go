package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cubeware/cubetimer/internal/algs"
	"github.com/cubeware/cubetimer/internal/config"
	"github.com/cubeware/cubetimer/internal/core"
	"github.com/cubeware/cubetimer/internal/notify"
	"github.com/cubeware/cubetimer/internal/store"
	"github.com/cubeware/cubetimer/internal/ui"
)

func main() {
	cfgPath := flag.String("config", "cubetimer.toml", "path to config file")
	category := flag.String("category", "", "override the configured category")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *category != "" {
		cfg.Category = *category
	}

	zl, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer zl.Sync()
	sugar := zl.Sugar()

	db, err := store.Open(cfg.DatabasePath, cfg.Category)
	if err != nil {
		sugar.Fatalw("open store", "err", err)
	}
	defer db.Close()

	scrambler := algs.NewGenerator(time.Now().UnixNano())
	moveCount := algs.MoveCount(cfg.Category)

	engine := core.NewEngine(core.NewRealClock(), cfg.Prototype(), db, sugar)

	if cfg.ToastEnabled {
		engine.AddListener(notify.NewSolveToaster(notify.NewToaster(), sugar))
	}
	if cfg.SoundEnabled {
		if player, err := notify.NewAudioPlayer(sugar); err != nil {
			sugar.Warnw("audio disabled", "err", err)
		} else {
			engine.AddListener(player)
		}
	}

	engine.Start()
	defer engine.Stop()

	m := ui.NewModel(engine, scrambler, moveCount)
	if err := ui.Run(m); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
