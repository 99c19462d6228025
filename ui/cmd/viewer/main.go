package main

import (
	"errors"
	"flag"
	"log"
	"strconv"

	"github.com/hajimehoshi/ebiten/v2"

	"spreadsim/internal/core"
	_ "spreadsim/internal/sims/invasion"
	"spreadsim/ui/internal/app"
)

func main() {
	cfg := app.NewConfig()
	cfg.Bind(flag.CommandLine)
	flag.Parse()

	factory, ok := core.Sims()[cfg.Sim]
	if !ok {
		log.Fatalf("unknown sim %q", cfg.Sim)
	}

	sim := factory(map[string]string{"seed": strconv.FormatInt(cfg.Seed, 10)})
	sim.Reset(cfg.Seed)

	game := app.New(sim, cfg.Scale, cfg.Panel, cfg.Seed)
	size := sim.Size()

	ebiten.SetWindowTitle("spreadsim — " + sim.Name())
	ebiten.SetTPS(cfg.TPS)
	ebiten.SetWindowSize(size.W*cfg.Scale+cfg.Panel, size.H*cfg.Scale)

	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		log.Fatal(err)
	}
}
