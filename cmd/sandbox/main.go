package main

import (
	"errors"
	"flag"
	"fmt"

	"github.com/cbodonnell/netmove/client/game"
	"github.com/cbodonnell/netmove/pkg/config"
	"github.com/cbodonnell/netmove/pkg/log"
	"github.com/cbodonnell/netmove/pkg/sandbox"
	"github.com/cbodonnell/netmove/pkg/version"
	"github.com/hajimehoshi/ebiten/v2"
)

// maxHeadlessSteps bounds a headless run that waits for the ball to settle.
const maxHeadlessSteps = 1_000_000

func main() {
	cfg, err := config.LoadSandboxConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	flag.BoolVar(&cfg.Headless, "headless", cfg.Headless, "Run without a window")
	flag.IntVar(&cfg.Steps, "steps", cfg.Steps, "Number of headless steps (0 runs until the ball comes to rest)")
	flag.IntVar(&cfg.StepRate, "step-rate", cfg.StepRate, "Steps per simulated second")
	flag.StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "Log level")
	flag.Parse()

	if cfg.StepRate <= 0 {
		panic(fmt.Sprintf("Invalid step rate: %d", cfg.StepRate))
	}

	logger, logLevel, err := cfg.Log.NewLogger()
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	log.SetDefaultLogger(logger)
	defer log.Sync()
	log.Info("Log level set to %s", logLevel)

	log.Info("Starting sandbox version %s", version.Get())

	world := sandbox.NewWorld()

	if cfg.Headless {
		runHeadless(world, cfg.Steps, 1.0/float64(cfg.StepRate))
		return
	}

	g, err := game.NewSandboxGame(world)
	if err != nil {
		panic(fmt.Sprintf("Failed to create sandbox: %v", err))
	}

	ebiten.SetTPS(cfg.StepRate)
	ebiten.SetWindowSize(game.DefaultScreenWidth, game.DefaultScreenHeight)
	ebiten.SetWindowTitle("netmove sandbox")
	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		log.Error("Sandbox stopped: %v", err)
	}
}

func runHeadless(world *sandbox.World, steps int, deltaTime float64) {
	limit := steps
	if limit <= 0 {
		limit = maxHeadlessSteps
	}
	for i := 0; i < limit; i++ {
		altitude := world.Step(deltaTime)
		log.Info("Ball altitude: %f", altitude)
		if steps <= 0 && world.Ball().AtRest {
			break
		}
	}
	log.Info("Sandbox finished after %d steps at altitude %f", world.Steps(), world.Altitude())
}
