package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/cbodonnell/netmove/client/game"
	"github.com/cbodonnell/netmove/pkg/client/network"
	"github.com/cbodonnell/netmove/pkg/config"
	"github.com/cbodonnell/netmove/pkg/log"
	"github.com/cbodonnell/netmove/pkg/queue"
	"github.com/cbodonnell/netmove/pkg/version"
	"github.com/hajimehoshi/ebiten/v2"
)

func main() {
	cfg, err := config.LoadClientConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	flag.StringVar(&cfg.ServerHost, "server-host", cfg.ServerHost, "Server host")
	flag.IntVar(&cfg.ServerPort, "server-port", cfg.ServerPort, "Server port")
	flag.StringVar(&cfg.Transport, "transport", cfg.Transport, "Transport to use (udp or ws)")
	flag.Uint64Var(&cfg.ProtocolID, "protocol-id", cfg.ProtocolID, "Protocol ID presented to the server")
	flag.DurationVar(&cfg.ConnectTimeout, "connect-timeout", cfg.ConnectTimeout, "How long to wait for the server to accept")
	flag.DurationVar(&cfg.ServerTimeout, "server-timeout", cfg.ServerTimeout, "How long the server may stay silent before the session is dropped")
	flag.StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "Log level")
	debug := flag.Bool("debug", false, "Show the debug overlay")
	flag.Parse()

	logger, logLevel, err := cfg.Log.NewLogger()
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	log.SetDefaultLogger(logger)
	defer log.Sync()
	log.Info("Log level set to %s", logLevel)

	log.Info("Starting client version %s", version.Get())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverMessageQueue := queue.NewInMemoryQueue(1024)
	networkManager, err := network.NewNetworkManager(network.NewNetworkManagerOptions{
		ServerMessageQueue: serverMessageQueue,
		ServerAddress:      cfg.ServerAddress(),
		Transport:          cfg.Transport,
		ProtocolID:         cfg.ProtocolID,
		ConnectTimeout:     cfg.ConnectTimeout,
		PingInterval:       cfg.PingInterval,
		ServerTimeout:      cfg.ServerTimeout,
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to create network manager: %v", err))
	}

	if err := networkManager.Start(ctx); err != nil {
		panic(fmt.Sprintf("Failed to start network manager: %v", err))
	}
	defer func() {
		if err := networkManager.Stop(); err != nil {
			log.Error("Failed to stop network manager: %v", err)
		}
	}()
	log.Info("Connected to %s as client %d", cfg.ServerAddress(), networkManager.ClientID())

	g, err := game.NewGame(game.NewGameOptions{
		Context:        ctx,
		Debug:          *debug,
		NetworkManager: networkManager,
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to create game: %v", err))
	}

	ebiten.SetWindowSize(game.DefaultScreenWidth, game.DefaultScreenHeight)
	ebiten.SetWindowTitle("netmove")
	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		log.Error("Game stopped: %v", err)
	}
}
