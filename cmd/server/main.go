package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cbodonnell/netmove/pkg/api"
	"github.com/cbodonnell/netmove/pkg/config"
	"github.com/cbodonnell/netmove/pkg/game"
	"github.com/cbodonnell/netmove/pkg/log"
	"github.com/cbodonnell/netmove/pkg/network"
	"github.com/cbodonnell/netmove/pkg/queue"
	"github.com/cbodonnell/netmove/pkg/state"
	"github.com/cbodonnell/netmove/pkg/version"
	"github.com/cbodonnell/netmove/pkg/workers"
	"github.com/google/uuid"
)

func main() {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	flag.IntVar(&cfg.UDPPort, "udp-port", cfg.UDPPort, "UDP port to listen on")
	flag.IntVar(&cfg.WSPort, "ws-port", cfg.WSPort, "WebSocket port to listen on (0 disables)")
	flag.IntVar(&cfg.APIPort, "api-port", cfg.APIPort, "HTTP status API port (0 disables)")
	flag.IntVar(&cfg.MaxClients, "max-clients", cfg.MaxClients, "Maximum number of connected clients")
	flag.Uint64Var(&cfg.ProtocolID, "protocol-id", cfg.ProtocolID, "Protocol ID clients must present")
	flag.IntVar(&cfg.TickRate, "tick-rate", cfg.TickRate, "Server ticks per second")
	flag.DurationVar(&cfg.ClientTimeout, "client-timeout", cfg.ClientTimeout, "Disconnect clients silent for this long")
	flag.StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "Log level")
	flag.StringVar(&cfg.Log.File, "log-file", cfg.Log.File, "Also write logs to this rolling file")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("Invalid config: %v", err))
	}

	logger, logLevel, err := cfg.Log.NewLogger()
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	log.SetDefaultLogger(logger)
	defer log.Sync()
	log.Info("Log level set to %s", logLevel)

	serverID := uuid.New().String()
	log.Info("Starting server %s version %s", serverID, version.Get())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	clientManager := network.NewClientManager(cfg.MaxClients)
	clientMessageQueue := queue.NewInMemoryQueue(cfg.ClientMessageQueueSize)

	networkManager := network.NewNetworkManager(network.NewNetworkManagerOptions{
		ClientManager: clientManager,
		MessageQueue:  clientMessageQueue,
		ServerID:      serverID,
		ProtocolID:    cfg.ProtocolID,
		TickRate:      cfg.TickRate,
		ClientTimeout: cfg.ClientTimeout,
		UDPPort:       cfg.UDPPort,
		WSPort:        cfg.WSPort,
	})
	if err := networkManager.Start(ctx); err != nil {
		panic(fmt.Sprintf("Failed to start network manager: %v", err))
	}

	serverEventQueue := queue.NewInMemoryQueue(cfg.ServerEventQueueSize)
	connectionEventWorker := workers.NewConnectionEventWorker(workers.NewConnectionEventWorkerOptions{
		ConnectionEventChan: clientManager.GetConnectionEventChan(),
		ServerEventQueue:    serverEventQueue,
	})
	go connectionEventWorker.Start(ctx)

	serverMessageChan := make(chan workers.ServerMessage, cfg.ServerMessageBufferSize)
	serverMessageWorker := workers.NewServerMessageWorker(workers.NewServerMessageWorkerOptions{
		Sender:            networkManager,
		ServerMessageChan: serverMessageChan,
	})
	go serverMessageWorker.Start(ctx)

	stateManager := state.NewInMemoryStateManager()

	if cfg.APIPort != 0 {
		apiServer := api.NewAPIServer(api.NewAPIServerOptions{
			Port:         cfg.APIPort,
			StateManager: stateManager,
			ServerID:     serverID,
			Version:      version.Get(),
		})
		if err := apiServer.Start(); err != nil {
			panic(fmt.Sprintf("Failed to start API server: %v", err))
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := apiServer.Stop(shutdownCtx); err != nil {
				log.Error("Failed to stop API server: %v", err)
			}
		}()
	}

	gameManager := game.NewGameManager(game.NewGameManagerOptions{
		ClientMessageQueue: clientMessageQueue,
		ServerEventQueue:   serverEventQueue,
		StateManager:       stateManager,
		ServerMessageChan:  serverMessageChan,
		TickRate:           cfg.TickRate,
	})

	log.Info("Starting game manager")
	if err := gameManager.Start(ctx); err != nil {
		log.Error("Game manager stopped: %v", err)
	}
	log.Info("Server stopped")
}
