package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cbodonnell/netmove/pkg/client/network"
	"github.com/cbodonnell/netmove/pkg/client/replica"
	"github.com/cbodonnell/netmove/pkg/config"
	"github.com/cbodonnell/netmove/pkg/log"
	"github.com/cbodonnell/netmove/pkg/messages"
	"github.com/cbodonnell/netmove/pkg/queue"
	"github.com/cbodonnell/netmove/pkg/version"
)

// botScript walks a square: forward, right, back, left, one leg per period.
var botScript = []messages.ClientMove{
	{Forward: 1},
	{Right: 1},
	{Forward: -1},
	{Right: -1},
}

func scriptedMove(elapsed, leg time.Duration) *messages.ClientMove {
	i := int(elapsed/leg) % len(botScript)
	move := botScript[i]
	return &move
}

func main() {
	cfg, err := config.LoadClientConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	flag.StringVar(&cfg.ServerHost, "server-host", cfg.ServerHost, "Server host")
	flag.IntVar(&cfg.ServerPort, "server-port", cfg.ServerPort, "Server port")
	flag.StringVar(&cfg.Transport, "transport", cfg.Transport, "Transport to use (udp or ws)")
	flag.Uint64Var(&cfg.ProtocolID, "protocol-id", cfg.ProtocolID, "Protocol ID presented to the server")
	flag.DurationVar(&cfg.ServerTimeout, "server-timeout", cfg.ServerTimeout, "How long the server may stay silent before the session is dropped")
	flag.StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "Log level")
	duration := flag.Duration("duration", 0, "Stop after this long (0 runs until interrupted)")
	rate := flag.Int("rate", 60, "Intents sent per second")
	leg := flag.Duration("leg", time.Second, "How long each direction of the script is held")
	flag.Parse()

	if *rate <= 0 {
		panic(fmt.Sprintf("Invalid rate: %d", *rate))
	}
	if *leg <= 0 {
		panic(fmt.Sprintf("Invalid leg: %s", *leg))
	}

	logger, logLevel, err := cfg.Log.NewLogger()
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	log.SetDefaultLogger(logger)
	defer log.Sync()
	log.Info("Log level set to %s", logLevel)

	log.Info("Starting bot version %s", version.Get())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if *duration > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, *duration)
		defer cancelTimeout()
	}

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
	clientID := networkManager.ClientID()
	log.Info("Connected to %s as client %d", cfg.ServerAddress(), clientID)

	mirror := replica.NewMirror()
	mirror.OnSpawn = func(p *replica.Player) {
		log.Info("Player %d spawned", p.ClientID)
	}
	mirror.OnDespawn = func(id uint32) {
		log.Info("Player %d despawned", id)
	}

	run(ctx, networkManager, mirror, clientID, *rate, *leg)
}

func run(ctx context.Context, networkManager *network.NetworkManager, mirror *replica.Mirror, clientID uint32, rate int, leg time.Duration) {
	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()
	report := time.NewTicker(time.Second)
	defer report.Stop()

	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			log.Info("Bot stopped after %s", time.Since(start).Round(time.Millisecond))
			return
		case err := <-networkManager.ClientErrChan():
			log.Error("Client error: %v", err)
			return
		case t := <-ticker.C:
			if _, err := mirror.ProcessPendingServerMessages(networkManager.ServerMessageQueue()); err != nil {
				log.Error("Failed to process server messages: %v", err)
			}
			if err := networkManager.SendMove(ctx, scriptedMove(t.Sub(start), leg)); err != nil {
				log.Warn("Failed to send move: %v", err)
			}
		case <-report.C:
			p, ok := mirror.Player(clientID)
			if !ok {
				log.Debug("Not yet replicated at tick %d", mirror.LastTick())
				continue
			}
			log.Info("Tick %d: position (%.2f, %.2f, %.2f), ping %.1fms, %d players",
				mirror.LastTick(), p.Position.X, p.Position.Y, p.Position.Z, networkManager.Ping(), len(mirror.Players()))
		}
	}
}
