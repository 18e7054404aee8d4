package game

import (
	"context"
	"fmt"
	"image/color"

	"github.com/cbodonnell/netmove/client/input"
	"github.com/cbodonnell/netmove/client/objects"
	clientinput "github.com/cbodonnell/netmove/pkg/client/input"
	"github.com/cbodonnell/netmove/pkg/client/network"
	"github.com/cbodonnell/netmove/pkg/client/replica"
	"github.com/cbodonnell/netmove/pkg/log"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// Game implements ebiten.Game interface, which has Update, Draw and Layout methods.
type Game struct {
	ctx context.Context
	// debug is a boolean value indicating whether debug mode is enabled.
	debug bool
	// networkManager is the network manager.
	networkManager *network.NetworkManager
	// mirror holds the replicated players.
	mirror *replica.Mirror
	// mode is the current game mode.
	mode GameMode

	keyboard input.Keyboard
	camera   *objects.Camera
	root     *objects.SortedZIndexObject
	overlay  *objects.TextOverlayObject
}

var _ ebiten.Game = &Game{}

type GameMode int

const (
	GameModePlay GameMode = iota
	GameModeNetworkError
)

func (m GameMode) String() string {
	switch m {
	case GameModePlay:
		return "Play"
	case GameModeNetworkError:
		return "Network Error"
	}
	return "Unknown"
}

const (
	DefaultScreenWidth  = 640
	DefaultScreenHeight = 480
	// DefaultCameraScale is the number of pixels per world unit
	DefaultCameraScale = 4.0
)

var backgroundColor = color.RGBA{24, 24, 32, 255}

type NewGameOptions struct {
	Context context.Context
	Debug   bool
	// NetworkManager must already be started.
	NetworkManager *network.NetworkManager
}

func NewGame(opts NewGameOptions) (*Game, error) {
	if opts.NetworkManager == nil {
		return nil, fmt.Errorf("network manager is required")
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	g := &Game{
		ctx:            ctx,
		debug:          opts.Debug,
		networkManager: opts.NetworkManager,
		mirror:         replica.NewMirror(),
		mode:           GameModePlay,
		camera:         &objects.Camera{Scale: DefaultCameraScale},
		root:           objects.NewSortedZIndexObject("root"),
		overlay:        objects.NewTextOverlayObject("overlay", ""),
	}
	g.mirror.OnSpawn = g.spawnPlayer
	g.mirror.OnDespawn = g.despawnPlayer

	return g, nil
}

func (g *Game) spawnPlayer(p *replica.Player) {
	isLocalPlayer := p.ClientID == g.networkManager.ClientID()
	player := objects.NewPlayer(p.ClientID, isLocalPlayer, g.mirror, g.camera)
	if err := g.root.AddChild(player); err != nil {
		log.Error("Failed to add player %d: %v", p.ClientID, err)
		return
	}
	log.Debug("Spawned player %d", p.ClientID)
}

func (g *Game) despawnPlayer(clientID uint32) {
	if err := g.root.RemoveChild(objects.PlayerObjectID(clientID)); err != nil {
		log.Error("Failed to remove player %d: %v", clientID, err)
		return
	}
	log.Debug("Despawned player %d", clientID)
}

func (g *Game) Update() error {
	if input.IsDebugJustPressed() {
		g.debug = !g.debug
	}

	switch g.mode {
	case GameModeNetworkError:
		if input.IsPositiveJustPressed() || input.IsNegativeJustPressed() {
			return ebiten.Termination
		}
		return nil
	case GameModePlay:
		if input.IsNegativeJustPressed() {
			return ebiten.Termination
		}
	}

	if err := g.checkNetworkManagerErrors(); err != nil {
		log.Error("Network manager error: %v", err)
		g.loadNetworkError()
		return nil
	}

	if _, err := g.mirror.ProcessPendingServerMessages(g.networkManager.ServerMessageQueue()); err != nil {
		return fmt.Errorf("failed to process pending server messages: %v", err)
	}

	if move, ok := clientinput.ReadMove(g.keyboard); ok {
		if err := g.networkManager.SendMove(g.ctx, move); err != nil {
			log.Warn("Failed to send move: %v", err)
		}
	}

	if err := g.root.Update(); err != nil {
		return fmt.Errorf("failed to update objects: %v", err)
	}

	return nil
}

// checkNetworkManagerErrors checks the network manager for errors and returns any that are found.
func (g *Game) checkNetworkManagerErrors() error {
	select {
	case err := <-g.networkManager.ClientErrChan():
		return fmt.Errorf("client error: %v", err)
	default:
		return nil
	}
}

func (g *Game) loadNetworkError() {
	g.mode = GameModeNetworkError
	g.overlay.SetText("Network Error")
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)
	g.root.Draw(screen)
	g.overlay.Draw(screen)
	if g.debug {
		g.drawDebugOverlay(screen)
	}
}

func (g *Game) drawDebugOverlay(screen *ebiten.Image) {
	ebitenutil.DebugPrint(screen, fmt.Sprintf("\n   FPS: %0.1f", ebiten.ActualFPS()))
	ebitenutil.DebugPrint(screen, fmt.Sprintf("\n\n   TPS: %0.1f", ebiten.ActualTPS()))

	if g.mode != GameModePlay {
		return
	}

	ebitenutil.DebugPrint(screen, fmt.Sprintf("\n\n\n   Server: %s", g.networkManager.ServerID()))
	ebitenutil.DebugPrint(screen, fmt.Sprintf("\n\n\n\n   Client: %d", g.networkManager.ClientID()))
	ebitenutil.DebugPrint(screen, fmt.Sprintf("\n\n\n\n\n   Ping: %0.1f", g.networkManager.Ping()))
	ebitenutil.DebugPrint(screen, fmt.Sprintf("\n\n\n\n\n\n   Tick: %d", g.mirror.LastTick()))
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int) {
	return DefaultScreenWidth, DefaultScreenHeight
}
