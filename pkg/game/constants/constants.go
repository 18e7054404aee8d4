package constants

const (
	// PlayerSpeed is the speed at which players move in world units per second
	PlayerSpeed float64 = 25.0
	// PlayerMaxInput bounds the magnitude of each movement input axis
	PlayerMaxInput float64 = 1.0

	// DefaultTickRate is the number of server ticks per second
	DefaultTickRate int = 60
	// DefaultMaxClients is the maximum number of concurrently connected clients
	DefaultMaxClients int = 4
	// MaxMaxClients is the largest client count whose full snapshot still fits
	// in one datagram. A player with the default empty name encodes to at most
	// about 56 bytes before
	// compression, so 32 players stay under the 2048 byte limit with room for
	// the snapshot and envelope headers.
	MaxMaxClients int = 32
	// DefaultProtocolID must match between client and server
	DefaultProtocolID uint64 = 0
	// DefaultServerPort is the UDP port the server listens on
	DefaultServerPort int = 9090

	// Ball Radius
	BallRadius float64 = 0.5
	// Ball Starting X
	BallStartingX float64 = 0.0
	// Ball Starting Y
	BallStartingY float64 = 100.0
	// BallRestitution is the fraction of speed kept after a bounce
	BallRestitution float64 = 0.7
	// BallGravityMultiplier scales kinematic.Gravity for the sandbox
	BallGravityMultiplier float64 = 1.0
	// BallRestVelocity is the bounce speed below which the ball comes to rest
	BallRestVelocity float64 = 0.5

	// Ground Width
	GroundWidth float64 = 200.0
	// Ground Height
	GroundHeight float64 = 20.0
)
