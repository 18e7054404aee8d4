package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/cbodonnell/netmove/pkg/game/constants"
)

// LogConfig controls the process logger.
type LogConfig struct {
	Level      string `env:"NETMOVE_LOG_LEVEL" envDefault:"info"`
	File       string `env:"NETMOVE_LOG_FILE"`
	MaxSizeMB  int    `env:"NETMOVE_LOG_MAX_SIZE_MB" envDefault:"10"`
	MaxBackups int    `env:"NETMOVE_LOG_MAX_BACKUPS" envDefault:"3"`
	MaxAgeDays int    `env:"NETMOVE_LOG_MAX_AGE_DAYS" envDefault:"7"`
}

// ServerConfig is the configuration of the authoritative game server.
type ServerConfig struct {
	Log LogConfig

	UDPPort int `env:"NETMOVE_UDP_PORT" envDefault:"9090"`
	// WSPort enables the WebSocket transport when non-zero.
	WSPort int `env:"NETMOVE_WS_PORT" envDefault:"0"`
	// APIPort enables the HTTP status API when non-zero.
	APIPort int `env:"NETMOVE_API_PORT" envDefault:"0"`

	MaxClients    int           `env:"NETMOVE_MAX_CLIENTS" envDefault:"4"`
	ProtocolID    uint64        `env:"NETMOVE_PROTOCOL_ID" envDefault:"0"`
	TickRate      int           `env:"NETMOVE_TICK_RATE" envDefault:"60"`
	ClientTimeout time.Duration `env:"NETMOVE_CLIENT_TIMEOUT" envDefault:"5s"`

	ClientMessageQueueSize  int `env:"NETMOVE_CLIENT_MESSAGE_QUEUE_SIZE" envDefault:"10000"`
	ServerEventQueueSize    int `env:"NETMOVE_SERVER_EVENT_QUEUE_SIZE" envDefault:"1000"`
	ServerMessageBufferSize int `env:"NETMOVE_SERVER_MESSAGE_BUFFER_SIZE" envDefault:"100"`
}

// TickInterval returns the duration of one server tick.
func (c ServerConfig) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}

// Validate reports configuration values the server cannot run with.
func (c ServerConfig) Validate() error {
	if c.UDPPort <= 0 || c.UDPPort > 65535 {
		return fmt.Errorf("invalid UDP port: %d", c.UDPPort)
	}
	if c.MaxClients <= 0 || c.MaxClients > constants.MaxMaxClients {
		return fmt.Errorf("max clients must be between 1 and %d, got %d", constants.MaxMaxClients, c.MaxClients)
	}
	// every client can produce a connect and a disconnect between two ticks
	if c.ServerEventQueueSize < 2*c.MaxClients {
		return fmt.Errorf("server event queue size must be at least %d, got %d", 2*c.MaxClients, c.ServerEventQueueSize)
	}
	if c.TickRate <= 0 {
		return fmt.Errorf("tick rate must be positive, got %d", c.TickRate)
	}
	if c.ClientTimeout <= 0 {
		return fmt.Errorf("client timeout must be positive, got %s", c.ClientTimeout)
	}
	return nil
}

// ClientConfig is the configuration shared by the window client and the bot.
type ClientConfig struct {
	Log LogConfig

	ServerHost string `env:"NETMOVE_SERVER_HOST" envDefault:"127.0.0.1"`
	ServerPort int    `env:"NETMOVE_SERVER_PORT" envDefault:"9090"`
	// Transport is either "udp" or "ws".
	Transport      string        `env:"NETMOVE_TRANSPORT" envDefault:"udp"`
	ProtocolID     uint64        `env:"NETMOVE_PROTOCOL_ID" envDefault:"0"`
	ConnectTimeout time.Duration `env:"NETMOVE_CONNECT_TIMEOUT" envDefault:"5s"`
	PingInterval   time.Duration `env:"NETMOVE_PING_INTERVAL" envDefault:"1s"`
	ServerTimeout  time.Duration `env:"NETMOVE_SERVER_TIMEOUT" envDefault:"5s"`
}

// ServerAddress returns host:port of the server.
func (c ClientConfig) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// SandboxConfig is the configuration of the physics sandbox.
type SandboxConfig struct {
	Log LogConfig

	Headless bool `env:"NETMOVE_SANDBOX_HEADLESS" envDefault:"false"`
	// Steps bounds a headless run; zero runs until the ball comes to rest.
	Steps    int `env:"NETMOVE_SANDBOX_STEPS" envDefault:"0"`
	StepRate int `env:"NETMOVE_SANDBOX_STEP_RATE" envDefault:"60"`
}

// LoadServerConfig parses a ServerConfig from the environment.
func LoadServerConfig() (ServerConfig, error) {
	var cfg ServerConfig
	if err := parseEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadClientConfig parses a ClientConfig from the environment.
func LoadClientConfig() (ClientConfig, error) {
	var cfg ClientConfig
	if err := parseEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadSandboxConfig parses a SandboxConfig from the environment.
func LoadSandboxConfig() (SandboxConfig, error) {
	var cfg SandboxConfig
	if err := parseEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func parseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("failed to parse env: %v", err)
	}
	return nil
}
