package common

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ltessmer/credd/lib/groups"
)

// --------------------------------------------------------------------------
// Socket configuration struct (shared between client and server)
// --------------------------------------------------------------------------

// SocketConf holds the low-level socket parameters for the stream
// transports. Zero values leave the operating system defaults in place.
type SocketConf struct {
	// Read buffer size for request frames (server side)
	BufferSize int

	// Maximum number of concurrent workers per connection (server side)
	MaxWorkersPerConn int

	// TCP specific settings
	TCPNoDelay      bool
	TCPKeepAliveSec int
	TCPLingerSec    int
	WriteBufferSize int
	ReadBufferSize  int
}

// --------------------------------------------------------------------------
// RPC server configuration struct
// --------------------------------------------------------------------------

// PrincipalSeed describes a principal that is registered on every shard
// during server startup.
type PrincipalSeed struct {
	Name string               `json:"name"`
	Spec groups.PrincipalSpec `json:"spec"`
}

// ServerConfig holds all configuration parameters for the RPC server.
type ServerConfig struct {
	// Shards lists the shard IDs to serve; each shard is backed by an
	// independent group service
	Shards []uint64

	// Service parameters
	MaxGroups int
	Seeds     []PrincipalSeed

	// Network settings
	Endpoint      string
	TimeoutSecond int64
	Transport     SocketConf

	// Prometheus endpoint (empty = disabled)
	MetricsEndpoint string

	// Logging configuration
	LogLevel string
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// RPC settings
	addSection("RPC Server")
	addField("Endpoint", c.Endpoint)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	if c.MetricsEndpoint != "" {
		addField("Metrics Endpoint", c.MetricsEndpoint)
	}

	// Service settings
	addSection("Group Service")
	addField("Max Groups", strconv.Itoa(c.MaxGroups))
	addField("Seeded Principals", strconv.Itoa(len(c.Seeds)))

	// Logging configuration
	addSection("Logging")
	addField("Log Level", c.LogLevel)

	// Shards
	addSection("Shards")
	for _, shardID := range c.Shards {
		addField(strconv.FormatUint(shardID, 10), "local group service")
	}

	return sb.String()
}

// --------------------------------------------------------------------------
// RPC client configuration struct
// --------------------------------------------------------------------------

type ClientConfig struct {
	Endpoints              []string
	TimeoutSecond          int
	RetryCount             int
	ConnectionsPerEndpoint int
	Transport              SocketConf
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// General Client Settings
	addSection("Client Configuration")
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Retry Count", strconv.Itoa(c.RetryCount))
	connectionsPerEP := c.ConnectionsPerEndpoint
	if connectionsPerEP < 1 {
		connectionsPerEP = 1
	}
	addField("Connections Per Endpoint", strconv.Itoa(connectionsPerEP))

	// Endpoints
	addSection("Endpoints")
	for i, endpoint := range c.Endpoints {
		addField(strconv.Itoa(i), endpoint)
	}

	return sb.String()
}
