// Package server implements the RPC server for the group membership service.
// It provides an adapter for handling RPC requests to the group service,
// along with the core server implementation that manages shards and request
// routing.
//
// The package focuses on:
//   - Server-side RPC request handling for all group service operations
//   - Adapter pattern to decouple application logic from RPC mechanisms
//   - Flexible shard configuration with an independent service per shard
//   - Seeding principals at startup from the server configuration
//   - Per-operation request metrics with an optional Prometheus endpoint
//
// Key Components:
//
//   - IRPCServerAdapter: Interface defining the contract for all server adapters,
//     with the Handle method that processes incoming requests against a
//     groups.IGroupService.
//
//   - NewGroupServiceServerAdapter: Factory function creating an adapter for
//     group membership operations, translating RPC requests to
//     groups.IGroupService method calls.
//
//   - NewRPCServer: Factory function creating a configured server with the specified
//     transport and serializer mechanisms.
//
// Usage Example:
//
//	// Create server configuration
//	config := common.ServerConfig{
//	  Shards: []uint64{0},
//	  Endpoint: "0.0.0.0:8080",
//	  TimeoutSecond: 5,
//	  LogLevel: "info",
//	  Seeds: []common.PrincipalSeed{
//	    {Name: "root", Spec: groups.PrincipalSpec{Privileged: true}},
//	  },
//	}
//
//	// Create and start the server
//	s := server.NewRPCServer(
//	  config,
//	  tcp.NewTCPServerTransport(),
//	  serializer.NewBinarySerializer(),
//	)
//
//	// Start the server
//	if err := s.Serve(); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// Each shard is backed by its own local group service with an isolated
// principal namespace; requests carry the shard ID in the frame header and
// are routed accordingly.
//
// Thread Safety:
//
//	The server implementation is thread-safe and can handle concurrent requests
//	Across multiple connections. Each request is processed independently.
//	The Listen method is not thread-safe and should be called only once.
package server
