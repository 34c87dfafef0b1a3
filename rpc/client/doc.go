// Package client implements the RPC client for the group membership service.
// It provides an implementation of the groups.IGroupService interface that
// communicates with remote servers via RPC.
//
// The package focuses on:
//   - Transparent RPC access to the group service implementation
//   - Integration with the transport and serialization layers
//   - Error handling and conversion between RPC and domain errors
//
// Key Components:
//
//   - NewRPCGroupService: Factory function that creates a client implementing
//     the groups.IGroupService interface. This client forwards all operations
//     to remote servers via the configured transport layer. Service errors are
//     reconstructed with their original return code; boundary failures
//     (serialization, transport) surface as RetCTransferFault.
//
// Usage Example:
//
//	// Configure the client
//	config := common.ClientConfig{
//	  Endpoints:              []string{"localhost:5000"},
//	  TimeoutSecond:          5,
//	  RetryCount:             3,
//	  ConnectionsPerEndpoint: 1,
//	}
//
//	// Create a serializer
//	serializer := serializer.NewBinarySerializer()
//
//	// Create the group service client
//	svc, _ := client.NewRPCGroupService(0, config, tcp.NewTCPClientTransport(), serializer)
//
//	// Use the service
//	svc.SetGroups("root", "alice", []uint32{10, 20, 30})
//	member, _ := svc.InGroup("alice", 20)
//
// Performance Considerations:
//
//   - For applications that frequently transfer large group sets, increasing
//     ConnectionsPerEndpoint can improve throughput by allowing parallel requests.
//
//   - For small messages, a single connection per endpoint is often more efficient due to
//     reduced connection overhead.
//
//   - The choice of serializer significantly affects performance. The binary serializer
//     provides the best performance and smallest payload size.
//
// Thread Safety:
//
//	The client implementation is thread-safe and can be used concurrently from
//	multiple goroutines without additional synchronization.
package client
