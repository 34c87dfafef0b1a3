// Package common provides core data structures and utilities shared across
// the group membership service. It defines fundamental types, configuration
// structures, and protocol elements used by other packages.
//
// The package focuses on:
//   - Message protocol definition for inter-component communication
//   - Configuration structures for client and server components
//   - Custom logging implementation with consistent formatting
//
// Key Components:
//
//   - Message: Core data structure for all RPC communication between
//     components, with a flexible structure that adapts to different
//     operation types. Includes factory methods for creating various request
//     and response messages. Responses carry the service return code so the
//     client can reconstruct typed errors across the wire.
//
//   - MessageType: Enumeration defining all supported operation types in the
//     system, categorized into group service operations and control messages.
//
//   - ServerConfig: Configuration for server nodes, including shard layout,
//     service limits, seeded principals, network configuration and the
//     optional metrics endpoint.
//
//   - ClientConfig: Configuration for client components, controlling
//     connection parameters, timeouts, and retry behavior.
//
//   - Logger: Custom logging implementation providing consistent formatting
//     across the application.
package common
