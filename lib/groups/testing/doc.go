// Package testing provides standardized tests and benchmarks for
// implementations of the groups.IGroupService interface.
//   - RunGroupServiceTests: Runs a conformance suite covering validation,
//     authorization, canonical ordering and concurrency behavior
//   - RunGroupServiceBenchmarks: Provides performance benchmarks for
//     comparing implementations
//
// Both take a factory so that every test case starts from a fresh service;
// remote implementations can be exercised against a live server by
// supplying a factory that dials it.
package testing
