package server

import (
	"fmt"
	"net/http"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/ltessmer/credd/lib/groups"
	"github.com/ltessmer/credd/lib/groups/lservice"
	"github.com/ltessmer/credd/rpc/common"
	"github.com/ltessmer/credd/rpc/serializer"
	"github.com/ltessmer/credd/rpc/transport"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("rpc")

// serverShard is a struct that represents a shard in the RPC server
// It contains the group service it encapsulates and the adapter
// that handles requests for the service
type serverShard struct {
	Service groups.IGroupService
	Adapter IRPCServerAdapter
}

// NewRPCServer creates a new RPC server
// It takes a config, transport and serializer as parameters
//
// Usage:
//
//	s := rpc.NewRPCServer(
//		*config,
//		tcp.NewTCPServerTransport(),
//		serializer.NewBinarySerializer(),
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	 }
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
) rpcServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	// Create shards map
	shardMap := xsync.NewMapOf[uint64, serverShard]()

	Logger.Infof("Created RPC Server")
	Logger.Infof(config.String())

	// Create the RPC server
	return rpcServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
		shards:     shardMap,
	}
}

type rpcServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
	shards     *xsync.MapOf[uint64, serverShard]
}

func (s *rpcServer) registerTransportHandler() {
	s.transport.RegisterHandler(func(shardId uint64, req []byte) []byte {
		var msg common.Message
		var respMsg common.Message

		start := time.Now()

		// Get appropriate shard
		shard, ok := s.shards.Load(shardId)

		// Case shard does not exist -> error
		if !ok {
			respMsg = *common.NewErrorResponse("shard not found")
		} else {
			// Decode the request
			err := s.serializer.Deserialize(req, &msg)

			if err != nil {
				respMsg = *common.NewErrorResponse(fmt.Sprintf("failed to deserialize request: %s", err))
			} else {
				// Let the adapter handle the request
				respMsg = *shard.Adapter.Handle(&msg, shard.Service)
			}
		}

		// Record per-operation metrics
		metrics.GetOrCreateCounter(fmt.Sprintf(`rpc_requests_total{op=%q}`, msg.MsgType)).Inc()
		if respMsg.Err != "" {
			metrics.GetOrCreateCounter(fmt.Sprintf(`rpc_request_errors_total{op=%q}`, msg.MsgType)).Inc()
		}
		metrics.GetOrCreateSummary(fmt.Sprintf(`rpc_request_duration_seconds{op=%q}`, msg.MsgType)).UpdateDuration(start)

		// Return result
		val, err := s.serializer.Serialize(respMsg)
		if err != nil {
			respMsg = *common.NewErrorResponse(fmt.Sprintf("failed to serialize response: %s", err))
			val, _ = s.serializer.Serialize(respMsg)
		}
		return val
	})
}

func (s *rpcServer) init() error {

	// Init logger
	common.InitLoggers(s.config)

	// CREATE SHARDS

	/*
		Note: A single RPC Server can host any number of independent group
		services, one per shard. The following loop creates all the shards,
		seeds the configured principals and stores them for the RPC server.
	*/

	shardIDs := s.config.Shards
	if len(shardIDs) == 0 {
		shardIDs = []uint64{0}
	}

	for _, shardID := range shardIDs {
		svc := lservice.NewLocalService(&lservice.ServiceOptions{
			MaxGroups: s.config.MaxGroups,
		})

		// Register the seeded principals
		for _, seed := range s.config.Seeds {
			if err := svc.RegisterPrincipal(seed.Name, seed.Spec); err != nil {
				return fmt.Errorf("failed to seed principal %q on shard %d: %w", seed.Name, shardID, err)
			}
		}

		s.shards.Store(shardID, serverShard{
			Service: svc,
			Adapter: NewGroupServiceServerAdapter(),
		})
		Logger.Infof("created local group service for shard %d (%d seeded principals)", shardID, len(s.config.Seeds))
	}

	Logger.Infof("credd setup completed successfully")

	// Start the Prometheus endpoint if configured
	if s.config.MetricsEndpoint != "" {
		go s.serveMetrics()
	}

	// Configure the transport layer
	s.registerTransportHandler()

	return nil
}

// serveMetrics exposes the collected metrics in Prometheus text format
func (s *rpcServer) serveMetrics() {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		metrics.WritePrometheus(w, true)
	})

	Logger.Infof("Starting metrics server on %s", s.config.MetricsEndpoint)
	if err := http.ListenAndServe(s.config.MetricsEndpoint, mux); err != nil {
		Logger.Errorf("Metrics server failed: %v", err)
	}
}

// Serve starts the RPC server
// This function will also initialize the server plus the shards and start the transport layer
func (s *rpcServer) Serve() error {
	err := s.init()
	if err != nil {
		return err
	}
	return s.transport.Listen(s.config)
}
