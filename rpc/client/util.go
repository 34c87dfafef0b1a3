package client

import (
	"fmt"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/ltessmer/credd/lib/groups"
	"github.com/ltessmer/credd/rpc/common"
	"github.com/ltessmer/credd/rpc/serializer"
	"github.com/ltessmer/credd/rpc/transport"
)

var (
	Logger = logger.GetLogger("rpc")
)

// rpcClientAdapter is a struct that stores all data needed for an implementation of an RPC client
// Used by the RPCGroupService with composition pattern
type rpcClientAdapter struct {
	shardId    uint64
	config     common.ClientConfig
	transport  transport.IRPCClientTransport
	serializer serializer.IRPCSerializer
}

// invokeRPCRequest is a helper function used for all RPC Clients to send requests
// It takes a shard ID, a request message, a transport layer and a serializer as parameters
// It returns a response message and an error if any occurs
// Boundary failures (serialization, transport) map to RetCTransferFault; service
// errors carried by the response are reconstructed with their original code
func invokeRPCRequest(shardId uint64, req *common.Message, transport transport.IRPCClientTransport, serializer serializer.IRPCSerializer) (*common.Message, error) {
	// Serialize the request
	reqBytes, err := serializer.Serialize(*req)
	if err != nil {
		return nil, groups.NewError(groups.RetCTransferFault,
			fmt.Sprintf("failed to serialize request: %s", err))
	}

	// Send the request
	respBytes, err := transport.Send(shardId, reqBytes)
	if err != nil {
		return nil, groups.NewError(groups.RetCTransferFault,
			fmt.Sprintf("failed to send request: %s", err))
	}

	// Deserialize the response
	resp := &common.Message{}
	if err := serializer.Deserialize(respBytes, resp); err != nil {
		return nil, groups.NewError(groups.RetCTransferFault,
			fmt.Sprintf("failed to deserialize response: %s", err))
	}

	// Check if the response carries a service error
	if err := resp.ServiceError(); err != nil {
		return nil, err
	}

	// Check if the type of the response is the expected type
	if resp.MsgType != req.MsgType {
		return nil, groups.NewError(groups.RetCTransferFault,
			fmt.Sprintf("unexpected message type: %s, expected %s", resp.MsgType, req.MsgType))
	}

	// Return the response
	return resp, nil
}
