package client

import (
	"github.com/ltessmer/credd/lib/groups"
	"github.com/ltessmer/credd/rpc/common"
	"github.com/ltessmer/credd/rpc/serializer"
	"github.com/ltessmer/credd/rpc/transport"
)

// NewRPCGroupService creates a new RPC group service client
// The function takes a shard ID, a config, a transport and a serializer as parameters
// It returns a groups.IGroupService and an error
func NewRPCGroupService(
	shardId uint64,
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (groups.IGroupService, error) {

	// Connect the transport
	err := transport.Connect(config)
	if err != nil {
		return nil, err
	}

	// Create a new RPC group service
	s := rpcGroupService{
		rpcClientAdapter{
			shardId:    shardId,
			config:     config,
			transport:  transport,
			serializer: serializer,
		},
	}

	// Return the RPC group service
	return &s, nil
}

type rpcGroupService struct {
	rpcClientAdapter
}

// --------------------------------------------------------------------------
// Interface Methods (docu see the groups package in interface.go)
// --------------------------------------------------------------------------

func (i *rpcGroupService) RegisterPrincipal(name string, spec groups.PrincipalSpec) (err error) {
	req := common.NewRegisterRequest(name, spec)
	_, err = invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	return err
}

func (i *rpcGroupService) GetGroups(principal string, capacity int) (groupIDs []uint32, err error) {
	req := common.NewGetGroupsRequest(principal, capacity)
	resp, err := invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	if err != nil {
		return nil, err
	}
	if resp.Groups == nil {
		return []uint32{}, nil
	}
	return resp.Groups, nil
}

func (i *rpcGroupService) CountGroups(principal string) (n int, err error) {
	req := common.NewCountGroupsRequest(principal)
	resp, err := invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	if err != nil {
		return 0, err
	}
	return int(resp.Count), nil
}

func (i *rpcGroupService) SetGroups(caller, principal string, groupIDs []uint32) (err error) {
	req := common.NewSetGroupsRequest(caller, principal, groupIDs)
	_, err = invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	return err
}

func (i *rpcGroupService) MaySetGroups(principal string) (ok bool, err error) {
	req := common.NewMaySetGroupsRequest(principal)
	resp, err := invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	if err != nil {
		return false, err
	}
	return resp.Ok, nil
}

func (i *rpcGroupService) InGroup(principal string, group uint32) (ok bool, err error) {
	req := common.NewInGroupRequest(principal, group)
	resp, err := invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	if err != nil {
		return false, err
	}
	return resp.Ok, nil
}

func (i *rpcGroupService) InEffectiveGroup(principal string, group uint32) (ok bool, err error) {
	req := common.NewInEffectiveGroupRequest(principal, group)
	resp, err := invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	if err != nil {
		return false, err
	}
	return resp.Ok, nil
}
