package server

import (
	"fmt"

	"github.com/ltessmer/credd/lib/groups"
	"github.com/ltessmer/credd/rpc/common"
)

func NewGroupServiceServerAdapter() IRPCServerAdapter {
	return &groupServiceServerAdapterImpl{}
}

type groupServiceServerAdapterImpl struct{}

func (adapter *groupServiceServerAdapterImpl) Handle(req *common.Message, svc groups.IGroupService) *common.Message {
	// Check for nil service
	if svc == nil {
		return common.NewErrorResponse("handler: group service is nil")
	}

	// Handle different message types
	switch req.MsgType {
	case common.MsgTGrpRegister:
		err := svc.RegisterPrincipal(req.Principal, groups.PrincipalSpec{
			GID:        req.GID,
			EGID:       req.EGID,
			FSGID:      req.FSGID,
			Privileged: req.Privileged,
			Groups:     req.Groups,
		})
		return common.NewRegisterResponse(err)
	case common.MsgTGrpGetGroups:
		groupIDs, err := svc.GetGroups(req.Principal, int(req.Capacity))
		return common.NewGetGroupsResponse(groupIDs, err)
	case common.MsgTGrpCountGroups:
		n, err := svc.CountGroups(req.Principal)
		return common.NewCountGroupsResponse(n, err)
	case common.MsgTGrpSetGroups:
		err := svc.SetGroups(req.Caller, req.Principal, req.Groups)
		return common.NewSetGroupsResponse(err)
	case common.MsgTGrpMaySetGroups:
		ok, err := svc.MaySetGroups(req.Principal)
		return common.NewMaySetGroupsResponse(ok, err)
	case common.MsgTGrpInGroup:
		ok, err := svc.InGroup(req.Principal, req.Group)
		return common.NewInGroupResponse(ok, err)
	case common.MsgTGrpInEffectiveGroup:
		ok, err := svc.InEffectiveGroup(req.Principal, req.Group)
		return common.NewInEffectiveGroupResponse(ok, err)
	default:
		return common.NewErrorResponse(
			fmt.Sprintf("RPC GroupServiceAdapter - Unsuported message type: %s", req.MsgType),
		)
	}
}
