package common

import (
	"encoding/json"
	"fmt"

	"github.com/ltessmer/credd/lib/groups"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message represents a single message used for both requests and responses.
// Which fields are used depends on the type of message.
type Message struct {
	// Type of message
	MsgType MessageType `json:"msg_type"`

	// General fields
	Caller    string   `json:"caller,omitempty"`    // Used for: SetGroups
	Principal string   `json:"principal,omitempty"` // Used for: all operations
	Group     uint32   `json:"group,omitempty"`     // Used for: InGroup, InEffectiveGroup
	Groups    []uint32 `json:"groups,omitempty"`    // Used for: Register, SetGroups (request), GetGroups (response)
	Capacity  int64    `json:"capacity,omitempty"`  // Used for: GetGroups requests

	// Registration fields
	GID        uint32 `json:"gid,omitempty"`
	EGID       uint32 `json:"egid,omitempty"`
	FSGID      uint32 `json:"fsgid,omitempty"`
	Privileged bool   `json:"privileged,omitempty"`

	// Response only fields
	Ok    bool   `json:"ok,omitempty"`    // Used for: MaySetGroups, InGroup, InEffectiveGroup responses
	Count int64  `json:"count,omitempty"` // Used for: CountGroups responses
	Code  uint64 `json:"code,omitempty"`  // Service return code, zero if no error
	Err   string `json:"err,omitempty"`   // Empty if no error, otherwise contains the error message

	// Meta information
	Meta []byte `json:"meta,omitempty"` // Unused, can be used for additional Adapters
}

// setError stores a service error (code and message) in a response message.
func (m *Message) setError(err error) {
	if err != nil {
		m.Code = uint64(groups.CodeOf(err))
		m.Err = err.Error()
	}
}

// ServiceError reconstructs the service error carried by a response message.
// It returns nil for successful responses.
func (m *Message) ServiceError() error {
	if m.Err == "" && m.Code == 0 {
		return nil
	}
	return groups.NewError(groups.RetCode(m.Code), m.Err)
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewRegisterRequest creates a new RegisterPrincipal request
func NewRegisterRequest(name string, spec groups.PrincipalSpec) *Message {
	return &Message{
		MsgType:    MsgTGrpRegister,
		Principal:  name,
		GID:        spec.GID,
		EGID:       spec.EGID,
		FSGID:      spec.FSGID,
		Privileged: spec.Privileged,
		Groups:     spec.Groups,
	}
}

// NewRegisterResponse creates a new RegisterPrincipal response
func NewRegisterResponse(err error) *Message {
	msg := &Message{
		MsgType: MsgTGrpRegister,
	}
	msg.setError(err)
	return msg
}

// NewGetGroupsRequest creates a new GetGroups request
func NewGetGroupsRequest(principal string, capacity int) *Message {
	return &Message{
		MsgType:   MsgTGrpGetGroups,
		Principal: principal,
		Capacity:  int64(capacity),
	}
}

// NewGetGroupsResponse creates a new GetGroups response
func NewGetGroupsResponse(groupIDs []uint32, err error) *Message {
	msg := &Message{
		MsgType: MsgTGrpGetGroups,
		Groups:  groupIDs,
	}
	msg.setError(err)
	return msg
}

// NewCountGroupsRequest creates a new CountGroups request
func NewCountGroupsRequest(principal string) *Message {
	return &Message{
		MsgType:   MsgTGrpCountGroups,
		Principal: principal,
	}
}

// NewCountGroupsResponse creates a new CountGroups response
func NewCountGroupsResponse(n int, err error) *Message {
	msg := &Message{
		MsgType: MsgTGrpCountGroups,
		Count:   int64(n),
	}
	msg.setError(err)
	return msg
}

// NewSetGroupsRequest creates a new SetGroups request
func NewSetGroupsRequest(caller, principal string, groupIDs []uint32) *Message {
	return &Message{
		MsgType:   MsgTGrpSetGroups,
		Caller:    caller,
		Principal: principal,
		Groups:    groupIDs,
	}
}

// NewSetGroupsResponse creates a new SetGroups response
func NewSetGroupsResponse(err error) *Message {
	msg := &Message{
		MsgType: MsgTGrpSetGroups,
	}
	msg.setError(err)
	return msg
}

// NewMaySetGroupsRequest creates a new MaySetGroups request
func NewMaySetGroupsRequest(principal string) *Message {
	return &Message{
		MsgType:   MsgTGrpMaySetGroups,
		Principal: principal,
	}
}

// NewMaySetGroupsResponse creates a new MaySetGroups response
func NewMaySetGroupsResponse(ok bool, err error) *Message {
	msg := &Message{
		MsgType: MsgTGrpMaySetGroups,
		Ok:      ok,
	}
	msg.setError(err)
	return msg
}

// NewInGroupRequest creates a new InGroup request
func NewInGroupRequest(principal string, group uint32) *Message {
	return &Message{
		MsgType:   MsgTGrpInGroup,
		Principal: principal,
		Group:     group,
	}
}

// NewInGroupResponse creates a new InGroup response
func NewInGroupResponse(ok bool, err error) *Message {
	msg := &Message{
		MsgType: MsgTGrpInGroup,
		Ok:      ok,
	}
	msg.setError(err)
	return msg
}

// NewInEffectiveGroupRequest creates a new InEffectiveGroup request
func NewInEffectiveGroupRequest(principal string, group uint32) *Message {
	return &Message{
		MsgType:   MsgTGrpInEffectiveGroup,
		Principal: principal,
		Group:     group,
	}
}

// NewInEffectiveGroupResponse creates a new InEffectiveGroup response
func NewInEffectiveGroupResponse(ok bool, err error) *Message {
	msg := &Message{
		MsgType: MsgTGrpInEffectiveGroup,
		Ok:      ok,
	}
	msg.setError(err)
	return msg
}

// NewCustomRequest creates a new Custom request
func NewCustomRequest(meta []byte) *Message {
	return &Message{
		MsgType: MsgTCustom,
		Meta:    meta,
	}
}

// NewCustomResponse creates a new Custom response
func NewCustomResponse(meta []byte, err error) *Message {
	msg := &Message{
		MsgType: MsgTCustom,
		Meta:    meta,
	}
	msg.setError(err)
	return msg
}

// NewErrorResponse creates a new Error response
func NewErrorResponse(err string) *Message {
	return &Message{
		MsgType: MsgTError,
		Code:    uint64(groups.RetCInternalError),
		Err:     err,
	}
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of message used in RPC communication.
type MessageType uint8

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	switch t {
	case MsgTGrpRegister:
		return "register"
	case MsgTGrpGetGroups:
		return "getGroups"
	case MsgTGrpCountGroups:
		return "countGroups"
	case MsgTGrpSetGroups:
		return "setGroups"
	case MsgTGrpMaySetGroups:
		return "maySetGroups"
	case MsgTGrpInGroup:
		return "inGroup"
	case MsgTGrpInEffectiveGroup:
		return "inEffectiveGroup"
	case MsgTCustom:
		return "custom"
	case MsgTError:
		return "error"
	case MsgTSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
// This allows MessageType to be deserialized from a string in JSON.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	// Convert string back to MessageType
	switch s {
	case "register":
		*t = MsgTGrpRegister
	case "getGroups":
		*t = MsgTGrpGetGroups
	case "countGroups":
		*t = MsgTGrpCountGroups
	case "setGroups":
		*t = MsgTGrpSetGroups
	case "maySetGroups":
		*t = MsgTGrpMaySetGroups
	case "inGroup":
		*t = MsgTGrpInGroup
	case "inEffectiveGroup":
		*t = MsgTGrpInEffectiveGroup
	case "custom":
		*t = MsgTCustom
	case "error":
		*t = MsgTError
	case "success":
		*t = MsgTSuccess
	default:
		return fmt.Errorf("unknown message type: %s", s)
	}

	return nil
}

// --------------------------------------------------------------------------
// Message Type Constants
// --------------------------------------------------------------------------

const (
	// General message types

	MsgTUnknown MessageType = iota
	MsgTSuccess             // Indicates a successful operation
	MsgTError               // Indicates an error occurred

	// IGroupService operations

	MsgTGrpRegister         // Register a principal
	MsgTGrpGetGroups        // Export the supplementary groups
	MsgTGrpCountGroups      // Count the supplementary groups
	MsgTGrpSetGroups        // Replace the supplementary groups
	MsgTGrpMaySetGroups     // Check the set-groups capability
	MsgTGrpInGroup          // Filesystem membership query
	MsgTGrpInEffectiveGroup // Effective membership query

	// Custom operations

	MsgTCustom // Custom operation type
)
