package serializer

import (
	"encoding/binary"
	"fmt"

	"github.com/ltessmer/credd/rpc/common"
)

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and efficiency
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IRPCSerializer using a custom binary format
type binarySerializerImpl struct {
}

// Bit flags to indicate which optional fields are present
const (
	hasCaller    uint16 = 1 << 0
	hasPrincipal uint16 = 1 << 1
	hasGroup     uint16 = 1 << 2
	hasGroups    uint16 = 1 << 3
	hasCapacity  uint16 = 1 << 4
	hasSpec      uint16 = 1 << 5 // GID, EGID, FSGID and Privileged as one unit
	hasOk        uint16 = 1 << 6
	hasCount     uint16 = 1 << 7
	hasCode      uint16 = 1 << 8
	hasErr       uint16 = 1 << 9
	hasMeta      uint16 = 1 << 10
)

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	// Calculate total size needed
	totalSize := b.sizeBytes(msg)
	result := make([]byte, totalSize)

	// Write message type
	result[0] = byte(msg.MsgType)

	// Initialize flags
	var flags uint16 = 0

	// Set position for writing
	pos := 3 // Start after MsgType and flags

	// Handle Caller
	if msg.Caller != "" {
		flags |= hasCaller
		callerBytes := []byte(msg.Caller)
		callerLen := len(callerBytes)

		// Write caller length
		binary.BigEndian.PutUint32(result[pos:pos+4], uint32(callerLen))
		pos += 4

		// Write caller data
		copy(result[pos:pos+callerLen], callerBytes)
		pos += callerLen
	}

	// Handle Principal
	if msg.Principal != "" {
		flags |= hasPrincipal
		principalBytes := []byte(msg.Principal)
		principalLen := len(principalBytes)

		// Write principal length
		binary.BigEndian.PutUint32(result[pos:pos+4], uint32(principalLen))
		pos += 4

		// Write principal data
		copy(result[pos:pos+principalLen], principalBytes)
		pos += principalLen
	}

	// Handle Group
	if msg.Group > 0 {
		flags |= hasGroup
		binary.BigEndian.PutUint32(result[pos:pos+4], msg.Group)
		pos += 4
	}

	// Handle Groups
	if msg.Groups != nil {
		flags |= hasGroups
		groupCount := len(msg.Groups)

		// Write group count
		binary.BigEndian.PutUint32(result[pos:pos+4], uint32(groupCount))
		pos += 4

		// Write group identifiers
		for _, g := range msg.Groups {
			binary.BigEndian.PutUint32(result[pos:pos+4], g)
			pos += 4
		}
	}

	// Handle Capacity
	if msg.Capacity != 0 {
		flags |= hasCapacity
		binary.BigEndian.PutUint64(result[pos:pos+8], uint64(msg.Capacity))
		pos += 8
	}

	// Handle the registration fields
	if msg.GID > 0 || msg.EGID > 0 || msg.FSGID > 0 || msg.Privileged {
		flags |= hasSpec
		binary.BigEndian.PutUint32(result[pos:pos+4], msg.GID)
		binary.BigEndian.PutUint32(result[pos+4:pos+8], msg.EGID)
		binary.BigEndian.PutUint32(result[pos+8:pos+12], msg.FSGID)
		if msg.Privileged {
			result[pos+12] = 1
		} else {
			result[pos+12] = 0
		}
		pos += 13
	}

	// Handle Ok
	if msg.Ok {
		flags |= hasOk
		result[pos] = 1
		pos += 1
	}

	// Handle Count
	if msg.Count != 0 {
		flags |= hasCount
		binary.BigEndian.PutUint64(result[pos:pos+8], uint64(msg.Count))
		pos += 8
	}

	// Handle Code
	if msg.Code > 0 {
		flags |= hasCode
		binary.BigEndian.PutUint64(result[pos:pos+8], msg.Code)
		pos += 8
	}

	// Handle Err
	if msg.Err != "" {
		flags |= hasErr
		errBytes := []byte(msg.Err)
		errLen := len(errBytes)

		// Write error length
		binary.BigEndian.PutUint32(result[pos:pos+4], uint32(errLen))
		pos += 4

		// Write error data
		copy(result[pos:pos+errLen], errBytes)
		pos += errLen
	}

	// Handle Meta
	if msg.Meta != nil {
		flags |= hasMeta
		metaLen := len(msg.Meta)

		// Write meta length
		binary.BigEndian.PutUint32(result[pos:pos+4], uint32(metaLen))
		pos += 4

		// Write meta data
		if metaLen > 0 {
			copy(result[pos:pos+metaLen], msg.Meta)
			pos += metaLen
		}
	}

	// Set flags after knowing which fields are present
	binary.BigEndian.PutUint16(result[1:3], flags)

	return result, nil
}

func (b binarySerializerImpl) Deserialize(data []byte, msg *common.Message) error {
	// Check minimum size (MsgType + flags)
	if len(data) < 3 {
		return fmt.Errorf("data too short for message header")
	}

	// Read message type
	msg.MsgType = common.MessageType(data[0])

	// Read flags
	flags := binary.BigEndian.Uint16(data[1:3])

	// Initialize read position
	pos := 3

	// readString reads a length-prefixed string field
	readString := func(field string) (string, error) {
		if pos+4 > len(data) {
			return "", fmt.Errorf("data too short for %s length", field)
		}
		strLen := binary.BigEndian.Uint32(data[pos : pos+4])
		pos += 4

		if pos+int(strLen) > len(data) {
			return "", fmt.Errorf("data too short for %s data", field)
		}
		s := string(data[pos : pos+int(strLen)])
		pos += int(strLen)
		return s, nil
	}

	// Read Caller if present
	if flags&hasCaller != 0 {
		caller, err := readString("caller")
		if err != nil {
			return err
		}
		msg.Caller = caller
	} else {
		msg.Caller = ""
	}

	// Read Principal if present
	if flags&hasPrincipal != 0 {
		principal, err := readString("principal")
		if err != nil {
			return err
		}
		msg.Principal = principal
	} else {
		msg.Principal = ""
	}

	// Read Group if present
	if flags&hasGroup != 0 {
		if pos+4 > len(data) {
			return fmt.Errorf("data too short for group")
		}
		msg.Group = binary.BigEndian.Uint32(data[pos : pos+4])
		pos += 4
	} else {
		msg.Group = 0
	}

	// Read Groups if present
	if flags&hasGroups != 0 {
		if pos+4 > len(data) {
			return fmt.Errorf("data too short for group count")
		}
		groupCount := binary.BigEndian.Uint32(data[pos : pos+4])
		pos += 4

		if pos+int(groupCount)*4 > len(data) {
			return fmt.Errorf("data too short for group identifiers")
		}

		// Allocate only if needed
		if msg.Groups == nil || cap(msg.Groups) < int(groupCount) {
			msg.Groups = make([]uint32, groupCount)
		} else {
			msg.Groups = msg.Groups[:groupCount]
		}

		for i := 0; i < int(groupCount); i++ {
			msg.Groups[i] = binary.BigEndian.Uint32(data[pos : pos+4])
			pos += 4
		}
	} else {
		msg.Groups = nil
	}

	// Read Capacity if present
	if flags&hasCapacity != 0 {
		if pos+8 > len(data) {
			return fmt.Errorf("data too short for capacity")
		}
		msg.Capacity = int64(binary.BigEndian.Uint64(data[pos : pos+8]))
		pos += 8
	} else {
		msg.Capacity = 0
	}

	// Read the registration fields if present
	if flags&hasSpec != 0 {
		if pos+13 > len(data) {
			return fmt.Errorf("data too short for registration fields")
		}
		msg.GID = binary.BigEndian.Uint32(data[pos : pos+4])
		msg.EGID = binary.BigEndian.Uint32(data[pos+4 : pos+8])
		msg.FSGID = binary.BigEndian.Uint32(data[pos+8 : pos+12])
		msg.Privileged = data[pos+12] != 0
		pos += 13
	} else {
		msg.GID = 0
		msg.EGID = 0
		msg.FSGID = 0
		msg.Privileged = false
	}

	// Read Ok if present
	if flags&hasOk != 0 {
		if pos+1 > len(data) {
			return fmt.Errorf("data too short for Ok flag")
		}
		msg.Ok = data[pos] != 0
		pos += 1
	} else {
		msg.Ok = false
	}

	// Read Count if present
	if flags&hasCount != 0 {
		if pos+8 > len(data) {
			return fmt.Errorf("data too short for count")
		}
		msg.Count = int64(binary.BigEndian.Uint64(data[pos : pos+8]))
		pos += 8
	} else {
		msg.Count = 0
	}

	// Read Code if present
	if flags&hasCode != 0 {
		if pos+8 > len(data) {
			return fmt.Errorf("data too short for code")
		}
		msg.Code = binary.BigEndian.Uint64(data[pos : pos+8])
		pos += 8
	} else {
		msg.Code = 0
	}

	// Read Err if present
	if flags&hasErr != 0 {
		errStr, err := readString("error")
		if err != nil {
			return err
		}
		msg.Err = errStr
	} else {
		msg.Err = ""
	}

	// Read Meta if present
	if flags&hasMeta != 0 {
		if pos+4 > len(data) {
			return fmt.Errorf("data too short for meta length")
		}
		metaLen := binary.BigEndian.Uint32(data[pos : pos+4])
		pos += 4

		if pos+int(metaLen) > len(data) {
			return fmt.Errorf("data too short for meta data")
		}

		// Read metadata - create an empty slice (not nil) if length is 0
		// Allocate only if needed
		if msg.Meta == nil || cap(msg.Meta) < int(metaLen) {
			msg.Meta = make([]byte, metaLen)
		} else {
			msg.Meta = msg.Meta[:metaLen]
		}

		if metaLen > 0 {
			copy(msg.Meta, data[pos:pos+int(metaLen)])
		}
		pos += int(metaLen)
	} else {
		msg.Meta = nil
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// sizeBytes calculates the total size needed for serialization
func (b binarySerializerImpl) sizeBytes(msg common.Message) int {
	// 1 byte for MsgType + 2 bytes for flags
	size := 3

	// Add sizes for fields that require length encoding
	if msg.Caller != "" {
		size += 4 + len(msg.Caller) // 4 bytes for length + caller string
	}
	if msg.Principal != "" {
		size += 4 + len(msg.Principal) // 4 bytes for length + principal string
	}
	if msg.Group > 0 {
		size += 4 // uint32
	}
	if msg.Groups != nil {
		size += 4 + 4*len(msg.Groups) // 4 bytes for count + 4 bytes per identifier
	}
	if msg.Capacity != 0 {
		size += 8 // int64
	}
	if msg.GID > 0 || msg.EGID > 0 || msg.FSGID > 0 || msg.Privileged {
		size += 13 // 3 x uint32 + 1 byte for the privileged flag
	}
	if msg.Ok {
		size += 1 // 1 byte for boolean
	}
	if msg.Count != 0 {
		size += 8 // int64
	}
	if msg.Code > 0 {
		size += 8 // uint64
	}
	if msg.Err != "" {
		size += 4 + len(msg.Err) // 4 bytes for length + error string
	}
	if msg.Meta != nil {
		size += 4 + len(msg.Meta) // 4 bytes for length + meta bytes
	}

	return size
}
