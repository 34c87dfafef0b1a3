package serializer

import (
	"reflect"
	"testing"

	"github.com/ltessmer/credd/rpc/common"
)

// testSerializers is a map of serializer name to factory function
var testSerializers = map[string]func() IRPCSerializer{
	"JSON":   NewJSONSerializer,
	"GOB":    NewGOBSerializer,
	"Binary": NewBinarySerializer,
}

// testMessages creates a set of test messages with different fields filled
func testMessages() []common.Message {
	return []common.Message{
		// Basic message with just a type
		{MsgType: common.MsgTSuccess},

		// Register request
		{
			MsgType:    common.MsgTGrpRegister,
			Principal:  "alice",
			GID:        100,
			EGID:       101,
			FSGID:      102,
			Privileged: true,
			Groups:     []uint32{10, 20, 30},
		},

		// SetGroups request
		{
			MsgType:   common.MsgTGrpSetGroups,
			Caller:    "root",
			Principal: "alice",
			Groups:    []uint32{5, 5, 7},
		},

		// GetGroups request with capacity
		{
			MsgType:   common.MsgTGrpGetGroups,
			Principal: "alice",
			Capacity:  32,
		},

		// GetGroups response
		{
			MsgType: common.MsgTGrpGetGroups,
			Groups:  []uint32{10, 20, 30},
		},

		// InGroup response
		{
			MsgType: common.MsgTGrpInGroup,
			Ok:      true,
		},

		// CountGroups response
		{
			MsgType: common.MsgTGrpCountGroups,
			Count:   3,
		},

		// Error response with service code
		{
			MsgType: common.MsgTGrpSetGroups,
			Code:    4,
			Err:     "requested set is not a subset of the current groups",
		},

		// Error response
		{
			MsgType: common.MsgTError,
			Code:    1,
			Err:     "test error message",
		},

		// Message with all fields filled
		{
			MsgType:    common.MsgTGrpSetGroups,
			Caller:     "root",
			Principal:  "alice",
			Group:      42,
			Groups:     []uint32{1, 2, 3},
			Capacity:   16,
			GID:        100,
			EGID:       101,
			FSGID:      102,
			Privileged: true,
			Ok:         true,
			Count:      3,
			Code:       2,
			Err:        "test",
			Meta:       []byte("test-meta-data"),
		},
	}
}

// TestSerializerRoundTrip tests that messages can be serialized and deserialized correctly
func TestSerializerRoundTrip(t *testing.T) {
	messages := testMessages()

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for i, msg := range messages {
				// Serialize
				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize message %d: %v", i, err)
					continue
				}

				// Deserialize
				var result common.Message
				err = serializer.Deserialize(data, &result)
				if err != nil {
					t.Errorf("Failed to deserialize message %d: %v", i, err)
					continue
				}

				// Compare
				if !reflect.DeepEqual(msg, result) {
					t.Errorf("Message %d doesn't match after round trip:\nOriginal: %+v\nResult: %+v",
						i, msg, result)
				}
			}
		})
	}
}

// TestMessageTypes tests each message type with each serializer
func TestMessageTypes(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			// Test each message type (don't test for MsgTUnknown since this should raise an error)
			for msgType := common.MsgTSuccess; msgType <= common.MsgTCustom; msgType++ {
				msg := common.Message{MsgType: msgType}

				// Serialize
				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize message type %s: %v", msgType.String(), err)
					continue
				}

				// Deserialize
				var result common.Message
				err = serializer.Deserialize(data, &result)
				if err != nil {
					t.Errorf("Failed to deserialize message type %s: %v", msgType.String(), err)
					continue
				}

				// Check type
				if result.MsgType != msgType {
					t.Errorf("Message type doesn't match after round trip: Expected %s, got %s",
						msgType.String(), result.MsgType.String())
				}
			}
		})
	}
}

// TestBinarySerializerSpecific tests specific edge cases for the binary serializer
func TestBinarySerializerSpecific(t *testing.T) {
	serializer := NewBinarySerializer()

	// Test cases for empty or zero values
	testCases := []struct {
		name string
		msg  common.Message
	}{
		{
			name: "Empty message",
			msg:  common.Message{},
		},
		{
			name: "Message with empty strings and zero values",
			msg: common.Message{
				MsgType:   common.MsgTGrpSetGroups,
				Caller:    "",
				Principal: "",
				Groups:    []uint32{},
				Ok:        false,
				Err:       "",
				Meta:      []byte{},
			},
		},
		{
			name: "Message with empty strings but Ok=true",
			msg: common.Message{
				MsgType:   common.MsgTGrpInGroup,
				Principal: "",
				Ok:        true,
				Groups:    nil,
			},
		},
		{
			name: "Message with empty groups slice but not nil",
			msg: common.Message{
				MsgType:   common.MsgTGrpGetGroups,
				Principal: "alice",
				Groups:    []uint32{},
			},
		},
		{
			name: "Message with empty meta slice but not nil",
			msg: common.Message{
				MsgType: common.MsgTCustom,
				Meta:    []byte{},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Serialize
			data, err := serializer.Serialize(tc.msg)
			if err != nil {
				t.Fatalf("Failed to serialize: %v", err)
			}

			// Deserialize
			var result common.Message
			err = serializer.Deserialize(data, &result)
			if err != nil {
				t.Fatalf("Failed to deserialize: %v", err)
			}

			if !reflect.DeepEqual(tc.msg, result) {
				t.Errorf("Message doesn't match after round trip:\nOriginal: %+v\nResult: %+v",
					tc.msg, result)
			}
		})
	}
}

// TestInvalidBinaryData tests how the binary serializer handles corrupt or invalid data
func TestInvalidBinaryData(t *testing.T) {
	serializer := NewBinarySerializer()

	testCases := []struct {
		name        string
		data        []byte
		expectError bool
	}{
		{
			name:        "Empty data",
			data:        []byte{},
			expectError: true,
		},
		{
			name:        "Too short header",
			data:        []byte{1, 0}, // Only message type and half the flags
			expectError: true,
		},
		{
			name:        "Valid header only",
			data:        []byte{1, 0, 0}, // Message type 1, no flags
			expectError: false,
		},
		{
			name:        "Invalid length for principal",
			data:        []byte{1, 0, 2, 0, 0, 0, 5, 'a', 'b', 'c'}, // Claims principal length 5 but only 3 bytes provided
			expectError: true,
		},
		{
			name:        "Invalid count for groups",
			data:        []byte{1, 0, 8, 0, 0, 0, 10}, // Claims 10 group identifiers but no bytes provided
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var msg common.Message
			err := serializer.Deserialize(tc.data, &msg)

			if tc.expectError && err == nil {
				t.Errorf("Expected error but got none")
			} else if !tc.expectError && err != nil {
				t.Errorf("Did not expect error but got: %v", err)
			}
		})
	}
}
