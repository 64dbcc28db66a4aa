package client

import "fmt"

// VersionToken is a golden-record version identifier. Tokens are opaque:
// the only supported operation is equality. They must never be ordered or
// parsed; display is for audit output only.
type VersionToken struct {
	value string
}

// NewVersionToken wraps a raw token string.
func NewVersionToken(value string) VersionToken {
	return VersionToken{value: value}
}

// BaseVersionNew is the sentinel recorded when a draft creates a new
// golden record instead of editing an existing one.
var BaseVersionNew = NewVersionToken("new")

// Equals reports whether two tokens identify the same version.
func (v VersionToken) Equals(other VersionToken) bool { return v.value == other.value }

// IsZero reports whether the token is unset.
func (v VersionToken) IsZero() bool { return v.value == "" }

// String returns the raw token for audit display and wire encoding.
func (v VersionToken) String() string { return v.value }

// MarshalText implements encoding.TextMarshaler.
func (v VersionToken) MarshalText() ([]byte, error) { return []byte(v.value), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *VersionToken) UnmarshalText(text []byte) error {
	v.value = string(text)
	return nil
}

// GoldenRecord is the authoritative, versioned resource held by the
// record store. Every successful write produces a new Version.
type GoldenRecord struct {
	ID      string
	Content map[string]any
	Version VersionToken
	Status  string
}

// ApprovalTask is a workflow task as seen by this service: read-only, with
// the variable snapshot recorded at submission time. A task is only
// actionable while its draft is still in status "submitted".
type ApprovalTask struct {
	TaskID            string            `json:"taskId"`
	ProcessInstanceID string            `json:"processInstanceId"`
	Name              string            `json:"name"`
	Assignee          string            `json:"assignee,omitempty"`
	Variables         map[string]string `json:"variables,omitempty"`
}

// InstanceState is the tri-state result of probing a workflow instance.
// The engine deletes finished instances, so absence means completed;
// Unknown is returned when the probe itself failed and callers must not
// assume either way.
type InstanceState string

const (
	// InstanceActive means the instance still has work pending.
	InstanceActive InstanceState = "active"
	// InstanceCompleted means the instance has finished (probe returned
	// not-found).
	InstanceCompleted InstanceState = "completed"
	// InstanceUnknown means the probe failed; liveness is undetermined.
	InstanceUnknown InstanceState = "unknown"
)

// engineVariable is the engine's typed variable encoding on the wire:
// {"name": {"value": ..., "type": ...}}.
type engineVariable struct {
	Value any    `json:"value"`
	Type  string `json:"type"`
}

type engineVariables map[string]engineVariable

// encodeVariables converts a flat string map into the engine's shape.
func encodeVariables(vars map[string]string) engineVariables {
	out := make(engineVariables, len(vars))
	for name, value := range vars {
		out[name] = engineVariable{Value: value, Type: "String"}
	}
	return out
}

// decodeVariables flattens the engine's shape back into strings.
func decodeVariables(vars engineVariables) map[string]string {
	out := make(map[string]string, len(vars))
	for name, v := range vars {
		switch value := v.Value.(type) {
		case string:
			out[name] = value
		case nil:
			out[name] = ""
		default:
			out[name] = fmt.Sprintf("%v", value)
		}
	}
	return out
}
