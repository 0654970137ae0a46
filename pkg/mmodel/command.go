package mmodel

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/CroesusLabs/croesus/pkg/constant"
)

// Command is a struct designed to store an immutable write-ahead record of
// caller intent. Commands are never mutated after insert; their lifecycle
// lives on the paired queue item.
type Command struct {
	ID         string            `json:"id"`
	InstanceID string            `json:"instance_id"`
	CommandMap CommandMap        `json:"command_map"`
	QueueItem  *CommandQueueItem `json:"queue_item,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// CommandMap is the tagged union carried by a command, discriminated by
// Action. Exactly one of Account or Transaction is set for a supported
// action.
type CommandMap struct {
	Action          string
	InstanceAddress string
	Source          string
	SourceIdemPK    string
	UpdateIdemPK    string
	UpdateSource    string
	Account         *AccountData
	Transaction     *TransactionData
}

// commandMapEnvelope is the persisted JSON shape, with the payload key
// holding the action-specific data.
type commandMapEnvelope struct {
	Action          string          `json:"action"`
	InstanceAddress string          `json:"instance_address"`
	Source          string          `json:"source"`
	SourceIdemPK    string          `json:"source_idempk"`
	UpdateIdemPK    string          `json:"update_idempk,omitempty"`
	UpdateSource    string          `json:"update_source,omitempty"`
	Payload         json.RawMessage `json:"payload,omitempty"`
}

// IsAccountAction reports whether the command targets an account.
func (m *CommandMap) IsAccountAction() bool {
	return m.Action == constant.ActionCreateAccount || m.Action == constant.ActionUpdateAccount
}

// IsUpdateAction reports whether the command updates an existing entity.
func (m *CommandMap) IsUpdateAction() bool {
	return m.Action == constant.ActionUpdateAccount || m.Action == constant.ActionUpdateTransaction
}

func (m CommandMap) MarshalJSON() ([]byte, error) {
	env := commandMapEnvelope{
		Action:          m.Action,
		InstanceAddress: m.InstanceAddress,
		Source:          m.Source,
		SourceIdemPK:    m.SourceIdemPK,
		UpdateIdemPK:    m.UpdateIdemPK,
		UpdateSource:    m.UpdateSource,
	}

	var (
		payload []byte
		err     error
	)

	switch {
	case m.Account != nil:
		payload, err = json.Marshal(m.Account)
	case m.Transaction != nil:
		payload, err = json.Marshal(m.Transaction)
	}

	if err != nil {
		return nil, err
	}

	env.Payload = payload

	return json.Marshal(env)
}

func (m *CommandMap) UnmarshalJSON(data []byte) error {
	var env commandMapEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}

	out := CommandMap{
		Action:          env.Action,
		InstanceAddress: env.InstanceAddress,
		Source:          env.Source,
		SourceIdemPK:    env.SourceIdemPK,
		UpdateIdemPK:    env.UpdateIdemPK,
		UpdateSource:    env.UpdateSource,
	}

	switch env.Action {
	case constant.ActionCreateAccount, constant.ActionUpdateAccount:
		if len(env.Payload) > 0 {
			out.Account = &AccountData{}
			if err := json.Unmarshal(env.Payload, out.Account); err != nil {
				return err
			}
		}
	case constant.ActionCreateTransaction, constant.ActionUpdateTransaction:
		if len(env.Payload) > 0 {
			out.Transaction = &TransactionData{}
			if err := json.Unmarshal(env.Payload, out.Transaction); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: %q", constant.ErrActionNotSupported, env.Action)
	}

	*m = out

	return nil
}

// ParseCommandMap normalizes a raw parameter map into a typed CommandMap by
// round-tripping through JSON, so callers may hand over loosely typed maps.
func ParseCommandMap(params map[string]any) (*CommandMap, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}

	var m CommandMap
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}

	return &m, nil
}
