package mmodel

import (
	"time"
)

// Instance is a struct designed to store ledger tenant data. An instance
// owns its accounts, transactions, commands and journal events.
type Instance struct {
	ID        string         `json:"id"`
	Address   string         `json:"address"`
	Config    map[string]any `json:"config,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// CreateInstanceInput is the input payload to create an instance.
type CreateInstanceInput struct {
	Address string         `json:"address" validate:"required,max=256,ledger_address"`
	Config  map[string]any `json:"config,omitempty"`
}

// UpdateInstanceInput is the input payload to update an instance. The
// address is immutable.
type UpdateInstanceInput struct {
	Config map[string]any `json:"config,omitempty"`
}
