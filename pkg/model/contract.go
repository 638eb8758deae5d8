package model

import (
	"strings"
	"time"
)

// Contract lists the state a deployed contract touches when called.
// Resources are shared by every call to the contract on the same chain.
type Contract struct {
	ChainID   string        `json:"chain_id"`
	Address   string        `json:"address"`
	Name      string        `json:"name,omitempty"`
	Resources []ResourceKey `json:"resources"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// NormalizeAddress lowercases and trims an address so lookups are stable.
func NormalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}
