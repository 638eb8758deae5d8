// Package model defines the core data structures used throughout the application.
package model

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// TxID is the stable identity of a transaction inside one batch.
// It is the sequence index assigned when the batch is built.
type TxID int

// TxKind represents the kind of transaction.
type TxKind int

const (
	TxKindTransfer TxKind = 0 // Plain value transfer
	TxKindCall     TxKind = 1 // Contract call
	TxKindSystem   TxKind = 2 // System action touching the shared registry
)

// String returns the string representation of TxKind.
func (k TxKind) String() string {
	switch k {
	case TxKindTransfer:
		return "transfer"
	case TxKindCall:
		return "call"
	case TxKindSystem:
		return "system"
	default:
		return "unknown"
	}
}

// ParseTxKind parses a string into a TxKind.
func ParseTxKind(s string) (TxKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "transfer":
		return TxKindTransfer, nil
	case "call":
		return TxKindCall, nil
	case "system":
		return TxKindSystem, nil
	default:
		return TxKindTransfer, fmt.Errorf("unknown transaction kind: %s", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k TxKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *TxKind) UnmarshalText(text []byte) error {
	parsed, err := ParseTxKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ResourceKey identifies a unit of state a transaction reads or writes,
// e.g. "balance.0xabc".
type ResourceKey string

// Transaction is an opaque handle to a pending transaction.
// Grouping only relies on ID; the remaining fields feed resource detection.
type Transaction struct {
	ID        TxID          `json:"id"`
	Hash      string        `json:"hash,omitempty"`
	Kind      TxKind        `json:"kind"`
	From      string        `json:"from"`
	To        string        `json:"to,omitempty"`
	Nonce     uint64        `json:"nonce"`
	Value     uint64        `json:"value,omitempty"`
	Data      []byte        `json:"data,omitempty"`
	Resources []ResourceKey `json:"resources,omitempty"` // Extra keys declared by the submitter
}

// NewTransfer creates a plain transfer between two addresses.
func NewTransfer(id TxID, from, to string) *Transaction {
	tx := &Transaction{ID: id, Kind: TxKindTransfer, From: from, To: to}
	tx.Hash = tx.ComputeHash()
	return tx
}

// ComputeHash returns the hex Keccak-256 digest of the canonical encoding.
// The ID is excluded so the same payload hashes equally across batches.
func (t *Transaction) ComputeHash() string {
	h := sha3.NewLegacyKeccak256()
	var buf [8]byte

	h.Write([]byte{byte(t.Kind)})
	writeString(h, t.From)
	writeString(h, t.To)
	binary.BigEndian.PutUint64(buf[:], t.Nonce)
	h.Write(buf[:])
	binary.BigEndian.PutUint64(buf[:], t.Value)
	h.Write(buf[:])
	binary.BigEndian.PutUint64(buf[:], uint64(len(t.Data)))
	h.Write(buf[:])
	h.Write(t.Data)
	for _, r := range t.Resources {
		writeString(h, string(r))
	}

	return "0x" + hex.EncodeToString(h.Sum(nil))
}

// EnsureHash fills Hash when it is empty and returns it.
func (t *Transaction) EnsureHash() string {
	if t.Hash == "" {
		t.Hash = t.ComputeHash()
	}
	return t.Hash
}

// String returns a short description for logs.
func (t *Transaction) String() string {
	if t.To == "" {
		return fmt.Sprintf("tx#%d(%s %s)", t.ID, t.Kind, t.From)
	}
	return fmt.Sprintf("tx#%d(%s %s->%s)", t.ID, t.Kind, t.From, t.To)
}

func writeString(w interface{ Write([]byte) (int, error) }, s string) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(len(s)))
	_, _ = w.Write(buf[:])
	_, _ = w.Write([]byte(s))
}
