// Package models holds the data shapes shared across packages: what gets
// persisted to the address book and what gets published after a batch
// finishes.
package models

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// AddressBookEntry records one successfully deployed contract, keyed by
// label in internal/addressbook.
type AddressBookEntry struct {
	Label          string         `json:"label"`
	Address        common.Address `json:"address"`
	TxHash         common.Hash    `json:"tx_hash"`
	DeployedAtUnix int64          `json:"deployed_at_unix_ms"`
}

// BatchReport is the event published to NATS after a batch drains.
type BatchReport struct {
	Mode           string    `json:"mode"`
	Successes      uint32    `json:"successes"`
	TotalElapsedMs uint64    `json:"total_elapsed_ms"`
	JobCount       int       `json:"job_count"`
	FinalLimit     uint32    `json:"final_limit"`
	FinishedAt     time.Time `json:"finished_at"`
}
