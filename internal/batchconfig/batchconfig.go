// Package batchconfig loads the JSON files describing a batch of deploy,
// call, or query jobs, mirroring the read/unmarshal shape the original tool
// used for its own chain registry file.
package batchconfig

import (
	"encoding/json"
	"fmt"
	"os"
)

// DeploySpec describes one contract deployment: where to read the bytecode
// and ABI from, which key signs it, gas parameters, and a single
// comma-separated constructor argument string (coerced against the
// constructor's ABI types at dispatch time, not here).
type DeploySpec struct {
	Label    string `json:"label,omitempty"`
	CodePath string `json:"code_path"`
	ABIPath  string `json:"abi_path"`
	SecKey   string `json:"sec_key"`
	Gas      uint64 `json:"gas"`
	GasPrice uint64 `json:"gas_price"`
	Args     string `json:"args"`
}

// DeployBatch is the top-level shape of a deploy batch file.
type DeployBatch struct {
	Deploys []DeploySpec `json:"deploy_obj"`
}

// CallSpec describes one state-changing contract call. ContractAddr may be
// a literal hex address or, as a label reference (see internal/addressbook),
// "@label" to resolve against a prior deploy batch's recorded address.
type CallSpec struct {
	ContractAddr string `json:"contract_addr"`
	ABIPath      string `json:"abi_path"`
	SecKey       string `json:"sec_key"`
	FuncName     string `json:"func_name"`
	Gas          uint64 `json:"gas"`
	GasPrice     uint64 `json:"gas_price"`
	Args         string `json:"args"`
}

// CallBatch is the top-level shape of a call batch file.
type CallBatch struct {
	Calls []CallSpec `json:"call_obj"`
}

// QuerySpec describes one read-only contract call. It carries no gas
// parameters and no signing key since it never submits a transaction.
type QuerySpec struct {
	ContractAddr string `json:"contract_addr"`
	ABIPath      string `json:"abi_path"`
	FuncName     string `json:"func_name"`
	Args         string `json:"args"`
}

// QueryBatch is the top-level shape of a query batch file.
type QueryBatch struct {
	Queries []QuerySpec `json:"query_obj"`
}

// LoadDeployBatch reads and parses a deploy batch file.
func LoadDeployBatch(path string) (*DeployBatch, error) {
	var batch DeployBatch
	if err := loadJSON(path, &batch); err != nil {
		return nil, err
	}
	return &batch, nil
}

// LoadCallBatch reads and parses a call batch file.
func LoadCallBatch(path string) (*CallBatch, error) {
	var batch CallBatch
	if err := loadJSON(path, &batch); err != nil {
		return nil, err
	}
	return &batch, nil
}

// LoadQueryBatch reads and parses a query batch file.
func LoadQueryBatch(path string) (*QueryBatch, error) {
	var batch QueryBatch
	if err := loadJSON(path, &batch); err != nil {
		return nil, err
	}
	return &batch, nil
}

func loadJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read batch file %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse batch file %s: %w", path, err)
	}
	return nil
}
