// Package job adapts deploy/call/query/balance batch entries into
// executor.Job closures. Each adapter is exactly one RPC round trip,
// mirroring the original tool's contract_deploy/contract_call/
// contract_query/get_balance one-for-one — the dispatcher's "drop the
// sample on error" rule applies cleanly because nothing here panics on a
// chain-side failure, it only ever returns an error.
package job

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/0xkanth/evmload/internal/abiargs"
	"github.com/0xkanth/evmload/internal/batchconfig"
	"github.com/0xkanth/evmload/internal/chain"
	"github.com/0xkanth/evmload/internal/executor"
	"github.com/0xkanth/evmload/internal/txhelper"
)

// DeployResult captures what a deploy job produced, written once on success
// by the job's own goroutine before it returns.
type DeployResult struct {
	Address common.Address
	TxHash  common.Hash
}

// CallResult captures the transaction hash a call job submitted.
type CallResult struct {
	TxHash common.Hash
}

// QueryResult captures the decoded return values of a read-only call.
type QueryResult struct {
	Values []interface{}
}

// BalanceResult captures an account's balance in wei.
type BalanceResult struct {
	Wei *big.Int
}

// callMsg builds the ethereum.CallMsg used for simulation/gas estimation.
// to may be nil for a contract deployment.
func callMsg(from common.Address, to *common.Address, data []byte, gas uint64) ethereum.CallMsg {
	return ethereum.CallMsg{
		From: from,
		To:   to,
		Gas:  gas,
		Data: data,
	}
}

func loadABI(path string) (abi.ABI, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return abi.ABI{}, fmt.Errorf("failed to read ABI file %s: %w", path, err)
	}
	parsed, err := abi.JSON(bytes.NewReader(raw))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("failed to parse ABI file %s: %w", path, err)
	}
	return parsed, nil
}

func loadBytecode(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bytecode file %s: %w", path, err)
	}
	hexStr := strings.TrimSpace(string(raw))
	code := common.FromHex(hexStr)
	if len(code) == 0 {
		return nil, fmt.Errorf("bytecode file %s decoded to empty bytes", path)
	}
	return code, nil
}

// parseKey validates secKey before any chain client is touched, so a bad
// key surfaces as an ordinary job error rather than depending on argument
// evaluation order elsewhere in the call chain.
func parseKey(secKey string) (*ecdsa.PrivateKey, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(secKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid secret key: %w", err)
	}
	return key, nil
}

func newAuth(key *ecdsa.PrivateKey, gasPrice uint64, chainID *big.Int) (*bind.TransactOpts, error) {
	auth, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to build transactor: %w", err)
	}
	if gasPrice != 0 {
		auth.GasPrice = new(big.Int).SetUint64(gasPrice)
	}
	return auth, nil
}

// NewDeployJob returns a Job that deploys the contract described by spec and
// records the resulting address and transaction hash into result.
func NewDeployJob(client *chain.Client, helper *txhelper.Helper, spec batchconfig.DeploySpec, result *DeployResult) executor.Job {
	return func(ctx context.Context) error {
		parsedABI, err := loadABI(spec.ABIPath)
		if err != nil {
			return err
		}

		bytecode, err := loadBytecode(spec.CodePath)
		if err != nil {
			return err
		}

		args, err := abiargs.Parse(spec.Args, argTypes(parsedABI.Constructor.Inputs))
		if err != nil {
			return err
		}

		key, err := parseKey(spec.SecKey)
		if err != nil {
			return err
		}
		auth, err := newAuth(key, spec.GasPrice, client.ChainID())
		if err != nil {
			return err
		}

		packedArgs, err := parsedABI.Constructor.Inputs.Pack(args...)
		if err != nil {
			return fmt.Errorf("failed to encode constructor arguments: %w", err)
		}

		var deployedAddr common.Address
		deployFunc := func(a *bind.TransactOpts) (*types.Transaction, error) {
			addr, tx, _, err := bind.DeployContract(a, parsedABI, bytecode, client.Backend(), args...)
			if err == nil {
				deployedAddr = addr
			}
			return tx, err
		}

		msg := callMsg(auth.From, nil, append(append([]byte{}, bytecode...), packedArgs...), spec.Gas)

		tx, err := helper.DeployWithRetry(ctx, msg, auth, nil, deployFunc)
		if err != nil {
			return err
		}

		if _, err := helper.WaitForTransaction(ctx, tx); err != nil {
			return err
		}

		result.Address = deployedAddr
		result.TxHash = tx.Hash()
		return nil
	}
}

// NewCallJob returns a Job that submits a signed call to funcName on
// resolvedAddr and records the transaction hash into result.
func NewCallJob(client *chain.Client, helper *txhelper.Helper, spec batchconfig.CallSpec, resolvedAddr common.Address, result *CallResult) executor.Job {
	return func(ctx context.Context) error {
		parsedABI, err := loadABI(spec.ABIPath)
		if err != nil {
			return err
		}

		method, ok := parsedABI.Methods[spec.FuncName]
		if !ok {
			return fmt.Errorf("method %q not found in ABI %s", spec.FuncName, spec.ABIPath)
		}

		args, err := abiargs.Parse(spec.Args, argTypes(method.Inputs))
		if err != nil {
			return err
		}

		key, err := parseKey(spec.SecKey)
		if err != nil {
			return err
		}
		auth, err := newAuth(key, spec.GasPrice, client.ChainID())
		if err != nil {
			return err
		}

		contract := bind.NewBoundContract(resolvedAddr, parsedABI, client.Backend(), client.Backend(), client.Backend())

		data, err := parsedABI.Pack(spec.FuncName, args...)
		if err != nil {
			return fmt.Errorf("failed to encode call arguments: %w", err)
		}
		msg := callMsg(auth.From, &resolvedAddr, data, spec.Gas)

		sendFunc := func(a *bind.TransactOpts) (*types.Transaction, error) {
			return contract.Transact(a, spec.FuncName, args...)
		}

		tx, err := helper.SendTransactionWithRetry(ctx, msg, auth, nil, sendFunc)
		if err != nil {
			return err
		}

		if _, err := helper.WaitForTransaction(ctx, tx); err != nil {
			return err
		}

		result.TxHash = tx.Hash()
		return nil
	}
}

// NewQueryJob returns a Job that performs a read-only call to funcName on
// resolvedAddr and records the decoded return values into result.
func NewQueryJob(client *chain.Client, spec batchconfig.QuerySpec, resolvedAddr common.Address) (executor.Job, *QueryResult) {
	result := &QueryResult{}
	job := func(ctx context.Context) error {
		parsedABI, err := loadABI(spec.ABIPath)
		if err != nil {
			return err
		}

		method, ok := parsedABI.Methods[spec.FuncName]
		if !ok {
			return fmt.Errorf("method %q not found in ABI %s", spec.FuncName, spec.ABIPath)
		}

		args, err := abiargs.Parse(spec.Args, argTypes(method.Inputs))
		if err != nil {
			return err
		}

		contract := bind.NewBoundContract(resolvedAddr, parsedABI, client.Backend(), client.Backend(), client.Backend())

		var out []interface{}
		if err := contract.Call(&bind.CallOpts{Context: ctx}, &out, spec.FuncName, args...); err != nil {
			return fmt.Errorf("query call failed: %w", err)
		}

		result.Values = out
		return nil
	}
	return job, result
}

// NewBalanceJob returns a Job that fetches account's wei balance into result.
func NewBalanceJob(client *chain.Client, account common.Address, result *BalanceResult) executor.Job {
	return func(ctx context.Context) error {
		balance, err := client.Balance(ctx, account)
		if err != nil {
			return err
		}
		result.Wei = balance
		return nil
	}
}

func argTypes(args abi.Arguments) []abi.Type {
	types := make([]abi.Type, len(args))
	for i, a := range args {
		types[i] = a.Type
	}
	return types
}
