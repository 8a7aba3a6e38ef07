// Package txhelper provides simulate/estimate/retry/wait transaction
// utilities shared by every job that submits a signed transaction, adapted
// from pkg/txhelper/transaction.go to log through zerolog instead of the
// standard library logger, and extended with DeployWithRetry for the
// contract-deploy job.
package txhelper

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/rs/zerolog"
)

// Helper provides reusable transaction utilities for any Ethereum client.
type Helper struct {
	client        *ethclient.Client
	blockTime     int // seconds
	confirmations int
	logger        zerolog.Logger
}

// NewHelper creates a new transaction helper.
func NewHelper(client *ethclient.Client, blockTime, confirmations int, logger zerolog.Logger) *Helper {
	return &Helper{
		client:        client,
		blockTime:     blockTime,
		confirmations: confirmations,
		logger:        logger.With().Str("component", "txhelper").Logger(),
	}
}

// Config holds configuration for sending transactions.
type Config struct {
	MaxRetries       int
	InitialBackoff   time.Duration
	MaxBackoff       time.Duration
	GasBufferPercent int
	Simulate         bool
	TimeoutPerTry    time.Duration
}

// DefaultConfig returns safe defaults for transaction execution.
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:       3,
		InitialBackoff:   1 * time.Second,
		MaxBackoff:       30 * time.Second,
		GasBufferPercent: 20,
		Simulate:         true,
		TimeoutPerTry:    30 * time.Second,
	}
}

// SimulateTransaction simulates a transaction using eth_call before sending.
// Returns nil if simulation succeeds, an error if it would revert.
func (h *Helper) SimulateTransaction(ctx context.Context, msg ethereum.CallMsg) error {
	msg.Gas = 30_000_000

	result, err := h.client.CallContract(ctx, msg, nil)
	if err != nil {
		if strings.Contains(err.Error(), "execution reverted") {
			return fmt.Errorf("simulation failed: %w", err)
		}
		return fmt.Errorf("simulation error: %w", err)
	}

	h.logger.Debug().Int("result_len", len(result)).Msg("simulation successful")
	return nil
}

// EstimateGasWithBuffer estimates gas and adds a buffer percentage.
func (h *Helper) EstimateGasWithBuffer(ctx context.Context, msg ethereum.CallMsg, bufferPercent int) (uint64, error) {
	gasEstimate, err := h.client.EstimateGas(ctx, msg)
	if err != nil {
		return 0, fmt.Errorf("gas estimation failed: %w", err)
	}

	buffer := gasEstimate * uint64(bufferPercent) / 100
	gasWithBuffer := gasEstimate + buffer

	const maxGasLimit = 30_000_000
	if gasWithBuffer > maxGasLimit {
		gasWithBuffer = maxGasLimit
	}

	h.logger.Debug().
		Uint64("gas_estimate", gasEstimate).
		Int("buffer_percent", bufferPercent).
		Uint64("gas_with_buffer", gasWithBuffer).
		Msg("gas estimated")

	return gasWithBuffer, nil
}

// IsRetryableError checks if an error is retryable (RPC/network issues).
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()

	retryableErrors := []string{
		"connection refused",
		"connection reset",
		"EOF",
		"timeout",
		"TLS handshake timeout",
		"no such host",
		"network is unreachable",
		"429",
		"502",
		"503",
		"504",
	}
	for _, retryable := range retryableErrors {
		if strings.Contains(errStr, retryable) {
			return true
		}
	}

	permanentErrors := []string{
		"execution reverted",
		"insufficient funds",
		"gas too low",
		"nonce too low",
		"replacement transaction underpriced",
		"already known",
	}
	for _, permanent := range permanentErrors {
		if strings.Contains(errStr, permanent) {
			return false
		}
	}

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		code := rpcErr.ErrorCode()
		if code == -32000 || code == -32603 {
			return true
		}
	}

	return true
}

// SendTransactionWithRetry sends a transaction with exponential backoff
// retry, first simulating it when config.Simulate is set and then always
// estimating gas.
func (h *Helper) SendTransactionWithRetry(
	ctx context.Context,
	msg ethereum.CallMsg,
	auth *bind.TransactOpts,
	config *Config,
	sendFunc func(*bind.TransactOpts) (*types.Transaction, error),
) (*types.Transaction, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if config.Simulate {
		if err := h.SimulateTransaction(ctx, msg); err != nil {
			return nil, fmt.Errorf("simulation failed, aborting: %w", err)
		}
	}

	gasLimit, err := h.EstimateGasWithBuffer(ctx, msg, config.GasBufferPercent)
	if err != nil {
		return nil, fmt.Errorf("gas estimation failed: %w", err)
	}
	auth.GasLimit = gasLimit

	return h.retrySend(ctx, auth, config, sendFunc)
}

// DeployWithRetry mirrors SendTransactionWithRetry's backoff/retry shape for
// contract deployment, where there is no target address to simulate a call
// against — gas estimation happens against the constructor-encoded deploy
// message instead.
func (h *Helper) DeployWithRetry(
	ctx context.Context,
	msg ethereum.CallMsg,
	auth *bind.TransactOpts,
	config *Config,
	deployFunc func(*bind.TransactOpts) (*types.Transaction, error),
) (*types.Transaction, error) {
	if config == nil {
		config = DefaultConfig()
	}

	gasLimit, err := h.EstimateGasWithBuffer(ctx, msg, config.GasBufferPercent)
	if err != nil {
		return nil, fmt.Errorf("gas estimation failed: %w", err)
	}
	auth.GasLimit = gasLimit

	return h.retrySend(ctx, auth, config, deployFunc)
}

func (h *Helper) retrySend(
	ctx context.Context,
	auth *bind.TransactOpts,
	config *Config,
	sendFunc func(*bind.TransactOpts) (*types.Transaction, error),
) (*types.Transaction, error) {
	var tx *types.Transaction
	var err error
	backoff := config.InitialBackoff

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		if attempt > 0 {
			h.logger.Warn().Int("attempt", attempt).Dur("backoff", backoff).Msg("retrying transaction")
			time.Sleep(backoff)

			backoff *= 2
			if backoff > config.MaxBackoff {
				backoff = config.MaxBackoff
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, config.TimeoutPerTry)
		auth.Context = attemptCtx

		tx, err = sendFunc(auth)
		cancel()

		if err == nil {
			h.logger.Info().Str("tx_hash", tx.Hash().Hex()).Msg("transaction sent")
			return tx, nil
		}

		h.logger.Warn().Err(err).Int("attempt", attempt+1).Msg("transaction attempt failed")

		if !IsRetryableError(err) {
			return nil, fmt.Errorf("non-retryable error: %w", err)
		}

		if attempt == config.MaxRetries {
			return nil, fmt.Errorf("max retries (%d) reached: %w", config.MaxRetries, err)
		}
	}

	return nil, fmt.Errorf("transaction failed after %d attempts", config.MaxRetries)
}

// WaitForTransaction waits for a transaction to be mined and returns the
// receipt, failing the sample (rather than panicking) on revert.
func (h *Helper) WaitForTransaction(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	timeout := time.Duration(h.blockTime*h.confirmations) * time.Second
	ctx, cancel := context.WithTimeout(ctx, timeout*2)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("timeout waiting for transaction %s", tx.Hash().Hex())
		default:
		}

		receipt, err := h.client.TransactionReceipt(ctx, tx.Hash())
		if err == nil {
			if receipt.Status == 0 {
				return receipt, fmt.Errorf("transaction reverted: %s", tx.Hash().Hex())
			}
			h.logger.Info().
				Uint64("block", receipt.BlockNumber.Uint64()).
				Msg("transaction mined")
			return receipt, nil
		}

		time.Sleep(time.Duration(h.blockTime) * time.Second)
	}
}

// SuggestGasPriceWithTip suggests gas price with an optional priority fee.
func (h *Helper) SuggestGasPriceWithTip(ctx context.Context, tipPercent int) (*big.Int, error) {
	basePrice, err := h.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get base gas price: %w", err)
	}

	if tipPercent > 0 {
		tip := new(big.Int).Mul(basePrice, big.NewInt(int64(tipPercent)))
		tip.Div(tip, big.NewInt(100))
		basePrice.Add(basePrice, tip)
	}

	return basePrice, nil
}

// PackConstructor ABI-encodes constructor arguments for a deploy message.
// The deploy job in internal/job packs its constructor arguments directly
// and does not call it.
func PackConstructor(parsed abi.ABI, args ...interface{}) ([]byte, error) {
	return parsed.Constructor.Inputs.Pack(args...)
}
