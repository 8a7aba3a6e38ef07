package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"
)

// Client wraps *ethclient.Client with the dial/verify shape OnChainClient
// uses, generalized from a read-only event-indexing client to one that also
// exercises the write path: deploying contracts and submitting signed
// transactions.
type Client struct {
	eth     *ethclient.Client
	chainID *big.Int
	logger  *zerolog.Logger
}

// NewClient dials rpcURL and, if expectedChainID is non-zero, verifies the
// endpoint reports that chain ID. Passing 0 skips verification, for local
// dev chains whose ID isn't known ahead of time.
func NewClient(rpcURL string, expectedChainID int64, logger *zerolog.Logger) (*Client, error) {
	eth, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC endpoint: %w", err)
	}

	actualChainID, err := eth.ChainID(context.Background())
	if err != nil {
		eth.Close()
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}

	if expectedChainID != 0 {
		expected := big.NewInt(expectedChainID)
		if actualChainID.Cmp(expected) != 0 {
			eth.Close()
			return nil, fmt.Errorf("chain ID mismatch: expected %d, got %d", expectedChainID, actualChainID)
		}
	}

	logger.Info().
		Str("rpc_url", rpcURL).
		Int64("chain_id", actualChainID.Int64()).
		Msg("chain client initialized")

	return &Client{eth: eth, chainID: actualChainID, logger: logger}, nil
}

// Backend exposes the underlying *ethclient.Client as a bind.ContractBackend
// for use with go-ethereum's dynamic ABI binding (bind.DeployContract,
// bind.NewBoundContract) rather than abigen-generated static bindings.
func (c *Client) Backend() bind.ContractBackend {
	return c.eth
}

// Raw returns the underlying *ethclient.Client for callers (txhelper) that
// need the full client surface.
func (c *Client) Raw() *ethclient.Client {
	return c.eth
}

// ChainID returns the verified chain ID.
func (c *Client) ChainID() *big.Int {
	return c.chainID
}

// Balance returns the account balance in wei at the latest block.
func (c *Client) Balance(ctx context.Context, account common.Address) (*big.Int, error) {
	balance, err := c.eth.BalanceAt(ctx, account, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch balance for %s: %w", account.Hex(), err)
	}
	return balance, nil
}

// TransactionReceipt fetches a transaction receipt.
func (c *Client) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	receipt, err := c.eth.TransactionReceipt(ctx, txHash)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch receipt for tx %s: %w", txHash.Hex(), err)
	}
	return receipt, nil
}

// Close closes the underlying connection.
func (c *Client) Close() {
	c.eth.Close()
	c.logger.Info().Msg("chain client closed")
}
