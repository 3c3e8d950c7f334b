package blockchain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/MRAlirad/fundme-go/types"
)

// GetReceipt fetches a transaction receipt by hash. A tx that is not mined
// yet yields an error matching both types.ErrNotFound and ethereum.NotFound.
func (c *Client) GetReceipt(ctx context.Context, hash common.Hash) (*ethtypes.Receipt, error) {
	r, err := c.backend.TransactionReceipt(ctx, hash)
	if errors.Is(err, ethereum.NotFound) {
		return nil, fmt.Errorf("receipt %s: %w: %w", hash.Hex(), types.ErrNotFound, err)
	}
	if err != nil {
		return nil, fmt.Errorf("get receipt: %w", err)
	}
	if r == nil {
		return nil, fmt.Errorf("empty receipt for %s", hash.Hex())
	}
	return r, nil
}

// WaitForTxInclusion polls GetReceipt until the transaction is included in a block.
// It treats a missing receipt as "not yet included" and keeps polling every
// PollInterval (default 1 second). Respects context cancellation/timeout.
func (c *Client) WaitForTxInclusion(ctx context.Context, hash common.Hash) (*ethtypes.Receipt, error) {
	every := c.config.PollInterval
	if every <= 0 {
		every = time.Second
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			r, err := c.GetReceipt(ctx, hash)
			if errors.Is(err, types.ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			if r.BlockNumber != nil && r.BlockNumber.Sign() > 0 {
				return r, nil
			}
		}
	}
}

// Confirmations returns how many blocks, including its own, bury the receipt.
func (c *Client) Confirmations(ctx context.Context, r *ethtypes.Receipt) (uint64, error) {
	if r == nil || r.BlockNumber == nil {
		return 0, fmt.Errorf("receipt has no block number")
	}
	head, err := c.backend.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("block number: %w", err)
	}
	block := r.BlockNumber.Uint64()
	if head < block {
		return 0, nil
	}
	return head - block + 1, nil
}
