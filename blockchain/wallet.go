package blockchain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/MRAlirad/fundme-go/types"
)

// RequestAccounts unlocks the configured signer and returns its address.
// It returns types.ErrWalletNotFound when no signer is configured.
func (c *Client) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	if c.signer == nil {
		return nil, types.ErrWalletNotFound
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := c.signer.Unlock(); err != nil {
		return nil, fmt.Errorf("request accounts: %w", err)
	}
	return []common.Address{c.signer.Address()}, nil
}

// Accounts lists the signer's address without unlocking it.
func (c *Client) Accounts() []common.Address {
	if c.signer == nil {
		return nil
	}
	return []common.Address{c.signer.Address()}
}

// Balance returns the latest wei balance of addr.
func (c *Client) Balance(ctx context.Context, addr common.Address) (*big.Int, error) {
	bal, err := c.backend.BalanceAt(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("balance of %s: %w", addr.Hex(), err)
	}
	return bal, nil
}

// ContractBalance returns the wei held by the FundMe contract.
func (c *Client) ContractBalance(ctx context.Context) (*big.Int, error) {
	return c.Balance(ctx, c.FundMe.Address())
}

func (c *Client) transactOpts(ctx context.Context, value *big.Int) (*bind.TransactOpts, error) {
	if c.signer == nil {
		return nil, types.ErrWalletNotFound
	}
	chainID, err := c.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	opts, err := c.signer.TransactOpts(ctx, chainID)
	if err != nil {
		return nil, err
	}
	opts.Value = value
	opts.GasLimit = c.config.GasLimit
	return opts, nil
}
