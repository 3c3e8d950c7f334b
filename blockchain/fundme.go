package blockchain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/MRAlirad/fundme-go/types"
)

type transactOptsFunc func(ctx context.Context, value *big.Int) (*bind.TransactOpts, error)

// FundMeClient binds the FundMe contract at a fixed address.
type FundMeClient struct {
	address  common.Address
	contract *bind.BoundContract
	opts     transactOptsFunc
}

// ParsedFundMeABI parses FundMeABI.
func ParsedFundMeABI() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(FundMeABI))
}

// NewFundMeClient binds the contract at address on backend.
func NewFundMeClient(address common.Address, backend bind.ContractBackend, opts transactOptsFunc) (*FundMeClient, error) {
	parsed, err := ParsedFundMeABI()
	if err != nil {
		return nil, fmt.Errorf("parse fundme abi: %w", err)
	}
	return &FundMeClient{
		address:  address,
		contract: bind.NewBoundContract(address, parsed, backend, backend, backend),
		opts:     opts,
	}, nil
}

// Address returns the contract address.
func (f *FundMeClient) Address() common.Address { return f.address }

// Fund sends wei to the payable fund function.
func (f *FundMeClient) Fund(ctx context.Context, wei *big.Int) (*ethtypes.Transaction, error) {
	if wei == nil || wei.Sign() <= 0 {
		return nil, fmt.Errorf("fund: %w: amount must be positive", types.ErrInvalidAmount)
	}
	return f.transact(ctx, wei, "fund")
}

// Withdraw sends the whole contract balance to the owner.
func (f *FundMeClient) Withdraw(ctx context.Context) (*ethtypes.Transaction, error) {
	return f.transact(ctx, nil, "withdraw")
}

// CheaperWithdraw is Withdraw with fewer storage reads.
func (f *FundMeClient) CheaperWithdraw(ctx context.Context) (*ethtypes.Transaction, error) {
	return f.transact(ctx, nil, "cheaperWithdraw")
}

// Owner returns the address allowed to withdraw.
func (f *FundMeClient) Owner(ctx context.Context) (common.Address, error) {
	return callOne[common.Address](ctx, f, "getOwner")
}

// Funder returns the funder at index in the contract's funders list.
func (f *FundMeClient) Funder(ctx context.Context, index *big.Int) (common.Address, error) {
	return callOne[common.Address](ctx, f, "getFunder", index)
}

// AddressToAmountFunded returns the wei funder has sent since the last withdraw.
func (f *FundMeClient) AddressToAmountFunded(ctx context.Context, funder common.Address) (*big.Int, error) {
	return callOne[*big.Int](ctx, f, "getAddressToAmountFunded", funder)
}

// MinimumUSD returns the smallest accepted contribution in USD, scaled by 1e18.
func (f *FundMeClient) MinimumUSD(ctx context.Context) (*big.Int, error) {
	return callOne[*big.Int](ctx, f, "MINIMUM_USD")
}

// PriceFeed returns the ETH/USD aggregator the contract reads.
func (f *FundMeClient) PriceFeed(ctx context.Context) (common.Address, error) {
	return callOne[common.Address](ctx, f, "getPriceFeed")
}

// Version is the version of the price feed the contract reads.
func (f *FundMeClient) Version(ctx context.Context) (*big.Int, error) {
	return callOne[*big.Int](ctx, f, "getVersion")
}

func (f *FundMeClient) transact(ctx context.Context, value *big.Int, method string) (*ethtypes.Transaction, error) {
	opts, err := f.opts(ctx, value)
	if err != nil {
		return nil, err
	}
	tx, err := f.contract.Transact(opts, method)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return tx, nil
}

func callOne[T any](ctx context.Context, f *FundMeClient, method string, args ...interface{}) (T, error) {
	var zero T
	var out []interface{}
	if err := f.contract.Call(&bind.CallOpts{Context: ctx}, &out, method, args...); err != nil {
		return zero, fmt.Errorf("%s: %w", method, err)
	}
	if len(out) == 0 {
		return zero, fmt.Errorf("%s: empty result", method)
	}
	v, ok := out[0].(T)
	if !ok {
		return zero, fmt.Errorf("%s: unexpected result type %T", method, out[0])
	}
	return v, nil
}
