package main

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/MRAlirad/fundme-go/types"
)

func newConnectCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "connect",
		Short: "Unlock the wallet and print its address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := o.open(cmd, true)
			if err != nil {
				return err
			}
			defer c.Close() //nolint:errcheck

			addr, err := c.Connect(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Connected %s\n", addr.Hex())
			return nil
		},
	}
}

func newBalanceCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "balance [address]",
		Short: "Print the ether held by the contract, or by address",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 && !common.IsHexAddress(args[0]) {
				return fmt.Errorf("invalid address %q", args[0])
			}
			c, err := o.open(cmd, false)
			if err != nil {
				return err
			}
			defer c.Close() //nolint:errcheck

			var bal types.BalanceResult
			if len(args) == 1 {
				bal, err = c.BalanceOf(cmd.Context(), common.HexToAddress(args[0]))
			} else {
				bal, err = c.Balance(cmd.Context())
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s ETH\n", bal.Ether)
			return nil
		},
	}
}

func newFundCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "fund <amount-eth>",
		Short:   "Send ether to the contract's fund function",
		Example: "  fundme fund 0.1 --mnemonic-file ~/.fundme/mnemonic",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := o.open(cmd, true)
			if err != nil {
				return err
			}
			defer c.Close() //nolint:errcheck

			res, err := c.Fund(cmd.Context(), args[0])
			if res != nil {
				printTx(cmd, res)
			}
			return err
		},
	}
}

func newWithdrawCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "withdraw",
		Short: "Withdraw the contract balance to its owner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := o.open(cmd, true)
			if err != nil {
				return err
			}
			defer c.Close() //nolint:errcheck

			res, err := c.Withdraw(cmd.Context())
			if res != nil {
				printTx(cmd, res)
			}
			return err
		},
	}
}

func newWaitCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "wait <tx-hash>",
		Short: "Block until a transaction is confirmed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := hexutil.Decode(args[0])
			if err != nil || len(raw) != common.HashLength {
				return fmt.Errorf("invalid transaction hash %q", args[0])
			}
			c, err := o.open(cmd, false)
			if err != nil {
				return err
			}
			defer c.Close() //nolint:errcheck

			res, err := c.WaitTx(cmd.Context(), common.BytesToHash(raw))
			if res != nil && res.Mined {
				printTx(cmd, res)
			}
			return err
		},
	}
}

func printTx(cmd *cobra.Command, res *types.TxResult) {
	out := cmd.OutOrStdout()
	if !res.Mined {
		fmt.Fprintf(out, "Submitted %s\n", res.TxHash.Hex())
		return
	}
	status := "ok"
	if !res.Succeeded() {
		status = "reverted"
	}
	fmt.Fprintf(out, "Mined %s in block %d (%d confirmations, %d gas, %s)\n",
		res.TxHash.Hex(), res.BlockNumber, res.Confirmations, res.GasUsed, status)
}
