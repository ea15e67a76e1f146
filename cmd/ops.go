package cmd

import (
	"time"

	"forge/pkg/number"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"
)

var depositCmd = &cobra.Command{
	Use:   "deposit <address> <asset> <amount>",
	Short: "deposit collateral",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		s := buildServices()
		defer s.Close()

		if err := s.position.Deposit(cmd.Context(), args[0], args[1], number.Decimal(args[2])); err != nil {
			cmd.PrintErrln("deposit error:", err)
			return
		}

		cmd.Println("deposited", args[2])
	},
}

var withdrawCmd = &cobra.Command{
	Use:   "withdraw <address> <asset> <amount>",
	Short: "withdraw collateral",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		s := buildServices()
		defer s.Close()

		if err := s.position.Withdraw(cmd.Context(), args[0], args[1], number.Decimal(args[2])); err != nil {
			cmd.PrintErrln("withdraw error:", err)
			return
		}

		cmd.Println("withdrawn", args[2])
	},
}

var mintCmd = &cobra.Command{
	Use:   "mint <address> <asset> <amount>",
	Short: "mint debt tokens against collateral",
	Run: func(cmd *cobra.Command, args []string) {
		s := buildServices()
		defer s.Close()

		max, _ := cmd.Flags().GetString("max-ratio")
		if max != "" {
			if len(args) != 2 {
				cmd.PrintErrln("usage: mint <address> <asset> --max-ratio <ratio>")
				return
			}

			amount, err := s.position.MintMax(cmd.Context(), args[0], args[1], number.Decimal(max))
			if err != nil {
				cmd.PrintErrln("mint error:", err)
				return
			}

			cmd.Println("minted", amount)
			return
		}

		if len(args) != 3 {
			cmd.PrintErrln("usage: mint <address> <asset> <amount>")
			return
		}

		if err := s.position.Mint(cmd.Context(), args[0], args[1], number.Decimal(args[2])); err != nil {
			cmd.PrintErrln("mint error:", err)
			return
		}

		cmd.Println("minted", args[2])
	},
}

var repayCmd = &cobra.Command{
	Use:   "repay <address> <asset> [amount]",
	Short: "repay debt, everything coverable when no amount given",
	Args:  cobra.RangeArgs(2, 3),
	Run: func(cmd *cobra.Command, args []string) {
		s := buildServices()
		defer s.Close()

		if len(args) == 2 {
			amount, err := s.position.RepayMax(cmd.Context(), args[0], args[1])
			if err != nil {
				cmd.PrintErrln("repay error:", err)
				return
			}

			cmd.Println("repaid", amount)
			return
		}

		if err := s.position.Repay(cmd.Context(), args[0], args[1], number.Decimal(args[2])); err != nil {
			cmd.PrintErrln("repay error:", err)
			return
		}

		cmd.Println("repaid", args[2])
	},
}

var claimCmd = &cobra.Command{
	Use:   "claim <address>",
	Short: "claim the accumulated reward stash",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		s := buildServices()
		defer s.Close()

		claimed, err := s.position.ClaimReward(cmd.Context(), args[0])
		if err != nil {
			cmd.PrintErrln("claim error:", err)
			return
		}

		cmd.Println("claimed", claimed)
	},
}

var openAuctionCmd = &cobra.Command{
	Use:   "open-auction <initiator> <target>",
	Short: "open a liquidation auction over an insolvent account",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		s := buildServices()
		defer s.Close()

		auction, err := s.auctions.Open(cmd.Context(), args[0], args[1], time.Now())
		if err != nil {
			cmd.PrintErrln("open auction error:", err)
			return
		}

		cmd.Println("auction", auction.ID, "opened")
	},
}

var bidCmd = &cobra.Command{
	Use:   "bid <nonce> <bidder> <percentage>",
	Short: "fill part of an open auction",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		s := buildServices()
		defer s.Close()

		bid, err := s.auctions.Bid(cmd.Context(), cast.ToUint64(args[0]), args[1], number.Decimal(args[2]), time.Now())
		if err != nil {
			cmd.PrintErrln("bid error:", err)
			return
		}

		cmd.Println("bid filled at offering ratio", bid.OfferingRatio)
	},
}

var liquidateCmd = &cobra.Command{
	Use:   "liquidate <bidder> <target>",
	Short: "open and fully fill an auction in one shot",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		s := buildServices()
		defer s.Close()

		bid, err := s.auctions.Liquidate(cmd.Context(), args[0], args[1], time.Now())
		if err != nil {
			cmd.PrintErrln("liquidate error:", err)
			return
		}

		cmd.Println("liquidated at offering ratio", bid.OfferingRatio)
	},
}

func init() {
	mintCmd.Flags().String("max-ratio", "", "mint as much as keeps the account at this ratio")

	rootCmd.AddCommand(depositCmd)
	rootCmd.AddCommand(withdrawCmd)
	rootCmd.AddCommand(mintCmd)
	rootCmd.AddCommand(repayCmd)
	rootCmd.AddCommand(claimCmd)
	rootCmd.AddCommand(openAuctionCmd)
	rootCmd.AddCommand(bidCmd)
	rootCmd.AddCommand(liquidateCmd)
}
