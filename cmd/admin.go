package cmd

import (
	"time"

	"forge/pkg/number"

	"github.com/fox-one/pkg/store/db"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
)

var setParamCmd = &cobra.Command{
	Use:     "set-param <key> <value>",
	Aliases: []string{"sp"},
	Short:   "override a protocol parameter",
	Args:    cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		s := buildServices()
		defer s.Close()

		if err := s.params.Set(ctx, args[0], args[1]); err != nil {
			cmd.PrintErrln("set param error:", err)
			return
		}

		cmd.Println(args[0], "=", args[1])
	},
}

// register or update a token: forge set-token <asset> <symbol> <depositable> <mintable> <tradable> [decimals]
var setTokenCmd = &cobra.Command{
	Use:     "set-token <asset> <symbol> <depositable> <mintable> <tradable> [decimals]",
	Aliases: []string{"st"},
	Short:   "register or update a token",
	Args:    cobra.RangeArgs(5, 6),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		s := buildServices()
		defer s.Close()

		token, err := s.tokenStore.Find(ctx, args[0])
		if err != nil {
			cmd.PrintErrln("find token error:", err)
			return
		}

		token.Symbol = args[1]
		token.Depositable = cast.ToBool(args[2])
		token.Mintable = cast.ToBool(args[3])
		token.Tradable = cast.ToBool(args[4])
		if len(args) > 5 {
			token.PriceDecimals = cast.ToInt32(args[5])
		}

		err = s.db.Tx(func(tx *db.DB) error {
			if token.ID == 0 {
				return s.tokenStore.Save(ctx, tx, token)
			}
			return s.tokenStore.Update(ctx, tx, token)
		})
		if err != nil {
			cmd.PrintErrln("save token error:", err)
			return
		}

		cmd.Println("token", token.Symbol, "saved")
	},
}

var postPriceCmd = &cobra.Command{
	Use:   "post-price <asset> <raw>",
	Short: "post a raw oracle price",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		s := buildServices()
		defer s.Close()

		err := s.db.Tx(func(tx *db.DB) error {
			return s.prices.Post(ctx, tx, args[0], number.Decimal(args[1]))
		})
		if err != nil {
			cmd.PrintErrln("post price error:", err)
			return
		}

		price, _ := s.prices.GetPrice(ctx, args[0])
		cmd.Println("price", price)
	},
}

var notifyRewardCmd = &cobra.Command{
	Use:   "notify-reward <amount>",
	Short: "fund the next reward epoch",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		s := buildServices()
		defer s.Close()

		err := s.db.Tx(func(tx *db.DB) error {
			return s.rewards.Notify(ctx, tx, number.Decimal(args[0]), time.Now())
		})
		if err != nil {
			cmd.PrintErrln("notify reward error:", err)
			return
		}

		cmd.Println("epoch funded with", args[0])
	},
}

// credit external holdings: forge fund <address> <asset> <amount>
var fundCmd = &cobra.Command{
	Use:   "fund <address> <asset> <amount>",
	Short: "mint external holdings to an address",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		s := buildServices()
		defer s.Close()

		err := s.db.Tx(func(tx *db.DB) error {
			return s.assets.MintAsset(ctx, tx, args[0], args[1], number.Decimal(args[2]))
		})
		if err != nil {
			cmd.PrintErrln("fund error:", err)
			return
		}

		balance, _ := s.assets.BalanceOf(ctx, args[0], args[1])
		cmd.Println("balance", balance)
	},
}

var forceCloseCmd = &cobra.Command{
	Use:   "force-close <nonce>",
	Short: "close an auction, returning unsold collateral",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		s := buildServices()
		defer s.Close()

		if err := s.auctions.ForceClose(ctx, cast.ToUint64(args[0]), time.Now()); err != nil {
			cmd.PrintErrln("force close error:", err)
			return
		}

		cmd.Println("auction", args[0], "closed")
	},
}

func init() {
	rootCmd.AddCommand(setParamCmd)
	rootCmd.AddCommand(setTokenCmd)
	rootCmd.AddCommand(postPriceCmd)
	rootCmd.AddCommand(notifyRewardCmd)
	rootCmd.AddCommand(fundCmd)
	rootCmd.AddCommand(forceCloseCmd)
}
