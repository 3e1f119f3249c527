package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "storefront-payments",
		Short: "Payment order service for the jewelry storefront",
		Long: `storefront-payments creates Razorpay orders, verifies checkout callbacks,
looks up payments and initiates refunds. Without RAZORPAY_KEY_ID it runs in dev mode
with mock orders.`,
		SilenceUsage: true,
		RunE:         runServe,
	}

	rootCmd.AddCommand(
		newServeCommand(),
		newSignatureCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
