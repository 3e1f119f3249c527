package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"storefront-payments/signature"
)

// newSignatureCommand prints the signature the gateway would send for an
// order/payment pair, for driving /api/payment/verify by hand.
func newSignatureCommand() *cobra.Command {
	var orderID, paymentID, secret string

	cmd := &cobra.Command{
		Use:   "signature",
		Short: "Print the checkout callback signature for an order and payment",
		Example: `  storefront-payments signature --order order_1 --payment pay_1 --secret s3cr3t
  RAZORPAY_KEY_SECRET=s3cr3t storefront-payments signature --order order_1 --payment pay_1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = os.Getenv("RAZORPAY_KEY_SECRET")
			}
			if secret == "" {
				return errors.New("a key secret is required: pass --secret or set RAZORPAY_KEY_SECRET")
			}
			fmt.Fprintln(cmd.OutOrStdout(), signature.Sign(secret, orderID, paymentID))
			return nil
		},
	}

	cmd.Flags().StringVar(&orderID, "order", "", "gateway order id")
	cmd.Flags().StringVar(&paymentID, "payment", "", "gateway payment id")
	cmd.Flags().StringVar(&secret, "secret", "", "key secret (defaults to RAZORPAY_KEY_SECRET)")
	_ = cmd.MarkFlagRequired("order")
	_ = cmd.MarkFlagRequired("payment")

	return cmd
}
