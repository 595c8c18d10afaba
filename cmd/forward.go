package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/olusolaa/cloud-housekeeper/internal/adapters/webhook/harbor"
	"github.com/olusolaa/cloud-housekeeper/internal/adapters/webhook/yuque"
	"github.com/olusolaa/cloud-housekeeper/internal/core/service"
)

var (
	forwardBodyFile string
	forwardBase64   bool
)

var forwardCmd = &cobra.Command{
	Use:       "forward yuque|harbor",
	Short:     "Relay a webhook body to the log collector",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{yuque.Source, harbor.Source},
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := readInput(cmd, forwardBodyFile)
		if err != nil {
			return err
		}
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		resp, err := a.Forward(cmd.Context(), args[0], a.Invocation, service.WebhookRequest{
			Body:            string(body),
			IsBase64Encoded: forwardBase64,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d %s\n", resp.StatusCode, resp.Body)
		return nil
	},
}

func init() {
	forwardCmd.Flags().StringVarP(&forwardBodyFile, "body-file", "f", "-", "File holding the webhook body, '-' for stdin")
	forwardCmd.Flags().BoolVar(&forwardBase64, "base64", false, "The body is base64 encoded")
}
