package main

import (
	"github.com/spf13/cobra"

	"github.com/olusolaa/cloud-housekeeper/internal/adapters/lambda"
)

var lambdaCmd = &cobra.Command{
	Use:   "lambda [handler]",
	Short: "Serve one handler on the Lambda runtime",
	Long: `Starts the Lambda runtime loop with the handler named by the argument,
settings.handler or HOUSEKEEPER_SETTINGS_HANDLER. Credentials and user data
are read from the function environment (HOUSEKEEPER_ACCESS_KEY,
HOUSEKEEPER_USER_DATA_MAX_SAVETIME and so on).`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		name := a.Config.Settings.Handler
		if len(args) == 1 {
			name = args[0]
		}
		handlers, err := lambda.NewHandlers(a, a.Invocation, a.Logger)
		if err != nil {
			return err
		}
		return handlers.Start(name)
	},
}
