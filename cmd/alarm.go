package main

import (
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/olusolaa/cloud-housekeeper/internal/adapters/lambda"
)

var (
	alarmMessageFile string
	alarmSubject     string
)

var alarmCmd = &cobra.Command{
	Use:   "alarm",
	Short: "Mail the owner of the resource named in an alarm message",
	Long: `Reads one CloudWatch alarm state-change message (the JSON published to
SNS) and mails the owner tagged on the alarmed resource. SMTP settings come
from the user data: username, password, host, port and cc.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := readInput(cmd, alarmMessageFile)
		if err != nil {
			return err
		}
		alarm, err := lambda.DecodeAlarm(events.SNSEntity{Message: string(raw), Subject: alarmSubject})
		if err != nil {
			return err
		}

		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		outcome, err := a.HandleAlarm(cmd.Context(), a.Invocation, alarm)
		if err != nil {
			return err
		}
		out, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(outcome, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return outcome.Err
	},
}

func init() {
	alarmCmd.Flags().StringVarP(&alarmMessageFile, "message-file", "f", "-", "File holding the alarm JSON, '-' for stdin")
	alarmCmd.Flags().StringVar(&alarmSubject, "subject", "", "Mail subject (defaults to the alarm name)")
}
