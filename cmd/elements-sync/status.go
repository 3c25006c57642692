// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var sendStatusCmd = &cobra.Command{
	Use:   "send-status PAPER_ID",
	Short: "Mark a publication as full text requested in the registry",
	Long: `Send-status PATCHes the registry publication with a "full text requested"
library status, noting the date and the requesting liaison. Every attempt
is recorded in the outbound call log; transient registry failures are
retried with exponential backoff.`,
	Args: cobra.ExactArgs(1),
	RunE: runSendStatus,
}

func init() {
	sendStatusCmd.Flags().String("username", "", "liaison username recorded in the status note")
	sendStatusCmd.MarkFlagRequired("username")

	rootCmd.AddCommand(sendStatusCmd)
}

func runSendStatus(cmd *cobra.Command, args []string) error {
	username, _ := cmd.Flags().GetString("username")

	env, err := openEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	if err := env.updater().SendStatusUpdate(cmd.Context(), args[0], username); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "status updated for publication %s\n", args[0])
	return nil
}
