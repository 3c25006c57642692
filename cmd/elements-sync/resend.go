// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var resendCmd = &cobra.Command{
	Use:   "resend",
	Short: "Replay outbound calls that never got a response",
	Long: `Resend finds every logged status update that has no response status and
has not been retried, and submits it again. Each replay is logged as a
retry of the unanswered call, so running resend twice does not replay the
same call twice.`,
	Args: cobra.NoArgs,
	RunE: runResend,
}

func init() {
	rootCmd.AddCommand(resendCmd)
}

func runResend(cmd *cobra.Command, args []string) error {
	env, err := openEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	results, err := env.updater().ResendUnanswered(cmd.Context())
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Fprintln(os.Stdout, "no unanswered calls")
		return nil
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(os.Stdout, "failed  %s  %s: %v\n", r.CallID, r.URL, r.Err)
			continue
		}
		fmt.Fprintf(os.Stdout, "resent  %s  %s\n", r.CallID, r.URL)
	}
	fmt.Fprintf(os.Stdout, "\n%d resent, %d failed\n", len(results)-failed, failed)
	if failed > 0 {
		return fmt.Errorf("%d replays failed", failed)
	}
	return nil
}
