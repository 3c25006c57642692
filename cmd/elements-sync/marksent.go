// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var markSentCmd = &cobra.Command{
	Use:   "mark-sent RECORD_ID",
	Short: "Record that the request email for a record went out",
	Long: `Mark-sent stamps the email for a local record as sent, then pushes the
"full text requested" status for that record's publication to the registry.
Once marked, the publication is considered requested and later imports
reject it for every coauthor.`,
	Args: cobra.ExactArgs(1),
	RunE: runMarkSent,
}

func init() {
	markSentCmd.Flags().String("username", "", "liaison username recorded in the status note")
	markSentCmd.Flags().Bool("no-update", false, "mark the email sent without notifying the registry")
	markSentCmd.MarkFlagRequired("username")

	rootCmd.AddCommand(markSentCmd)
}

func runMarkSent(cmd *cobra.Command, args []string) error {
	recordID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid record ID %q: %w", args[0], err)
	}
	username, _ := cmd.Flags().GetString("username")
	noUpdate, _ := cmd.Flags().GetBool("no-update")

	env, err := openEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	ctx := cmd.Context()
	rec, err := env.store.MarkRecordSent(ctx, recordID, time.Now())
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "record %d (publication %s) marked sent\n", rec.ID, rec.PaperID)

	if noUpdate {
		return nil
	}
	if err := env.updater().SendStatusUpdate(ctx, rec.PaperID, username); err != nil {
		return fmt.Errorf("email marked sent but registry update failed (retry with \"resend\"): %w", err)
	}
	fmt.Fprintf(os.Stdout, "status updated for publication %s\n", rec.PaperID)
	return nil
}
