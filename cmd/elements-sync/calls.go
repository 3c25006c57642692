// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/elements-sync/internal/store"
	"github.com/pdiddy/elements-sync/pkg/types"
)

var callsCmd = &cobra.Command{
	Use:   "calls",
	Short: "List logged outbound calls",
	Long: `Calls lists entries from the outbound call log. By default it shows calls
still waiting for a response. With --prunable it shows successful calls
older than --weeks weeks, which are safe to delete. With --url it shows
every attempt made to one registry URL.`,
	Args: cobra.NoArgs,
	RunE: runCalls,
}

func init() {
	callsCmd.Flags().Bool("prunable", false, "list successful calls older than --weeks")
	callsCmd.Flags().Int("weeks", 2, "age threshold in weeks for --prunable")
	callsCmd.Flags().String("url", "", "list every call to this request URL")
	callsCmd.Flags().String("format", store.FormatText, "output format: text, json, or yaml")
	callsCmd.Flags().Bool("bodies", false, "include request and response bodies")

	rootCmd.AddCommand(callsCmd)
}

func runCalls(cmd *cobra.Command, args []string) error {
	prunable, _ := cmd.Flags().GetBool("prunable")
	weeks, _ := cmd.Flags().GetInt("weeks")
	url, _ := cmd.Flags().GetString("url")
	format, _ := cmd.Flags().GetString("format")
	bodies, _ := cmd.Flags().GetBool("bodies")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := store.Open(cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	var calls []types.OutboundCall
	switch {
	case url != "":
		calls, err = st.CallsForURL(ctx, url)
	case prunable:
		calls, err = st.PrunableCalls(ctx, time.Now().AddDate(0, 0, -7*weeks))
	default:
		calls, err = st.UnansweredCalls(ctx)
	}
	if err != nil {
		return err
	}
	return store.WriteCalls(os.Stdout, calls, format, bodies)
}
