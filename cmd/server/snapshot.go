package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/automacao-f5/dashboard-v1/internal/models"
	"github.com/automacao-f5/dashboard-v1/internal/telemetry"
)

var (
	snapshotPreset string
	snapshotPush   bool
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Compute consolidated metrics once and print them as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(os.Stderr)
		if err != nil {
			return err
		}
		a, err := wire(cfg, logger, telemetry.New())
		if err != nil {
			return err
		}
		preset := cfg.DefaultPreset
		if snapshotPreset != "" {
			preset = models.DatePreset(snapshotPreset)
		}

		if snapshotPush {
			_, err := a.exp.Run(cmd.Context(), preset)
			return err
		}
		// stdout carries only the document; logs go to stderr
		snap, err := a.exp.Build(cmd.Context(), preset)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	},
}

func init() {
	snapshotCmd.Flags().StringVar(&snapshotPreset, "preset", "", "date preset (defaults to DEFAULT_DATE_PRESET)")
	snapshotCmd.Flags().BoolVar(&snapshotPush, "push", false, "post the snapshot to SINK_URL instead of printing it")
}
