package main

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Mola-TT/hwtune/pkg/hwtune/hardware"
	"github.com/Mola-TT/hwtune/pkg/hwtune/notify"
)

var testEmailCmd = &cobra.Command{
	Use:   "test-email",
	Short: "Exercise the notifier end to end",
	Long: `Send a test notification through the configured mail transport without
a real hardware change. The cooldown window applies, so a skipped send
is reported rather than treated as a failure.`,
	Args: cobra.NoArgs,
	RunE: runTestEmail,
}

func init() {
	rootCmd.AddCommand(testEmailCmd)
}

func runTestEmail(_ *cobra.Command, _ []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	spec := hardware.NewInspector(cfg.DiskRoot).Specs()
	notifier := notify.New(notify.Config{
		SMTPHost:     cfg.Notify.SMTPHost,
		SMTPPort:     cfg.Notify.SMTPPort,
		Username:     cfg.Notify.Username,
		Password:     cfg.Notify.Password,
		From:         cfg.Notify.From,
		To:           cfg.Notify.To,
		Cooldown:     cfg.Notify.Cooldown,
		CooldownPath: cfg.Notify.CooldownPath,
	})

	result, err := notifier.Notify(notify.EventTest, map[string]string{
		"hostname":  spec.Hostname,
		"cpu_cores": strconv.Itoa(spec.CPUCores),
		"memory_gb": strconv.Itoa(spec.MemoryGB),
		"disk_gb":   strconv.Itoa(spec.DiskGB),
		"sent_at":   time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	if result.Skipped {
		printInfo("Notification skipped: %s", result.Reason)
		return nil
	}
	printInfo("Test notification sent to %d recipients", len(cfg.Notify.To))
	return nil
}
