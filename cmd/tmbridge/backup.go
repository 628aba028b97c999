// cmd/tmbridge/backup.go
package main

import (
	"encoding/json"
	"errors"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tamzrod/timemachine-bridge/internal/config"
	"github.com/tamzrod/timemachine-bridge/internal/dispatch"
	"github.com/tamzrod/timemachine-bridge/internal/remote"
)

var backupFlags struct {
	url               string
	actionPath        string
	timeout           time.Duration
	smartBackup       bool
	maxBackupsEnabled bool
	maxBackups        int
	liveConfigPath    string
	backupFolder      string
	timezone          string
}

func init() {
	f := backupNowCmd.Flags()
	f.StringVar(&backupFlags.url, "url", "", "base URL of the Time Machine service (default $TM_URL or "+config.DefaultURL+")")
	f.StringVar(&backupFlags.actionPath, "action-path", remote.DefaultActionPath, "backup trigger path")
	f.DurationVar(&backupFlags.timeout, "timeout", dispatch.DefaultTimeout, "dispatch deadline")
	f.BoolVar(&backupFlags.smartBackup, "smart-backup", false, "only keep backups that differ from the previous one")
	f.BoolVar(&backupFlags.maxBackupsEnabled, "max-backups-enabled", false, "enable backup retention")
	f.IntVar(&backupFlags.maxBackups, "max-backups", 0, "number of backups to retain")
	f.StringVar(&backupFlags.liveConfigPath, "live-config-path", "", "live configuration folder to back up")
	f.StringVar(&backupFlags.backupFolder, "backup-folder", "", "destination folder for backups")
	f.StringVar(&backupFlags.timezone, "timezone", "", "timezone used to name the backup")
}

var backupNowCmd = &cobra.Command{
	Use:   "backup-now",
	Short: "trigger one backup on a Time Machine service",
	RunE: func(cmd *cobra.Command, args []string) error {
		base := backupFlags.url
		if base == "" {
			base = os.Getenv(config.EnvURL)
		}
		if base == "" {
			base = config.DefaultURL
		}

		ep, err := remote.NewEndpoint(base, "", backupFlags.actionPath)
		if err != nil {
			return err
		}

		level := logLevel
		if level == "" {
			level = "warn"
		}

		d, err := dispatch.New(dispatch.Config{
			InstanceID: "cli",
			Endpoint:   ep,
			Timeout:    backupFlags.timeout,
			Logger:     newLogger(level),
		}, remote.NewHTTPClient())
		if err != nil {
			return err
		}

		// only flags the user set end up on the wire
		payload := map[string]any{}
		flags := cmd.Flags()
		if flags.Changed("smart-backup") {
			payload[dispatch.FieldSmartBackupEnabled] = backupFlags.smartBackup
		}
		if flags.Changed("max-backups-enabled") {
			payload[dispatch.FieldMaxBackupsEnabled] = backupFlags.maxBackupsEnabled
		}
		if flags.Changed("max-backups") {
			if backupFlags.maxBackups < 1 {
				return errors.New("--max-backups must be >= 1")
			}
			payload[dispatch.FieldMaxBackupsCount] = backupFlags.maxBackups
		}
		if flags.Changed("live-config-path") {
			payload[dispatch.FieldLiveConfigPath] = backupFlags.liveConfigPath
		}
		if flags.Changed("backup-folder") {
			payload[dispatch.FieldBackupFolderPath] = backupFlags.backupFolder
		}
		if flags.Changed("timezone") {
			payload[dispatch.FieldTimezone] = backupFlags.timezone
		}

		res := d.Dispatch(cmd.Context(), dispatch.Request{Payload: payload})

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(res)

		if !res.Succeeded {
			return errors.New("backup trigger failed: " + res.Err)
		}
		return nil
	},
}
