package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/spf13/cobra"

	"github.com/loykin/vigil"
	"github.com/loykin/vigil/pkg/client"
)

func createRootCommand(flags *GlobalFlags) *cobra.Command {
	root := &cobra.Command{
		Use:           "vigil",
		Short:         "Container-embedded application supervisor",
		Long:          "vigil launches a virtual display and an application, deprioritizes browser helper processes, polls the app's health endpoint, and exits non-zero when it stays unhealthy so the orchestrator restarts the container.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&flags.ConfigPath, "config", "c", "", "path to TOML config file")
	return root
}

func createRunCommand(gf *GlobalFlags, rf *RunFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Launch and supervise the application with health monitoring",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sup, cfg, err := buildSupervisor(cmd, gf, rf)
			if err != nil {
				return err
			}
			if err := vigil.RegisterMetricsDefault(); err != nil {
				return err
			}
			if err := sup.Start(); err != nil {
				return err
			}
			if cfg.Server.Enabled {
				if _, err := vigil.NewAdminServer(cfg.Server, sup); err != nil {
					return fmt.Errorf("admin server: %w", err)
				}
			}
			return sup.Run(context.Background())
		},
	}
	addRunFlags(cmd, rf)
	return cmd
}

func createLaunchCommand(gf *GlobalFlags, rf *RunFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "launch",
		Short: "Launch the application and wait, without health monitoring",
		Long:  "Degraded mode: starts the display backend and the application, then blocks until the application exits, mirroring its exit status. No probing, no escalation.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sup, _, err := buildSupervisor(cmd, gf, rf)
			if err != nil {
				return err
			}
			if err := sup.Start(); err != nil {
				return err
			}
			err = sup.WaitApp()
			var ee *exec.ExitError
			if errors.As(err, &ee) {
				return exitCodeError{code: ee.ExitCode()}
			}
			return err
		},
	}
	addRunFlags(cmd, rf)
	return cmd
}

func createStatusCommand(sf *StatusFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Query a running supervisor's admin endpoint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := client.New(client.Config{
				BaseURL:  sf.APIUrl,
				Timeout:  sf.APITimeout,
				Insecure: sf.Insecure,
			})
			ctx, cancel := context.WithTimeout(context.Background(), sf.APITimeout)
			defer cancel()
			st, err := c.Status(ctx)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(st)
		},
	}
	cmd.Flags().StringVar(&sf.APIUrl, "api-url", client.DefaultConfig().BaseURL, "admin API base URL")
	cmd.Flags().DurationVar(&sf.APITimeout, "api-timeout", 10*time.Second, "admin API request timeout")
	cmd.Flags().BoolVar(&sf.Insecure, "insecure", false, "skip TLS certificate verification")
	return cmd
}

func addRunFlags(cmd *cobra.Command, rf *RunFlags) {
	f := cmd.Flags()
	f.StringVar(&rf.AppCommand, "app-command", "", "application command line")
	f.StringVar(&rf.HealthURL, "health-url", "", "health endpoint URL")
	f.DurationVar(&rf.Interval, "interval", 0, "poll interval between probes")
	f.DurationVar(&rf.Timeout, "timeout", 0, "per-probe request timeout")
	f.IntVar(&rf.Threshold, "failure-threshold", 0, "consecutive failures before termination")
	f.DurationVar(&rf.Grace, "grace", 0, "grace period before forceful kill")
	f.BoolVar(&rf.NoDisplay, "no-display", false, "skip launching the virtual display backend")
	f.StringVar(&rf.HistoryStore, "history-store", "", "history sink DSN (sqlite/postgres/clickhouse/opensearch)")
	f.BoolVar(&rf.Serve, "serve", false, "enable the admin/status HTTP server")
	f.StringVar(&rf.Listen, "listen", "", "admin server listen address")
}

// buildSupervisor loads config, applies explicit flag overrides, and wires
// the supervisor.
func buildSupervisor(cmd *cobra.Command, gf *GlobalFlags, rf *RunFlags) (*vigil.Supervisor, *vigil.Config, error) {
	cfg, err := vigil.LoadConfig(gf.ConfigPath)
	if err != nil {
		return nil, nil, err
	}
	applyOverrides(cmd, cfg, rf)
	sup, err := vigil.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return sup, cfg, nil
}

func applyOverrides(cmd *cobra.Command, cfg *vigil.Config, rf *RunFlags) {
	f := cmd.Flags()
	if f.Changed("app-command") {
		cfg.App.Command = rf.AppCommand
	}
	if f.Changed("health-url") {
		cfg.Health.URL = rf.HealthURL
	}
	if f.Changed("interval") {
		cfg.Health.Interval = rf.Interval
	}
	if f.Changed("timeout") {
		cfg.Health.Timeout = rf.Timeout
	}
	if f.Changed("failure-threshold") {
		cfg.Health.FailureThreshold = rf.Threshold
	}
	if f.Changed("grace") {
		cfg.Shutdown.Grace = rf.Grace
	}
	if f.Changed("no-display") {
		cfg.Display.Enabled = !rf.NoDisplay
	}
	if f.Changed("history-store") {
		cfg.History.Store = rf.HistoryStore
	}
	if f.Changed("serve") {
		cfg.Server.Enabled = rf.Serve
	}
	if f.Changed("listen") {
		cfg.Server.Listen = rf.Listen
	}
}
