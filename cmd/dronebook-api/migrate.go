// README: migrate and sweep one-shot subcommands.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"dronebook/internal/infra"
)

func migrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Apply, roll back or list database migrations",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(infra.MigrateUp), string(infra.MigrateDown), string(infra.MigrateStatus)},
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := infra.MigrateDirection(args[0])
			switch dir {
			case infra.MigrateUp, infra.MigrateDown, infra.MigrateStatus:
			default:
				return fmt.Errorf("unknown direction %q (want up, down or status)", args[0])
			}

			a, err := newApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.close()
			pool, err := a.requirePostgres()
			if err != nil {
				return err
			}
			if err := infra.Migrate(cmd.Context(), pool, dir); err != nil {
				fmt.Printf("migrate %s: %s\n", dir, color.New(color.FgRed).Sprint("FAILED"))
				return err
			}
			fmt.Printf("migrate %s: %s\n", dir, color.New(color.FgGreen).Sprint("OK"))
			return nil
		},
	}
}

func sweepCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run one status sweeper pass and print what it changed",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.close()

			sw, closeLocker := newSweeper(a)
			defer closeLocker()
			res, err := sw.Sweep(cmd.Context())
			if err != nil {
				fmt.Printf("sweep: %s\n", color.New(color.FgRed).Sprint("FAILED"))
				return err
			}
			fmt.Printf("sweep at %s: scanned %d\n", res.At.Format("2006-01-02 15:04:05 MST"), res.Scanned)
			fmt.Printf("  cancelled  %s\n", color.New(color.FgYellow).Sprint(res.Cancelled))
			fmt.Printf("  started    %s\n", color.New(color.FgBlue).Sprint(res.Started))
			fmt.Printf("  completed  %s\n", color.New(color.FgGreen).Sprint(res.Completed))
			if res.Skipped > 0 {
				fmt.Printf("  skipped    %s (malformed schedule)\n", color.New(color.FgRed).Sprint(res.Skipped))
			}
			return nil
		},
	}
}
