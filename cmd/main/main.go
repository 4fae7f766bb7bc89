package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"market-collector/src/orchestrator"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "market-collector",
	Short: "Option market reference data collector",
	Long: `market-collector refreshes option market reference data collections from an
AKTools provider into a document store, on demand or on a schedule.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

// -----------------------------------------------------------------------------

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API, the gRPC control server and the scheduler",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := bootstrap(ctx, configPath)
		if err != nil {
			return err
		}
		defer a.Close()

		stopServers, err := startServers(ctx, a)
		if err != nil {
			return err
		}

		<-ctx.Done()
		a.Logger.Info("Shutting down...")
		stopServers()
		return nil
	},
}

// -----------------------------------------------------------------------------

var refreshCmd = &cobra.Command{
	Use:   "refresh <collection>",
	Short: "Refresh one collection in the foreground",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		modeFlag, _ := cmd.Flags().GetString("mode")
		params, _ := cmd.Flags().GetStringToString("param")

		mode, err := orchestrator.ParseMode(modeFlag)
		if err != nil {
			return err
		}

		a, err := bootstrap(cmd.Context(), configPath)
		if err != nil {
			return err
		}
		defer a.Close()

		if params == nil {
			params = map[string]string{}
		}
		task := a.Tasks.Create(orchestrator.RefreshTaskType, args[0]+" ("+string(mode)+")")
		res := a.Orch.RefreshCollection(cmd.Context(), args[0], mode, params, task.ID)
		if err := printJSON(cmd, res); err != nil {
			return err
		}
		if !res.Success {
			return fmt.Errorf("refresh of %s failed", args[0])
		}
		return nil
	},
}

// -----------------------------------------------------------------------------

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "List the supported collections with their stored counts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := bootstrap(cmd.Context(), configPath)
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		for _, d := range a.Orch.ListSupportedCollections() {
			stats := a.Orch.GetCollectionStats(cmd.Context(), d.Name)
			fmt.Fprintf(out, "%-45s %-28s single=%-5t batch=%-5t count=%d last=%s\n",
				d.Name, d.DisplayName, d.SingleUpdate.Enabled, d.BatchUpdate.Enabled, stats.TotalCount, stats.LastUpdate)
		}
		return nil
	},
}

// -----------------------------------------------------------------------------

var clearCmd = &cobra.Command{
	Use:   "clear <collection>",
	Short: "Delete every stored document of a collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context(), configPath)
		if err != nil {
			return err
		}
		defer a.Close()

		res := a.Orch.ClearCollection(cmd.Context(), args[0])
		if err := printJSON(cmd, res); err != nil {
			return err
		}
		if !res.Success {
			return fmt.Errorf("clear of %s failed: %s", args[0], res.Message)
		}
		return nil
	},
}

// -----------------------------------------------------------------------------

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newRootCmd() *cobra.Command {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config/default.yaml", "path to config file")

	refreshCmd.Flags().StringP("mode", "m", "single", "update mode: single or batch")
	refreshCmd.Flags().StringToStringP("param", "p", nil, "update parameter as key=value (repeatable)")

	rootCmd.AddCommand(serveCmd, refreshCmd, collectionsCmd, clearCmd)
	return rootCmd
}

// -----------------------------------------------------------------------------

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
