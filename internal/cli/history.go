package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/meridian-obs/skysched/internal/store"
)

var (
	historyLimit int
	historyPage  int
	historyJSON  bool
	historyPrune time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Run history utilities",
	Long: `Inspect and manage the run history database.

Examples:
  skysched history list             List recent runs
  skysched history show <run-id>    Print one run, schedule included
  skysched history delete <run-id>  Delete one run
  skysched history prune --older-than 720h`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs",
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one run",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete one run",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryDelete,
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete runs older than a cutoff",
	RunE:  runHistoryPrune,
}

func init() {
	historyListCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum runs to list")
	historyListCmd.Flags().IntVar(&historyPage, "page", 0, "Page offset")
	historyListCmd.Flags().BoolVar(&historyJSON, "json", false, "Print as JSON")
	historyPruneCmd.Flags().DurationVar(&historyPrune, "older-than", 30*24*time.Hour, "Delete runs older than this")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyDeleteCmd)
	historyCmd.AddCommand(historyPruneCmd)

	rootCmd.AddCommand(historyCmd)
}

// openStore opens the history database for one history subcommand.
func openStore() (*store.Store, func(), error) {
	cfg := loadConfig()
	applyLogging(cfg)

	db, err := store.Open(&cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("opening history database: %w", err)
	}
	return store.NewStore(db), func() { _ = db.Close() }, nil
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	runs, closeDB, err := openStore()
	if err != nil {
		return err
	}
	defer closeDB()

	records, err := runs.List(cmd.Context(), historyLimit, historyPage*historyLimit)
	if err != nil {
		return err
	}

	if historyJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	fmt.Printf("%-36s %-20s %-8s %-10s %-11s %s\n", "ID", "CREATED", "SOURCE", "STATUS", "SCHEDULED", "FITNESS")
	for _, r := range records {
		scheduled := fmt.Sprintf("%d/%d", r.ScheduledCount, r.TotalBlocks)
		fmt.Printf("%-36s %-20s %-8s %-10s %-11s %.3f\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Source, r.Status, scheduled, r.Fitness)
	}
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	runs, closeDB, err := openStore()
	if err != nil {
		return err
	}
	defer closeDB()

	record, err := runs.Get(cmd.Context(), args[0])
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("run %q not found", args[0])
	}
	if err != nil {
		return err
	}

	out := struct {
		*store.Run
		Input    json.RawMessage `json:"input,omitempty"`
		Schedule json.RawMessage `json:"schedule,omitempty"`
	}{record, record.Input, record.Schedule}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	runs, closeDB, err := openStore()
	if err != nil {
		return err
	}
	defer closeDB()

	if err := runs.Delete(cmd.Context(), args[0]); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("run %q not found", args[0])
		}
		return err
	}
	fmt.Printf("Run %s deleted.\n", args[0])
	return nil
}

func runHistoryPrune(cmd *cobra.Command, args []string) error {
	runs, closeDB, err := openStore()
	if err != nil {
		return err
	}
	defer closeDB()

	cutoff := time.Now().Add(-historyPrune)
	deleted, err := runs.Prune(cmd.Context(), cutoff)
	if err != nil {
		return err
	}
	fmt.Printf("Pruned %d runs older than %s.\n", deleted, cutoff.Format("2006-01-02 15:04:05"))
	return nil
}
