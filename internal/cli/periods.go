package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var periodsCmd = &cobra.Command{
	Use:   "periods <input-file>",
	Short: "Compute possible observation periods",
	Long: `Compute the visibility windows for every block in an input file
without running the scheduler.

The input document is the same one "run" accepts; only the instrument,
the execution period, and the scheduling blocks are used. The periods
are printed to stdout as JSON, one entry per block.`,
	Args: cobra.ExactArgs(1),
	RunE: runPeriods,
}

func init() {
	rootCmd.AddCommand(periodsCmd)
}

func runPeriods(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	applyLogging(cfg)

	input, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading input file: %w", err)
	}

	var doc struct {
		Instrument      json.RawMessage `json:"instrument"`
		ExecutionPeriod json.RawMessage `json:"executionPeriod"`
		Blocks          json.RawMessage `json:"schedulingBlocks"`
	}
	if err := json.Unmarshal(input, &doc); err != nil {
		return fmt.Errorf("invalid input: %w", err)
	}

	contextCfg, err := json.Marshal(struct {
		Instrument      json.RawMessage `json:"instrument,omitempty"`
		ExecutionPeriod json.RawMessage `json:"executionPeriod,omitempty"`
	}{doc.Instrument, doc.ExecutionPeriod})
	if err != nil {
		return err
	}

	session := newSession(cfg)

	ctx, err := session.CreateContext(contextCfg)
	if err != nil {
		return err
	}
	defer session.DestroyContext(ctx)

	blocksH, err := session.LoadBlocks(doc.Blocks)
	if err != nil {
		return err
	}
	defer session.DestroyBlocks(blocksH)

	periodsH, err := session.ComputePossiblePeriods(ctx, blocksH)
	if err != nil {
		return err
	}
	defer session.DestroyPossiblePeriods(periodsH)

	out, err := session.ExportPossiblePeriods(periodsH)
	if err != nil {
		return err
	}

	fmt.Println(string(out))
	return nil
}
