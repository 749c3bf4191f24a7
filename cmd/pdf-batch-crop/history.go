package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdf-batch-crop/internal/batch"
	"github.com/pdiddy/pdf-batch-crop/internal/config"
	"github.com/pdiddy/pdf-batch-crop/internal/journal"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent runs from the run journal",
	Long: `History lists the most recent batch runs recorded in the SQLite run
journal, newest first. The journal path comes from --journal or from the
journal key of the DEFAULTS section.

Use --source with a PDF path to count how many runs processed it.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().String(config.KeyJournal, "", "SQLite run journal path")
	historyCmd.Flags().Int("limit", 20, "maximum number of runs to show")
	historyCmd.Flags().Bool("yaml", false, "print runs as YAML")
	historyCmd.Flags().String("source", "", "count the runs that processed this PDF")

	rootCmd.AddCommand(historyCmd)
}

// journalPath returns --journal, or the journal key of the config file.
func journalPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString(config.KeyJournal); p != "" {
		return p, nil
	}
	cfgFile, _ := cmd.Flags().GetString("config")
	src, err := config.Load(config.NewViper(cfgFile))
	if err != nil {
		return "", err
	}
	if p := src.Get(config.SectionDefaults, config.KeyJournal); p != "" {
		return p, nil
	}
	return "", fmt.Errorf("no run journal configured (set --journal or DEFAULTS.journal)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	path, err := journalPath(cmd)
	if err != nil {
		return err
	}
	j, err := journal.Open(path)
	if err != nil {
		return err
	}
	defer j.Close()

	ctx := cmd.Context()
	w := cmd.OutOrStdout()

	if source, _ := cmd.Flags().GetString("source"); source != "" {
		n, err := j.Processed(ctx, source)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s: processed in %d run%s\n", source, n, batch.Plural(n))
		return nil
	}

	limit, _ := cmd.Flags().GetInt("limit")
	if asYAML, _ := cmd.Flags().GetBool("yaml"); asYAML {
		return j.ExportYAML(ctx, w, limit)
	}

	runs, err := j.Recent(ctx, limit)
	if err != nil {
		return err
	}
	printRuns(w, runs)
	return nil
}

func printRuns(w io.Writer, runs []journal.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}
	for _, r := range runs {
		fmt.Fprintf(w, "#%d  %s  %d PDF file%s, %d page%s in %.2fs  %s\n",
			r.ID, r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Files, batch.Plural(r.Files), r.InputPages, batch.Plural(r.InputPages),
			r.Elapsed.Seconds(), r.Directory)
		if r.MergedPath != "" {
			fmt.Fprintf(w, "    merged %d page%s into %s\n", r.MergedPages, batch.Plural(r.MergedPages), r.MergedPath)
		}
		for _, d := range r.Documents {
			fmt.Fprintf(w, "    %s  %d -> %d\n", d.Source, d.TotalPages, d.ProcessedPages)
		}
	}
}
