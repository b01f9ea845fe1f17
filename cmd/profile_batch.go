package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/WattMatt/greencalc-sa-sub011/internal/analysis"
	"github.com/WattMatt/greencalc-sa-sub011/internal/utils"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	pbFlags     profileFlags
	pbOutputDir string
	pbWorkers   int
	pbQuiet     bool
)

var profileBatchCmd = &cobra.Command{
	Use:   "profile-batch <files...>",
	Short: "Profile many exports concurrently (globs allowed)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := utils.ExpandInputs(args)
		if err != nil {
			return err
		}
		format, err := pbFlags.outputFormat(cmd)
		if err != nil {
			return err
		}
		workers := cfg.BatchWorkers
		if cmd.Flags().Changed("workers") && pbWorkers > 0 {
			workers = pbWorkers
		}
		if pbOutputDir != "" {
			if err := os.MkdirAll(pbOutputDir, 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
		}

		out := cmd.OutOrStdout()
		total := len(files)
		reports := make([]*analysis.Report, total)

		g := new(errgroup.Group)
		g.SetLimit(workers)
		for i, path := range files {
			i, path := i, path // per-iteration copies; go directive is 1.21 (pre-1.22 loop semantics)
			g.Go(func() error {
				rep, err := pbFlags.buildReport(cmd, path, uuid.NewString())
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				reports[i] = rep
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		// output is written in input order once every file has been read
		taken := map[string]bool{}
		rejected := 0
		for i, rep := range reports {
			if !pbQuiet {
				fmt.Fprintf(out, "[%d/%d] %s: %s\n", i+1, total, files[i], verdictLine(rep))
			}
			if !rep.Verdict.IsValid {
				rejected++
			}
			if pbOutputDir == "" {
				if !pbQuiet {
					b, err := render(rep, format)
					if err != nil {
						return err
					}
					fmt.Fprintln(out, string(b))
				}
				continue
			}
			b, err := render(rep, format)
			if err != nil {
				return err
			}
			ext := ".md"
			if format == "json" {
				ext = ".json"
			}
			base := filepath.Base(files[i])
			dest := utils.UniquePath(pbOutputDir, strings.TrimSuffix(base, filepath.Ext(base))+".profile", ext, taken)
			if err := utils.SafeWriteFile(dest, b); err != nil {
				return fmt.Errorf("write %s: %w", dest, err)
			}
			if !pbQuiet {
				fmt.Fprintf(out, "✓ Wrote %s\n", dest)
			}
		}
		if !pbQuiet {
			fmt.Fprintf(out, "Processed %d file(s), %d rejected\n", total, rejected)
		}
		if pbFlags.strict && rejected > 0 {
			return fmt.Errorf("%d of %d profile(s) rejected", rejected, total)
		}
		return nil
	},
}

func verdictLine(rep *analysis.Report) string {
	if rep.Verdict.IsValid {
		return fmt.Sprintf("✓ %.2f kWh, peak %.2f kW", rep.Result.Profile.TotalKwh, rep.Result.Profile.PeakKw)
	}
	return fmt.Sprintf("⚠ %s: %s", rep.Verdict.ReasonCode, rep.Verdict.Message)
}

func init() {
	rootCmd.AddCommand(profileBatchCmd)
	pbFlags.register(profileBatchCmd)
	profileBatchCmd.Flags().StringVar(&pbOutputDir, "output-dir", "", "directory to write one profile per input file")
	profileBatchCmd.Flags().IntVar(&pbWorkers, "workers", 0, "files processed in parallel (overrides config)")
	profileBatchCmd.Flags().BoolVar(&pbQuiet, "quiet", false, "suppress progress and non-essential output")
}
