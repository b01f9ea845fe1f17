package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/WattMatt/greencalc-sa-sub011/internal/analysis"
	cfgpkg "github.com/WattMatt/greencalc-sa-sub011/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set loadprofile configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "No config loaded")
			return nil
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "voltage_v: %.1f\n", cfg.VoltageV)
		fmt.Fprintf(w, "power_factor: %.3f\n", cfg.PowerFactor)
		fmt.Fprintf(w, "value_unit: %s\n", cfg.ValueUnit)
		fmt.Fprintf(w, "date_order: %s\n", cfg.DateOrder)
		fmt.Fprintf(w, "max_peak_kw: %.1f\n", cfg.MaxPeakKW)
		fmt.Fprintf(w, "output_format: %s\n", cfg.OutputFormat)
		fmt.Fprintf(w, "log_format: %s\n", cfg.LogFormat)
		fmt.Fprintf(w, "batch_workers: %d\n", cfg.BatchWorkers)
		fmt.Fprintf(w, "serve_addr: %s\n", cfg.ServeAddr)
		if len(cfg.CORSOrigins) > 0 {
			fmt.Fprintf(w, "cors_origins: %s\n", strings.Join(cfg.CORSOrigins, ","))
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		switch key {
		case "voltage_v":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil || f <= 0 {
				return fmt.Errorf("invalid float for voltage_v: %v", val)
			}
			cfg.VoltageV = f
		case "power_factor":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil || f <= 0 || f > 1 {
				return fmt.Errorf("invalid power_factor: %v (use 0 < pf <= 1)", val)
			}
			cfg.PowerFactor = f
		case "value_unit":
			u, err := analysis.ParseUnit(val)
			if err != nil {
				return err
			}
			cfg.ValueUnit = string(u)
		case "date_order":
			if strings.EqualFold(val, "auto") {
				cfg.DateOrder = "auto"
				break
			}
			o, err := analysis.ParseDateOrder(val)
			if err != nil {
				return err
			}
			cfg.DateOrder = string(o)
		case "max_peak_kw":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil || f <= 0 {
				return fmt.Errorf("invalid float for max_peak_kw: %v", val)
			}
			cfg.MaxPeakKW = f
		case "output_format":
			switch strings.ToLower(val) {
			case "markdown", "md":
				cfg.OutputFormat = "markdown"
			case "json":
				cfg.OutputFormat = "json"
			default:
				return fmt.Errorf("invalid output_format: %s (use markdown or json)", val)
			}
		case "log_format":
			switch strings.ToLower(val) {
			case "text", "json":
				cfg.LogFormat = strings.ToLower(val)
			default:
				return fmt.Errorf("invalid log_format: %s (use text or json)", val)
			}
		case "batch_workers":
			i, err := strconv.Atoi(val)
			if err != nil || i < 1 {
				return fmt.Errorf("invalid int for batch_workers: %v", val)
			}
			cfg.BatchWorkers = i
		case "serve_addr":
			cfg.ServeAddr = val
		case "cors_origins":
			var origins []string
			for _, o := range strings.Split(val, ",") {
				if o = strings.TrimSpace(o); o != "" {
					origins = append(origins, o)
				}
			}
			cfg.CORSOrigins = origins
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
