package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ptrack/pkg/config"
	"ptrack/pkg/covalent"
	"ptrack/pkg/models"
)

var (
	checkJSON    bool
	checkProbe   bool
	checkAddress string
)

var errCheckFailed = errors.New("configuration check failed")

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Test configuration and exit",
	Long: `Validate the configuration file and environment. With --probe, request the
native balance of a probe address on every supported network to confirm the
API key and base URL work.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "output test results as JSON")
	checkCmd.Flags().BoolVar(&checkProbe, "probe", false, "query the API on every network")
	checkCmd.Flags().StringVar(&checkAddress, "address", common.Address{}.Hex(), "address used by --probe")
}

func runCheck(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	path, cfg, err := loadConfig()
	if err != nil {
		return err
	}

	report := models.CheckReport{
		ConfigPath:     path,
		ValidStructure: true,
		APIKeyPresent:  cfg.APIKey != "",
		BaseURL:        cfg.BaseURL,
		FetchMode:      cfg.FetchMode,
	}

	if !checkJSON {
		fmt.Fprintf(out, "Testing configuration at: %s\n", path)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		report.ValidStructure = false
		report.StructureErrors = errs
		if !checkJSON {
			for _, e := range errs {
				fmt.Fprintf(out, "Error: %s\n", color.RedString(e))
			}
		}
		if checkJSON {
			writeReport(out, report)
		}
		return errCheckFailed
	}

	if !checkJSON {
		fmt.Fprintf(out, "Base URL: %s\n", cfg.BaseURL)
		fmt.Fprintf(out, "Fetch mode: %s, default network: %s\n", cfg.FetchMode, cfg.DefaultNetwork)
		if report.APIKeyPresent {
			fmt.Fprintf(out, "API key: %s\n", color.GreenString("present"))
		} else {
			fmt.Fprintf(out, "API key: %s (set COVALENT_API_KEY or %s_API_KEY)\n", color.YellowString("missing"), config.EnvPrefix)
		}
	}

	if checkProbe {
		report.Probed = true
		client := covalent.NewClient(cfg.ClientOptions(), nil)
		report.Networks = probeNetworks(cmd.Context(), client, cfg, out)
	}

	if checkJSON {
		writeReport(out, report)
	}
	for _, n := range report.Networks {
		if n.Status == "error" {
			return errCheckFailed
		}
	}
	return nil
}

func probeNetworks(ctx context.Context, client *covalent.Client, cfg *config.Config, out io.Writer) []models.CheckResult {
	var results []models.CheckResult
	for _, n := range models.Networks {
		res := models.CheckResult{Network: n.ID}
		if !checkJSON {
			fmt.Fprintf(out, "  %s ... ", n.Label)
		}
		if cfg.APIKey == "" {
			res.Status = "skipped"
			res.Error = "no API key"
			if !checkJSON {
				fmt.Fprintln(out, color.YellowString("skipped (no API key)"))
			}
			results = append(results, res)
			continue
		}

		reqCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout())
		items, err := client.GetNativeBalance(reqCtx, n.ID, checkAddress)
		cancel()
		if err != nil {
			res.Status = "error"
			res.Error = err.Error()
			if !checkJSON {
				fmt.Fprintf(out, "%s\n", color.RedString("Failed: %v", err))
			}
		} else {
			res.Status = "ok"
			res.Items = len(items)
			if !checkJSON {
				fmt.Fprintln(out, color.GreenString("OK"))
			}
		}
		results = append(results, res)
	}
	return results
}

func writeReport(w io.Writer, report models.CheckReport) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(report)
}
