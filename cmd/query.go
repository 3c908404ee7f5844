package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	jsoniter "github.com/json-iterator/go"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"ptrack/pkg/display"
	"ptrack/pkg/explorer"
	"ptrack/pkg/models"
	"ptrack/pkg/state"
	"ptrack/pkg/utils"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	queryNetwork string
	queryJSON    bool
)

var queryCmd = &cobra.Command{
	Use:   "query ADDRESS",
	Short: "Fetch and print the holdings of one wallet",
	Long: `Run one fetch cycle for ADDRESS and print the currency card, the tokens
table and the NFTs table.

Supported networks: eth-mainnet, bsc-mainnet, matic-mainnet, fantom-mainnet

Examples:
  ptrack query 0xABC...                        # Default network
  ptrack query 0xABC... --network matic-mainnet
  ptrack query 0xABC... --json                 # Machine readable page`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVarP(&queryNetwork, "network", "n", "", "network to query (default from config)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "print the page as JSON")
}

func runQuery(cmd *cobra.Command, args []string) error {
	a, err := newApp(appOneShot)
	if err != nil {
		return err
	}
	defer a.close()

	network := queryNetwork
	if network == "" {
		network = string(a.cfg.Network())
	}

	var bar *progressbar.ProgressBar
	done := make(chan struct{})
	sub := a.explorer.Subscribe()
	if !queryJSON {
		bar = newFetchBar(cmd.ErrOrStderr())
	}
	go func() {
		defer close(done)
		for ev := range sub {
			if bar == nil {
				continue
			}
			switch ev.Type {
			case explorer.EventNativeUpdated:
				_ = bar.Add(1)
				bar.Describe("[cyan][2/3][reset] Fetching tokens...")
			case explorer.EventTokensUpdated:
				_ = bar.Add(1)
				bar.Describe("[cyan][3/3][reset] Fetching NFTs...")
			case explorer.EventNFTsUpdated:
				_ = bar.Add(1)
			case explorer.EventCycleFinished:
				bar.Describe("[green][✓][reset] Done")
				_ = bar.Finish()
			}
		}
	}()

	st, err := a.explorer.Explore(cmd.Context(), args[0], network)
	a.explorer.Unsubscribe(sub)
	<-done
	if bar != nil {
		fmt.Fprintln(cmd.ErrOrStderr())
	}
	if err != nil {
		var verr *state.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("%s", verr.Error())
		}
		return err
	}

	out := cmd.OutOrStdout()
	if queryJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(display.Page(st))
	}
	printPage(out, st)
	return nil
}

func newFetchBar(w io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(3,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription("[cyan][1/3][reset] Fetching native balance..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:     "[green]=[reset]",
			SaucerHead: "[green]>[reset]",
			BarStart:   "[",
			BarEnd:     "]",
		}),
	)
}

func printPage(w io.Writer, st state.ViewState) {
	summary := display.Summary(st)
	info := st.Network.Info()

	fmt.Fprintf(w, "Address:  %s\n", color.CyanString(utils.DisplayAddress(st.Address)))
	fmt.Fprintf(w, "Network:  %s (%s)\n", info.Label, st.Network)
	fmt.Fprintln(w)

	if st.Native.Status == models.StatusFailed {
		fmt.Fprintf(w, "Currency: %s\n", color.RedString("failed: %v", st.Native.Err))
	} else {
		fmt.Fprintf(w, "Currency: %s  %s\n", color.GreenString(summary.Currency()), summary.NativeQuote)
	}
	fmt.Fprintf(w, "Tokens:   %s\n", countOrFailure(summary.TokenCountText(), st.Tokens.Status, st.Tokens.Err))
	fmt.Fprintf(w, "NFTs:     %s\n", countOrFailure(summary.NFTCountText(), st.NFTs.Status, st.NFTs.Err))

	fmt.Fprintln(w)
	fmt.Fprintln(w, color.New(color.Bold).Sprint("Tokens"))
	if rows := display.TokenRows(st); len(rows) > 0 {
		fmt.Fprintf(w, "  %-4s %-22s %-10s %24s %14s\n", "SN", "Token", "Symbol", "Amount", "Value")
		for _, r := range rows {
			fmt.Fprintf(w, "  %-4d %-22s %-10s %24s %14s\n",
				r.SN,
				utils.TruncateString(r.Name, 22),
				utils.TruncateString(r.Symbol, 10),
				utils.TruncateString(r.Amount, 24),
				r.Value)
		}
	} else if st.Tokens.Ok() {
		fmt.Fprintln(w, "  No tokens found.")
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, color.New(color.Bold).Sprint("NFTs"))
	if rows := display.NFTRows(st); len(rows) > 0 {
		fmt.Fprintf(w, "  %-4s %-22s %-10s %-42s %14s\n", "SN", "NFT", "Symbol", "Contract Address", "Floor Price")
		for _, r := range rows {
			fmt.Fprintf(w, "  %-4d %-22s %-10s %-42s %14s\n",
				r.SN,
				utils.TruncateString(r.Name, 22),
				utils.TruncateString(r.Symbol, 10),
				utils.DisplayAddress(r.ContractAddress),
				r.FloorPrice)
		}
	} else if st.NFTs.Ok() {
		fmt.Fprintln(w, "  No NFTs found.")
	}
}

func countOrFailure(count string, status models.Status, err error) string {
	if status == models.StatusFailed {
		return color.RedString("failed: %v", err)
	}
	return strings.TrimSpace(count)
}
