package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/charmbracelet/lipgloss"
	"github.com/milk9111/discbox/prefabs"
	"github.com/milk9111/discbox/script"
	"github.com/spf13/cobra"
)

type RunParams struct {
	Scenarios []string `pos:"true" optional:"true" help:"Scenario names; all embedded scenarios when empty."`
	Prefabs   string   `long:"prefabs" help:"Directory checked for prefab overrides." default:"prefabs"`
	Seed      int      `long:"seed" help:"Seed for drop impulses and particle timing." default:"1"`
	Verbose   bool     `short:"v" help:"List every failed expectation."`
}

var (
	passStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	failStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	detailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func RunCmd() *cobra.Command {
	return boa.CmdT[RunParams]{
		Use:         "run",
		Short:       "Run jukebox scenarios against the sandbox world",
		ParamEnrich: paramEnricher(),
		RunFunc: func(params *RunParams, cmd *cobra.Command, args []string) {
			failed, err := runScenarios(params)
			if err != nil {
				fmt.Fprintf(os.Stderr, "run: %v\n", err)
				os.Exit(1)
			}
			if failed > 0 {
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func runScenarios(params *RunParams) (int, error) {
	prefabs.DiskRoot = params.Prefabs

	runner, err := script.NewDefaultRunner()
	if err != nil {
		return 0, err
	}
	runner.SetSeed(uint64(params.Seed))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var results []script.Result
	if len(params.Scenarios) == 0 {
		if results, err = runner.RunAll(ctx); err != nil {
			return 0, err
		}
	} else {
		for _, name := range params.Scenarios {
			results = append(results, runner.RunNamed(ctx, name))
		}
	}

	failed := 0
	for _, res := range results {
		fmt.Println(formatResult(res, params.Verbose))
		if !res.Passed() {
			failed++
		}
	}
	fmt.Printf("\n%d/%d scenarios passed\n", len(results)-failed, len(results))
	return failed, nil
}

func formatResult(res script.Result, verbose bool) string {
	summary := detailStyle.Render(fmt.Sprintf("(%d checks, %d ticks)", res.Checks, res.Ticks))
	if res.Passed() {
		return fmt.Sprintf("%s %s %s", passStyle.Render("PASS"), res.Name, summary)
	}
	out := fmt.Sprintf("%s %s %s", failStyle.Render("FAIL"), res.Name, summary)
	if res.Err != nil {
		out += "\n    " + res.Err.Error()
	}
	failures := res.Failures
	if !verbose && len(failures) > 3 {
		failures = failures[:3]
	}
	for _, f := range failures {
		out += "\n    " + f
	}
	if len(failures) < len(res.Failures) {
		out += "\n    " + detailStyle.Render(fmt.Sprintf("... %d more, use -v", len(res.Failures)-len(failures)))
	}
	return out
}
