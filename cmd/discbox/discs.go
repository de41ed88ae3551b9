package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/milk9111/discbox/discgen"
	"github.com/milk9111/discbox/discs"
	"github.com/milk9111/discbox/jukebox"
	"github.com/milk9111/discbox/prefabs"
	"github.com/spf13/cobra"
)

type DiscsParams struct {
	Namespace string `short:"n" long:"namespace" optional:"true" help:"Only list discs of this namespace."`
	Prefabs   string `long:"prefabs" help:"Directory checked for prefab overrides." default:"prefabs"`
}

func DiscsCmd() *cobra.Command {
	return boa.CmdT[DiscsParams]{
		Use:         "discs",
		Short:       "List the disc catalog and the jukebox slot each disc is stored in",
		ParamEnrich: paramEnricher(),
		RunFunc: func(params *DiscsParams, cmd *cobra.Command, args []string) {
			if err := listDiscs(params); err != nil {
				fmt.Fprintf(os.Stderr, "discs: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func listDiscs(params *DiscsParams) error {
	prefabs.DiskRoot = params.Prefabs

	catalog, err := discs.Load()
	if err != nil {
		return err
	}
	cfg, err := jukebox.LoadConfig()
	if err != nil {
		return err
	}
	codec := jukebox.NewCodec(cfg)

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Title", "Artist", "Sound", "Length", "Slot"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Length", Align: text.AlignRight},
	})

	shown := 0
	for _, d := range catalog.All() {
		if params.Namespace != "" && d.Namespace() != strings.TrimSuffix(params.Namespace, ":") {
			continue
		}
		slot := text.FgRed.Sprint("none")
		if s, ok := codec.Slot(d.ID); ok {
			slot = s
		}
		t.AppendRow(table.Row{d.ID, d.Title, d.Artist, d.Sound, formatTicks(d.Ticks), slot})
		shown++
	}
	t.AppendFooter(table.Row{fmt.Sprintf("%d discs", shown)})
	t.Render()
	return nil
}

func formatTicks(ticks int) string {
	secs := ticks / discgen.TicksPerSecond
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
