package main

import (
	"fmt"
	"os"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/milk9111/discbox/discgen"
	"github.com/spf13/cobra"
)

type GenerateParams struct {
	Source    string `pos:"true" required:"true" help:"Directory of 'Artist - Title.mp3' files."`
	Out       string `short:"o" long:"out" help:"Directory receiving discs.yaml and jukebox.yaml." default:"prefabs"`
	Sounds    string `long:"sounds" optional:"true" help:"Resource pack sound_definitions.json to update."`
	Items     string `long:"items" optional:"true" help:"Behaviour pack directory receiving disc item definitions."`
	Textures  string `long:"textures" optional:"true" help:"Resource pack item_texture.json to update."`
	Namespace string `short:"n" long:"namespace" help:"Namespace of the generated discs." default:"my_music_disc"`
	DryRun    bool   `long:"dry-run" help:"Print what would be generated without writing."`
}

func GenerateCmd() *cobra.Command {
	return boa.CmdT[GenerateParams]{
		Use:         "generate",
		Short:       "Generate custom discs from a directory of mp3 files",
		ParamEnrich: paramEnricher(),
		RunFunc: func(params *GenerateParams, cmd *cobra.Command, args []string) {
			if err := generate(params); err != nil {
				fmt.Fprintf(os.Stderr, "generate: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func generateOptions(params *GenerateParams) discgen.Options {
	return discgen.Options{
		SourceDir:        params.Source,
		PrefabsDir:       params.Out,
		SoundDefinitions: params.Sounds,
		ItemsDir:         params.Items,
		ItemTextures:     params.Textures,
		Namespace:        params.Namespace,
		DryRun:           params.DryRun,
	}
}

func generate(params *GenerateParams) error {
	rep, err := discgen.Generate(generateOptions(params))
	if err != nil {
		return err
	}
	fmt.Printf("%d tracks, %d added, %d removed, custom slots %v\n", len(rep.Tracks), len(rep.Added), len(rep.Removed), rep.Slots)
	for _, path := range rep.Written {
		fmt.Println("wrote", path)
	}
	for _, path := range rep.Deleted {
		if params.DryRun {
			fmt.Println("would remove", path)
		} else {
			fmt.Println("removed", path)
		}
	}
	return nil
}
