package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/discbox/prefabs"
)

func main() {
	debug := flag.Bool("debug", false, "print scheduler and registry state")
	prefabDir := flag.String("prefabs", "prefabs", "directory checked for prefab overrides")
	watch := flag.Bool("watch", true, "reload discs.yaml when it changes on disk")
	seed := flag.Uint64("seed", 1, "seed for drop impulses and particle timing")
	flag.Parse()

	prefabs.DiskRoot = *prefabDir

	game, err := NewGame(*debug, *seed)
	if err != nil {
		log.Fatal(err)
	}
	if *watch {
		if err := game.WatchCatalog(); err != nil {
			log.Printf("catalog watch disabled: %v", err)
		}
	}
	defer game.Close()

	ebiten.SetTPS(ticksPerSecond)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(baseWidth, baseHeight)
	ebiten.SetWindowTitle("discbox")

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
