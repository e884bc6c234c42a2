package main

import (
	"fmt"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"tilekit/internal/ebitenview"
	"tilekit/internal/preview"
)

const (
	windowWidth  = 1280
	windowHeight = 800
)

func main() {
	log.SetFlags(log.Ltime | log.Lshortfile)

	if len(os.Args) < 2 || len(os.Args) > 3 {
		fmt.Fprintln(os.Stderr, "Usage: tsxplay <dir> [tileset]")
		os.Exit(1)
	}
	name := ""
	if len(os.Args) == 3 {
		name = os.Args[2]
	}

	bundle, err := preview.LoadBundle(os.Args[1])
	if err != nil {
		log.Fatalf("Failed to load tilesets from %s: %v", os.Args[1], err)
	}
	if _, ok := bundle.Index(name); name != "" && !ok {
		log.Printf("Warning: no tileset %q, showing %s", name, bundle.Names()[0])
	}

	ebiten.SetWindowSize(windowWidth, windowHeight)
	ebiten.SetWindowTitle("tsxplay " + os.Args[1])
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if err := ebiten.RunGame(ebitenview.New(bundle, name)); err != nil {
		log.Fatalf("Window error: %v", err)
	}
}
