// Command canvasrender renders a canvas snapshot file to a PNG image.
package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"notecanvas/internal/element"
	"notecanvas/internal/render"
	"notecanvas/internal/snapshot"
)

const margin = 40

func main() {
	inPath := flag.String("in", "", "Path to snapshot JSON file")
	outPath := flag.String("out", "canvas.png", "Output PNG path")
	scale := flag.Float64("scale", 1.0, "Render scale")
	themeName := flag.String("theme", "light", "Theme: light or dark")
	grid := flag.Bool("grid", false, "Draw the background grid")
	gridSize := flag.Int("grid-size", 20, "Grid spacing in canvas units")
	flag.Parse()

	if *inPath == "" {
		fmt.Println("Usage: canvasrender -in <snapshot.json> [-out canvas.png] [-scale 1.0] [-theme light|dark]")
		os.Exit(1)
	}
	if *scale <= 0 {
		fmt.Fprintln(os.Stderr, "scale must be positive")
		os.Exit(1)
	}

	file, err := snapshot.Load(*inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load snapshot: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded snapshot: %d elements\n", len(file.Elements))

	theme := render.LightTheme()
	if *themeName == "dark" {
		theme = render.DarkTheme()
	}

	store := element.NewStore()
	file.Restore(store)

	extent := store.Bounds()
	w := int(math.Ceil((extent.X + extent.Width + margin) * *scale))
	h := int(math.Ceil((extent.Y + extent.Height + margin) * *scale))
	if w < margin {
		w = margin
	}
	if h < margin {
		h = margin
	}

	engine := render.NewEngine(theme, nil)
	frame := render.Frame{
		Elements: store.Ordered(),
		Scale:    *scale,
		Width:    w,
		Height:   h,
		ShowGrid: *grid,
		GridSize: *gridSize,
	}

	if err := engine.SavePNG(frame, *outPath); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write PNG: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s (%dx%d at %.2fx)\n", *outPath, w, h, *scale)
}
