package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/milk9111/tilekit/tmxshift"
)

func main() {
	tileSize := flag.Int("tile", tmxshift.DefaultTileSize, "tile size in pixels, used for object positions")
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "usage: tmxshift [-tile 16] <file.tmx> <x1> <y1> <x2> <y2> <dy>")
		fmt.Fprintln(flag.CommandLine.Output(), "moves the inclusive tile region by dy rows; negative moves up")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 6 {
		flag.Usage()
		os.Exit(2)
	}

	var nums [5]int
	for i, s := range flag.Args()[1:] {
		v, err := strconv.Atoi(s)
		if err != nil {
			log.Fatalf("tmxshift: %q is not an integer", s)
		}
		nums[i] = v
	}
	path := flag.Arg(0)
	region := tmxshift.Region{X1: nums[0], Y1: nums[1], X2: nums[2], Y2: nums[3]}
	dy := nums[4]

	log.Printf("TMXShift: region (%d,%d)-(%d,%d) by %d tiles (%d px) in %s",
		region.X1, region.Y1, region.X2, region.Y2, dy, dy**tileSize, path)

	stats, err := tmxshift.ShiftFile(path, region, dy, *tileSize)
	if err != nil {
		log.Fatalf("tmxshift: %v", err)
	}
	log.Printf("TMXShift: moved %d tile(s) and %d object(s); backup at %s.bak", stats.Tiles, stats.Objects, path)
}
