package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"github.com/milk9111/tilekit/config"
	"github.com/milk9111/tilekit/export"
	"github.com/milk9111/tilekit/rules"
	"github.com/milk9111/tilekit/tileset"
	"github.com/milk9111/tilekit/wang"
)

func runValidate(cfg config.Config, args []string) error {
	var sets []*tileset.Tileset
	problems := 0

	if len(args) == 0 {
		reg, err := loadRegistry(cfg)
		if err != nil {
			return err
		}
		sets = reg.All()
	} else {
		files, err := tilesetFiles(args)
		if err != nil {
			return err
		}
		for _, f := range files {
			ts, err := tileset.Load(f)
			if err != nil {
				problems += printLoadError(f, err)
				continue
			}
			if cfg.StrictTileCount {
				if err := ts.CheckTileCount(); err != nil {
					fmt.Printf("%s: %v\n", f, err)
					problems++
					continue
				}
			}
			sets = append(sets, ts)
		}
	}

	for _, ts := range sets {
		for _, w := range ts.Warnings() {
			fmt.Printf("%s: warning: %s\n", ts.Name, w)
		}
	}

	rs, err := loadRules(cfg)
	if err != nil {
		return err
	}
	findings, err := rules.Run(rs, sets)
	if err != nil {
		return err
	}
	if len(findings) > 0 {
		var t table
		for _, f := range findings {
			t.add(f.Rule, f.Tileset, strconv.Itoa(f.TileID), f.Message)
		}
		if err := t.write(os.Stdout); err != nil {
			return err
		}
	}
	problems += len(findings)

	fmt.Printf("%d tileset(s) checked, %d problem(s)\n", len(sets), problems)
	if problems > 0 {
		return fmt.Errorf("%d problem(s)", problems)
	}
	return nil
}

func printLoadError(path string, err error) int {
	var ve *tileset.ValidationError
	if !errors.As(err, &ve) {
		fmt.Printf("%s: %v\n", path, err)
		return 1
	}
	for _, p := range ve.Problems {
		fmt.Printf("%s: %v\n", path, p)
	}
	return len(ve.Problems)
}

// tilesetFiles expands directories in args into the .tsx files below them.
func tilesetFiles(args []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		dir, err := isDir(arg)
		if err != nil {
			return nil, err
		}
		if !dir {
			out = append(out, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.EqualFold(filepath.Ext(p), ".tsx") {
				out = append(out, p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func runDescribe(cfg config.Config, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: describe <tileset>")
	}
	reg, err := loadRegistry(cfg)
	if err != nil {
		return err
	}
	ts, ok := reg.Tileset(args[0])
	if !ok {
		return fmt.Errorf("unknown tileset %q (have %s)", args[0], strings.Join(reg.Names(), ", "))
	}

	kind := "grid"
	if ts.IsCollection() {
		kind = "collection"
	}
	fmt.Printf("%s: %s, %dx%d tiles, %d declared of %d\n", ts.Name, kind, ts.TileWidth, ts.TileHeight, len(ts.Tiles), ts.TileCount)
	if p, ok := reg.Path(ts.Name); ok {
		fmt.Printf("source: %s\n", p)
	}
	if exp, ok := ts.ExportDirective(); ok {
		fmt.Printf("export: %s (%s)\n", exp.Target, exp.Format)
	}

	var t table
	t.add("ID", "TYPE", "RECT", "PROPERTIES")
	for i := range ts.Tiles {
		tile := &ts.Tiles[i]
		rect := ""
		if r, ok := ts.TileRect(tile.ID); ok {
			rect = fmt.Sprintf("%d,%d %dx%d", r.Min.X, r.Min.Y, r.Dx(), r.Dy())
		}
		t.add(strconv.Itoa(tile.ID), tile.Type(), rect, formatProperties(tile.Properties))
	}
	fmt.Println()
	if err := t.write(os.Stdout); err != nil {
		return err
	}

	for i := range ts.WangSets {
		ws := &ts.WangSets[i]
		fmt.Printf("\nwang set %q (%s), %d tiles\n", ws.Name, ws.Type, len(ws.Tiles))
		var ct table
		ct.add("#", "NAME", "COLOR", "NEAREST", "PROBABILITY")
		for j := range ws.Colors {
			c := &ws.Colors[j]
			ct.add(strconv.Itoa(j+1), c.Name, c.Color, c.ColorName(), strconv.FormatFloat(c.Weight(), 'g', -1, 64))
		}
		if err := ct.write(os.Stdout); err != nil {
			return err
		}
	}
	return nil
}

func formatProperties(ps tileset.Properties) string {
	m := ps.Map()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, strings.ReplaceAll(fmt.Sprint(m[k]), "\n", `\n`)))
	}
	return strings.Join(parts, " ")
}

func newRand(seed int64) *rand.Rand {
	if seed < 0 {
		return nil
	}
	return rand.New(rand.NewSource(seed))
}

func runResolve(cfg config.Config, args []string) error {
	flags := flag.NewFlagSet("resolve", flag.ContinueOnError)
	seed := flags.Int64("seed", 1, "tie-break seed; negative picks the first candidate")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 6 {
		return errors.New("usage: resolve [-seed n] <tileset> <wangset> tl tr br bl")
	}

	var corners [4]int
	for i, s := range flags.Args()[2:] {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			return fmt.Errorf("corner %q is not a color index", s)
		}
		corners[i] = v
	}

	reg, err := loadRegistry(cfg)
	if err != nil {
		return err
	}
	res, err := reg.Resolver(flags.Arg(0), flags.Arg(1))
	if err != nil {
		return err
	}

	req := wang.Corners(corners[0], corners[1], corners[2], corners[3])
	matches := res.Match(req)
	fmt.Printf("request %s: %d candidate(s) %v\n", req, len(matches), matches)
	id, ok := res.Pick(newRand(*seed), req)
	if !ok {
		return fmt.Errorf("no tile for %s", req)
	}
	fmt.Printf("picked %d\n", id)
	return nil
}

func runAutoTile(cfg config.Config, args []string) error {
	flags := flag.NewFlagSet("autotile", flag.ContinueOnError)
	seed := flags.Int64("seed", 1, "tie-break seed; negative picks the first candidate")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 3 {
		return errors.New("usage: autotile [-seed n] <tileset> <wangset> <grid.yaml>")
	}

	grid, err := config.LoadGrid(flags.Arg(2))
	if err != nil {
		return err
	}
	reg, err := loadRegistry(cfg)
	if err != nil {
		return err
	}
	res, err := reg.Resolver(flags.Arg(0), flags.Arg(1))
	if err != nil {
		return err
	}

	cells, err := res.AutoTile(newRand(*seed), grid.Vertices)
	if err != nil {
		return err
	}
	var t table
	missing := 0
	for _, row := range cells {
		out := make([]string, len(row))
		for i, id := range row {
			if id < 0 {
				missing++
				out[i] = "."
				continue
			}
			out[i] = strconv.Itoa(id)
		}
		t.add(out...)
	}
	if err := t.write(os.Stdout); err != nil {
		return err
	}
	if missing > 0 {
		log.Printf("AutoTile: %d cell(s) had no matching tile", missing)
	}
	return nil
}

func runExport(cfg config.Config, args []string) error {
	flags := flag.NewFlagSet("export", flag.ContinueOnError)
	dir := flags.String("dir", cfg.ExportDir, "output directory")
	format := flags.String("format", cfg.ExportFormat, "lua or json")
	if err := flags.Parse(args); err != nil {
		return err
	}

	reg, err := loadRegistry(cfg)
	if err != nil {
		return err
	}
	for _, ts := range reg.All() {
		p, err := export.WriteFile(*dir, ts, *format)
		if err != nil {
			return err
		}
		log.Printf("Export: %s -> %s", ts.Name, p)
	}
	return nil
}

func runWatch(cfg config.Config, args []string) error {
	if len(cfg.Tilesets) == 0 {
		return errors.New("watch needs tileset directories in the config")
	}
	reg, err := loadRegistry(cfg)
	if err != nil {
		return err
	}
	log.Printf("Watch: %d tileset(s) loaded from %s", len(reg.Names()), strings.Join(cfg.Tilesets, ", "))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return reg.Watch(ctx, cfg.Tilesets...)
}
