package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/milk9111/tilekit/config"
)

const usage = `usage: tilekit [-config tilekit.yaml] <command> [flags] [args]

commands:
  validate [paths...]                         load and lint tilesets
  describe <tileset>                          print tiles, properties and wang sets
  resolve [-seed n] <tileset> <wangset> tl tr br bl
                                              find tiles for a corner signature
  autotile [-seed n] <tileset> <wangset> <grid.yaml>
                                              fill a cell grid from vertex colors
  export [-dir d] [-format lua|json]          write every tileset
  watch                                       reload tilesets as they change
`

type command func(cfg config.Config, args []string) error

var commands = map[string]command{
	"validate": runValidate,
	"describe": runDescribe,
	"resolve":  runResolve,
	"autotile": runAutoTile,
	"export":   runExport,
	"watch":    runWatch,
}

func main() {
	configPath := flag.String("config", config.DefaultFile, "project config file")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}
	cmd, ok := commands[flag.Arg(0)]
	if !ok {
		fmt.Fprintf(os.Stderr, "tilekit: unknown command %q\n\n", flag.Arg(0))
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatalf("tilekit: %v", err)
	}
	if err := cmd(cfg, flag.Args()[1:]); err != nil {
		log.Fatalf("tilekit %s: %v", flag.Arg(0), err)
	}
}
