// Command tablebase generates and probes endgame tablebases.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/hailam/tablebase/internal/artifact"
	"github.com/hailam/tablebase/internal/board"
	"github.com/hailam/tablebase/internal/config"
	"github.com/hailam/tablebase/internal/generate"
	"github.com/hailam/tablebase/internal/index"
	"github.com/hailam/tablebase/internal/position"
	"github.com/hailam/tablebase/internal/tablebase"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "generate":
		runGenerate(os.Args[2:])
	case "probe":
		runProbe(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: tablebase generate <control.xml> [flags]")
	fmt.Fprintln(os.Stderr, "       tablebase probe <artifact>... \"<board> <w|b>\"")
}

func runGenerate(args []string) {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	output := fs.String("out", "tb-out.tbz", "output artifact path")
	runtimeFile := fs.String("runtime", "", "optional TOML runtime settings file")
	fs.Parse(args)

	if fs.NArg() < 1 {
		log.Fatal("generate: control file required")
	}
	controlFile := fs.Arg(0)

	cfg, err := config.LoadXMLFile(controlFile)
	if err != nil {
		log.Fatalf("loading control file %s: %v", controlFile, err)
	}

	settings := config.DefaultRuntimeSettings()
	if *runtimeFile != "" {
		settings, err = config.LoadRuntimeSettings(*runtimeFile)
		if err != nil {
			log.Fatalf("loading runtime settings %s: %v", *runtimeFile, err)
		}
	}

	orch := generate.NewOrchestrator(cfg, generate.RunOptions{
		OutputPath:        *output,
		PropTableMemoryMB: settings.PropTableMemoryMB,
		SpillDir:          settings.SpillDir,
		GeneratorID:       "tablebase-generate",
	})
	if err := orch.Run(); err != nil {
		log.Fatalf("generate: %v", err)
	}
	log.Printf("wrote %s", *output)
}

// runProbe accepts one or more artifact paths followed by a position
// argument ("<64-char board> <w|b>") and reports the first artifact
// whose mobile list matches the position, via a tablebase.MultiProber
// (spec.md §6's multi-artifact probing).
func runProbe(args []string) {
	if len(args) < 2 {
		log.Fatal("probe: one or more artifacts and a position required")
	}
	paths, fen := args[:len(args)-1], args[len(args)-1]

	g, err := parseGlobalArg(fen)
	if err != nil {
		log.Fatalf("parsing position: %v", err)
	}

	var probers []tablebase.Prober
	for _, path := range paths {
		r, err := artifact.Open(path)
		if err != nil {
			log.Fatalf("opening artifact %s: %v", path, err)
		}
		defer r.Close()

		cfg := &config.Config{Mobiles: r.Header.Mobiles, Restriction: r.Header.Restriction}
		if err := cfg.Validate(); err != nil {
			log.Fatalf("artifact %s header describes an invalid configuration: %v", path, err)
		}
		if err := r.VerifyChecksum(index.MaxIndex(cfg)); err != nil {
			log.Fatalf("artifact %s failed integrity check: %v", path, err)
		}
		probers = append(probers, tablebase.NewArtifactProber(cfg, r))
	}

	multi := tablebase.MultiProber{Probers: probers}
	res, err := multi.Probe(g)
	if err != nil {
		log.Fatalf("probe: %v", err)
	}
	if !res.Found {
		fmt.Println("not found in any supplied artifact")
		return
	}
	if res.DTM >= 0 {
		fmt.Printf("%s in %d\n", res.Result, res.DTM)
	} else {
		fmt.Println(res.Result)
	}
}

// parseGlobalArg accepts a bare 64-character board string (rank 8 down
// to rank 1, '.' for empty, algebraic piece letters, uppercase white)
// followed by 'w' or 'b', space-separated — a minimal stand-in for full
// FEN parsing, which is out of this command's scope.
func parseGlobalArg(s string) (position.Global, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 || len(fields[0]) != 64 {
		return position.Global{}, fmt.Errorf("expected \"<64-char board> <w|b>\", got %q", s)
	}
	g := position.NewEmptyGlobal()
	for i := 0; i < 64; i++ {
		c := fields[0][i]
		sq := board.NewSquare(i%8, 7-i/8)
		if c == '.' {
			g.Board[sq] = ' '
		} else {
			g.Board[sq] = c
		}
	}
	switch fields[1] {
	case "w":
		g.SideToMove = board.White
	case "b":
		g.SideToMove = board.Black
	default:
		return position.Global{}, fmt.Errorf("side to move must be 'w' or 'b', got %q", fields[1])
	}
	return g, nil
}
