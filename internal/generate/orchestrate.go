package generate

import (
	"fmt"
	"os"
	"time"

	"github.com/golang/glog"
	"golang.org/x/sync/errgroup"

	"github.com/hailam/tablebase/internal/artifact"
	"github.com/hailam/tablebase/internal/board"
	"github.com/hailam/tablebase/internal/config"
	"github.com/hailam/tablebase/internal/entry"
	"github.com/hailam/tablebase/internal/index"
	"github.com/hailam/tablebase/internal/proptable"
	"github.com/hailam/tablebase/internal/rays"
	"github.com/hailam/tablebase/internal/tberr"
)

// RunOptions bundles the knobs an Orchestrator run needs beyond the
// generation Config itself (spec.md §6's runtime settings).
type RunOptions struct {
	OutputPath        string
	PropTableMemoryMB int
	SpillDir          string
	GeneratorID       string
}

// Orchestrator wires components E through I into the full generation
// pipeline spec.md §2 describes: initialize, back-propagate every
// futurebase, apply move restrictions, then sweep intra-table until no
// index changes, finally writing the artifact.
type Orchestrator struct {
	Config *config.Config
	Opts   RunOptions

	Rays  *rays.Table
	Store *entry.Store
}

// NewOrchestrator builds an Orchestrator over a validated Config.
func NewOrchestrator(cfg *config.Config, opts RunOptions) *Orchestrator {
	return &Orchestrator{Config: cfg, Opts: opts}
}

// Run executes the full pipeline and writes the resulting artifact to
// Opts.OutputPath.
func (o *Orchestrator) Run() error {
	if err := o.Config.Validate(); err != nil {
		return tberr.Wrap(tberr.Configuration, err, "validating generation configuration")
	}

	o.Rays = rays.NewTable()
	max := index.MaxIndex(o.Config)
	o.Store = entry.NewStore(max)
	glog.V(1).Infof("[orchestrate] %d mobiles, %d indices", o.Config.NumMobiles(), max)

	init := NewInitializer(o.Config, o.Rays, o.Store)
	if err := init.Run(); err != nil {
		return err
	}

	maxMateIn, err := o.runFuturebases()
	if err != nil {
		return err
	}

	if err := ApplyMoveRestrictions(o.Config, o.Store); err != nil {
		return err
	}

	intra := NewIntraProp(o.Config, o.Rays, o.Store)
	intra.NoteMateIn(maxMateIn)
	if err := intra.RunUntilDone(); err != nil {
		return err
	}

	return o.writeArtifact()
}

// runFuturebases runs component F once per configured futurebase, each
// through its own proptable pass, and returns the largest mate_in
// observed across all of them so intra-table propagation's termination
// check (spec.md §4.G) accounts for futurebase-derived distances too.
func (o *Orchestrator) runFuturebases() (uint8, error) {
	var maxMateIn uint8
	for _, ref := range o.Config.Futurebases {
		src, err := artifact.Open(ref.Filename)
		if err != nil {
			return maxMateIn, err
		}

		sourceCfg := &config.Config{
			Mobiles:                src.Header.Mobiles,
			Restriction:            src.Header.Restriction,
			PromotionPossibilities: o.Config.PromotionPossibilities,
		}
		if err := sourceCfg.Validate(); err != nil {
			src.Close()
			return maxMateIn, tberr.Wrap(tberr.FuturebaseMismatch, err, "futurebase %s header", ref.Filename)
		}
		if sourceCfg.Restriction != o.Config.Restriction {
			src.Close()
			return maxMateIn, tberr.New(tberr.FuturebaseMismatch,
				"futurebase %s was generated under move-restriction %s/%s (white/black), this generation declares %s/%s",
				ref.Filename, sourceCfg.Restriction[board.White], sourceCfg.Restriction[board.Black],
				o.Config.Restriction[board.White], o.Config.Restriction[board.Black])
		}

		prop := proptable.NewTable(o.Opts.PropTableMemoryMB*1024*1024/entrySizeBytes, o.spillDirFor(ref))
		fbp := NewFutureBackprop(o.Config, sourceCfg, o.Rays, o.Store, prop, ref, src)
		if err := fbp.Run(); err != nil {
			prop.Close()
			src.Close()
			return maxMateIn, err
		}
		src.Close()

		prop.Promote()
		n := o.Store.Len()
		for i := uint64(0); i < n; i++ {
			events, err := prop.DrainIndex(i)
			if err != nil {
				prop.Close()
				return maxMateIn, err
			}
			for _, e := range events {
				if err := ApplyPropagatedEntry(o.Store, e); err != nil {
					prop.Close()
					return maxMateIn, err
				}
				if e.DTM != entry.MateInUnknown && e.DTM > maxMateIn {
					maxMateIn = e.DTM
				}
			}
		}
		if err := prop.Discard(); err != nil {
			prop.Close()
			return maxMateIn, err
		}
		if err := prop.Close(); err != nil {
			return maxMateIn, err
		}
	}
	return maxMateIn, nil
}

// entrySizeBytes is the in-memory footprint proptable budgets against;
// an Entry plus its heap slot overhead is small relative to the badger
// spill it avoids, so this is a coarse but serviceable conversion from
// the configured megabyte budget to an entry count.
const entrySizeBytes = 32

func (o *Orchestrator) spillDirFor(ref config.FuturebaseRef) string {
	base := o.Opts.SpillDir
	if base == "" {
		base = "."
	}
	return base + "/spill-" + sanitizeFilename(ref.Filename)
}

func sanitizeFilename(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}

func (o *Orchestrator) writeArtifact() error {
	host, _ := os.Hostname()
	h := artifact.Header{
		Mobiles:     o.Config.Mobiles,
		Restriction: o.Config.Restriction,
		GeneratorID: o.Opts.GeneratorID,
		GeneratedAt: time.Now(),
		Host:        host,
	}
	if h.GeneratorID == "" {
		h.GeneratorID = "tablebase-generate"
	}
	if err := artifact.Write(o.Opts.OutputPath, h, o.Store); err != nil {
		return err
	}
	glog.V(1).Infof("[orchestrate] wrote %s", o.Opts.OutputPath)
	return nil
}

// RunMany generates several independent configurations concurrently,
// bounded by golang.org/x/sync/errgroup's SetLimit, for batch driving a
// whole family of tablebases from one invocation (spec.md §6).
func RunMany(jobs []*Orchestrator, concurrency int) error {
	var g errgroup.Group
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for _, job := range jobs {
		job := job
		g.Go(func() error {
			if err := job.Run(); err != nil {
				return fmt.Errorf("generating %s: %w", job.Opts.OutputPath, err)
			}
			return nil
		})
	}
	return g.Wait()
}
