// Package tablebase exposes a small Prober abstraction over a generated
// artifact, mirroring the shape of the teacher's own Syzygy Prober
// interface (Probe/MaxPieces/Available) but backed by this project's own
// mmap'd artifact format rather than WDL/DTZ files.
package tablebase

import (
	"github.com/hailam/tablebase/internal/artifact"
	"github.com/hailam/tablebase/internal/config"
	"github.com/hailam/tablebase/internal/index"
	"github.com/hailam/tablebase/internal/position"
)

// Result classifies a probed position the way the teacher's WDL enum
// does, narrowed to what a generated entry actually records: this
// engine's artifacts carry an exact mate distance rather than a
// 50-move-rule-qualified win/loss, so there is no cursed-win/
// blessed-loss distinction to carry over.
type Result int

const (
	ResultUnknown Result = iota
	ResultIllegal
	ResultLoss
	ResultDraw
	ResultWin
)

func (r Result) String() string {
	switch r {
	case ResultIllegal:
		return "illegal"
	case ResultLoss:
		return "loss"
	case ResultDraw:
		return "draw"
	case ResultWin:
		return "win"
	default:
		return "unknown"
	}
}

// ProbeResult is the outcome of looking a position up in a tablebase.
type ProbeResult struct {
	Found  bool
	Result Result
	DTM    int // distance to mate in half-moves, -1 if not applicable
}

// Prober is the interface a search or CLI command probes through,
// independent of how many artifacts or which mobile lists back it.
type Prober interface {
	Probe(g position.Global) (ProbeResult, error)
	MaxPieces() int
	Available() bool
}

// ArtifactProber probes one opened generated artifact.
type ArtifactProber struct {
	Config *config.Config
	Reader *artifact.Reader
}

// NewArtifactProber builds a Prober from an already-opened artifact and
// the Config its header describes.
func NewArtifactProber(cfg *config.Config, r *artifact.Reader) *ArtifactProber {
	return &ArtifactProber{Config: cfg, Reader: r}
}

// Probe looks up g by converting it to this prober's index space. A
// position whose piece complement doesn't match the prober's mobile
// list is reported as not found rather than an error, since a caller
// juggling several probers for different endgames expects most of them
// to miss.
func (p *ArtifactProber) Probe(g position.Global) (ProbeResult, error) {
	local, err := position.GlobalToLocal(p.Config, &g)
	if err != nil {
		return ProbeResult{}, nil
	}
	pieces := 0
	for _, c := range g.Board {
		if c != ' ' {
			pieces++
		}
	}
	if position.Validate(p.Config, &local) != nil || pieces != p.Config.NumMobiles() {
		return ProbeResult{}, nil
	}
	idx := index.LocalToIndex(p.Config, &local)
	e := p.Reader.EntryAt(idx)

	res := ProbeResult{Found: true, DTM: -1}
	switch {
	case e.IsIllegal():
		res.Result = ResultIllegal
	case e.IsStalemate():
		res.Result = ResultDraw
	case e.IsPTMWins():
		res.Result = ResultWin
		res.DTM = int(e.MateIn)
	case e.IsPNTMWins():
		res.Result = ResultLoss
		res.DTM = int(e.MateIn)
	default:
		res.Result = ResultDraw
	}
	return res, nil
}

// MaxPieces returns how many mobile pieces this prober's configuration
// covers.
func (p *ArtifactProber) MaxPieces() int {
	return p.Config.NumMobiles()
}

// Available reports whether this prober has an artifact to consult.
func (p *ArtifactProber) Available() bool {
	return p.Reader != nil
}

// NoopProber is a Prober that never finds anything, standing in when no
// tablebase is loaded for a given piece combination — the same
// placeholder role the teacher's NoopProber plays during search when
// tablebases haven't been configured.
type NoopProber struct{}

func (NoopProber) Probe(position.Global) (ProbeResult, error) {
	return ProbeResult{Found: false}, nil
}
func (NoopProber) MaxPieces() int  { return 0 }
func (NoopProber) Available() bool { return false }

// MultiProber tries each Prober in order and returns the first hit,
// letting a caller hold one prober per generated endgame and query them
// uniformly (spec.md §6's multi-artifact probing).
type MultiProber struct {
	Probers []Prober
}

func (m MultiProber) Probe(g position.Global) (ProbeResult, error) {
	for _, p := range m.Probers {
		if !p.Available() {
			continue
		}
		res, err := p.Probe(g)
		if err != nil {
			return ProbeResult{}, err
		}
		if res.Found {
			return res, nil
		}
	}
	return ProbeResult{Found: false}, nil
}

func (m MultiProber) MaxPieces() int {
	max := 0
	for _, p := range m.Probers {
		if n := p.MaxPieces(); n > max {
			max = n
		}
	}
	return max
}

func (m MultiProber) Available() bool {
	for _, p := range m.Probers {
		if p.Available() {
			return true
		}
	}
	return false
}

var _ Prober = (*ArtifactProber)(nil)
var _ Prober = NoopProber{}
var _ Prober = MultiProber{}
