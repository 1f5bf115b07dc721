package generate

import "github.com/hailam/tablebase/internal/tberr"

func errTooManyFuturemoves(idx uint64, n int) error {
	return tberr.AtIndex(tberr.Configuration, idx, "index has %d futuremoves, exceeding the %d the future-vector can track", n, 32)
}

func errTooManyMoves(idx uint64, n int) error {
	return tberr.AtIndex(tberr.Configuration, idx, "index has %d forward moves, exceeding the movecnt field's range", n)
}
