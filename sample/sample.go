// Package sample reduces decoded sequences to bounded, deterministic
// previews.
//
// One-dimensional sequences are decimated by uniform stride: every step-th
// element starting at index 0, step = ceil(L/M). Two-dimensional tables are
// windowed by head truncation on both axes instead. The asymmetry is
// deliberate: stride sampling spreads a long vector across its whole range,
// while tables read better as contiguous leading rows than as a scattered
// grid, so rows and columns are cut from the front with the true totals
// preserved for display.
package sample

// Stride returns the decimation step for reducing n elements to at most
// max: ceil(n/max), never less than 1.
func Stride(n, max int) int {
	if max <= 0 || n <= max {
		return 1
	}

	return (n + max - 1) / max
}

// Decimate reduces xs to at most max elements by uniform stride, taking
// every Stride(len, max)-th element starting at index 0.
//
// If len(xs) <= max the input slice is returned as-is, no copy. The output
// is a strictly increasing-index subsequence of the input, its length is
// exactly ceil(L/step), and the operation is idempotent: decimating an
// already-decimated-to-max sequence with the same max returns it unchanged.
func Decimate[T any](xs []T, max int) []T {
	n := len(xs)
	if max <= 0 || n <= max {
		return xs
	}

	step := Stride(n, max)
	out := make([]T, 0, (n+step-1)/step)
	for i := 0; i < n; i += step {
		out = append(out, xs[i])
	}

	return out
}

// Truncation records what a 2-D window cut, with the true totals kept so a
// display layer can render "showing R of TotalRows rows, C of TotalCols
// columns".
type Truncation struct {
	TotalRows int
	TotalCols int
	Rows      int
	Cols      int
	RowsCut   bool
	ColsCut   bool
}

// Window2D windows a table to at most maxRows rows and maxCols columns,
// both taken from the front. Rows are head-truncated, not decimated.
//
// Row slices are re-sliced, not copied; callers must not mutate the window.
// TotalCols reports the widest input row.
func Window2D[T any](rows [][]T, maxRows, maxCols int) ([][]T, Truncation) {
	tr := Truncation{TotalRows: len(rows)}
	for _, row := range rows {
		if len(row) > tr.TotalCols {
			tr.TotalCols = len(row)
		}
	}

	nr := len(rows)
	if maxRows > 0 && nr > maxRows {
		nr = maxRows
		tr.RowsCut = true
	}

	out := make([][]T, nr)
	for i := 0; i < nr; i++ {
		row := rows[i]
		if maxCols > 0 && len(row) > maxCols {
			row = row[:maxCols]
			tr.ColsCut = true
		}
		out[i] = row
		if len(row) > tr.Cols {
			tr.Cols = len(row)
		}
	}
	tr.Rows = nr

	return out, tr
}
