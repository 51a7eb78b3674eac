package sample

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStride(t *testing.T) {
	tests := []struct {
		n, max, want int
	}{
		{0, 100, 1},
		{50, 100, 1},
		{100, 100, 1},
		{101, 100, 2},
		{1000, 100, 10},
		{1001, 100, 11},
		{10, 3, 4},
		{10, 0, 1}, // no bound means no decimation
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, Stride(tt.n, tt.max), "Stride(%d, %d)", tt.n, tt.max)
	}
}

func TestDecimate(t *testing.T) {
	t.Run("Identity when within bound", func(t *testing.T) {
		xs := []int{1, 2, 3}
		got := Decimate(xs, 10)
		require.Equal(t, xs, got)
		// No copy semantics required, but no mutation either.
		require.Len(t, got, 3)
	})

	t.Run("1000 to 100 takes stride 10", func(t *testing.T) {
		xs := make([]int, 1000)
		for i := range xs {
			xs[i] = i
		}

		got := Decimate(xs, 100)
		require.Len(t, got, 100)
		for i, v := range got {
			require.Equal(t, i*10, v)
		}
		require.Equal(t, 990, got[99])
	})

	t.Run("Output length is ceil(L over ceil(L over M))", func(t *testing.T) {
		for _, tt := range []struct{ l, m int }{
			{1001, 100}, {999, 100}, {7, 3}, {10, 4}, {100000, 100},
		} {
			xs := make([]int, tt.l)
			got := Decimate(xs, tt.m)
			step := Stride(tt.l, tt.m)
			require.Equal(t, (tt.l+step-1)/step, len(got), "L=%d M=%d", tt.l, tt.m)
			require.LessOrEqual(t, len(got), tt.m)
		}
	})

	t.Run("Order preserving increasing subsequence", func(t *testing.T) {
		xs := make([]int, 517)
		for i := range xs {
			xs[i] = i
		}

		got := Decimate(xs, 50)
		for i := 1; i < len(got); i++ {
			require.Greater(t, got[i], got[i-1])
		}
	})

	t.Run("Idempotent at fixed bound", func(t *testing.T) {
		xs := make([]int, 1000)
		for i := range xs {
			xs[i] = i
		}

		once := Decimate(xs, 100)
		twice := Decimate(once, 100)
		require.Equal(t, once, twice)
	})
}

func TestWindow2D(t *testing.T) {
	table := func(rows, cols int) [][]int {
		out := make([][]int, rows)
		for r := range out {
			out[r] = make([]int, cols)
			for c := range out[r] {
				out[r][c] = r*cols + c
			}
		}

		return out
	}

	t.Run("No truncation", func(t *testing.T) {
		win, tr := Window2D(table(3, 4), 20, 10)
		require.Len(t, win, 3)
		require.Len(t, win[0], 4)
		require.False(t, tr.RowsCut)
		require.False(t, tr.ColsCut)
		require.Equal(t, 3, tr.TotalRows)
		require.Equal(t, 4, tr.TotalCols)
	})

	t.Run("Rows cut from the front", func(t *testing.T) {
		win, tr := Window2D(table(50, 4), 20, 10)
		require.Len(t, win, 20)
		require.True(t, tr.RowsCut)
		require.False(t, tr.ColsCut)
		require.Equal(t, 50, tr.TotalRows)
		// Head truncation, not decimation: leading rows survive intact.
		require.Equal(t, 0, win[0][0])
		require.Equal(t, 4*19, win[19][0])
	})

	t.Run("Cols cut from the front of each row", func(t *testing.T) {
		win, tr := Window2D(table(5, 30), 20, 10)
		require.Len(t, win, 5)
		require.Len(t, win[0], 10)
		require.False(t, tr.RowsCut)
		require.True(t, tr.ColsCut)
		require.Equal(t, 30, tr.TotalCols)
		require.Equal(t, 10, tr.Cols)
	})

	t.Run("Both axes cut", func(t *testing.T) {
		win, tr := Window2D(table(100, 50), 20, 10)
		require.Len(t, win, 20)
		require.Len(t, win[0], 10)
		require.True(t, tr.RowsCut)
		require.True(t, tr.ColsCut)
		require.Equal(t, 100, tr.TotalRows)
		require.Equal(t, 50, tr.TotalCols)
		require.Equal(t, 20, tr.Rows)
		require.Equal(t, 10, tr.Cols)
	})
}
