package game

import (
	"errors"
	"fmt"
	"strings"
)

// Mark is a player's symbol. Empty is the absence of a mark.
type Mark int

const (
	Empty Mark = iota
	MarkX
	MarkO
)

var ErrInvalidMark = errors.New("invalid mark")

func (m Mark) String() string {
	switch m {
	case MarkX:
		return "X"
	case MarkO:
		return "O"
	default:
		return ""
	}
}

// Opponent returns the other player's mark. Empty has no opponent.
func (m Mark) Opponent() Mark {
	switch m {
	case MarkX:
		return MarkO
	case MarkO:
		return MarkX
	default:
		return Empty
	}
}

// ParseMark accepts "X"/"O" in either case.
func ParseMark(s string) (Mark, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "X":
		return MarkX, nil
	case "O":
		return MarkO, nil
	}
	return Empty, fmt.Errorf("%w: %q", ErrInvalidMark, s)
}

// Snapshot is an immutable N×N grid. Methods that place a mark return a new
// Snapshot and leave the receiver untouched, so hypothetical positions never
// alias the position they were derived from.
type Snapshot struct {
	n     int
	cells []Mark
}

// NewSnapshot returns an empty n×n grid.
func NewSnapshot(n int) (Snapshot, error) {
	if n <= 0 || n > MaxBoardSize {
		return Snapshot{}, ErrInvalidBoardSize
	}
	return Snapshot{n: n, cells: make([]Mark, n*n)}, nil
}

// SnapshotFromRows copies a square grid given row by row.
func SnapshotFromRows(rows [][]Mark) (Snapshot, error) {
	n := len(rows)
	if n == 0 || n > MaxBoardSize {
		return Snapshot{}, ErrInvalidBoardSize
	}
	cells := make([]Mark, 0, n*n)
	for r, row := range rows {
		if len(row) != n {
			return Snapshot{}, fmt.Errorf("%w: row %d has %d cells, want %d", ErrInvalidBoardSize, r, len(row), n)
		}
		for _, m := range row {
			if m != Empty && m != MarkX && m != MarkO {
				return Snapshot{}, fmt.Errorf("%w: %d", ErrInvalidMark, int(m))
			}
			cells = append(cells, m)
		}
	}
	return Snapshot{n: n, cells: cells}, nil
}

// ParseSnapshot reads rows written with X, O and '.', '-', '_' or ' ' for
// an empty cell, e.g. []string{"X.O", ".X.", "..."}.
func ParseSnapshot(rows []string) (Snapshot, error) {
	if len(rows) > MaxBoardSize {
		return Snapshot{}, ErrInvalidBoardSize
	}
	grid := make([][]Mark, len(rows))
	for r, line := range rows {
		if len(line) > MaxBoardSize {
			return Snapshot{}, fmt.Errorf("%w: row %d has %d cells", ErrInvalidBoardSize, r, len(line))
		}
		row := make([]Mark, 0, len(line))
		for _, ch := range line {
			switch ch {
			case 'X', 'x':
				row = append(row, MarkX)
			case 'O', 'o':
				row = append(row, MarkO)
			case '.', '-', '_', ' ':
				row = append(row, Empty)
			default:
				return Snapshot{}, fmt.Errorf("%w: unexpected %q in row %d", ErrInvalidMark, ch, r)
			}
		}
		grid[r] = row
	}
	return SnapshotFromRows(grid)
}

func (s Snapshot) Size() int { return s.n }

// At returns the mark at 0-based (row, col).
func (s Snapshot) At(row, col int) Mark {
	return s.cells[row*s.n+col]
}

// MarkAt returns the mark at a 1-based move key.
func (s Snapshot) MarkAt(key int) Mark {
	return s.cells[key-1]
}

func (s Snapshot) IsEmpty(key int) bool {
	return s.cells[key-1] == Empty
}

func (s Snapshot) ValidKey(key int) bool {
	return key >= 1 && key <= s.n*s.n
}

// With returns a copy of the snapshot with mark placed at key.
func (s Snapshot) With(key int, mark Mark) Snapshot {
	cells := make([]Mark, len(s.cells))
	copy(cells, s.cells)
	cells[key-1] = mark
	return Snapshot{n: s.n, cells: cells}
}

// EmptyKeys lists the empty cells in row-major order.
func (s Snapshot) EmptyKeys() []int {
	keys := make([]int, 0, len(s.cells))
	for i, m := range s.cells {
		if m == Empty {
			keys = append(keys, i+1)
		}
	}
	return keys
}

func (s Snapshot) Count(mark Mark) int {
	count := 0
	for _, m := range s.cells {
		if m == mark {
			count++
		}
	}
	return count
}

func (s Snapshot) Full() bool {
	return s.Count(Empty) == 0
}

// Rows renders the grid as one string per row using X, O and '.'.
func (s Snapshot) Rows() []string {
	rows := make([]string, s.n)
	var sb strings.Builder
	for r := 0; r < s.n; r++ {
		sb.Reset()
		for c := 0; c < s.n; c++ {
			switch s.At(r, c) {
			case MarkX:
				sb.WriteByte('X')
			case MarkO:
				sb.WriteByte('O')
			default:
				sb.WriteByte('.')
			}
		}
		rows[r] = sb.String()
	}
	return rows
}

// Completed reports whether every key of line holds mark.
func (s Snapshot) Completed(line []int, mark Mark) bool {
	for _, k := range line {
		if s.MarkAt(k) != mark {
			return false
		}
	}
	return true
}
