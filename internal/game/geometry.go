package game

import "errors"

// ErrNotCorner is returned by OppositeCorner for a key that is not one of
// the four corners.
var ErrNotCorner = errors.New("move key is not a corner")

// ToCoordinates converts a 1-based row-major move key to 0-based (row, col).
func ToCoordinates(key, n int) (row, col int) {
	return (key - 1) / n, (key - 1) % n
}

// ToKey converts 0-based (row, col) to a 1-based row-major move key.
func ToKey(row, col, n int) int {
	return row*n + col + 1
}

// CenterKey returns the cell lying on both diagonals. Boards with an even
// size have no center.
func CenterKey(n int) (int, bool) {
	if n%2 == 0 {
		return 0, false
	}
	return (n*n + 1) / 2, true
}

// CornerKeys returns top-left, top-right, bottom-left and bottom-right.
func CornerKeys(n int) [4]int {
	return [4]int{
		ToKey(0, 0, n),
		ToKey(0, n-1, n),
		ToKey(n-1, 0, n),
		ToKey(n-1, n-1, n),
	}
}

func IsCorner(key, n int) bool {
	row, col := ToCoordinates(key, n)
	return (row == 0 || row == n-1) && (col == 0 || col == n-1)
}

// OppositeCorner mirrors a corner through the center of the board.
func OppositeCorner(key, n int) (int, error) {
	if n <= 0 || !IsCorner(key, n) {
		return 0, ErrNotCorner
	}
	row, col := ToCoordinates(key, n)
	return ToKey(n-1-row, n-1-col, n), nil
}

func OnPrimaryDiagonal(key, n int) bool {
	row, col := ToCoordinates(key, n)
	return row == col
}

func OnAntiDiagonal(key, n int) bool {
	row, col := ToCoordinates(key, n)
	return row+col == n-1
}

// Row, Column, PrimaryDiagonal and AntiDiagonal return the keys of a line
// in board order.
func Row(row, n int) []int {
	keys := make([]int, n)
	for c := 0; c < n; c++ {
		keys[c] = ToKey(row, c, n)
	}
	return keys
}

func Column(col, n int) []int {
	keys := make([]int, n)
	for r := 0; r < n; r++ {
		keys[r] = ToKey(r, col, n)
	}
	return keys
}

func PrimaryDiagonal(n int) []int {
	keys := make([]int, n)
	for i := 0; i < n; i++ {
		keys[i] = ToKey(i, i, n)
	}
	return keys
}

func AntiDiagonal(n int) []int {
	keys := make([]int, n)
	for i := 0; i < n; i++ {
		keys[i] = ToKey(i, n-1-i, n)
	}
	return keys
}

// Lines enumerates every row, then every column, then the primary and the
// anti diagonal.
func Lines(n int) [][]int {
	lines := make([][]int, 0, 2*n+2)
	for r := 0; r < n; r++ {
		lines = append(lines, Row(r, n))
	}
	for c := 0; c < n; c++ {
		lines = append(lines, Column(c, n))
	}
	return append(lines, PrimaryDiagonal(n), AntiDiagonal(n))
}

// LinesThrough returns the lines a key participates in: its row and column,
// plus each diagonal it lies on.
func LinesThrough(key, n int) [][]int {
	row, col := ToCoordinates(key, n)
	lines := [][]int{Row(row, n), Column(col, n)}
	if OnPrimaryDiagonal(key, n) {
		lines = append(lines, PrimaryDiagonal(n))
	}
	if OnAntiDiagonal(key, n) {
		lines = append(lines, AntiDiagonal(n))
	}
	return lines
}

// SideKeys lists the side candidates of the last cascade step: for each i in
// 1..n the keys i, n²-i+1, n(i-1)+i and n·i. The list keeps first-seen
// order and drops repeats.
func SideKeys(n int) []int {
	seen := make(map[int]bool, 4*n)
	keys := make([]int, 0, 4*n)
	add := func(k int) {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	for i := 1; i <= n; i++ {
		add(i)
		add(n*n - i + 1)
		add(n*(i-1) + i)
		add(n * i)
	}
	return keys
}
