package game

import "slices"

// threatCell returns the empty key of line when exactly n-1 of its cells
// hold mark and the last one is empty.
func threatCell(s Snapshot, line []int, mark Mark) (int, bool) {
	owned, empty := 0, 0
	for _, k := range line {
		switch s.MarkAt(k) {
		case mark:
			owned++
		case Empty:
			if empty != 0 {
				return 0, false
			}
			empty = k
		}
	}
	if owned == len(line)-1 && empty != 0 {
		return empty, true
	}
	return 0, false
}

// WinningMoves returns, in ascending order, every empty key that completes
// a line for mark.
func WinningMoves(s Snapshot, mark Mark) []int {
	var moves []int
	for _, line := range Lines(s.Size()) {
		if k, ok := threatCell(s, line, mark); ok {
			moves = append(moves, k)
		}
	}
	slices.Sort(moves)
	return slices.Compact(moves)
}

// ForkingMoves returns the empty keys after which mark would hold two or
// more distinct winning moves.
func ForkingMoves(s Snapshot, mark Mark) []int {
	var moves []int
	for _, k := range s.EmptyKeys() {
		if len(WinningMoves(s.With(k, mark), mark)) >= 2 {
			moves = append(moves, k)
		}
	}
	return moves
}

// AllowsOpponentFork places mark at key and then tries every reply of the
// opponent. It reports true as soon as one reply leaves the opponent with
// two or more forking moves. The lookahead stops there: the mover's own
// follow-up forks are not considered.
func AllowsOpponentFork(s Snapshot, mark Mark, key int) bool {
	opponent := mark.Opponent()
	placed := s.With(key, mark)
	for _, reply := range placed.EmptyKeys() {
		if len(ForkingMoves(placed.With(reply, opponent), opponent)) >= 2 {
			return true
		}
	}
	return false
}

// CreatesReach reports whether placing mark at key leaves one of the lines
// through key a single move from completion. Every key checks its row and
// column; diagonal keys add their diagonal and the center adds both.
func CreatesReach(s Snapshot, mark Mark, key int) bool {
	n := s.Size()
	placed := s.With(key, mark)
	row, col := ToCoordinates(key, n)
	lines := [][]int{Row(row, n), Column(col, n)}

	center, hasCenter := CenterKey(n)
	switch {
	case hasCenter && key == center:
		lines = append(lines, PrimaryDiagonal(n), AntiDiagonal(n))
	case OnPrimaryDiagonal(key, n):
		lines = append(lines, PrimaryDiagonal(n))
	case OnAntiDiagonal(key, n):
		lines = append(lines, AntiDiagonal(n))
	}

	for _, line := range lines {
		if _, ok := threatCell(placed, line, mark); ok {
			return true
		}
	}
	return false
}

// OccupiedCorners returns the corners holding mark. Passing Empty asks for
// the free corners instead.
func OccupiedCorners(s Snapshot, mark Mark) []int {
	var keys []int
	for _, k := range CornerKeys(s.Size()) {
		if s.MarkAt(k) == mark && !slices.Contains(keys, k) {
			keys = append(keys, k)
		}
	}
	return keys
}
