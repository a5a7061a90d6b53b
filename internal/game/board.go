package game

import (
	"errors"
	"strconv"
	"strings"
)

const (
	DefaultBoardSize = 3
	// MaxBoardSize bounds N. A strategic decision costs about N⁶ line scans.
	MaxBoardSize = 9
)

var (
	ErrInvalidBoardSize = errors.New("board size must be between 1 and 9")
	ErrInvalidKey       = errors.New("move key out of range")
	ErrCellTaken        = errors.New("cell already taken")
	ErrInvalidTurn      = errors.New("not your turn")
	ErrGameFinished     = errors.New("game already finished")
)

// Board is the live game grid. Every placement swaps in a new Snapshot, so
// snapshots handed out earlier stay valid and unchanged.
type Board struct {
	snap  Snapshot
	moves []int
}

type MoveResult struct {
	Board   Snapshot
	Key     int
	Winner  Mark
	IsDraw  bool
	Winning []int
}

func NewBoard(n int) (*Board, error) {
	snap, err := NewSnapshot(n)
	if err != nil {
		return nil, err
	}
	return &Board{snap: snap}, nil
}

func (b *Board) Size() int { return b.snap.Size() }

func (b *Board) Snapshot() Snapshot { return b.snap }

// Put places mark at key and evaluates the lines through it.
func (b *Board) Put(key int, mark Mark) (MoveResult, error) {
	if mark != MarkX && mark != MarkO {
		return MoveResult{}, ErrInvalidMark
	}
	if !b.snap.ValidKey(key) {
		return MoveResult{}, ErrInvalidKey
	}
	if !b.snap.IsEmpty(key) {
		return MoveResult{}, ErrCellTaken
	}
	b.snap = b.snap.With(key, mark)
	b.moves = append(b.moves, key)
	return evaluate(b.snap, key, mark), nil
}

func evaluate(s Snapshot, key int, mark Mark) MoveResult {
	res := MoveResult{Board: s, Key: key}
	for _, line := range LinesThrough(key, s.Size()) {
		if s.Completed(line, mark) {
			res.Winner = mark
			res.Winning = line
			return res
		}
	}
	res.IsDraw = s.Full()
	return res
}

// IsGameOver reports whether the move mark just made at key completed a
// line. Only lines through the last move can have changed.
func (b *Board) IsGameOver(mark Mark, key int) bool {
	if !b.snap.ValidKey(key) {
		return false
	}
	return evaluate(b.snap, key, mark).Winner == mark
}

func (b *Board) Available(key int) bool {
	return b.snap.ValidKey(key) && b.snap.IsEmpty(key)
}

func (b *Board) Count(mark Mark) int { return b.snap.Count(mark) }

// Moves returns the keys played so far in order.
func (b *Board) Moves() []int {
	out := make([]int, len(b.moves))
	copy(out, b.moves)
	return out
}

// String renders the grid one row per line:
//
//	X| | |
//	 |X| |
//	O|O| |
func (b *Board) String() string {
	var sb strings.Builder
	n := b.Size()
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			if m := b.snap.At(r, c); m != Empty {
				sb.WriteString(m.String())
			} else {
				sb.WriteByte(' ')
			}
			sb.WriteByte('|')
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// KeyMatrix renders the move keys in board layout, e.g. "1|2|3|".
func (b *Board) KeyMatrix() string {
	var sb strings.Builder
	n := b.Size()
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			sb.WriteString(strconv.Itoa(ToKey(r, c, n)))
			sb.WriteByte('|')
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
