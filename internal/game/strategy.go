package game

import (
	"errors"
	"log/slog"
)

// ErrBoardFull is returned by every agent when no empty cell is left.
var ErrBoardFull = errors.New("no empty cell left on the board")

// Tactic names the rule that produced a move.
type Tactic string

const (
	TacticWin            Tactic = "win"
	TacticBlock          Tactic = "block"
	TacticFork           Tactic = "fork"
	TacticBlockForkReach Tactic = "block_fork_reach"
	TacticBlockFork      Tactic = "block_fork"
	TacticCenter         Tactic = "center"
	TacticOppositeCorner Tactic = "opposite_corner"
	TacticEmptyCorner    Tactic = "empty_corner"
	TacticEmptySide      Tactic = "empty_side"
	TacticAnyEmpty       Tactic = "any_empty"
	TacticRandom         Tactic = "random"
)

// Decision is a chosen move key and the tactic that chose it.
type Decision struct {
	Key    int    `json:"key"`
	Tactic Tactic `json:"tactic"`
}

// Strategist plays the scripted line-completion strategy: win, block, fork,
// block a fork, center, opposite corner, empty corner, empty side. Ties
// inside a step are broken with the injected random source. It keeps no
// state between calls.
type Strategist struct {
	rng    *Rand
	logger *slog.Logger
}

func NewStrategist(rng *Rand, logger *slog.Logger) *Strategist {
	if rng == nil {
		rng = NewRand(0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Strategist{rng: rng, logger: logger}
}

// SelectNextMove returns the key self should play next.
func (st *Strategist) SelectNextMove(s Snapshot, self, other Mark, selfCount, otherCount int) (int, error) {
	d, err := st.Decide(s, self, other, selfCount, otherCount)
	if err != nil {
		return 0, err
	}
	return d.Key, nil
}

// Decide runs the cascade and reports which tactic fired.
func (st *Strategist) Decide(s Snapshot, self, other Mark, selfCount, otherCount int) (Decision, error) {
	if err := checkMarks(self, other); err != nil {
		return Decision{}, err
	}
	if s.Full() {
		return Decision{}, ErrBoardFull
	}
	d := st.cascade(s, self, other, selfCount, otherCount)
	st.logger.Debug("tactic selected",
		"tactic", d.Tactic,
		"key", d.Key,
		"mark", self.String(),
		"size", s.Size(),
	)
	return d, nil
}

func (st *Strategist) cascade(s Snapshot, self, other Mark, selfCount, otherCount int) Decision {
	n := s.Size()
	selfReady := selfCount >= n-1
	otherReady := otherCount >= n-1

	if selfReady {
		if moves := WinningMoves(s, self); len(moves) > 0 {
			return st.pick(TacticWin, moves)
		}
	}
	if otherReady {
		// Only one of several simultaneous threats can be blocked.
		if moves := WinningMoves(s, other); len(moves) > 0 {
			return st.pick(TacticBlock, moves)
		}
	}
	if selfReady {
		if moves := ForkingMoves(s, self); len(moves) > 0 {
			return st.pick(TacticFork, moves)
		}
	}
	if otherReady {
		if d, ok := st.blockFork(s, self, other); ok {
			return d
		}
	}

	if center, ok := CenterKey(n); ok && s.IsEmpty(center) && !AllowsOpponentFork(s, self, center) {
		return Decision{Key: center, Tactic: TacticCenter}
	}

	if d, ok := st.oppositeCorner(s, other); ok {
		return d
	}

	if corners := OccupiedCorners(s, Empty); len(corners) > 0 {
		return st.pick(TacticEmptyCorner, corners)
	}

	if sides := emptyOf(s, SideKeys(n)); len(sides) > 0 {
		return st.pick(TacticEmptySide, sides)
	}

	// Inner cells off both diagonals are not side keys; they only remain
	// on boards of size 5 and up.
	return st.pick(TacticAnyEmpty, s.EmptyKeys())
}

// blockFork answers the opponent's forking squares. A block that also
// creates a reach forces the opponent to defend, so it is preferred. Blocks
// that hand the opponent a fork on the next move are dropped.
func (st *Strategist) blockFork(s Snapshot, self, other Mark) (Decision, bool) {
	forks := ForkingMoves(s, other)
	if len(forks) == 0 {
		return Decision{}, false
	}

	var reaching, safe []int
	for _, k := range forks {
		if AllowsOpponentFork(s, self, k) {
			continue
		}
		safe = append(safe, k)
		if CreatesReach(s, self, k) {
			reaching = append(reaching, k)
		}
	}

	if len(reaching) > 0 {
		return st.pick(TacticBlockForkReach, reaching), true
	}
	if len(safe) > 0 {
		return st.pick(TacticBlockFork, safe), true
	}
	return Decision{}, false
}

// oppositeCorner plays opposite a corner the opponent holds. The step fires
// when at least one candidate passes the fork check, but the move is then
// drawn from every available opposite corner, checked or not.
func (st *Strategist) oppositeCorner(s Snapshot, other Mark) (Decision, bool) {
	pool, passing := oppositeCornerCandidates(s, other)
	if len(passing) == 0 {
		return Decision{}, false
	}
	return st.pick(TacticOppositeCorner, pool), true
}

// oppositeCornerCandidates returns the empty corners opposite the
// opponent's corners and the subset that passes the fork check.
func oppositeCornerCandidates(s Snapshot, other Mark) (pool, passing []int) {
	n := s.Size()
	for _, corner := range OccupiedCorners(s, other) {
		opposite, err := OppositeCorner(corner, n)
		if err != nil || !s.IsEmpty(opposite) {
			continue
		}
		pool = append(pool, opposite)
	}
	for _, k := range pool {
		if !AllowsOpponentFork(s, other, k) {
			passing = append(passing, k)
		}
	}
	return pool, passing
}

func (st *Strategist) pick(t Tactic, keys []int) Decision {
	return Decision{Key: st.rng.Pick(keys), Tactic: t}
}

func emptyOf(s Snapshot, keys []int) []int {
	var out []int
	for _, k := range keys {
		if s.IsEmpty(k) {
			out = append(out, k)
		}
	}
	return out
}

func checkMarks(self, other Mark) error {
	if self == Empty || self.Opponent() != other {
		return ErrInvalidMark
	}
	return nil
}
