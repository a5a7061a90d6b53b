package game

// RandomAgent picks uniformly among the empty cells.
type RandomAgent struct {
	rng *Rand
}

func NewRandomAgent(rng *Rand) *RandomAgent {
	if rng == nil {
		rng = NewRand(0)
	}
	return &RandomAgent{rng: rng}
}

func (a *RandomAgent) SelectNextMove(s Snapshot) (int, error) {
	keys := s.EmptyKeys()
	if len(keys) == 0 {
		return 0, ErrBoardFull
	}
	return a.rng.Pick(keys), nil
}
