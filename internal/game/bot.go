package game

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Kind selects which move policy an Agent runs.
type Kind string

const (
	KindBaseline  Kind = "baseline"
	KindStrategic Kind = "strategic"
)

const (
	MinDifficulty     = 0
	MaxDifficulty     = 10
	DefaultDifficulty = MaxDifficulty
)

var (
	ErrUnknownAgent      = errors.New("unknown agent kind")
	ErrInvalidDifficulty = errors.New("difficulty must be between 0 and 10")
)

func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strategic", "rational":
		return KindStrategic, nil
	case "baseline", "random":
		return KindBaseline, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAgent, s)
}

// Agent puts the baseline and strategic policies behind one call.
type Agent struct {
	kind      Kind
	baseline  *RandomAgent
	strategic *Strategist
}

func NewAgent(kind Kind, rng *Rand, logger *slog.Logger) (*Agent, error) {
	switch kind {
	case KindBaseline:
		return &Agent{kind: kind, baseline: NewRandomAgent(rng)}, nil
	case KindStrategic:
		return &Agent{kind: kind, strategic: NewStrategist(rng, logger)}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAgent, kind)
}

func (a *Agent) Kind() Kind { return a.kind }

// SelectNextMove picks a move for self. Mark counts come from the snapshot.
func (a *Agent) SelectNextMove(s Snapshot, self Mark) (Decision, error) {
	if a.kind == KindBaseline {
		key, err := a.baseline.SelectNextMove(s)
		if err != nil {
			return Decision{}, err
		}
		return Decision{Key: key, Tactic: TacticRandom}, nil
	}
	other := self.Opponent()
	return a.strategic.Decide(s, self, other, s.Count(self), s.Count(other))
}

// Bot mixes the two agents by difficulty. Each move draws v in [0, 10);
// the random agent plays when v >= Difficulty, so 10 always plays the
// strategy and 0 always plays at random.
type Bot struct {
	Player     Mark
	Difficulty int

	rng       *Rand
	baseline  *Agent
	strategic *Agent
}

func NewBot(player Mark, difficulty int, rng *Rand, logger *slog.Logger) (*Bot, error) {
	if player != MarkX && player != MarkO {
		return nil, ErrInvalidMark
	}
	if difficulty < MinDifficulty || difficulty > MaxDifficulty {
		return nil, ErrInvalidDifficulty
	}
	if rng == nil {
		rng = NewRand(0)
	}
	baseline, _ := NewAgent(KindBaseline, rng, logger)
	strategic, _ := NewAgent(KindStrategic, rng, logger)
	return &Bot{
		Player:     player,
		Difficulty: difficulty,
		rng:        rng,
		baseline:   baseline,
		strategic:  strategic,
	}, nil
}

func (b *Bot) ChooseMove(s Snapshot) (Decision, error) {
	if b.rng.Intn(MaxDifficulty) >= b.Difficulty {
		return b.baseline.SelectNextMove(s, b.Player)
	}
	return b.strategic.SelectNextMove(s, b.Player)
}
