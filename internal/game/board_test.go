package game

import (
	"errors"
	"slices"
	"strings"
	"testing"
)

func TestNewBoardSize(t *testing.T) {
	for _, n := range []int{0, -2, MaxBoardSize + 1, 1000000} {
		if _, err := NewBoard(n); !errors.Is(err, ErrInvalidBoardSize) {
			t.Fatalf("NewBoard(%d) err = %v", n, err)
		}
	}
	b, err := NewBoard(4)
	if err != nil || b.Size() != 4 {
		t.Fatalf("NewBoard(4) = %v, %v", b, err)
	}
	if _, err := NewBoard(MaxBoardSize); err != nil {
		t.Fatalf("NewBoard(%d) err = %v", MaxBoardSize, err)
	}
}

func TestPutErrors(t *testing.T) {
	b, _ := NewBoard(3)
	if _, err := b.Put(0, MarkX); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("key 0 err = %v", err)
	}
	if _, err := b.Put(10, MarkX); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("key 10 err = %v", err)
	}
	if _, err := b.Put(1, Empty); !errors.Is(err, ErrInvalidMark) {
		t.Fatalf("empty mark err = %v", err)
	}
	if _, err := b.Put(1, MarkX); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Put(1, MarkO); !errors.Is(err, ErrCellTaken) {
		t.Fatalf("taken err = %v", err)
	}
	if got := b.Moves(); !slices.Equal(got, []int{1}) {
		t.Fatalf("moves = %v", got)
	}
}

func TestPutDetectsRowWin(t *testing.T) {
	b, _ := NewBoard(3)
	seq := []struct {
		key  int
		mark Mark
	}{{1, MarkX}, {4, MarkO}, {2, MarkX}, {5, MarkO}}
	for _, m := range seq {
		res, err := b.Put(m.key, m.mark)
		if err != nil || res.Winner != Empty || res.IsDraw {
			t.Fatalf("move %d: %+v, %v", m.key, res, err)
		}
	}
	res, err := b.Put(3, MarkX)
	if err != nil {
		t.Fatal(err)
	}
	if res.Winner != MarkX || !slices.Equal(res.Winning, []int{1, 2, 3}) {
		t.Fatalf("result = %+v", res)
	}
	if !b.IsGameOver(MarkX, 3) || b.IsGameOver(MarkO, 5) {
		t.Fatal("IsGameOver disagrees with Put")
	}
}

func TestPutDetectsAntiDiagonalWin(t *testing.T) {
	b, _ := NewBoard(4)
	for _, k := range []int{4, 7, 10} {
		b.Put(k, MarkO)
	}
	res, _ := b.Put(13, MarkO)
	if res.Winner != MarkO || !slices.Equal(res.Winning, []int{4, 7, 10, 13}) {
		t.Fatalf("result = %+v", res)
	}
}

func TestPutDetectsDraw(t *testing.T) {
	b, _ := NewBoard(3)
	turn := MarkX
	var res MoveResult
	for _, k := range []int{1, 2, 3, 5, 4, 6, 8, 7, 9} {
		var err error
		res, err = b.Put(k, turn)
		if err != nil {
			t.Fatal(err)
		}
		if res.Winner != Empty {
			t.Fatalf("unexpected winner after %d: %v", k, res.Winner)
		}
		turn = turn.Opponent()
	}
	if !res.IsDraw {
		t.Fatalf("expected draw, board:\n%s", b)
	}
}

func TestBoardRendering(t *testing.T) {
	b, _ := NewBoard(3)
	if got, want := b.KeyMatrix(), "1|2|3|\n4|5|6|\n7|8|9|\n"; got != want {
		t.Fatalf("KeyMatrix = %q want %q", got, want)
	}
	b.Put(1, MarkX)
	b.Put(5, MarkO)
	if got, want := b.String(), "X| | |\n |O| |\n | | |\n"; got != want {
		t.Fatalf("String = %q want %q", got, want)
	}
}

func TestEarlierSnapshotsStayUnchanged(t *testing.T) {
	b, _ := NewBoard(3)
	before := b.Snapshot()
	res, _ := b.Put(5, MarkX)
	if !before.IsEmpty(5) {
		t.Fatal("snapshot taken before the move was modified")
	}
	if res.Board.MarkAt(5) != MarkX || b.Snapshot().MarkAt(5) != MarkX {
		t.Fatal("move not visible on the new snapshot")
	}
	moves := b.Moves()
	moves[0] = 9
	if b.Moves()[0] != 5 {
		t.Fatal("Moves exposes internal slice")
	}
}

func TestParseSnapshotRejectsBadInput(t *testing.T) {
	if _, err := ParseSnapshot([]string{"X.", "..."}); !errors.Is(err, ErrInvalidBoardSize) {
		t.Fatalf("ragged err = %v", err)
	}
	if _, err := ParseSnapshot([]string{"X?", ".."}); !errors.Is(err, ErrInvalidMark) {
		t.Fatalf("bad char err = %v", err)
	}
	tooBig := make([]string, MaxBoardSize+1)
	for i := range tooBig {
		tooBig[i] = strings.Repeat(".", MaxBoardSize+1)
	}
	if _, err := ParseSnapshot(tooBig); !errors.Is(err, ErrInvalidBoardSize) {
		t.Fatalf("oversized err = %v", err)
	}
	if _, err := ParseSnapshot([]string{strings.Repeat(".", 50)}); !errors.Is(err, ErrInvalidBoardSize) {
		t.Fatalf("long row err = %v", err)
	}
	if _, err := ParseSnapshot(nil); !errors.Is(err, ErrInvalidBoardSize) {
		t.Fatalf("empty err = %v", err)
	}
	if _, err := ParseMark("z"); !errors.Is(err, ErrInvalidMark) {
		t.Fatalf("ParseMark err = %v", err)
	}
}
