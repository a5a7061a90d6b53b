package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"tictactoe/internal/game"
)

func main() {
	size := flag.Int("size", game.DefaultBoardSize, "board size N")
	difficulty := flag.Int("difficulty", game.DefaultDifficulty, "bot difficulty 0-10")
	seed := flag.Int64("seed", 0, "random seed; 0 seeds from the clock, any other value replays the same bot moves")
	botFirst := flag.Bool("bot-first", false, "let the bot open the game")
	verbose := flag.Bool("v", false, "log which tactic the bot used")
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := play(os.Stdin, os.Stdout, *size, *difficulty, *seed, *botFirst, logger); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func play(in io.Reader, out io.Writer, size, difficulty int, seed int64, botFirst bool, logger *slog.Logger) error {
	board, err := game.NewBoard(size)
	if err != nil {
		return err
	}
	human, botMark := game.MarkX, game.MarkO
	if botFirst {
		human, botMark = game.MarkO, game.MarkX
	}
	bot, err := game.NewBot(botMark, difficulty, game.NewRand(seed), logger)
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(in)
	fmt.Fprintln(out, "Welcome to Tic-Tac-Toe ...")
	fmt.Fprint(out, board.KeyMatrix())

	turn := game.MarkX
	for {
		var key int
		if turn == human {
			key, err = readMove(scanner, out, board)
			if err != nil {
				return err
			}
		} else {
			d, err := bot.ChooseMove(board.Snapshot())
			if err != nil {
				return err
			}
			key = d.Key
			fmt.Fprintf(out, "Bot's move: %d\n", key)
		}

		res, err := board.Put(key, turn)
		if err != nil {
			return err
		}
		fmt.Fprint(out, board.String())

		switch {
		case res.Winner == human:
			fmt.Fprintln(out, "You won")
			return nil
		case res.Winner == botMark:
			fmt.Fprintln(out, "Bot won")
			return nil
		case res.IsDraw:
			fmt.Fprintln(out, "Draw")
			return nil
		}
		turn = turn.Opponent()
	}
}

var errNoInput = errors.New("input closed before the game ended")

// readMove prompts until the user enters a free, in-range key.
func readMove(scanner *bufio.Scanner, out io.Writer, board *game.Board) (int, error) {
	for {
		fmt.Fprintln(out, "Please input your next move:")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return 0, err
			}
			return 0, errNoInput
		}
		key, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
		switch {
		case err != nil:
			fmt.Fprintln(out, "Move key needs to be an integer.")
		case !board.Snapshot().ValidKey(key):
			fmt.Fprintln(out, "The move key is out of range.")
		case !board.Available(key):
			fmt.Fprintln(out, "That position is already taken.")
		default:
			return key, nil
		}
	}
}
