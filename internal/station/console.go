// internal/station/console.go
package station

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
)

// Bench is the operator surface of the simulated fixture. *hw.Sim satisfies it.
type Bench interface {
	PressStart()
	SetLid(open bool)
	LidOpen() bool
	SetStuckOn(v bool)
	SetNoLatch(v bool)
	LEDs() (green, red bool)
}

const consoleHelp = `bench console:
  <enter>  press start
  l        toggle lid
  s        toggle stuck-on load
  n        toggle latch failure
  ?        show LEDs
  q        quit`

// Interactive reports whether f is a terminal an operator can type into.
func Interactive(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Console reads bench commands line by line from in until ctx is done,
// in is exhausted or the operator quits. quit is called on "q".
func Console(ctx context.Context, in io.Reader, out io.Writer, b Bench, quit func(), log *slog.Logger) {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	fmt.Fprintln(out, consoleHelp)

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	stuck, noLatch := false, false

	for {
		var line string
		select {
		case <-ctx.Done():
			return
		case l, ok := <-lines:
			if !ok {
				return
			}
			line = strings.TrimSpace(l)
		}

		switch line {
		case "":
			b.PressStart()
			log.Info("bench: start pressed")
		case "l":
			open := !b.LidOpen()
			b.SetLid(open)
			log.Info("bench: lid", slog.Bool("open", open))
		case "s":
			stuck = !stuck
			b.SetStuckOn(stuck)
			log.Info("bench: stuck-on load", slog.Bool("enabled", stuck))
		case "n":
			noLatch = !noLatch
			b.SetNoLatch(noLatch)
			log.Info("bench: latch failure", slog.Bool("enabled", noLatch))
		case "?":
			g, r := b.LEDs()
			fmt.Fprintf(out, "LED green=%v red=%v lid_open=%v\n", g, r, b.LidOpen())
		case "q":
			if quit != nil {
				quit()
			}
			return
		default:
			fmt.Fprintln(out, consoleHelp)
		}
	}
}
