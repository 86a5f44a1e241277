package sender

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Pacer blocks the dispatch loop between successful transfers
type Pacer interface {
	Wait(ctx context.Context, seconds int) error
}

// Countdown is a Pacer that prints the remaining seconds once per tick
type Countdown struct {
	Out      io.Writer
	Interval time.Duration
	// Live rewrites a single line with carriage returns
	Live bool
}

// NewCountdown returns a one-second countdown on stdout, live only when
// stdout is a terminal.
func NewCountdown() *Countdown {
	return &Countdown{
		Out:      color.Output,
		Interval: time.Second,
		Live:     term.IsTerminal(int(os.Stdout.Fd())),
	}
}

func (c *Countdown) Wait(ctx context.Context, seconds int) error {
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	yellow.Fprintf(c.Out, "⏳ Waiting %d seconds before the next transaction...\n", seconds)
	if seconds <= 0 {
		fmt.Fprintln(c.Out)
		return nil
	}

	tick := time.NewTicker(c.Interval)
	defer tick.Stop()

	for remaining := seconds; remaining > 0; remaining-- {
		if c.Live {
			cyan.Fprintf(c.Out, "⏳ %d seconds remaining...\r", remaining)
		}
		select {
		case <-ctx.Done():
			fmt.Fprintln(c.Out)
			return ctx.Err()
		case <-tick.C:
		}
	}
	fmt.Fprintln(c.Out)
	return nil
}
