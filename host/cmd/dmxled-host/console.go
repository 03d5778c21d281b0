package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/shlex"

	"dmxled/core"
	"dmxled/host/link"
)

// target is what the console drives: a local simulator or a device
type target interface {
	SetFrame(ctx context.Context, master, speed uint8, levels []uint8) error
	ClearFrame(ctx context.Context) error
	Status(ctx context.Context) (link.Status, error)
	DumpTiming(ctx context.Context) ([]core.TimingEvent, error)
}

var errQuit = errors.New("quit")

var (
	labelStyle = lipgloss.NewStyle().Width(8)
	valueStyle = lipgloss.NewStyle().Width(4).Align(lipgloss.Right)
	barStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700"))
)

// console keeps the bench frame and applies edits to the target
type console struct {
	target target
	out    io.Writer

	master uint8
	speed  uint8
	levels []uint8
}

func newConsole(t target, leds int, out io.Writer) *console {
	levels := make([]uint8, leds)
	for i := range levels {
		levels[i] = 255
	}
	return &console{target: t, out: out, levels: levels}
}

// run reads commands until EOF, quit or ctx is done
func (c *console) run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(c.out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		err := c.execute(ctx, scanner.Text())
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(c.out, "error: %v\n", err)
		}
	}
}

func parseLevel(s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("level %q: must be 0-255", s)
	}
	return uint8(v), nil
}

func (c *console) execute(ctx context.Context, line string) error {
	words, err := shlex.Split(line)
	if err != nil {
		return err
	}
	if len(words) == 0 {
		return nil
	}
	cmd, args := words[0], words[1:]

	switch cmd {
	case "quit", "exit", "q":
		return errQuit

	case "help", "?":
		c.help()
		return nil

	case "master", "speed":
		if len(args) != 1 {
			return fmt.Errorf("usage: %s N", cmd)
		}
		v, err := parseLevel(args[0])
		if err != nil {
			return err
		}
		if cmd == "master" {
			c.master = v
		} else {
			c.speed = v
		}
		return c.apply(ctx)

	case "led":
		if len(args) != 2 {
			return errors.New("usage: led INDEX N")
		}
		idx, err := strconv.Atoi(args[0])
		if err != nil || idx < 0 || idx >= len(c.levels) {
			return fmt.Errorf("led index %q: must be 0-%d", args[0], len(c.levels)-1)
		}
		v, err := parseLevel(args[1])
		if err != nil {
			return err
		}
		c.levels[idx] = v
		return c.apply(ctx)

	case "leds":
		if len(args) == 0 || len(args) > len(c.levels) {
			return fmt.Errorf("usage: leds N... (up to %d values)", len(c.levels))
		}
		for i, a := range args {
			v, err := parseLevel(a)
			if err != nil {
				return err
			}
			c.levels[i] = v
		}
		return c.apply(ctx)

	case "clear":
		return c.target.ClearFrame(ctx)

	case "show":
		c.show()
		return nil

	case "status":
		st, err := c.target.Status(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "strobe=%s active=%t ticks=%d effective=%d override=%t loops=%d dmx_frames=%d dmx_dropped=%d\n",
			st.State, st.Active, st.Ticks, st.Effective, st.Override, st.Loops, st.DMXFrames, st.DMXDropped)
		return nil

	case "timing":
		events, err := c.target.DumpTiming(ctx)
		if err != nil {
			return err
		}
		for _, evt := range events {
			fmt.Fprintf(c.out, "%-14s ticks=%-3d loop=%-8d v1=%d v2=%d\n",
				core.EventName(evt.EventType), evt.Ticks, evt.Loop, evt.Value1, evt.Value2)
		}
		return nil

	default:
		return fmt.Errorf("unknown command %q (try help)", cmd)
	}
}

func (c *console) apply(ctx context.Context) error {
	return c.target.SetFrame(ctx, c.master, c.speed, c.levels)
}

// show draws the bench frame, one bar per channel
func (c *console) show() {
	rows := []string{frameRow("master", c.master), frameRow("speed", c.speed)}
	for i, level := range c.levels {
		rows = append(rows, frameRow("led "+strconv.Itoa(i), level))
	}
	fmt.Fprintln(c.out, lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func frameRow(label string, v uint8) string {
	return lipgloss.JoinHorizontal(lipgloss.Top,
		labelStyle.Render(label),
		valueStyle.Render(strconv.Itoa(int(v))),
		" ",
		barStyle.Render(strings.Repeat("█", int(v)/16)),
	)
}

func (c *console) help() {
	fmt.Fprintln(c.out, `commands:
  master N        set the master dimmer (0-255)
  speed N         set the strobe speed, 0 disables the strobe
  led I N         set one LED level
  leds N...       set LED levels from LED 0 upwards
  clear           drop the bench frame, follow live DMX again
  show            draw the bench frame
  status          show the control loop state
  timing          dump the strobe timing ring
  quit            exit`)
}
