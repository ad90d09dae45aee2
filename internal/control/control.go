// Package control implements the line-based command set used to adjust a
// running vibrato from a terminal.
package control

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/cwbudde/algo-vibrato/dsp/param"
)

// ErrQuit is returned by Eval for the quit command.
var ErrQuit = errors.New("quit")

// Target is the parameter surface commands act on. Its methods must be safe
// to call while audio is being processed.
type Target interface {
	SetFrequency(hz float64)
	SetSweepWidth(seconds float64)
	SetGainDB(db float64)
	Parameters() []*param.Float
	Peak() float64
	PitchDeviation() float64
}

// LineReader yields one command line per call and io.EOF at the end.
type LineReader interface {
	Readline() (string, error)
}

type command struct {
	name  string
	usage string
	arity int
	run   func(Target, []string) (string, error)
}

var commands []command

func init() {
	commands = []command{
		{"freq", "freq <hz>", 1, setter(Target.SetFrequency)},
		{"width", "width <seconds>", 1, setter(Target.SetSweepWidth)},
		{"gain", "gain <db>", 1, setter(Target.SetGainDB)},
		{"status", "status", 0, statusCommand},
		{"help", "help", 0, helpCommand},
		{"quit", "quit", 0, func(Target, []string) (string, error) { return "", ErrQuit }},
	}
}

// Names returns the command names, sorted.
func Names() []string {
	names := make([]string, len(commands))
	for i, c := range commands {
		names[i] = c.name
	}
	sort.Strings(names)
	return names
}

// Eval runs one command line against t and returns the text to show.
func Eval(t Target, line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}

	name := strings.ToLower(fields[0])
	args := fields[1:]

	for _, c := range commands {
		if c.name != name {
			continue
		}
		if len(args) != c.arity {
			return "", fmt.Errorf("%s: wrong number of arguments: want %d, got %d (usage: %s)",
				c.name, c.arity, len(args), c.usage)
		}
		return c.run(t, args)
	}

	return "", fmt.Errorf("unknown command: %s", name)
}

// Run reads lines from r until EOF or quit and writes results and errors to w.
func Run(r LineReader, t Target, w io.Writer) error {
	for {
		line, err := r.Readline()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return nil
			}
			continue
		}
		if err != nil {
			return err
		}

		result, err := Eval(t, line)
		if errors.Is(err, ErrQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintln(w, err)
			continue
		}
		if result != "" {
			fmt.Fprintln(w, result)
		}
	}
}

// Completer offers command names for tab completion.
func Completer() readline.AutoCompleter {
	items := make([]readline.PrefixCompleterInterface, 0, len(commands))
	for _, name := range Names() {
		items = append(items, readline.PcItem(name))
	}
	return readline.NewPrefixCompleter(items...)
}

func setter(set func(Target, float64)) func(Target, []string) (string, error) {
	return func(t Target, args []string) (string, error) {
		v, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return "", fmt.Errorf("invalid number %q", args[0])
		}
		set(t, v)
		return statusLine(t), nil
	}
}

func statusCommand(t Target, _ []string) (string, error) {
	return fmt.Sprintf("%s peak=%.3f deviation=%.2f%%", statusLine(t), t.Peak(), 100*t.PitchDeviation()), nil
}

func helpCommand(Target, []string) (string, error) {
	usages := make([]string, len(commands))
	for i, c := range commands {
		usages[i] = c.usage
	}
	return strings.Join(usages, "\n"), nil
}

func statusLine(t Target) string {
	params := t.Parameters()
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.String()
	}
	return strings.Join(parts, " ")
}
