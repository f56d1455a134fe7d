package shell

import (
	"fmt"
	"strings"
)

// Kind is the kind of a shell input line.
type Kind int

const (
	// KindEmpty is a blank line.
	KindEmpty Kind = iota

	// KindLine is a shortcut with an inline query: `%show select 1`.
	KindLine

	// KindCell starts a shortcut whose query is the block of lines that follows: `%%show`.
	KindCell

	// KindCommand is a dot command: `.tables`.
	KindCommand
)

// Input is a parsed shell line.
type Input struct {
	Kind Kind

	// Name of the shortcut or dot command, without its prefix.
	Name string

	// Text following the name.
	Text string

	// Args is Text split on whitespace.
	Args []string
}

// Parse parses a single line of shell input.
func Parse(line string) (*Input, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return &Input{Kind: KindEmpty}, nil
	}

	var kind Kind
	var rest string
	switch {
	case strings.HasPrefix(line, "%%"):
		kind = KindCell
		rest = line[2:]
	case strings.HasPrefix(line, "%"):
		kind = KindLine
		rest = line[1:]
	case strings.HasPrefix(line, "."):
		kind = KindCommand
		rest = line[1:]
	default:
		return nil, fmt.Errorf("Input must start with %q, %q or %q", "%", "%%", ".")
	}

	name, text, _ := strings.Cut(rest, " ")
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("Missing name after %q", line)
	}

	text = strings.TrimSpace(text)

	return &Input{
		Kind: kind,
		Name: name,
		Text: text,
		Args: strings.Fields(text),
	}, nil
}
