package util

import (
	"fmt"
	"strings"
	"unicode"
)

// Plural adds an "s" to text unless num is one.
func Plural(text string, num int) string {
	if num != 1 {
		return text + "s"
	}
	return text
}

// CommandMessage rebuilds a command line from its args, quoting the
// literals that contain blanks. A leading "+" or "-" stays outside the quotes.
func CommandMessage(name string, args []string) string {
	literals := make([]string, len(args))
	for i, arg := range args {
		if !strings.ContainsAny(arg, " \t") {
			literals[i] = arg
			continue
		}
		prefix := ""
		literal := arg
		if arg[0] == '+' || arg[0] == '-' {
			prefix = arg[:1]
			literal = arg[1:]
		}
		literals[i] = fmt.Sprintf("\"%s%s\"", prefix, literal)
	}
	return fmt.Sprintf("%s %s", name, strings.Join(literals, " "))
}

// SplitCommand splits a command line honouring single and double quotes.
func SplitCommand(command string) ([]string, error) {
	var args []string
	var current strings.Builder
	var quote rune
	inArg := false
	escaped := false

	for _, r := range command {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case r == '\\' && quote != '\'':
			escaped = true
			inArg = true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			inArg = true
		case unicode.IsSpace(r):
			if inArg {
				args = append(args, current.String())
				current.Reset()
				inArg = false
			}
		default:
			current.WriteRune(r)
			inArg = true
		}
	}

	if quote != 0 {
		return nil, fmt.Errorf("unterminated quote in command %q", command)
	}
	if inArg {
		args = append(args, current.String())
	}
	return args, nil
}

// SplitList splits a separated list and trims its elements, skipping empty ones.
func SplitList(list string, separator string) []string {
	var items []string
	for _, item := range strings.Split(list, separator) {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}
