// Package util provides common utility functions used across the codebase.
package util

import (
	"fmt"
	"strings"
)

// ShellQuote wraps a string in single quotes, escaping any existing single quotes.
// This is safe for use in shell commands where the string should be treated literally.
func ShellQuote(s string) string {
	// ' becomes '\'' (end quote, escaped quote, start quote)
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// ShellJoin renders args as one command line. Words made only of safe
// characters stay bare so the common case reads naturally.
func ShellJoin(args []string) string {
	parts := make([]string, len(args))
	for i, a := range args {
		if a != "" && isShellSafe(a) {
			parts[i] = a
		} else {
			parts[i] = ShellQuote(a)
		}
	}
	return strings.Join(parts, " ")
}

func isShellSafe(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune("-_=./:,@%+", r):
		default:
			return false
		}
	}
	return true
}

// SplitArgs breaks a command line into words without handing it to a shell.
// Whitespace separates words; single quotes group literally; double quotes
// group, and inside them a backslash escapes only \" and \\ and is kept before
// anything else; a backslash outside quotes escapes the next character.
// Nothing is expanded, globbed, or piped.
func SplitArgs(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		inWord  bool
		quote   rune
		escaped bool
	)

	for _, r := range line {
		switch {
		case escaped:
			if quote == '"' && r != '"' && r != '\\' {
				cur.WriteRune('\\')
			}
			cur.WriteRune(r)
			escaped = false
		case quote == '\'':
			if r == '\'' {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case quote == '"':
			switch r {
			case '"':
				quote = 0
			case '\\':
				escaped = true
			default:
				cur.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
			inWord = true
		case r == '\\':
			escaped = true
			inWord = true
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			if inWord {
				args = append(args, cur.String())
				cur.Reset()
				inWord = false
			}
		default:
			cur.WriteRune(r)
			inWord = true
		}
	}

	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote", quote)
	}
	if escaped {
		return nil, fmt.Errorf("trailing backslash")
	}
	if inWord {
		args = append(args, cur.String())
	}
	return args, nil
}
