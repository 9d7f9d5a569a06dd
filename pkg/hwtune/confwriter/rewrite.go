package confwriter

import (
	"fmt"
	"strings"
)

// assignment is one tuning key and its rendered value.
type assignment struct {
	key   string
	value string
}

// splitLines splits content into lines, remembering whether the content
// ended with a newline so it can be reproduced exactly.
func splitLines(data []byte) (lines []string, trailingNewline bool) {
	s := string(data)
	trailingNewline = strings.HasSuffix(s, "\n")
	if trailingNewline {
		s = s[:len(s)-1]
	}
	return strings.Split(s, "\n"), trailingNewline
}

func joinLines(lines []string, trailingNewline bool) []byte {
	out := strings.Join(lines, "\n")
	if trailingNewline {
		out += "\n"
	}
	return []byte(out)
}

// leadingWhitespace returns the indentation prefix of a line.
func leadingWhitespace(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}

// missingKeysError builds the loud failure for keys that were never seen.
func missingKeysError(found map[string]bool, want []assignment) error {
	var missing []string
	for _, a := range want {
		if !found[a.key] {
			missing = append(missing, a.key)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrKeyNotFound, strings.Join(missing, ", "))
}

// rewriteEnv updates KEY=value lines in an environment file. Comments,
// blank lines, and unrelated keys pass through unchanged.
func rewriteEnv(data []byte, assignments []assignment) ([]byte, error) {
	lines, nl := splitLines(data)
	found := make(map[string]bool)

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		for _, a := range assignments {
			if strings.HasPrefix(trimmed, a.key+"=") {
				lines[i] = a.key + "=" + a.value
				found[a.key] = true
				break
			}
		}
	}

	if err := missingKeysError(found, assignments); err != nil {
		return nil, err
	}
	return joinLines(lines, nl), nil
}

// rewriteDirectives updates "key value" style directives, as used by nginx
// (terminator ";") and redis (no terminator). Indentation is preserved;
// commented directives are not touched.
func rewriteDirectives(data []byte, terminator string, assignments []assignment) ([]byte, error) {
	lines, nl := splitLines(data)
	found := make(map[string]bool)

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		for _, a := range assignments {
			if isDirective(trimmed, a.key) {
				lines[i] = leadingWhitespace(line) + a.key + " " + a.value + terminator
				found[a.key] = true
				break
			}
		}
	}

	if err := missingKeysError(found, assignments); err != nil {
		return nil, err
	}
	return joinLines(lines, nl), nil
}

// isDirective reports whether a trimmed line is the directive named key,
// i.e. the key followed by whitespace (not a longer key sharing the prefix).
func isDirective(trimmed, key string) bool {
	if !strings.HasPrefix(trimmed, key) {
		return false
	}
	rest := trimmed[len(key):]
	return rest != "" && (rest[0] == ' ' || rest[0] == '\t')
}

// rewriteINI updates "key = value" entries within a named [section] of an
// INI-style file (netdata.conf). Keys outside the section are never touched.
func rewriteINI(data []byte, section, key, value string) ([]byte, error) {
	lines, nl := splitLines(data)
	inSection := false
	found := false

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			inSection = strings.TrimSpace(trimmed[1:len(trimmed)-1]) == section
			continue
		}
		if !inSection || trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		name, _, ok := strings.Cut(trimmed, "=")
		if !ok || strings.TrimSpace(name) != key {
			continue
		}
		lines[i] = leadingWhitespace(line) + key + " = " + value
		found = true
	}

	if !found {
		return nil, fmt.Errorf("%w: [%s] %s", ErrKeyNotFound, section, key)
	}
	return joinLines(lines, nl), nil
}

// rewriteCompose updates keys inside one service block of a compose file.
// The block is the run of lines indented deeper than the "service:" line;
// only direct keys of the service are rewritten, preserving indentation.
func rewriteCompose(data []byte, service string, assignments []assignment) ([]byte, error) {
	lines, nl := splitLines(data)
	found := make(map[string]bool)

	serviceIndent := -1
	inService := false

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		indent := len(leadingWhitespace(line))

		if trimmed == service+":" {
			serviceIndent = indent
			inService = true
			continue
		}
		if inService && indent <= serviceIndent {
			inService = false
		}
		if !inService || strings.HasPrefix(trimmed, "#") {
			continue
		}

		for _, a := range assignments {
			if strings.HasPrefix(trimmed, a.key+":") {
				lines[i] = leadingWhitespace(line) + a.key + ": " + a.value
				found[a.key] = true
				break
			}
		}
	}

	if serviceIndent == -1 {
		return nil, fmt.Errorf("%w: service block %q", ErrKeyNotFound, service)
	}
	if err := missingKeysError(found, assignments); err != nil {
		return nil, err
	}
	return joinLines(lines, nl), nil
}
