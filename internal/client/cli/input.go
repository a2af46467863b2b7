package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// readFields prints a prompt to w and reads "name=value" lines from scanner
// until an empty line or EOF. The raw lines are returned unchanged.
func readFields(scanner *bufio.Scanner, w io.Writer) []string {
	fmt.Fprintln(w, "Enter fields in the format name=value (empty line to finish)")

	lines := make([]string, 0)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" {
			break
		}
		lines = append(lines, line)
	}
	return lines
}

// ParseFields turns "name=value" pairs into an entity document. A value
// that is valid JSON (number, bool, null, object, array, quoted string) is
// decoded; anything else is kept as a plain string.
func ParseFields(pairs []string) (map[string]any, error) {
	fields := make(map[string]any, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid field %q, expected name=value", p)
		}

		var decoded any
		if err := json.Unmarshal([]byte(value), &decoded); err == nil {
			fields[name] = decoded
		} else {
			fields[name] = value
		}
	}
	return fields, nil
}
