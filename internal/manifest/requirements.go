package manifest

import (
	"bufio"
	"bytes"
	"strings"
)

// Requirement is one line of a requirements.txt
type Requirement struct {
	Name string
	Spec string // version specifier, e.g. "==2.0.1"
}

// ParseRequirements reads requirement lines, skipping blanks, comments
// and pip options such as "-r other.txt".
func ParseRequirements(data []byte) []Requirement {
	var reqs []Requirement
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "-") {
			continue
		}
		if i := strings.Index(line, ";"); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}

		name, spec := line, ""
		if i := strings.IndexAny(line, "=<>!~[ "); i >= 0 {
			name, spec = strings.TrimSpace(line[:i]), strings.TrimSpace(line[i:])
		}
		if name == "" {
			continue
		}
		reqs = append(reqs, Requirement{Name: name, Spec: spec})
	}
	return reqs
}
