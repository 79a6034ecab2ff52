package workload

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// scriptKeys is the set of recognized script directives.
var scriptKeys = map[string]bool{
	"process": true, "end": true, "lifespan": true, "prio": true, "start": true, "acquire": true,
}

// LoadScript reads and parses a process script file.
func LoadScript(path string) (*WorkloadSpec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading workload script: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only file

	spec, err := ParseScript(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	spec.Name = nameFromPath(path)
	return spec, nil
}

// ParseScript parses a process script:
//
//	# comment
//	process <pid>
//	    lifespan <ticks>
//	    prio <priority>
//	    start <tick>
//	    acquire <resource> <at> <duration>
//	end
//
// Blank lines are ignored and '#' starts a comment. Inside a block, lifespan
// is required; prio and start default to 0. The whole script is rejected on
// the first error.
func ParseScript(r io.Reader) (*WorkloadSpec, error) {
	spec := &WorkloadSpec{Version: SpecVersion}
	var cur *ProcessSpec
	seen := make(map[int]bool)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		tokens := strings.Fields(line)
		if len(tokens) == 0 {
			continue
		}
		malformed := func(format string, args ...any) error {
			return fmt.Errorf("%w: line %d: %s", ErrMalformed, lineNo, fmt.Sprintf(format, args...))
		}
		key := tokens[0]
		if !scriptKeys[key] {
			return nil, malformed("unknown property %q", key)
		}
		ints, err := parseArgs(tokens)
		if err != nil {
			return nil, malformed("%v", err)
		}

		if key == "process" {
			if cur != nil {
				return nil, malformed("process %d is missing end", cur.PID)
			}
			if len(ints) != 1 {
				return nil, malformed("process expects 1 value, got %d", len(ints))
			}
			if seen[ints[0]] {
				return nil, malformed("duplicate pid %d", ints[0])
			}
			seen[ints[0]] = true
			cur = &ProcessSpec{PID: ints[0]}
			continue
		}
		if cur == nil {
			return nil, malformed("%s outside a process block", key)
		}

		switch key {
		case "end":
			if len(ints) != 0 {
				return nil, malformed("end expects no value, got %d", len(ints))
			}
			if err := cur.Validate(); err != nil {
				return nil, malformed("%v", err)
			}
			spec.Processes = append(spec.Processes, *cur)
			cur = nil
		case "lifespan", "prio", "start":
			if len(ints) != 1 {
				return nil, malformed("%s expects 1 value, got %d", key, len(ints))
			}
			switch key {
			case "lifespan":
				cur.Lifespan = ints[0]
			case "prio":
				cur.Priority = ints[0]
			case "start":
				cur.Start = int64(ints[0])
			}
		case "acquire":
			if len(ints) != 3 {
				return nil, malformed("acquire expects 3 values, got %d", len(ints))
			}
			cur.Acquire = append(cur.Acquire, AcquireSpec{Resource: ints[0], At: ints[1], Duration: ints[2]})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading workload script: %w", err)
	}
	if cur != nil {
		return nil, fmt.Errorf("%w: line %d: process %d is missing end", ErrMalformed, lineNo, cur.PID)
	}
	return spec, nil
}

// parseArgs converts the values following the directive to integers.
func parseArgs(tokens []string) ([]int, error) {
	ints := make([]int, 0, len(tokens)-1)
	for _, tok := range tokens[1:] {
		v, err := strconv.Atoi(tok)
		if err != nil {
			return nil, fmt.Errorf("%s: %q is not an integer", tokens[0], tok)
		}
		ints = append(ints, v)
	}
	return ints, nil
}
