package protocol

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Grammar document section headers. A line whose trimmed content equals a
// header switches the collection that the following lines are added to.
const (
	headerMainStreams  = "MAIN_STREAMS:"
	headerRequiredArgs = "REQUIRED_ARGUMENTS:"
	headerOptionalArgs = "OPTIONAL_ARGUMENTS:"
	headerExamples     = "EXAMPLES:"
)

// sectionSeparator delimits definition sections in a grammar document.
const sectionSeparator = "---"

// Definition describes one family of related PSS streams: the member stream
// codes plus the documented argument shape and wire examples. Argument
// shapes are informational only; the dispatcher does not enforce them.
type Definition struct {
	Key               string   // canonical key: first main stream with any annotation stripped
	MainStreams       []string // member stream codes, document order
	RequiredArguments []string
	OptionalArguments []string
	Examples          []string // example payloads, kept verbatim
}

// ParseSchema parses a PSS grammar document into definitions in document
// order.
//
// Sections are separated by lines containing only "---". Within a section,
// blank lines and "#" comments are skipped, header lines switch the active
// collection, stream and argument lines keep the token before the first ";"
// and example lines are kept whole. Lines before the first header are
// ignored. A section without main streams contributes nothing, and a later
// section whose canonical key is already taken is dropped. Malformed
// sections never fail the document; only input that is not valid UTF-8 does.
func ParseSchema(data []byte) ([]*Definition, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: not valid UTF-8", ErrInvalidSchema)
	}

	var defs []*Definition
	seen := make(map[string]struct{})
	for _, section := range splitSections(string(data)) {
		def := parseSection(section)
		if def == nil {
			continue
		}
		if _, dup := seen[def.Key]; dup {
			continue
		}
		seen[def.Key] = struct{}{}
		defs = append(defs, def)
	}
	return defs, nil
}

// splitSections groups document lines into sections, breaking on separator
// lines. The separator must be the only content on its line.
func splitSections(doc string) [][]string {
	var (
		sections [][]string
		current  []string
	)
	for _, line := range strings.Split(doc, "\n") {
		if strings.TrimSpace(line) == sectionSeparator {
			sections = append(sections, current)
			current = nil
			continue
		}
		current = append(current, line)
	}
	return append(sections, current)
}

// parseSection builds a definition from one section's lines. It returns nil
// for sections that declare no main streams.
func parseSection(lines []string) *Definition {
	def := &Definition{}
	active := ""
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		switch line {
		case headerMainStreams, headerRequiredArgs, headerOptionalArgs, headerExamples:
			active = line
			continue
		}
		switch active {
		case headerMainStreams:
			def.MainStreams = append(def.MainStreams, listEntry(line))
		case headerRequiredArgs:
			def.RequiredArguments = append(def.RequiredArguments, listEntry(line))
		case headerOptionalArgs:
			def.OptionalArguments = append(def.OptionalArguments, listEntry(line))
		case headerExamples:
			def.Examples = append(def.Examples, line)
		}
	}
	if len(def.MainStreams) == 0 {
		return nil
	}
	def.Key = canonicalKey(def.MainStreams[0])
	return def
}

// listEntry extracts a stream or argument token: the text before the first
// separator, trimmed. "pt1;Athlete 1 scoring point" yields "pt1".
func listEntry(line string) string {
	entry, _, _ := strings.Cut(line, Separator)
	return strings.TrimSpace(entry)
}

// canonicalKey strips a trailing annotation from the first main stream.
func canonicalKey(stream string) string {
	key, _, _ := strings.Cut(stream, Separator)
	return key
}
