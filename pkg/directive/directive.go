// Package directive parses transqlate directives embedded in SQL comments.
//
// Directives are comments with a special prefix that adjust translation of
// the immediately following statement without affecting the SQL itself:
//
//	-- @xlate:skip
//	-- @xlate:policy=best-effort
//	SELECT TOP 10 * FROM Orders
//
// Syntax:
//   - `-- @xlate:<key>` — Boolean flag (presence means true)
//   - `-- @xlate:<key>=<value>` — Key-value setting
//   - Directive lines must precede the statement; ordinary comments in
//     between do not break the association, a blank line does
package directive

import "strings"

// Prefix identifies directive comment lines.
const Prefix = "-- @xlate:"

// Recognized directive keys.
const (
	KeySkip   = "skip"   // pass the statement through untranslated
	KeyPolicy = "policy" // override the emission policy
)

// Set holds the directives attached to one statement.
type Set map[string]string

// Has reports whether a boolean flag or key is present.
func (s Set) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Get returns the value for a key and whether it was found.
func (s Set) Get(key string) (string, bool) {
	v, ok := s[key]
	return v, ok
}

// Skip reports whether the statement is marked to pass through unchanged.
func (s Set) Skip() bool {
	return s.Has(KeySkip)
}

// Policy returns the policy override, or "" when none is set.
func (s Set) Policy() string {
	return s[KeyPolicy]
}

// Extract parses the directive lines that precede the first SQL line of a
// single statement's text. It returns the directives and the statement with
// the directive lines removed.
func Extract(stmt string) (Set, string) {
	set := make(Set)
	lines := strings.Split(stmt, "\n")
	var kept []string
	inPrefix := true

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if inPrefix && strings.HasPrefix(trimmed, Prefix) {
			key, value := parseLine(trimmed)
			if key != "" {
				set[key] = value
			}
			continue
		}
		if inPrefix && trimmed == "" {
			// blank line breaks the directive block
			for k := range set {
				delete(set, k)
			}
			continue
		}
		if inPrefix && !strings.HasPrefix(trimmed, "--") {
			inPrefix = false
		}
		kept = append(kept, line)
	}
	return set, strings.TrimSpace(strings.Join(kept, "\n"))
}

func parseLine(line string) (key, value string) {
	content := strings.TrimSpace(strings.TrimPrefix(line, Prefix))
	if content == "" {
		return "", ""
	}
	if idx := strings.Index(content, "="); idx > 0 {
		return strings.TrimSpace(content[:idx]), strings.TrimSpace(content[idx+1:])
	}
	return content, ""
}
