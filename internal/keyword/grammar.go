// Package keyword implements the textual rule compiler and runtime match
// engine described in spec §4.3: a semicolon-terminated sequence of
// keyword clauses compiles into a VirtualRule pipeline evaluated against
// named context buffers. It is a direct, faithful Go port of
// components/utils/keywords/*.cc.
package keyword

import (
	"fmt"
	"strings"

	kw "github.com/openappsec-go/agentcore/internal/domain/keyword"
)

// KeywordError is a structured compile-time error naming the offending
// attribute, matching the original's error reporting shape.
type KeywordError struct {
	Keyword string
	Attr    string
	Msg     string
}

func (e *KeywordError) Error() string {
	if e.Attr != "" {
		return fmt.Sprintf("keyword %q: attribute %q: %s", e.Keyword, e.Attr, e.Msg)
	}
	return fmt.Sprintf("keyword %q: %s", e.Keyword, e.Msg)
}

// split tokenizes s on sep, honoring double-quoted strings (which may
// contain backslash-escaped characters) so that a separator byte inside a
// quoted string is not treated as a delimiter. A direct port of
// keywords_rule.cc's split().
func split(s string, sep byte) []string {
	var out []string
	var cur strings.Builder
	inQuotes := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && inQuotes && i+1 < len(s):
			cur.WriteByte(c)
			i++
			cur.WriteByte(s[i])
		case c == '"':
			inQuotes = !inQuotes
			cur.WriteByte(c)
		case c == sep && !inQuotes:
			out = append(out, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	out = append(out, cur.String())
	return out
}

// getSubStrNoPadding trims leading/trailing whitespace from s, returning an
// error if the result is empty. A direct port of
// keywords_rule.cc's getSubStrNoPadding().
func getSubStrNoPadding(s string) (string, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", fmt.Errorf("empty section after trimming whitespace")
	}
	return trimmed, nil
}

// KeywordAttr is one whitespace-separated attribute token within a clause,
// e.g. `offset 4`, `nocase`, or `"pattern"`.
type KeywordAttr struct {
	Name  string
	Value string
}

// KeywordParsed is one fully-tokenized clause: a keyword name plus its
// ordered list of attribute tokens.
type KeywordParsed struct {
	Name  string
	Attrs []KeywordAttr
}

// parseClause splits "name:attr1,attr2,..." into a KeywordParsed, honoring
// quoted strings inside attribute values so a comma inside a pattern string
// does not split it.
func parseClause(clause string) (KeywordParsed, error) {
	clause = strings.TrimSpace(clause)
	if clause == "" {
		return KeywordParsed{}, fmt.Errorf("empty clause")
	}

	name, rest, hasColon := strings.Cut(clause, ":")
	name = strings.TrimSpace(name)
	if name == "" {
		return KeywordParsed{}, fmt.Errorf("clause has no keyword name: %q", clause)
	}

	parsed := KeywordParsed{Name: name}
	if !hasColon {
		return parsed, nil
	}

	for _, tok := range split(rest, ',') {
		tok, err := getSubStrNoPadding(tok)
		if err != nil {
			return KeywordParsed{}, fmt.Errorf("keyword %q: %w", name, err)
		}
		attrName, attrVal, hasSpace := strings.Cut(tok, " ")
		if !hasSpace {
			// A bare token, or the sole quoted-string attribute.
			if strings.HasPrefix(tok, `"`) {
				parsed.Attrs = append(parsed.Attrs, KeywordAttr{Name: "", Value: tok})
			} else {
				parsed.Attrs = append(parsed.Attrs, KeywordAttr{Name: tok})
			}
			continue
		}
		parsed.Attrs = append(parsed.Attrs, KeywordAttr{
			Name:  strings.TrimSpace(attrName),
			Value: strings.TrimSpace(attrVal),
		})
	}
	return parsed, nil
}

// Ctx re-exports the domain context-name type for convenience within this
// package's keyword constructors.
type Ctx = kw.Ctx
