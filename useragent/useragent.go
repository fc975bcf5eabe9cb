/*
File Name:  useragent.go
Copyright:  2026 Bitmessage Core Contributors
Author:     Bitmessage Core Contributors

The Bitmessage user agent stack: "/name:version(comments)/…/", one entry per
software component in the relay chain. Parsing is deliberately lenient — a
malformed stack degrades to whatever could be extracted rather than failing
the whole decode, since user agent strings are advisory, not load-bearing.
*/

package useragent

import "strings"

// DefaultVersion is substituted when an entry omits its version.
const DefaultVersion = "0.0.0"

// Entry is one parsed "/name:version(comments)/" stack element.
type Entry struct {
	Name     string
	Version  string
	Comments []string
}

// Parse splits a user agent stack into its entries. Entries without a name
// are skipped; an empty stack, or one with no usable entry, yields nil rather
// than an error.
func Parse(s string) []Entry {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "/")
	if s == "" {
		return nil
	}

	var entries []Entry
	for _, part := range strings.Split(s, "/") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if e, ok := parseEntry(part); ok {
			entries = append(entries, e)
		}
	}
	return entries
}

// parseEntry parses a single "name:version(comments)" element.
func parseEntry(part string) (Entry, bool) {
	name := part
	var comments []string

	if open := strings.Index(part, "("); open >= 0 {
		close := strings.LastIndex(part, ")")
		if close > open {
			inner := part[open+1 : close]
			if inner != "" {
				comments = splitComments(inner)
			}
			name = part[:open]
		} else {
			name = part[:open]
		}
	}

	name = strings.TrimSpace(name)
	version := DefaultVersion
	if idx := strings.Index(name, ":"); idx >= 0 {
		version = strings.TrimSpace(name[idx+1:])
		name = strings.TrimSpace(name[:idx])
		if version == "" {
			version = DefaultVersion
		}
	}

	if name == "" {
		return Entry{}, false
	}
	return Entry{Name: name, Version: version, Comments: comments}, true
}

func splitComments(inner string) []string {
	parts := strings.Split(inner, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Encode renders entries back into the "/name:version(comments)/…/" stack
// format.
func Encode(entries []Entry) string {
	var b strings.Builder
	for _, e := range entries {
		b.WriteByte('/')
		b.WriteString(e.Name)
		b.WriteByte(':')
		if e.Version != "" {
			b.WriteString(e.Version)
		} else {
			b.WriteString(DefaultVersion)
		}
		if len(e.Comments) > 0 {
			b.WriteByte('(')
			b.WriteString(strings.Join(e.Comments, ";"))
			b.WriteByte(')')
		}
	}
	b.WriteByte('/')
	return b.String()
}

// Raw passes a pre-formatted user agent string through unchanged, for
// callers that already hold a valid stack string rather than structured
// entries.
func Raw(s string) string {
	return s
}
