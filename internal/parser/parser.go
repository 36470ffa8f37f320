// Package parser turns card text files into models.Card values.
package parser

import (
	"strings"

	"github.com/starford/koinecards/internal/models"
)

// Divider separates the card header from the card body.
const Divider = "--- CARD TEXT BELOW ---"

// Header prefixes recognised at the start of a line.
const (
	DomainPrefix = "DOMAIN:"
	CardPrefix   = "CARD:"
	StatusPrefix = "STATUS:"
	DatePrefix   = "DATE:"
)

type lineKind int

const (
	plainLine lineKind = iota
	domainLine
	cardLine
	statusLine
	dateLine
	dividerLine
)

var headerPrefixes = []struct {
	kind   lineKind
	prefix string
}{
	{domainLine, DomainPrefix},
	{cardLine, CardPrefix},
	{statusLine, StatusPrefix},
	{dateLine, DatePrefix},
}

// classify reports the kind of a single line and, for header lines, the
// trimmed value after the prefix.
func classify(line string) (lineKind, string) {
	for _, h := range headerPrefixes {
		if strings.HasPrefix(line, h.prefix) {
			return h.kind, strings.TrimSpace(line[len(h.prefix):])
		}
	}
	if strings.TrimSpace(line) == Divider {
		return dividerLine, ""
	}
	return plainLine, ""
}

// header collects the first occurrence of each header kind.
type header struct {
	values  map[lineKind]string
	divider int
	title   string
}

func fold(lines []string) header {
	h := header{values: make(map[lineKind]string, 4), divider: -1}
	for i, line := range lines {
		if h.title == "" && strings.TrimSpace(line) != "" {
			h.title = line
		}
		kind, value := classify(line)
		switch kind {
		case plainLine:
		case dividerLine:
			if h.divider < 0 {
				h.divider = i
			}
		default:
			if _, seen := h.values[kind]; !seen {
				h.values[kind] = value
			}
		}
	}
	return h
}

// Parse builds a Card from the raw text of a card file. It never fails:
// missing headers fall back to defaults and a missing divider makes the
// whole text the body.
func Parse(raw, filename string) models.Card {
	norm := strings.ReplaceAll(raw, "\r\n", "\n")
	lines := strings.Split(norm, "\n")
	h := fold(lines)

	title := h.title
	if title == "" {
		title = filename
	}

	domain, ok := h.values[domainLine]
	if !ok {
		domain = models.DefaultDomain
	}

	var meta []string
	for _, kind := range []lineKind{cardLine, statusLine, dateLine} {
		if v := h.values[kind]; v != "" {
			meta = append(meta, v)
		}
	}

	body := strings.TrimSpace(norm)
	if h.divider >= 0 {
		body = strings.TrimSpace(strings.Join(lines[h.divider+1:], "\n"))
	}

	return models.Card{
		ID:       filename,
		Filename: filename,
		Title:    title,
		Domain:   domain,
		Meta:     strings.Join(meta, "\n"),
		Body:     body,
	}
}
