// Package pattern implements the compact request grammar used to address
// grid nodes and items:
//
//	pattern  := location ["/" item [":" count]]
//	location := "./" | "." | "*" | "../" | ".." | identifier
//	item     := ["="] text
//	count    := digits | "*" | "+" | "++"
//
// Parsing is permissive: malformed input degrades to a named location with
// default item and count, and the resolver's "not found" result is the error
// signal, not a parse failure.
package pattern

import (
	"strconv"
	"strings"
)

type LocationKind int

const (
	LocSelf LocationKind = iota + 1
	LocAny
	LocNamed
)

type Location struct {
	Kind LocationKind
	Name string // raw identifier text for LocNamed
}

type CountKind int

const (
	CountFixed CountKind = iota + 1
	CountOneStack
	CountAll
)

type Count struct {
	Kind CountKind
	N    int // meaningful for CountFixed only
}

type Item struct {
	Raw   string
	Exact bool
}

// Request is one parsed side of a move (or a whole query pattern).
type Request struct {
	Location Location
	Item     Item
	Count    Count
}

func Parse(s string) Request {
	s = strings.TrimSpace(strings.ReplaceAll(s, `\`, `/`))

	loc, rest := splitLocation(s)
	itemText, countTok := splitCount(rest)

	return Request{
		Location: loc,
		Item:     parseItem(itemText),
		Count:    parseCount(countTok),
	}
}

// ParseItem parses a bare item pattern, as used by the query surface where
// no location or count segment exists.
func ParseItem(s string) Item {
	return parseItem(strings.TrimSpace(s))
}

func splitLocation(s string) (Location, string) {
	switch {
	case s == "." || s == "./":
		return Location{Kind: LocSelf}, ""
	case s == ".." || s == "../" || s == "*":
		return Location{Kind: LocAny}, ""
	case strings.HasPrefix(s, "./"):
		return Location{Kind: LocSelf}, s[2:]
	case strings.HasPrefix(s, "../"):
		return Location{Kind: LocAny}, s[3:]
	case strings.HasPrefix(s, "*/"):
		return Location{Kind: LocAny}, s[2:]
	}
	if i := strings.Index(s, "/"); i >= 0 {
		return Location{Kind: LocNamed, Name: s[:i]}, s[i+1:]
	}
	return Location{Kind: LocNamed, Name: s}, ""
}

// splitCount peels a trailing ":count" token off the item text. Item names
// may themselves carry a namespace colon, so the suffix is only consumed when
// it actually parses as a count token.
func splitCount(rest string) (item, count string) {
	i := strings.LastIndex(rest, ":")
	if i < 0 {
		return rest, ""
	}
	tok := rest[i+1:]
	if isCountToken(tok) {
		return rest[:i], tok
	}
	return rest, ""
}

func isCountToken(tok string) bool {
	switch tok {
	case "", "*", "+", "++":
		return true
	}
	_, err := strconv.Atoi(tok)
	return err == nil
}

func parseItem(s string) Item {
	if s == "" {
		return Item{Raw: "*"}
	}
	if strings.HasPrefix(s, "=") {
		return Item{Raw: s[1:], Exact: true}
	}
	return Item{Raw: s}
}

func parseCount(tok string) Count {
	switch tok {
	case "*", "+":
		return Count{Kind: CountOneStack}
	case "++":
		return Count{Kind: CountAll}
	}
	n, err := strconv.Atoi(tok)
	if err != nil || n < 1 {
		return Count{Kind: CountFixed, N: 1}
	}
	return Count{Kind: CountFixed, N: n}
}
