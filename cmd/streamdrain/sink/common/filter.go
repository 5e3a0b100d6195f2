package common

import (
	"slices"
	"strings"
)

// Filter decides which records reach a sink. Streams limits forwarding to the
// named streams; Includes and Excludes are substring matches on the line, and
// an exclude match always wins.
type Filter struct {
	Streams  []string
	Includes []string
	Excludes []string
}

func (f Filter) Allow(rec Record) bool {
	if len(f.Streams) > 0 && !slices.Contains(f.Streams, rec.Stream) {
		return false
	}
	if len(f.Includes) > 0 && !slices.ContainsFunc(f.Includes, func(inc string) bool {
		return inc == "" || strings.Contains(rec.Line, inc)
	}) {
		return false
	}
	return !slices.ContainsFunc(f.Excludes, func(exc string) bool {
		return exc != "" && strings.Contains(rec.Line, exc)
	})
}
