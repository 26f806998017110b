// Package model defines the domain types used across the application.
package model

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ErrBadFormat reports a persisted line or markup block that does not match
// the canonical band form.
var ErrBadFormat = errors.New("malformed band entry")

// Band represents one announced lineup performer.
// Bands are value types: equality is structural, by name and URL.
type Band struct {
	Name string
	URL  string
}

var lineRe = regexp.MustCompile(`\[(.*?)]\((.*?)\)`)

// ParseLine parses the canonical text form "[name](url)" back into a Band.
func ParseLine(line string) (Band, error) {
	m := lineRe.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return Band{}, fmt.Errorf("%w: %q", ErrBadFormat, line)
	}
	return Band{Name: m[1], URL: m[2]}, nil
}

// String renders the canonical text form "[name](url)", or the bare name
// when the band has no URL.
func (b Band) String() string {
	if b.URL == "" {
		return b.Name
	}
	return fmt.Sprintf("[%s](%s)", b.Name, b.URL)
}

// Snapshot is the full current lineup as last fetched from the festival site.
type Snapshot struct {
	FetchedAt time.Time
	Bands     []Band
}

// Subscriber is a chat tracked by its Telegram chat ID. Its known bands are
// loaded on demand through the storage layer.
type Subscriber struct {
	ChatID    int64
	CreatedAt time.Time
}
