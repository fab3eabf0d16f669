package game

import (
	"strings"

	"github.com/samber/lo"
)

// DefaultCelebrities is used when no catalog source provides names.
var DefaultCelebrities = []string{
	"Shah Rukh Khan",
	"Salman Khan",
	"Amitabh Bachchan",
	"Aamir Khan",
	"Virat Kohli",
	"MS Dhoni",
	"Tom Cruise",
	"Leonardo DiCaprio",
	"Deepika Padukone",
	"Priyanka Chopra",
}

// Catalog is the fixed, non-empty list of names a round can be picked from.
type Catalog struct {
	names []string
}

// NewCatalog trims the provided names, drops blanks and case-insensitive duplicates.
// It returns ErrEmptyCatalog when nothing usable remains.
func NewCatalog(names []string) (*Catalog, error) {
	cleaned := lo.Filter(lo.Map(names, func(n string, _ int) string {
		return strings.Join(strings.Fields(n), " ")
	}), func(n string, _ int) bool {
		return n != ""
	})
	cleaned = lo.UniqBy(cleaned, strings.ToLower)
	if len(cleaned) == 0 {
		return nil, ErrEmptyCatalog
	}
	return &Catalog{names: cleaned}, nil
}

// Len returns the number of candidate names.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.names)
}

// Names returns a copy of the candidate names in their configured form.
func (c *Catalog) Names() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.names...)
}

// At returns the i-th candidate.
func (c *Catalog) At(i int) string {
	return c.names[i]
}
