// Package holiday answers "is this date a holiday?" with per-day results
// memoized over a bounded forward-looking horizon.
package holiday

import (
	"sync"
	"time"
)

// Type classifies a date.
type Type int

const (
	// TypeNone means the date is not a holiday (or lies outside the cache horizon).
	TypeNone Type = iota
	// TypeWorking is a named holiday on which work still happens.
	TypeWorking
	// TypeNonWorking is a holiday that suppresses work-time triggers.
	TypeNonWorking
)

// Entry is one holiday occurrence reported by a Source.
type Entry struct {
	Date    time.Time // midnight in the cache's location
	Name    string
	Working bool
}

// Source supplies holiday data for a region, queried by date range.
type Source interface {
	Region() string
	// Between returns all holiday occurrences with start <= date < end.
	Between(start, end time.Time) []Entry
}

// Cache memoizes per-day holiday lookups. It keeps a dense two-bit-per-day
// array starting at yesterday (to tolerate timezone skew) and lazily extends
// its upper bound to the end of the requested year, capped at a configured
// number of years ahead. Dates before the start of the cache report TypeNone.
type Cache struct {
	mu         sync.RWMutex
	src        Source
	loc        *time.Location
	yearsAhead int

	start time.Time // midnight of the day before construction/reset
	end   time.Time // exclusive upper bound of the populated range
	bits  []byte    // two bits per day: 0 none, 1 working, 2 non-working
	names map[int][]string
}

// New creates a cache over src. A nil src yields a cache that reports
// TypeNone for every date. If yearsAhead is zero or negative a default of
// five years is used.
func New(src Source, loc *time.Location, yearsAhead int) *Cache {
	if loc == nil {
		loc = time.Local
	}
	if yearsAhead <= 0 {
		yearsAhead = 5
	}
	c := &Cache{loc: loc, yearsAhead: yearsAhead}
	c.reset(src)
	return c
}

// Region reports the active region name, or "" when no source is set.
func (c *Cache) Region() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.src == nil {
		return ""
	}
	return c.src.Region()
}

// SetSource switches the holiday region. The cache is fully invalidated
// and rebuilt lazily on the next query.
func (c *Cache) SetSource(src Source) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset(src)
}

func (c *Cache) reset(src Source) {
	c.src = src
	now := time.Now().In(c.loc)
	c.start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, c.loc).AddDate(0, 0, -1)
	c.end = c.start
	c.bits = nil
	c.names = make(map[int][]string)
}

// IsHoliday reports whether the date is a non-working holiday.
func (c *Cache) IsHoliday(d time.Time) bool {
	return c.HolidayType(d) == TypeNonWorking
}

// HolidayType classifies the given date.
func (c *Cache) HolidayType(d time.Time) Type {
	t, _ := c.lookup(d)
	return t
}

// Names returns the holiday names observed on the given date.
func (c *Cache) Names(d time.Time) []string {
	_, names := c.lookup(d)
	return names
}

// lookup ensures the cache covers d and classifies it. The whole operation
// holds the lock so a concurrent SetSource cannot invalidate the bits
// between indexing and reading them.
func (c *Cache) lookup(d time.Time) (Type, []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.src == nil {
		return TypeNone, nil
	}
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, c.loc)
	if day.Before(c.start) {
		// Forward-looking only: past dates are never holidays.
		return TypeNone, nil
	}

	if !day.Before(c.end) {
		// Extend through the end of the requested year, capped.
		target := time.Date(day.Year()+1, time.January, 1, 0, 0, 0, 0, c.loc)
		limit := c.start.AddDate(c.yearsAhead, 0, 0)
		if target.After(limit) {
			target = limit
		}
		if !day.Before(target) {
			return TypeNone, nil
		}
		c.extend(target)
	}

	idx := c.dayIndex(day)
	t := Type(c.bits[idx/4] >> ((idx % 4) * 2) & 0x3)
	return t, append([]string(nil), c.names[idx]...)
}

// extend populates the range [c.end, target).
func (c *Cache) extend(target time.Time) {
	days := c.dayIndex(target)
	need := (days + 3) / 4
	for len(c.bits) < need {
		c.bits = append(c.bits, 0)
	}

	for _, e := range c.src.Between(c.end, target) {
		day := time.Date(e.Date.Year(), e.Date.Month(), e.Date.Day(), 0, 0, 0, 0, c.loc)
		if day.Before(c.end) || !day.Before(target) {
			continue
		}
		idx := c.dayIndex(day)
		t := TypeNonWorking
		if e.Working {
			t = TypeWorking
		}
		// Non-working wins when a date carries both kinds.
		cur := Type(c.bits[idx/4] >> ((idx % 4) * 2) & 0x3)
		if t > cur {
			c.bits[idx/4] &^= 0x3 << ((idx % 4) * 2)
			c.bits[idx/4] |= byte(t) << ((idx % 4) * 2)
		}
		c.names[idx] = append(c.names[idx], e.Name)
	}

	c.end = target
}

// dayIndex counts calendar days from c.start to day. Both are midnights in
// c.loc; rounding absorbs the odd-length days introduced by DST changes.
func (c *Cache) dayIndex(day time.Time) int {
	return int((day.Sub(c.start) + 12*time.Hour) / (24 * time.Hour))
}
