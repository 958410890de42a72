package holiday

import (
	"time"

	"alarmcal/internal/config"
	appLog "alarmcal/internal/log"
)

// RegionSource implements Source from a config.HolidayRegion definition:
// annual month/day rules plus dated one-off entries.
type RegionSource struct {
	region config.HolidayRegion
	loc    *time.Location
}

// NewRegionSource builds a Source from a configured region definition.
func NewRegionSource(region config.HolidayRegion, loc *time.Location) *RegionSource {
	if loc == nil {
		loc = time.Local
	}
	return &RegionSource{region: region, loc: loc}
}

func (s *RegionSource) Region() string {
	return s.region.Name
}

// Between returns holiday occurrences with start <= date < end.
func (s *RegionSource) Between(start, end time.Time) []Entry {
	var out []Entry

	for _, rule := range s.region.Rules {
		if rule.Date != "" {
			d, err := time.ParseInLocation("2006-01-02", rule.Date, s.loc)
			if err != nil {
				appLog.Warn("holiday rule has malformed date, skipping",
					"region", s.region.Name, "name", rule.Name, "date", rule.Date)
				continue
			}
			if !d.Before(start) && d.Before(end) {
				out = append(out, Entry{Date: d, Name: rule.Name, Working: rule.Working})
			}
			continue
		}

		if rule.Month < 1 || rule.Month > 12 || rule.Day < 1 || rule.Day > 31 {
			appLog.Warn("holiday rule has malformed month/day, skipping",
				"region", s.region.Name, "name", rule.Name,
				"month", rule.Month, "day", rule.Day)
			continue
		}
		for year := start.Year(); year <= end.Year(); year++ {
			d := time.Date(year, time.Month(rule.Month), rule.Day, 0, 0, 0, 0, s.loc)
			// Normalized overflow (e.g. Feb 30) means the rule does not
			// occur in this year.
			if int(d.Month()) != rule.Month || d.Day() != rule.Day {
				continue
			}
			if !d.Before(start) && d.Before(end) {
				out = append(out, Entry{Date: d, Name: rule.Name, Working: rule.Working})
			}
		}
	}

	return out
}
