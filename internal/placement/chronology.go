package placement

import (
	"slices"
	"strings"
	"time"

	"github.com/jonathan/cranium/internal/types"
)

// dateLayouts are the date spellings accepted in profile data, most specific first.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01",
	"01/2006",
	"1/2006",
	"Jan 2006",
	"January 2006",
	"2006",
}

type dateRange struct {
	start string
	end   string
}

func isPresent(date string) bool {
	return strings.EqualFold(strings.TrimSpace(date), "present")
}

func parseDate(date string) (time.Time, bool) {
	date = strings.TrimSpace(date)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, date); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// compareDates orders two date strings. Unparseable or empty dates sort
// below any parseable one.
func compareDates(a, b string) int {
	ta, okA := parseDate(a)
	tb, okB := parseDate(b)
	switch {
	case okA && okB:
		return ta.Compare(tb)
	case okA:
		return 1
	case okB:
		return -1
	default:
		return strings.Compare(a, b)
	}
}

// compareRecency orders most recent first: "present" end dates lead, then
// end date descending, ties broken by start date descending.
func compareRecency(a, b dateRange) int {
	presentA, presentB := isPresent(a.end), isPresent(b.end)
	if presentA != presentB {
		if presentA {
			return -1
		}
		return 1
	}
	if !presentA {
		if c := compareDates(a.end, b.end); c != 0 {
			return -c
		}
	}
	return -compareDates(a.start, b.start)
}

func datesOf(it types.Item) (dateRange, bool) {
	switch p := it.Payload.(type) {
	case *types.ExperiencePayload:
		return dateRange{start: p.StartDate, end: p.EndDate}, true
	case *types.EducationPayload:
		return dateRange{start: p.StartDate, end: p.EndDate}, true
	default:
		return dateRange{}, false
	}
}

// orderChronologically re-sorts experience and education ids in place. The
// slots they occupy are refilled with [experience..., education...], each
// group sorted by recency; ids of every other kind keep their position.
func orderChronologically(ids []string, items map[string]types.Item) []string {
	var slots []int
	var experience, education []string
	for i, id := range ids {
		switch items[id].Kind {
		case types.KindExperience:
			experience = append(experience, id)
			slots = append(slots, i)
		case types.KindEducation:
			education = append(education, id)
			slots = append(slots, i)
		}
	}
	if len(slots) == 0 {
		return ids
	}

	byRecency := func(a, b string) int {
		ra, _ := datesOf(items[a])
		rb, _ := datesOf(items[b])
		return compareRecency(ra, rb)
	}
	slices.SortStableFunc(experience, byRecency)
	slices.SortStableFunc(education, byRecency)

	sorted := append(experience, education...)
	out := slices.Clone(ids)
	for i, slot := range slots {
		out[slot] = sorted[i]
	}
	return out
}
