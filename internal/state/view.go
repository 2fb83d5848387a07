package state

import (
	"slices"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"taskdash/internal/service"
)

// DueFilter selects tasks by due date relative to today.
type DueFilter string

const (
	DueAll      DueFilter = "All"
	DueToday    DueFilter = "Today"
	DueTomorrow DueFilter = "Tomorrow"
	DueUpcoming DueFilter = "Upcoming"
)

// StatusAll is the status filter value that keeps every task.
const StatusAll service.Status = "All"

// SortField is the task field a view sorts by. The zero value keeps
// server order.
type SortField string

const (
	SortNone    SortField = ""
	SortDueDate SortField = "dueDate"
	SortTitle   SortField = "title"
)

// Sort is a sort field and direction.
type Sort struct {
	Field SortField
	Desc  bool
}

// Toggle returns the sort after selecting field: the same field flips
// direction, another field starts ascending.
func (s Sort) Toggle(field SortField) Sort {
	if s.Field == field {
		return Sort{Field: field, Desc: !s.Desc}
	}
	return Sort{Field: field}
}

// View is a filter and sort over the cached tasks.
type View struct {
	// Status keeps only tasks with this status. StatusAll or empty keeps all.
	Status service.Status
	Due    DueFilter
	Sort   Sort
}

// DefaultView shows everything, earliest due date first.
func DefaultView() View {
	return View{Status: StatusAll, Due: DueAll, Sort: Sort{Field: SortDueDate}}
}

// DateBounds returns today's and tomorrow's dates in now's location.
func DateBounds(now time.Time) (today, tomorrow string) {
	return now.Format(service.DateLayout), now.AddDate(0, 0, 1).Format(service.DateLayout)
}

// Apply returns the tasks matching v in v's order. tasks is not modified.
func (v View) Apply(tasks []service.Task, now time.Time) []service.Task {
	today, tomorrow := DateBounds(now)

	out := make([]service.Task, 0, len(tasks))
	for _, t := range tasks {
		if v.Status != "" && v.Status != StatusAll && t.Status != v.Status {
			continue
		}
		if !v.Due.match(t.DueDate, today, tomorrow) {
			continue
		}
		out = append(out, t)
	}

	var cmp func(a, b service.Task) int
	switch v.Sort.Field {
	case SortDueDate:
		cmp = func(a, b service.Task) int { return strings.Compare(a.DueDate, b.DueDate) }
	case SortTitle:
		c := collate.New(language.Und)
		cmp = func(a, b service.Task) int { return c.CompareString(a.Title, b.Title) }
	default:
		return out
	}
	if v.Sort.Desc {
		asc := cmp
		cmp = func(a, b service.Task) int { return asc(b, a) }
	}
	slices.SortStableFunc(out, cmp)
	return out
}

// match compares ISO dates as strings.
func (f DueFilter) match(due, today, tomorrow string) bool {
	switch f {
	case DueToday:
		return due == today
	case DueTomorrow:
		return due == tomorrow
	case DueUpcoming:
		return due > tomorrow
	default:
		return true
	}
}
