package diary

import (
	"html/template"
	"strconv"
	"strings"
	"time"
)

const (
	historySeparator = " / "
	emptyPlaceholder = "-"
)

// Projector derives display strings from an ordered movement ledger.
// Events are expected ascending by (ActionDatetime, ID).
type Projector struct {
	loc *time.Location
}

// NewProjector builds a projector rendering dates in loc.
func NewProjector(loc *time.Location) Projector {
	if loc == nil {
		loc = time.UTC
	}
	return Projector{loc: loc}
}

// Label formats one event as "{toOffice or -} {dd}-{mm}".
func (p Projector) Label(m Movement) string {
	office := strings.TrimSpace(m.ToOffice)
	if office == "" {
		office = emptyPlaceholder
	}
	return office + " " + m.ActionDatetime.In(p.loc).Format("02-01")
}

// HTML renders every label but the last struck through.
func (p Projector) HTML(events []Movement) template.HTML {
	if len(events) == 0 {
		return template.HTML(emptyPlaceholder)
	}
	parts := make([]string, len(events))
	for i, m := range events {
		label := template.HTMLEscapeString(p.Label(m))
		if i < len(events)-1 {
			label = "<s>" + label + "</s>"
		}
		parts[i] = label
	}
	return template.HTML(strings.Join(parts, historySeparator))
}

// Plain renders the same labels without markup.
func (p Projector) Plain(events []Movement) string {
	if len(events) == 0 {
		return emptyPlaceholder
	}
	parts := make([]string, len(events))
	for i, m := range events {
		parts[i] = p.Label(m)
	}
	return strings.Join(parts, historySeparator)
}

// Dedup collapses consecutive identical labels.
func (p Projector) Dedup(events []Movement) string {
	parts := make([]string, 0, len(events))
	for _, m := range events {
		label := p.Label(m)
		if n := len(parts); n > 0 && parts[n-1] == label {
			continue
		}
		parts = append(parts, label)
	}
	if len(parts) == 0 {
		return emptyPlaceholder
	}
	return strings.Join(parts, historySeparator)
}

// CSV is Dedup over the substantive events only.
func (p Projector) CSV(events []Movement) string {
	filtered := make([]Movement, 0, len(events))
	for _, m := range events {
		if m.ActionType == ActionCreated || m.ActionType == ActionMarked {
			continue
		}
		filtered = append(filtered, m)
	}
	return p.Dedup(filtered)
}

// FolderDisplay shows the folder count for folder-carrying kinds only.
func FolderDisplay(kind Kind, count int) string {
	if kind.CarriesFolders() && count > 0 {
		return strconv.Itoa(count)
	}
	return emptyPlaceholder
}
