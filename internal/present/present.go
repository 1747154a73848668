// Package present maps entity enums to display classes and labels. Every
// function is total: unknown values fall back to neutral styling.
package present

import (
	"strings"
	"time"

	"github.com/good-yellow-bee/trackadmin/internal/models"
)

// Class is a display style token. Renderers map it to colors.
type Class string

const (
	ClassNeutral  Class = "neutral"
	ClassProgress Class = "progress"
	ClassPaused   Class = "paused"
	ClassDone     Class = "done"
	ClassWarning  Class = "warning"
	ClassCritical Class = "critical"
	ClassPending  Class = "pending"
	ClassResolved Class = "resolved"
	ClassActive   Class = "active"
	ClassInactive Class = "inactive"
)

// DateLayout is the display format for timestamps.
const DateLayout = "02-Jan-2006 03:04 PM"

// StatusClass styles a project or phase status.
func StatusClass(s models.ProjectStatus) Class {
	switch s {
	case models.StatusTodo:
		return ClassNeutral
	case models.StatusInProgress:
		return ClassProgress
	case models.StatusOnHold:
		return ClassPaused
	case models.StatusDone:
		return ClassDone
	default:
		return ClassNeutral
	}
}

// IssueStatusClass styles an issue status.
func IssueStatusClass(s models.IssueStatus) Class {
	switch s {
	case models.IssueUnresolved:
		return ClassPending
	case models.IssueResolved:
		return ClassResolved
	default:
		return ClassNeutral
	}
}

// SeverityClass styles an issue severity.
func SeverityClass(s models.Severity) Class {
	switch s {
	case models.SeverityInformational:
		return ClassNeutral
	case models.SeverityWarning:
		return ClassWarning
	case models.SeverityCritical:
		return ClassCritical
	default:
		return ClassNeutral
	}
}

// ActiveClass styles an active flag.
func ActiveClass(active bool) Class {
	if active {
		return ClassActive
	}
	return ClassInactive
}

// StatusLabel returns the human label for a project or phase status.
func StatusLabel(s models.ProjectStatus) string {
	switch s {
	case models.StatusInProgress:
		return "In Progress"
	case models.StatusOnHold:
		return "On Hold"
	case "":
		return "N/A"
	default:
		return string(s)
	}
}

// ActiveLabel returns "Active" or "Inactive".
func ActiveLabel(active bool) string {
	if active {
		return "Active"
	}
	return "Inactive"
}

// ToggleActionLabel names the action that flips the active flag.
func ToggleActionLabel(active bool) string {
	if active {
		return "Disable"
	}
	return "Enable"
}

// FormatDate renders t for display, or "N/A" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return strings.ToUpper(t.Local().Format(DateLayout))
}

// OrNA returns s, or "N/A" when s is blank.
func OrNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

var ansi = map[Class]string{
	ClassNeutral:  "",
	ClassProgress: "\x1b[35m",
	ClassPaused:   "\x1b[91m",
	ClassDone:     "\x1b[32m",
	ClassWarning:  "\x1b[33m",
	ClassCritical: "\x1b[31m",
	ClassPending:  "\x1b[33m",
	ClassResolved: "\x1b[34m",
	ClassActive:   "\x1b[32m",
	ClassInactive: "\x1b[90m",
}

// Colorize wraps s in the terminal color for c. Unknown and neutral
// classes return s unchanged.
func Colorize(c Class, s string) string {
	code := ansi[c]
	if code == "" {
		return s
	}
	return code + s + "\x1b[0m"
}
