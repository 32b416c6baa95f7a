// Package report summarizes pantry activity over a time window.
package report

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hongminglow/carecrate/internal/models"
	"github.com/hongminglow/carecrate/internal/storage"
)

// ErrInvalidRange is returned when the window is empty or inverted.
var ErrInvalidRange = errors.New("report range must end after it starts")

const dayLayout = "2006-01-02"

// Source is the read side a report needs.
type Source interface {
	ListVisits(ctx context.Context, from, to int64) ([]models.Visit, error)
	ListWaste(ctx context.Context, query models.WasteQuery) ([]models.Waste, error)
}

// DayCount is the number of visits on one calendar day.
type DayCount struct {
	Day    string `json:"day"`
	Visits int    `json:"visits"`
}

// Summary covers [From, To).
type Summary struct {
	From             time.Time      `json:"from"`
	To               time.Time      `json:"to"`
	VisitCount       int            `json:"visitCount"`
	UniqueHouseholds int            `json:"uniqueHouseholds"`
	VisitsByDay      []DayCount     `json:"visitsByDay"`
	WasteCount       int            `json:"wasteCount"`
	Waste            []models.Waste `json:"waste"`
}

// Summarize reads visits and waste in [from, to) and aggregates them. Days
// are bucketed in loc.
func Summarize(ctx context.Context, src Source, from, to time.Time, loc *time.Location) (Summary, error) {
	if !to.After(from) {
		return Summary{}, ErrInvalidRange
	}
	if loc == nil {
		loc = time.UTC
	}
	fromMs, toMs := from.UnixMilli(), to.UnixMilli()

	visits, err := src.ListVisits(ctx, fromMs, toMs)
	if err != nil {
		return Summary{}, fmt.Errorf("list visits: %w", err)
	}
	waste, err := src.ListWaste(ctx, models.WasteQuery{Since: fromMs, Order: models.Ascending})
	if err != nil {
		return Summary{}, fmt.Errorf("list waste: %w", err)
	}

	households := make(map[string]struct{})
	perDay := make(map[string]int)
	for _, v := range visits {
		households[storage.NormalizePhone(v.PhoneNumber)] = struct{}{}
		perDay[time.UnixMilli(v.ID).In(loc).Format(dayLayout)]++
	}
	days := make([]DayCount, 0, len(perDay))
	for day, n := range perDay {
		days = append(days, DayCount{Day: day, Visits: n})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Day < days[j].Day })

	inWindow := make([]models.Waste, 0, len(waste))
	for _, w := range waste {
		if w.TimeOfWaste < toMs {
			inWindow = append(inWindow, w)
		}
	}

	return Summary{
		From:             from.In(loc),
		To:               to.In(loc),
		VisitCount:       len(visits),
		UniqueHouseholds: len(households),
		VisitsByDay:      days,
		WasteCount:       len(inWindow),
		Waste:            inWindow,
	}, nil
}

// Subject is the mail subject line for s.
func (s Summary) Subject() string {
	return fmt.Sprintf("CareCrate report %s to %s", s.From.Format(dayLayout), s.To.Format(dayLayout))
}

// Text renders the plain-text body used by mail and the CLI.
func (s Summary) Text() string {
	const stamp = "2006-01-02 15:04 MST"
	var b strings.Builder
	b.WriteString("CareCrate visit report\n")
	fmt.Fprintf(&b, "Period: %s - %s\n\n", s.From.Format(stamp), s.To.Format(stamp))
	fmt.Fprintf(&b, "Visits: %d\n", s.VisitCount)
	fmt.Fprintf(&b, "Unique households: %d\n", s.UniqueHouseholds)
	if len(s.VisitsByDay) > 0 {
		b.WriteString("\nVisits by day:\n")
		for _, d := range s.VisitsByDay {
			fmt.Fprintf(&b, "  %s  %d\n", d.Day, d.Visits)
		}
	}
	fmt.Fprintf(&b, "\nWaste events: %d\n", s.WasteCount)
	return b.String()
}
