package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/hammamikhairi/cookplan/internal/domain"
	"github.com/hammamikhairi/cookplan/internal/engine"
	"github.com/hammamikhairi/cookplan/internal/notify"
	"github.com/hammamikhairi/cookplan/internal/plan"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#bbf7d0"))
	keyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#fde68a"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#71717a"))
)

// renderPlan lists a plan's stages in the order they will run.
func renderPlan(p *domain.CookPlan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", headerStyle.Render(p.Title))
	meta := []string{fmt.Sprintf("id %s", p.ID), fmt.Sprintf("%d stages", p.Len())}
	if p.Servings > 0 {
		meta = append(meta, fmt.Sprintf("serves %d", p.Servings))
	}
	if len(p.Equipment) > 0 {
		meta = append(meta, "equipment: "+strings.Join(p.Equipment, ", "))
	}
	fmt.Fprintf(&b, "%s\n\n", dimStyle.Render(strings.Join(meta, " · ")))

	for i, key := range plan.TopologicalOrder(p) {
		st, _, _ := p.Stage(key)
		fmt.Fprintf(&b, "%2d. %s  %s\n", i+1, keyStyle.Render(st.Key), stageSummary(st))
		fmt.Fprintf(&b, "    %s\n", st.Instruction)
		if len(st.DependsOn) > 0 {
			fmt.Fprintf(&b, "    %s\n", dimStyle.Render("after "+strings.Join(st.DependsOn, ", ")))
		}
	}
	return b.String()
}

func stageSummary(st domain.Stage) string {
	switch st.Trigger {
	case domain.TriggerTimeElapsed:
		d, _ := st.ExpectedDuration()
		return dimStyle.Render("timer " + notify.FormatDuration(d))
	case domain.TriggerTemperatureReached:
		return dimStyle.Render(fmt.Sprintf("probe to %.0fF", *st.TargetTemperatureF))
	default:
		s := "manual"
		if d, ok := st.ExpectedDuration(); ok {
			s += ", about " + notify.FormatDuration(d)
		}
		return dimStyle.Render(s)
	}
}

// renderCatalog lists catalog plans.
func renderCatalog(plans []domain.PlanSummary) string {
	if len(plans) == 0 {
		return dimStyle.Render("No plans.") + "\n"
	}
	var b strings.Builder
	for _, p := range plans {
		fmt.Fprintf(&b, "%s  %s %s\n", keyStyle.Render(p.ID), p.Title, dimStyle.Render(fmt.Sprintf("(%d stages)", p.Stages)))
		if len(p.Tags) > 0 {
			fmt.Fprintf(&b, "    %s\n", dimStyle.Render("tags: "+strings.Join(p.Tags, ", ")))
		}
	}
	return b.String()
}

// renderSessions lists resumable sessions.
func renderSessions(snaps []*domain.Snapshot, now time.Time) string {
	if len(snaps) == 0 {
		return dimStyle.Render("No running or paused sessions.") + "\n"
	}
	var b strings.Builder
	for _, snap := range snaps {
		p := engine.ProgressOf(snap.Plan, snap.Session, now)
		active := "-"
		if p.Active != nil {
			active = p.Active.Key
		}
		fmt.Fprintf(&b, "%s  %s  %s  %d/%d  %s\n",
			keyStyle.Render(snap.Session.ID), p.Title, p.Status, p.Done(), p.Total, active)
		fmt.Fprintf(&b, "    %s\n", dimStyle.Render("updated "+snap.Session.UpdatedAt.Local().Format("2006-01-02 15:04")))
	}
	return b.String()
}

// renderHistory lists cook log entries.
func renderHistory(entries []domain.CookLogEntry) string {
	if len(entries) == 0 {
		return dimStyle.Render("Nothing cooked yet.") + "\n"
	}
	var b strings.Builder
	for _, e := range entries {
		rating := "unrated"
		if e.Rating != nil {
			rating = strings.Repeat("★", *e.Rating) + strings.Repeat("☆", 5-*e.Rating)
		}
		fmt.Fprintf(&b, "%s  %s  %s  %d min  %s\n",
			e.CookedAt.Local().Format("2006-01-02"), headerStyle.Render(e.PlanTitle), e.Outcome, e.ActualTimeMinutes, rating)
		for _, line := range []struct{ label, text string }{
			{"notes", e.Notes},
			{"worked", e.WhatWorked},
			{"improve", e.WhatToImprove},
		} {
			if line.text != "" {
				fmt.Fprintf(&b, "    %s %s\n", dimStyle.Render(line.label+":"), line.text)
			}
		}
	}
	return b.String()
}
