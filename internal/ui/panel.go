package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	botsync "github.com/klauern/botsync/internal/sync"
)

// Styles contains reusable lipgloss styles for result panels.
var Styles = struct {
	Title lipgloss.Style
	Panel lipgloss.Style
	Label lipgloss.Style
}{
	Title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")),
	Panel: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
	Label: lipgloss.NewStyle().Width(16),
}

func panel(title string, ok bool, rows [][2]string, footer string) string {
	border := lipgloss.Color("2")
	if !ok {
		border = lipgloss.Color("1")
	}

	var body strings.Builder
	body.WriteString(Styles.Title.Render(title))
	for _, row := range rows {
		body.WriteString("\n" + Styles.Label.Render(row[0]+":") + row[1])
	}
	if footer != "" {
		body.WriteString("\n\n" + footer)
	}
	return Styles.Panel.BorderForeground(border).Render(body.String())
}

// RenderResult draws a sync result as a bordered panel.
func RenderResult(r *botsync.Result) string {
	if r.Success {
		rows := [][2]string{{"Last sync", r.LastSync}}
		if r.Restored {
			rows = append(rows, [2]string{"Restored", "yes"})
		}
		return panel(StatusSuccess("Sync completed"), true, rows, "")
	}

	rows := [][2]string{{"Reason", string(r.Classification)}}
	if r.Restored {
		rows = append(rows, [2]string{"Restored", "yes"})
	}
	return panel(StatusError(r.Error), false, rows, Dim(strings.TrimSpace(r.Details)))
}

// RenderStatus draws a status snapshot. remote is the marker read directly
// from the bucket, or "" when that was not requested.
func RenderStatus(st botsync.Status, remote string) string {
	rows := [][2]string{
		{"Mount", yesNo(st.Mounted, "mounted", "not mounted")},
		{"Remote marker", markerOrPending(st.RemoteMarker)},
		{"Local marker", markerOrPending(st.LocalMarker)},
		{"Config file", yesNo(st.ConfigPresent, StatusSuccess("present"), StatusError("missing"))},
	}
	if remote != "" {
		rows = append(rows, [2]string{"Bucket marker", remote})
	}
	if len(st.MissingIdentity) > 0 {
		rows = append(rows, [2]string{"Missing", strings.Join(st.MissingIdentity, ", ")})
	}

	footer := ""
	switch {
	case st.NeedsRestore:
		footer = StatusWarning("next sync will restore from backup")
	case !st.ConfigPresent:
		footer = StatusWarning("next sync will refuse to push")
	}
	return panel("Sync status", st.ConfigPresent && !st.NeedsRestore, rows, footer)
}

func markerOrPending(ts string) string {
	if ts == "" {
		return StatusPending("never synced")
	}
	return ts
}

func yesNo(b bool, yes, no string) string {
	if b {
		return yes
	}
	return no
}

// Plain renders a result without borders, for logs and pipes.
func Plain(r *botsync.Result) string {
	if r.Success {
		return fmt.Sprintf("%s last sync %s", StatusSuccess("synced"), r.LastSync)
	}
	return fmt.Sprintf("%s %s: %s", StatusError(string(r.Classification)), r.Error, r.Details)
}
