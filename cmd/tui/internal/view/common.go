package view

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/avelasco/payplan/internal/offline"
	"github.com/avelasco/payplan/internal/plan"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// AccentFor maps the stored theme preference to a highlight color.
func AccentFor(theme string) lipgloss.Color {
	if theme == "light" {
		return lipgloss.Color("25")
	}

	return lipgloss.Color("57")
}

// SyncStateMsg carries a sync engine transition into the program.
type SyncStateMsg struct {
	State offline.State
}

// OpenPaymentsMsg asks the root model to show the payments view for a
// plan.
type OpenPaymentsMsg struct {
	Plan plan.Plan
}

// BackMsg returns to the previous view.
type BackMsg struct{}

func formatAmount(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}

	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

func formatTerm(t plan.MonthTerm) string {
	if t.IsOneTime() {
		return "one-time"
	}

	return fmt.Sprintf("%d months", int(t))
}
