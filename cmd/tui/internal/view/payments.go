package view

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/avelasco/payplan/internal/payment"
	"github.com/avelasco/payplan/internal/plan"
)

// PaymentsModel shows the per-month checkbox list for one plan. Toggles
// are applied optimistically; a failed persist reverts the checkbox.
type PaymentsModel struct {
	paySvc *payment.Service

	plan    plan.Plan
	paid    []bool
	cursor  int
	status  string
	err     error
	checked lipgloss.Style
}

func NewPaymentsModel(paySvc *payment.Service, accent lipgloss.Color) PaymentsModel {
	return PaymentsModel{
		paySvc:  paySvc,
		checked: lipgloss.NewStyle().Foreground(accent),
	}
}

func (m PaymentsModel) Title() string {
	if m.plan.ID == "" {
		return "Payments"
	}

	return "Payments: " + m.plan.Name
}

func (m PaymentsModel) ShortHelp() string {
	return "Esc: back | space: toggle paid | up/down: move"
}

type statusLoadedMsg struct {
	planID string
	paid   []bool
	err    error
}

type statusSavedMsg struct {
	month int
	err   error
}

// SetPlan points the view at a plan and reloads its status sequence.
func (m PaymentsModel) SetPlan(p plan.Plan) (PaymentsModel, tea.Cmd) {
	m.plan = p
	m.paid = make([]bool, p.Term.Installments())
	m.cursor = 0
	m.status = ""
	m.err = nil

	return m, m.loadCmd()
}

func (m PaymentsModel) loadCmd() tea.Cmd {
	p := m.plan

	return func() tea.Msg {
		statuses, err := m.paySvc.PaymentStatusFor(context.Background(), p.ID)
		if err != nil {
			return statusLoadedMsg{planID: p.ID, err: err}
		}

		paid := make([]bool, p.Term.Installments())
		for i := range paid {
			if i < len(statuses) {
				paid[i] = statuses[i].IsPaid()
			}
		}

		return statusLoadedMsg{planID: p.ID, paid: paid}
	}
}

func (m PaymentsModel) Init() tea.Cmd {
	return nil
}

func (m PaymentsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case statusLoadedMsg:
		if msg.planID != m.plan.ID {
			return m, nil
		}

		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.err = nil
		m.paid = msg.paid

		return m, nil

	case statusSavedMsg:
		if msg.err != nil && msg.month >= 0 && msg.month < len(m.paid) {
			m.paid[msg.month] = !m.paid[msg.month]
		}

		m.status = saveOutcome(msg.err)

		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, func() tea.Msg { return BackMsg{} }

		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}

		case "down", "j":
			if m.cursor < len(m.paid)-1 {
				m.cursor++
			}

		case " ":
			return m.toggle(m.cursor)
		}
	}

	return m, nil
}

func (m PaymentsModel) toggle(month int) (tea.Model, tea.Cmd) {
	if month < 0 || month >= len(m.paid) {
		return m, nil
	}

	m.paid[month] = !m.paid[month]

	p := m.plan
	statuses := make([]plan.PaymentStatus, len(m.paid))

	for i, isPaid := range m.paid {
		if isPaid {
			statuses[i] = plan.StatusPaid
		} else {
			statuses[i] = plan.StatusPending
		}
	}

	return m, func() tea.Msg {
		err := m.paySvc.SavePaymentStatus(context.Background(), p.ID, statuses, payment.SaveOptions{
			AllPlans: []plan.Plan{p},
		})

		return statusSavedMsg{month: month, err: err}
	}
}

func (m PaymentsModel) totals() plan.TotalsSnapshot {
	toggles := make([]payment.Toggle, len(m.paid))

	for i, isPaid := range m.paid {
		toggles[i] = payment.Toggle{Amount: m.plan.InstallmentAmount(i), Paid: isPaid}
	}

	return payment.TotalsFromToggles(toggles)
}

func (m PaymentsModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.Title()) + "\n\n")

	for i, isPaid := range m.paid {
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}

		box := "[ ]"
		if isPaid {
			box = m.checked.Render("[x]")
		}

		label := fmt.Sprintf("Month %d", i+1)
		if m.plan.Term.IsOneTime() {
			label = "One-time payment"
		}

		b.WriteString(fmt.Sprintf("%s%s %s  %s\n", cursor, box, label, formatAmount(m.plan.InstallmentAmount(i))))
	}

	t := m.totals()
	b.WriteString(fmt.Sprintf("\nPaid %s of %s, %s remaining\n",
		formatAmount(t.TotalPaid), formatAmount(m.plan.TotalAmount), formatAmount(t.Remaining)))

	if m.err != nil {
		b.WriteString(errStyle.Render("Error: "+m.err.Error()) + "\n")
	}

	if m.status != "" {
		b.WriteString(statusStyle.Render(m.status) + "\n")
	}

	return b.String()
}
