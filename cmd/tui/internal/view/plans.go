package view

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/avelasco/payplan/internal/offline"
	"github.com/avelasco/payplan/internal/plan"
)

type plansState int

const (
	plansStateBrowse plansState = iota
	plansStateCreate
)

type PlansModel struct {
	planSvc *plan.Service

	state  plansState
	table  table.Model
	plans  []plan.Plan
	form   *huh.Form
	status string
	err    error
}

func NewPlansModel(planSvc *plan.Service, accent lipgloss.Color) PlansModel {
	columns := []table.Column{
		{Title: "Plan", Width: 28},
		{Title: "Total", Width: 12},
		{Title: "Monthly", Width: 12},
		{Title: "Term", Width: 10},
		{Title: "Owner", Width: 6},
		{Title: "Active", Width: 6},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(accent).
		Bold(false)
	t.SetStyles(s)

	return PlansModel{planSvc: planSvc, table: t}
}

func (m PlansModel) Title() string { return "Payment Plans" }

func (m PlansModel) ShortHelp() string {
	if m.state == plansStateCreate {
		return "Navigate form | Esc: cancel"
	}

	return "Esc: back | n: new | enter: activate | p: payments | x: delete | r: refresh"
}

type plansLoadedMsg struct {
	plans []plan.Plan
	err   error
}

type planSavedMsg struct {
	err error
}

func (m PlansModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		plans, err := m.planSvc.List(context.Background())
		return plansLoadedMsg{plans: plans, err: err}
	}
}

func (m PlansModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m PlansModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case plansLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.err = nil
		m.plans = msg.plans
		m.refreshTable()

		return m, nil

	case planSavedMsg:
		m.status = saveOutcome(msg.err)
		return m, m.loadCmd()
	}

	if m.state == plansStateCreate {
		return m.updateForm(msg)
	}

	return m.updateBrowse(msg)
}

func (m PlansModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)

		return m, cmd
	}

	switch keyMsg.String() {
	case "esc":
		return m, func() tea.Msg { return BackMsg{} }

	case "r":
		return m, m.loadCmd()

	case "n":
		m.state = plansStateCreate
		m.form = newCreateForm()

		return m, m.form.Init()

	case "enter":
		p, ok := m.selected()
		if !ok {
			return m, nil
		}

		return m, func() tea.Msg {
			_, err := m.planSvc.SwitchTo(context.Background(), p.ID)
			return planSavedMsg{err: err}
		}

	case "x":
		p, ok := m.selected()
		if !ok {
			return m, nil
		}

		return m, func() tea.Msg {
			return planSavedMsg{err: m.planSvc.Delete(context.Background(), p.ID)}
		}

	case "p":
		p, ok := m.selected()
		if !ok {
			return m, nil
		}

		return m, func() tea.Msg { return OpenPaymentsMsg{Plan: p} }
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m PlansModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "esc" {
		m.state = plansStateBrowse
		m.form = nil

		return m, nil
	}

	f, cmd := m.form.Update(msg)
	if ff, ok := f.(*huh.Form); ok {
		m.form = ff
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	params, err := m.createParams()
	if err != nil {
		m.status = err.Error()
		m.state = plansStateBrowse
		m.form = nil

		return m, nil
	}

	m.state = plansStateBrowse
	m.form = nil

	return m, func() tea.Msg {
		_, err := m.planSvc.Create(context.Background(), params)
		return planSavedMsg{err: err}
	}
}

func newCreateForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Key("name").Title("Plan name"),
			huh.NewInput().Key("amount").Title("Total amount").Placeholder("1200.00"),
			huh.NewInput().Key("months").Title("Months").Placeholder("12 or one-time"),
			huh.NewSelect[string]().
				Key("owner").
				Title("Who owes").
				Options(
					huh.NewOption("I owe this", string(plan.OwnerSelf)),
					huh.NewOption("Owed to me", string(plan.OwnerOther)),
				),
		),
	)
}

func (m PlansModel) createParams() (plan.CreateParams, error) {
	amount, err := parseAmount(m.form.GetString("amount"))
	if err != nil {
		return plan.CreateParams{}, err
	}

	term, err := parseTerm(m.form.GetString("months"))
	if err != nil {
		return plan.CreateParams{}, err
	}

	return plan.CreateParams{
		Name:        m.form.GetString("name"),
		TotalAmount: amount,
		Term:        term,
		Owner:       plan.DebtOwner(m.form.GetString("owner")),
	}, nil
}

func (m *PlansModel) refreshTable() {
	rows := make([]table.Row, len(m.plans))

	for i, p := range m.plans {
		active := ""
		if p.Active {
			active = "yes"
		}

		rows[i] = table.Row{
			p.Name,
			formatAmount(p.TotalAmount),
			formatAmount(p.MonthlyPayment),
			formatTerm(p.Term),
			string(p.Owner.Normalize()),
			active,
		}
	}

	m.table.SetRows(rows)
}

func (m PlansModel) selected() (plan.Plan, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.plans) {
		return plan.Plan{}, false
	}

	return m.plans[idx], true
}

func (m PlansModel) View() string {
	if m.state == plansStateCreate && m.form != nil {
		return m.form.View()
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render(m.Title()) + "\n\n")
	b.WriteString(m.table.View() + "\n")

	if m.err != nil {
		b.WriteString(errStyle.Render("Error: "+m.err.Error()) + "\n")
	}

	if m.status != "" {
		b.WriteString(statusStyle.Render(m.status) + "\n")
	}

	return b.String()
}

func saveOutcome(err error) string {
	switch {
	case err == nil:
		return fmt.Sprintf("Saved at %s", time.Now().Format("15:04:05"))
	case errors.Is(err, offline.ErrQueued):
		return "Offline: change queued, will sync when back online"
	default:
		return "Error: " + err.Error()
	}
}

func parseAmount(s string) (int64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}

	return int64(value*100 + 0.5), nil
}

func parseTerm(s string) (plan.MonthTerm, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "one-time" || s == "" {
		return plan.OneTime, nil
	}

	months, err := strconv.Atoi(s)
	if err != nil || months < 1 {
		return 0, fmt.Errorf("invalid months %q", s)
	}

	return plan.MonthTerm(months), nil
}
