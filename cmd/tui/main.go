package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/avelasco/payplan/cmd/tui/internal/view"
	"github.com/avelasco/payplan/internal/config"
	"github.com/avelasco/payplan/internal/logging"
	"github.com/avelasco/payplan/internal/offline"
	"github.com/avelasco/payplan/internal/payment"
	"github.com/avelasco/payplan/internal/plan"
	"github.com/avelasco/payplan/internal/storage/factory"
	"github.com/avelasco/payplan/internal/storage/local"
)

type model struct {
	planService *plan.Service
	paySvc      *payment.Service
	engine      *offline.Engine
	device      *local.Store

	currentView View
	syncState   offline.State
	theme       string
	accent      lipgloss.Color

	plansView    view.PlansModel
	paymentsView view.PaymentsModel
}

type View int

const (
	ViewMenu     View = 0
	ViewPlans    View = 1
	ViewPayments View = 2
)

func initialModel() (model, *offline.Engine) {
	_ = godotenv.Load()
	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	fac := factory.New(*cfg)

	store, err := fac.Store(ctx)
	if err != nil {
		slog.Error("failed to open storage backend", "error", err)
		os.Exit(1)
	}

	device, err := fac.Device(ctx)
	if err != nil {
		slog.Error("failed to open device store", "error", err)
		os.Exit(1)
	}

	queue := offline.NewQueue(device, cfg.Sync.QueueMax)
	engine := offline.NewEngine(store, queue, cfg.Sync.MaxRetries)
	synced := engine.Store()

	planSvc := plan.NewService(synced, cfg.Plans.Max)
	paySvc := payment.NewService(synced)

	theme, err := device.Theme(ctx)
	if err != nil {
		slog.Warn("failed to read theme preference", "error", err)
	}
	accent := view.AccentFor(theme)

	return model{
		planService:  planSvc,
		paySvc:       paySvc,
		engine:       engine,
		device:       device,
		currentView:  ViewMenu,
		syncState:    engine.State(),
		theme:        theme,
		accent:       accent,
		plansView:    view.NewPlansModel(planSvc, accent),
		paymentsView: view.NewPaymentsModel(paySvc, accent),
	}, engine
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case view.SyncStateMsg:
		m.syncState = msg.State
		return m, nil

	case view.OpenPaymentsMsg:
		m.currentView = ViewPayments
		m.paymentsView, cmd = m.paymentsView.SetPlan(msg.Plan)

		return m, cmd

	case view.BackMsg:
		if m.currentView == ViewPayments {
			m.currentView = ViewPlans
			return m, m.plansView.Init()
		}

		m.currentView = ViewMenu

		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "ctrl+s":
			return m, m.syncCmd()
		case "ctrl+o":
			return m, m.toggleOnlineCmd()
		case "ctrl+t":
			return m.toggleTheme()
		}

		if m.currentView == ViewMenu {
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewPlans
				m.plansView = view.NewPlansModel(m.planService, m.accent)

				return m, m.plansView.Init()
			}
		}
	}

	switch m.currentView {
	case ViewPlans:
		var newModel tea.Model
		newModel, cmd = m.plansView.Update(msg)
		m.plansView = newModel.(view.PlansModel)
	case ViewPayments:
		var newModel tea.Model
		newModel, cmd = m.paymentsView.Update(msg)
		m.paymentsView = newModel.(view.PaymentsModel)
	}

	return m, cmd
}

func (m model) syncCmd() tea.Cmd {
	return func() tea.Msg {
		if err := m.engine.Sync(context.Background()); err != nil {
			slog.Warn("manual sync failed", "error", err)
		}

		return view.SyncStateMsg{State: m.engine.State()}
	}
}

func (m model) toggleOnlineCmd() tea.Cmd {
	online := m.engine.Online()

	return func() tea.Msg {
		m.engine.SetOnline(context.Background(), !online)
		return view.SyncStateMsg{State: m.engine.State()}
	}
}

func (m model) toggleTheme() (tea.Model, tea.Cmd) {
	if m.theme == "light" {
		m.theme = "dark"
	} else {
		m.theme = "light"
	}

	m.accent = view.AccentFor(m.theme)
	m.plansView = view.NewPlansModel(m.planService, m.accent)
	m.paymentsView = view.NewPaymentsModel(m.paySvc, m.accent)

	theme := m.theme
	device := m.device
	cmd := func() tea.Msg {
		if err := device.SetTheme(context.Background(), theme); err != nil {
			slog.Warn("failed to persist theme preference", "error", err)
		}

		return nil
	}

	if m.currentView == ViewPlans {
		return m, tea.Batch(cmd, m.plansView.Init())
	}

	return m, cmd
}

func (m model) statusBar() string {
	label := "online"

	switch m.syncState {
	case offline.StateOffline:
		label = "offline"
	case offline.StateChecking:
		label = "syncing..."
	}

	return fmt.Sprintf("[%s] ctrl+s: sync | ctrl+o: toggle online | ctrl+t: theme", label)
}

func (m model) View() string {
	var body string

	switch m.currentView {
	case ViewMenu:
		body = lipgloss.NewStyle().Padding(2).Render(
			"PayPlan\n\n" +
				"1. Payment Plans\n\n" +
				"q. Quit",
		)
	case ViewPlans:
		body = m.plansView.View()
	case ViewPayments:
		body = m.paymentsView.View()
	default:
		body = "Unknown View"
	}

	return body + "\n" + lipgloss.NewStyle().Faint(true).Render(m.statusBar())
}

func main() {
	m, engine := initialModel()

	p := tea.NewProgram(m)

	engine.Subscribe(func(state offline.State) {
		p.Send(view.SyncStateMsg{State: state})
	})

	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
