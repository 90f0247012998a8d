package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/termplan/internal/cli/formatter"
	"github.com/alexanderramin/termplan/internal/domain"
	"github.com/alexanderramin/termplan/internal/service"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
)

type planKeyMap struct {
	Retry     key.Binding
	Quit      key.Binding
	Next      key.Binding
	Prev      key.Binding
	Save      key.Binding
	Edit      key.Binding
	Cancel    key.Binding
	Interrupt key.Binding
}

var planKeys = planKeyMap{
	Retry:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry")),
	Quit:      key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "leave")),
	Next:      key.NewBinding(key.WithKeys("tab", "right", "l"), key.WithHelp("tab", "next student")),
	Prev:      key.NewBinding(key.WithKeys("shift+tab", "left", "h"), key.WithHelp("shift+tab", "prev student")),
	Save:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save to dashboard")),
	Edit:      key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit term")),
	Cancel:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	Interrupt: key.NewBinding(key.WithKeys("ctrl+c")),
}

// loadStartedMsg carries the snapshot stream of a new load.
type loadStartedMsg struct {
	snaps <-chan service.Snapshot
}

type snapshotMsg struct {
	snap  service.Snapshot
	snaps <-chan service.Snapshot
}

// loadSettledMsg reports that a snapshot stream closed.
type loadSettledMsg struct {
	snaps <-chan service.Snapshot
}

type savedMsg struct {
	plan domain.TermPlan
	err  error
}

// planModel is the interactive plan screen. It renders the session's
// snapshots and sends edits through the PlanService.
type planModel struct {
	ctx    context.Context
	cancel context.CancelFunc
	svc    *service.PlanService
	planID string
	now    func() time.Time

	snaps   <-chan service.Snapshot
	snap    service.Snapshot
	spinner spinner.Model
	width   int

	studentID    string
	autoSelected bool

	form     *huh.Form
	fields   *termFields
	editOnce bool
	saving   bool
	notice   string

	quitting bool
}

func newPlanModel(ctx context.Context, svc *service.PlanService, planID string, edit bool, now func() time.Time) *planModel {
	ctx, cancel := context.WithCancel(ctx)
	if now == nil {
		now = time.Now
	}
	return &planModel{
		ctx:      ctx,
		cancel:   cancel,
		svc:      svc,
		planID:   planID,
		now:      now,
		snap:     svc.Current(),
		editOnce: edit,
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(formatter.StylePurple),
		),
	}
}

func (m *planModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startLoad(func(ctx context.Context) <-chan service.Snapshot {
		return m.svc.Load(ctx, m.planID)
	}))
}

func (m *planModel) startLoad(load func(context.Context) <-chan service.Snapshot) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return loadStartedMsg{snaps: load(ctx)}
	}
}

func waitForSnapshot(snaps <-chan service.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-snaps
		if !ok {
			return loadSettledMsg{snaps: snaps}
		}
		return snapshotMsg{snap: snap, snaps: snaps}
	}
}

func (m *planModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case loadStartedMsg:
		m.snaps = msg.snaps
		return m, tea.Batch(waitForSnapshot(msg.snaps), m.spinner.Tick)

	case snapshotMsg:
		if msg.snaps != m.snaps {
			return m, nil
		}
		m.applySnapshot(msg.snap)
		cmds := []tea.Cmd{waitForSnapshot(msg.snaps)}
		if m.editOnce && m.snap.Plan != nil && m.form == nil {
			m.editOnce = false
			cmds = append(cmds, m.openForm())
		}
		return m, tea.Batch(cmds...)

	case loadSettledMsg:
		if msg.snaps == m.snaps {
			m.snaps = nil
		}
		return m, nil

	case savedMsg:
		m.saving = false
		m.snap = m.svc.Current()
		if msg.err != nil {
			m.notice = fmt.Sprintf("%s: %v", service.NoticeSaveFailed, msg.err)
		} else {
			m.notice = fmt.Sprintf("%s (v%d)", service.NoticeSaved, msg.plan.Version)
		}
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, planKeys.Interrupt) {
			return m, m.quit()
		}
		if m.form != nil {
			return m.updateForm(msg)
		}
		return m.handleKey(msg)
	}

	if m.form != nil {
		return m.updateForm(msg)
	}
	return m, nil
}

// applySnapshot takes a new session state. The first student is selected
// automatically the first time a plan with students arrives, and never
// again afterwards.
func (m *planModel) applySnapshot(s service.Snapshot) {
	m.snap = s
	m.notice = s.Notice
	if s.Plan == nil || m.autoSelected || s.Plan.IsEmpty() {
		return
	}
	m.studentID = s.Plan.Students[0].ID
	m.autoSelected = true
}

func (m *planModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, planKeys.Quit):
		return m, m.quit()

	case key.Matches(msg, planKeys.Retry):
		if !m.snap.State.Recoverable() || m.snaps != nil {
			return m, nil
		}
		m.snap = service.Snapshot{State: service.StateLoading, PlanID: m.snap.PlanID, Loading: true}
		return m, m.startLoad(m.svc.Retry)

	case key.Matches(msg, planKeys.Next):
		m.cycleStudent(1)
		return m, nil

	case key.Matches(msg, planKeys.Prev):
		m.cycleStudent(-1)
		return m, nil

	case key.Matches(msg, planKeys.Save):
		if m.snap.Plan == nil || m.saving {
			return m, nil
		}
		m.saving = true
		m.notice = "Saving to dashboard…"
		svc, ctx := m.svc, m.ctx
		return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
			plan, err := svc.SaveToDashboard(ctx)
			return savedMsg{plan: plan, err: err}
		})

	case key.Matches(msg, planKeys.Edit):
		if m.snap.Plan == nil {
			return m, nil
		}
		return m, m.openForm()
	}
	return m, nil
}

func (m *planModel) cycleStudent(delta int) {
	if m.snap.Plan == nil || m.snap.Plan.IsEmpty() {
		return
	}
	ids := m.snap.Plan.StudentIDs()
	idx := 0
	for i, id := range ids {
		if id == m.studentID {
			idx = i
			break
		}
	}
	idx = (idx + delta + len(ids)) % len(ids)
	m.studentID = ids[idx]
}

func (m *planModel) openForm() tea.Cmd {
	f := termFieldsOf(*m.snap.Plan)
	m.fields = &f
	m.form = academicTermForm(m.fields)
	return m.form.Init()
}

func (m *planModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && key.Matches(keyMsg, planKeys.Cancel) {
		m.form, m.fields = nil, nil
		m.notice = "Edit cancelled"
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		fields := *m.fields
		m.form, m.fields = nil, nil
		m.commitTermEdit(fields)
		return m, nil
	case huh.StateAborted:
		m.form, m.fields = nil, nil
		return m, nil
	}
	return m, cmd
}

// commitTermEdit applies a completed term form to the local plan.
func (m *planModel) commitTermEdit(fields termFields) {
	plan, err := m.svc.Apply(m.ctx, "academic term", fields.mutation())
	m.snap = m.svc.Current()
	if err != nil {
		m.notice = "Edit failed: " + err.Error()
		return
	}
	m.notice = fmt.Sprintf("Saved locally (v%d); press s to save to dashboard", plan.Version)
}

func (m *planModel) quit() tea.Cmd {
	m.quitting = true
	m.cancel()
	return tea.Quit
}

// busy reports whether the spinner should keep ticking.
func (m *planModel) busy() bool {
	return m.snaps != nil || m.snap.Loading || m.saving
}

func (m *planModel) selectedStudent() (*domain.StudentPlan, bool) {
	if m.snap.Plan == nil || m.snap.Plan.IsEmpty() {
		return nil, false
	}
	if sp, idx := m.snap.Plan.Student(m.studentID); idx >= 0 {
		return sp, true
	}
	return &m.snap.Plan.Students[0], true
}

func (m *planModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	switch {
	case m.snap.Plan == nil && (m.snap.State == service.StateInitial || m.snap.Loading):
		b.WriteString(fmt.Sprintf("\n  %s %s\n", m.spinner.View(), formatter.Dim("Loading term plan…")))
		b.WriteString(m.helpLine(planKeys.Quit))

	case m.snap.Plan == nil:
		b.WriteString("\n  " + formatter.ErrorLine(m.snap.Message) + "\n")
		if m.snap.State.Recoverable() && m.snap.PlanID != "" {
			b.WriteString(m.helpLine(planKeys.Retry, planKeys.Quit))
		} else {
			b.WriteString(m.helpLine(planKeys.Quit))
		}

	case m.form != nil:
		b.WriteString(formatter.Header("Edit " + formatter.TermTitle(*m.snap.Plan)))
		b.WriteString("\n\n")
		b.WriteString(m.form.View())
		b.WriteString(m.helpLine(planKeys.Cancel))

	default:
		b.WriteString(formatter.FormatPlan(*m.snap.Plan, string(m.snap.Source), m.now()))
		b.WriteString("\n")
		b.WriteString(m.tabs())
		b.WriteString("\n\n")
		if sp, ok := m.selectedStudent(); ok {
			b.WriteString(formatter.FormatStudent(*sp))
		}
		if m.snap.Refreshing || m.saving {
			label := "Refreshing from dashboard…"
			if m.saving {
				label = "Saving…"
			}
			b.WriteString(fmt.Sprintf("\n%s %s", m.spinner.View(), formatter.Dim(label)))
		}
		if m.notice != "" {
			b.WriteString("\n" + formatter.Notice(m.notice))
		}
		b.WriteString(m.helpLine(planKeys.Next, planKeys.Edit, planKeys.Save, planKeys.Quit))
	}
	return b.String()
}

func (m *planModel) tabs() string {
	if m.snap.Plan.IsEmpty() {
		return formatter.Dim("No students")
	}
	sel, _ := m.selectedStudent()
	parts := make([]string, 0, len(m.snap.Plan.Students))
	for i := range m.snap.Plan.Students {
		sp := &m.snap.Plan.Students[i]
		if sp.ID == sel.ID {
			parts = append(parts, formatter.StyleHeader.Render("["+sp.DisplayName()+"]"))
		} else {
			parts = append(parts, formatter.Dim(" "+sp.DisplayName()+" "))
		}
	}
	return strings.Join(parts, " ")
}

func (m *planModel) helpLine(bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		h := kb.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return "\n\n" + formatter.Dim(strings.Join(parts, " · ")) + "\n"
}
