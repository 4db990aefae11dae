// Package tui is the terminal front end for evaluators: a searchable list,
// a read-only detail with PDF export, and the create/edit form.
//
// Screen changes go through session.State. Every call into the backend runs
// as a tea.Cmd so the UI never blocks on the remote document.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/adapters/report"
	service "github.com/Jhon-Henrry67/Evaluaciongoutier/internal/app"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/domain/catalog"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/domain/model"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/domain/session"
)

// Backend is what the UI needs from the sync service.
type Backend interface {
	List(ctx context.Context, search string) []model.Evaluation
	Get(ctx context.Context, id string) (model.Evaluation, error)
	Save(ctx context.Context, draft model.Draft) (model.Evaluation, error)
	Delete(ctx context.Context, id string) error
	TryRefresh(ctx context.Context) (service.PullResult, error)
	Status(ctx context.Context) service.Status
	Catalog() *catalog.Catalog
}

type (
	refreshedMsg struct {
		res service.PullResult
		err error
	}
	savedMsg struct {
		ev  model.Evaluation
		err error
	}
	deletedMsg struct {
		id  string
		err error
	}
	exportedMsg struct {
		path string
		err  error
	}
	tickMsg time.Time
)

// Model is the bubbletea model.
type Model struct {
	ctx      context.Context
	backend  Backend
	catalog  *catalog.Catalog
	styles   Styles
	outDir   string
	interval time.Duration

	state  *session.State
	search textinput.Model
	items  []model.Evaluation
	cursor int
	form   form

	confirmDelete bool
	busy          bool
	notice        string
	err           error

	width  int
	height int
}

// New builds the model. The first pull is issued by Init.
func New(ctx context.Context, backend Backend, opts ...Option) Model {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	search := textinput.New()
	search.Placeholder = "Buscar por nombre, año o trimestre"
	search.Prompt = "/ "
	search.Focus()

	m := Model{
		ctx:      ctx,
		backend:  backend,
		catalog:  backend.Catalog(),
		styles:   cfg.styles,
		outDir:   cfg.outDir,
		interval: cfg.refreshInterval,
		state:    session.New(),
		search:   search,
	}
	m.reload()
	return m
}

// Run starts the program on the alternate screen and blocks until the user
// quits or ctx is cancelled.
func Run(ctx context.Context, backend Backend, opts ...Option) error {
	p := tea.NewProgram(New(ctx, backend, opts...), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.refresh(), m.tick())
}

// Screen returns the current view.
func (m Model) Screen() session.View { return m.state.View() }

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tickMsg:
		if m.busy {
			return m, m.tick()
		}
		m.busy = true
		return m, tea.Batch(m.refresh(), m.tick())

	case refreshedMsg:
		m.busy = false
		switch {
		case errors.Is(msg.err, service.ErrSyncInFlight):
			m.notice = "Sincronización en curso"
		case msg.err != nil:
			m.err = msg.err
		case msg.res.Stale():
			m.err = msg.res.Err
			m.notice = fmt.Sprintf("Sin conexión: %d registros (%s)", msg.res.Records, msg.res.Source)
		default:
			m.err = nil
			m.notice = fmt.Sprintf("Sincronizado: %d registros", msg.res.Records)
		}
		m.state.Refresh(func(id string) (model.Evaluation, bool) {
			ev, err := m.backend.Get(m.ctx, id)
			return ev, err == nil
		})
		m.reload()
		return m, nil

	case savedMsg:
		m.busy = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		_ = m.state.Saved(msg.ev)
		m.notice = "Evaluación guardada"
		m.reload()
		m.selectID(msg.ev.ID)
		return m, nil

	case deletedMsg:
		m.busy = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.notice = "Evaluación eliminada"
		m.reload()
		return m, nil

	case exportedMsg:
		m.busy = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.notice = "PDF guardado en " + msg.path
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.state.View() {
		case session.ViewForm:
			return m.updateForm(msg)
		case session.ViewDetail:
			return m.updateDetail(msg)
		default:
			return m.updateList(msg)
		}
	}
	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirmDelete {
		m.confirmDelete = false
		if msg.String() != "y" {
			m.notice = "Eliminación cancelada"
			return m, nil
		}
		ev, ok := m.current()
		if !ok || m.busy {
			return m, nil
		}
		m.busy = true
		return m, m.remove(ev.ID)
	}

	switch msg.String() {
	case "esc":
		return m, tea.Quit
	case "up":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
		return m, nil
	case "enter":
		if ev, ok := m.current(); ok {
			_ = m.state.Open(ev)
		}
		return m, nil
	case "ctrl+n":
		if err := m.state.NewEvaluation(); err == nil {
			m.form = newForm(m.catalog, nil)
			m.err = nil
		}
		return m, nil
	case "ctrl+e":
		if ev, ok := m.current(); ok {
			m.openForm(ev)
		}
		return m, nil
	case "ctrl+d":
		if _, ok := m.current(); ok {
			m.confirmDelete = true
		}
		return m, nil
	case "ctrl+r":
		if m.busy {
			return m, nil
		}
		m.busy = true
		return m, m.refresh()
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != before {
		_ = m.state.SetSearch(m.search.Value())
		m.cursor = 0
		m.reload()
	}
	return m, cmd
}

func (m Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ev, ok := m.state.Selected()
	switch msg.String() {
	case "esc", "q", "backspace":
		_ = m.state.Back()
	case "e":
		if ok {
			m.openForm(ev)
		}
	case "p":
		if ok && !m.busy {
			m.busy = true
			return m, m.export(ev)
		}
	}
	return m, nil
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		_ = m.state.Back()
		m.err = nil
		return m, nil
	case "ctrl+s":
		if m.busy {
			return m, nil
		}
		d := m.form.draft()
		if err := d.Validate(); err != nil {
			m.err = err
			return m, nil
		}
		m.busy = true
		return m, m.save(d)
	}
	return m, m.form.update(msg)
}

func (m *Model) openForm(ev model.Evaluation) {
	if err := m.state.Edit(ev); err == nil {
		m.form = newForm(m.catalog, &ev)
		m.err = nil
	}
}

func (m *Model) reload() {
	m.items = m.backend.List(m.ctx, m.state.Search())
	if m.cursor >= len(m.items) {
		m.cursor = len(m.items) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) selectID(id string) {
	for i, ev := range m.items {
		if ev.ID == id {
			m.cursor = i
			return
		}
	}
}

func (m Model) current() (model.Evaluation, bool) {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return model.Evaluation{}, false
	}
	return m.items[m.cursor], true
}

func (m Model) refresh() tea.Cmd {
	ctx, b := m.ctx, m.backend
	return func() tea.Msg {
		res, err := b.TryRefresh(ctx)
		return refreshedMsg{res: res, err: err}
	}
}

func (m Model) tick() tea.Cmd {
	if m.interval <= 0 {
		return nil
	}
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) save(d model.Draft) tea.Cmd {
	ctx, b := m.ctx, m.backend
	return func() tea.Msg {
		ev, err := b.Save(ctx, d)
		return savedMsg{ev: ev, err: err}
	}
}

func (m Model) remove(id string) tea.Cmd {
	ctx, b := m.ctx, m.backend
	return func() tea.Msg {
		return deletedMsg{id: id, err: b.Delete(ctx, id)}
	}
}

func (m Model) export(ev model.Evaluation) tea.Cmd {
	dir, cat := m.outDir, m.catalog
	return func() tea.Msg {
		path, err := ExportPDF(dir, ev, cat)
		return exportedMsg{path: path, err: err}
	}
}

// ExportPDF renders ev into dir under its report file name and returns the
// written path.
func ExportPDF(dir string, ev model.Evaluation, cat *catalog.Catalog) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("export pdf: %w", err)
	}
	path := filepath.Join(dir, report.Filename(ev))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("export pdf: %w", err)
	}
	if err := report.RenderPDF(f, report.Resolve(ev, cat)); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("export pdf: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("export pdf: %w", err)
	}
	return path, nil
}
