package tui

import (
	"fmt"
	"strings"

	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/adapters/report"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/domain/session"
)

const (
	defaultHeight = 24
	// lines used by title, status, search and help around the body
	chromeLines = 7
)

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	switch m.state.View() {
	case session.ViewForm:
		m.viewForm(&b)
	case session.ViewDetail:
		m.viewDetail(&b)
	default:
		m.viewList(&b)
	}
	b.WriteString("\n")
	m.viewStatus(&b)
	return b.String()
}

func (m Model) bodyHeight() int {
	h := m.height
	if h <= 0 {
		h = defaultHeight
	}
	if h-chromeLines < 3 {
		return 3
	}
	return h - chromeLines
}

// window returns the [from, to) range of n lines that keeps focus visible.
func window(n, focus, size int) (int, int) {
	if n <= size {
		return 0, n
	}
	from := focus - size/2
	if from < 0 {
		from = 0
	}
	if from+size > n {
		from = n - size
	}
	return from, from + size
}

func (m Model) viewList(b *strings.Builder) {
	s := m.styles
	b.WriteString(s.Title.Render(report.Institution+" · Evaluaciones") + "\n")
	b.WriteString(m.search.View() + "\n\n")

	if len(m.items) == 0 {
		b.WriteString(s.Muted.Render("  No hay evaluaciones") + "\n")
	}
	from, to := window(len(m.items), m.cursor, m.bodyHeight())
	for i := from; i < to; i++ {
		ev := m.items[i]
		date := "sin fecha"
		if !ev.Date.IsZero() {
			date = ev.Date.Format("02/01/2006")
		}
		line := fmt.Sprintf("%-32s %-22s %-18s %s", clip(ev.FullName(), 32), clip(ev.AcademicYear, 22), clip(ev.Trimester, 18), date)
		if i == m.cursor {
			b.WriteString(s.Selected.Render("> "+line) + "\n")
			continue
		}
		b.WriteString("  " + line + "\n")
	}

	b.WriteString("\n")
	if m.confirmDelete {
		if ev, ok := m.current(); ok {
			b.WriteString(s.Error.Render(fmt.Sprintf("¿Eliminar la evaluación de %s? (y/n)", ev.FullName())) + "\n")
			return
		}
	}
	b.WriteString(s.Muted.Render("enter ver · ctrl+n nueva · ctrl+e editar · ctrl+d eliminar · ctrl+r sincronizar · esc salir") + "\n")
}

func (m Model) viewDetail(b *strings.Builder) {
	s := m.styles
	ev, ok := m.state.Selected()
	if !ok {
		b.WriteString(s.Muted.Render("Sin selección") + "\n")
		return
	}
	d := report.Resolve(ev, m.catalog)

	b.WriteString(s.Title.Render(d.Resident) + "\n")
	b.WriteString(fmt.Sprintf("%s · %s · %s\n", d.AcademicYear, d.Trimester, d.Date))
	b.WriteString(fmt.Sprintf("Promedio general: %.1f (%d/%d calificados)\n\n", d.Average, d.RatedItems, d.TotalItems))

	var lines []string
	for _, sec := range d.Sections {
		lines = append(lines, s.Header.Render(fmt.Sprintf("%s. %s  (%.1f)", sec.ID, sec.Title, sec.Average)))
		for _, row := range sec.Rows {
			text := s.Muted.Render(row.Text)
			if row.Code.Rated() {
				text = s.Ratings[string(row.Code)].Render(row.Text)
			}
			lines = append(lines, fmt.Sprintf("  %-60s %s", clip(row.Label, 60), text))
		}
	}
	_, to := window(len(lines), 0, m.bodyHeight())
	b.WriteString(strings.Join(lines[:to], "\n") + "\n\n")
	b.WriteString(s.Muted.Render("e editar · p exportar PDF · esc volver") + "\n")
}

func (m Model) viewForm(b *strings.Builder) {
	s := m.styles
	title := "Nueva evaluación"
	if m.state.Editing() {
		title = "Editar evaluación"
	}
	b.WriteString(s.Title.Render(title) + "\n\n")

	lines, focus := m.form.lines(s)
	from, to := window(len(lines), focus, m.bodyHeight())
	b.WriteString(strings.Join(lines[from:to], "\n") + "\n\n")
	b.WriteString(s.Muted.Render("tab/↑↓ campo · ←→ cambiar · 1-4 calificar · 0 borrar · ctrl+s guardar · esc cancelar") + "\n")
}

func (m Model) viewStatus(b *strings.Builder) {
	s := m.styles
	st := m.backend.Status(m.ctx)
	parts := []string{fmt.Sprintf("%d registros", st.Records)}
	switch {
	case m.busy || st.Syncing:
		parts = append(parts, "sincronizando…")
	case !st.LastSync.IsZero():
		parts = append(parts, "última sincronización "+st.LastSync.Local().Format("15:04:05"))
	}
	b.WriteString(s.Muted.Render(strings.Join(parts, " · ")))
	if m.notice != "" {
		b.WriteString("  " + s.OK.Render(m.notice))
	}
	if m.err != nil {
		b.WriteString("\n" + s.Error.Render("Error: "+m.err.Error()))
	}
}
