package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/domain/catalog"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/domain/model"
)

// Fixed form fields before the rating grid.
const (
	fieldFirst = iota
	fieldLast
	fieldYear
	fieldTrimester
	fieldItems
)

// ratingCycle is the order left/right steps through.
var ratingCycle = append([]model.Rating{model.Unrated}, model.RatingScale...)

type itemRef struct {
	category string
	title    string
	item     string
	label    string
}

// form is the create/edit screen: two text inputs, two pickers and one
// rating picker per catalog item.
type form struct {
	id    string
	date  model.Timestamp
	first textinput.Model
	last  textinput.Model

	years      []string
	trimesters []string
	year       int
	trimester  int

	items   []itemRef
	ratings model.Ratings
	focus   int
}

func newForm(cat *catalog.Catalog, ev *model.Evaluation) form {
	f := form{
		first:      newInput("Nombre"),
		last:       newInput("Apellido"),
		years:      cat.AcademicYears,
		trimesters: cat.Trimesters,
		ratings:    model.Ratings{},
	}
	for _, c := range cat.Categories {
		for _, it := range c.Items {
			f.items = append(f.items, itemRef{category: c.ID, title: c.Title, item: it.ID, label: it.Label})
		}
	}
	if ev != nil {
		d := model.DraftFrom(*ev)
		f.id = d.ID
		f.date = d.Date
		f.first.SetValue(d.FirstName)
		f.last.SetValue(d.LastName)
		f.year = indexOf(f.years, d.AcademicYear)
		f.trimester = indexOf(f.trimesters, d.Trimester)
		f.ratings = d.Ratings
	}
	f.first.Focus()
	return f
}

func newInput(placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = ""
	ti.CharLimit = 80
	return ti
}

func indexOf(list []string, v string) int {
	for i, s := range list {
		if s == v {
			return i
		}
	}
	return 0
}

func (f *form) fields() int { return fieldItems + len(f.items) }

// draft returns the payload to save.
func (f *form) draft() model.Draft {
	d := model.Draft{
		ID:        f.id,
		FirstName: f.first.Value(),
		LastName:  f.last.Value(),
		Date:      f.date,
		Ratings:   f.ratings.Clone(),
	}
	if len(f.years) > 0 {
		d.AcademicYear = f.years[f.year]
	}
	if len(f.trimesters) > 0 {
		d.Trimester = f.trimesters[f.trimester]
	}
	if d.Ratings == nil {
		d.Ratings = model.Ratings{}
	}
	return d
}

func (f *form) move(delta int) {
	n := f.fields()
	f.focus = (f.focus + delta + n) % n
	f.first.Blur()
	f.last.Blur()
	switch f.focus {
	case fieldFirst:
		f.first.Focus()
	case fieldLast:
		f.last.Focus()
	}
}

func step(i, delta, n int) int {
	if n == 0 {
		return 0
	}
	return (i + delta + n) % n
}

func (f *form) current() model.Rating {
	ref := f.items[f.focus-fieldItems]
	return f.ratings[ref.category][ref.item]
}

func (f *form) setRating(r model.Rating) {
	ref := f.items[f.focus-fieldItems]
	if r == model.Unrated {
		if items, ok := f.ratings[ref.category]; ok {
			delete(items, ref.item)
			if len(items) == 0 {
				delete(f.ratings, ref.category)
			}
		}
		return
	}
	f.ratings.Set(ref.category, ref.item, r)
}

func (f *form) cycleRating(delta int) {
	cur := 0
	for i, r := range ratingCycle {
		if r == f.current() {
			cur = i
		}
	}
	f.setRating(ratingCycle[step(cur, delta, len(ratingCycle))])
}

// update handles keys that stay inside the form. Save and cancel are
// handled by the parent model.
func (f *form) update(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "tab", "down":
		f.move(1)
		return nil
	case "shift+tab", "up":
		f.move(-1)
		return nil
	}

	switch {
	case f.focus == fieldFirst:
		var cmd tea.Cmd
		f.first, cmd = f.first.Update(msg)
		return cmd
	case f.focus == fieldLast:
		var cmd tea.Cmd
		f.last, cmd = f.last.Update(msg)
		return cmd
	case f.focus == fieldYear:
		f.year = step(f.year, horizontal(msg), len(f.years))
	case f.focus == fieldTrimester:
		f.trimester = step(f.trimester, horizontal(msg), len(f.trimesters))
	default:
		switch k := msg.String(); k {
		case "left", "right":
			f.cycleRating(horizontal(msg))
		case "0", "backspace", "delete":
			f.setRating(model.Unrated)
		case "1", "2", "3", "4":
			f.setRating(model.Rating(k))
		}
	}
	return nil
}

func horizontal(msg tea.KeyMsg) int {
	switch msg.String() {
	case "left":
		return -1
	case "right", " ":
		return 1
	}
	return 0
}

// lines renders the form and returns the line index of the focused field.
func (f *form) lines(s Styles) ([]string, int) {
	mark := func(i int, text string) string {
		if f.focus == i {
			return s.Focused.Render("> " + text)
		}
		return "  " + text
	}
	out := []string{
		mark(fieldFirst, "Nombre:    "+f.first.View()),
		mark(fieldLast, "Apellido:  "+f.last.View()),
		mark(fieldYear, "Año:       < "+pick(f.years, f.year)+" >"),
		mark(fieldTrimester, "Trimestre: < "+pick(f.trimesters, f.trimester)+" >"),
	}
	focusLine := f.focus
	lastCategory := ""
	for i, ref := range f.items {
		if ref.category != lastCategory {
			lastCategory = ref.category
			out = append(out, "", s.Header.Render(ref.category+". "+ref.title))
		}
		r := f.ratings[ref.category][ref.item]
		code := "-"
		if r.Rated() {
			code = s.Ratings[string(r)].Render(string(r) + " " + r.Label())
		}
		if f.focus == fieldItems+i {
			focusLine = len(out)
		}
		out = append(out, mark(fieldItems+i, fmt.Sprintf("%s.%s %-56s [%s]", ref.category, ref.item, clip(ref.label, 56), code)))
	}
	return out, focusLine
}

func pick(list []string, i int) string {
	if i < 0 || i >= len(list) {
		return ""
	}
	return list[i]
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n-1])) + "…"
}
