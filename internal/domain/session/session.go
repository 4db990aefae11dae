// Package session models the evaluator's view state as an explicit state
// machine. Transitions happen only through the action methods; an action
// that is not allowed from the current view returns ErrInvalidTransition and
// leaves the state unchanged.
package session

import (
	"errors"
	"fmt"

	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/domain/model"
)

// View is one of the three screens.
type View string

// Views.
const (
	ViewList   View = "list"
	ViewForm   View = "form"
	ViewDetail View = "detail"
)

// ErrInvalidTransition is returned when an action does not apply to the current view.
var ErrInvalidTransition = errors.New("invalid view transition")

// State is the application view state. The zero value is not usable; call New.
type State struct {
	view     View
	selected *model.Evaluation
	search   string
}

// New returns a state on the list view.
func New() *State { return &State{view: ViewList} }

// View returns the current screen.
func (s *State) View() View { return s.view }

// Search returns the list search text.
func (s *State) Search() string { return s.search }

// Selected returns a copy of the selected record, if any.
func (s *State) Selected() (model.Evaluation, bool) {
	if s.selected == nil {
		return model.Evaluation{}, false
	}
	return s.selected.Clone(), true
}

// Editing reports whether the form is editing an existing record.
func (s *State) Editing() bool { return s.view == ViewForm && s.selected != nil }

func (s *State) invalid(action string) error {
	return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, action, s.view)
}

// NewEvaluation opens an empty form. list -> form.
func (s *State) NewEvaluation() error {
	if s.view != ViewList {
		return s.invalid("new")
	}
	s.selected = nil
	s.view = ViewForm
	return nil
}

// Edit opens the form on ev. list|detail -> form.
func (s *State) Edit(ev model.Evaluation) error {
	if s.view != ViewList && s.view != ViewDetail {
		return s.invalid("edit")
	}
	c := ev.Clone()
	s.selected = &c
	s.view = ViewForm
	return nil
}

// Open shows the detail of ev. list -> detail.
func (s *State) Open(ev model.Evaluation) error {
	if s.view != ViewList {
		return s.invalid("open")
	}
	c := ev.Clone()
	s.selected = &c
	s.view = ViewDetail
	return nil
}

// Back leaves the form or the detail without saving. form|detail -> list.
// The selection is kept so that a detail -> form -> back round trip does not
// lose context.
func (s *State) Back() error {
	if s.view != ViewForm && s.view != ViewDetail {
		return s.invalid("back")
	}
	s.view = ViewList
	return nil
}

// Saved records a successful save. form -> list.
func (s *State) Saved(ev model.Evaluation) error {
	if s.view != ViewForm {
		return s.invalid("saved")
	}
	c := ev.Clone()
	s.selected = &c
	s.view = ViewList
	return nil
}

// SetSearch updates the list filter. list only.
func (s *State) SetSearch(text string) error {
	if s.view != ViewList {
		return s.invalid("search")
	}
	s.search = text
	return nil
}

// Refresh replaces the selected record with its latest version after a
// sync, or clears it when the record disappeared. Valid from any view;
// a detail view whose record vanished falls back to the list.
func (s *State) Refresh(lookup func(id string) (model.Evaluation, bool)) {
	if s.selected == nil {
		return
	}
	latest, ok := lookup(s.selected.ID)
	if !ok {
		s.selected = nil
		if s.view == ViewDetail {
			s.view = ViewList
		}
		return
	}
	if s.view != ViewForm {
		c := latest.Clone()
		s.selected = &c
	}
}
