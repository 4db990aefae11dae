package model

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/google/uuid"
)

// Draft is the form payload for creating or editing an evaluation.
// ID and Date are empty for a new record.
type Draft struct {
	ID           string    `json:"id,omitempty"`
	FirstName    string    `json:"firstName" validate:"required,notblank"`
	LastName     string    `json:"lastName" validate:"required,notblank"`
	AcademicYear string    `json:"academicYear" validate:"required,notblank"`
	Trimester    string    `json:"trimester" validate:"required,notblank"`
	Date         Timestamp `json:"date,omitempty"`
	Ratings      Ratings   `json:"ratings" validate:"omitempty,dive,dive,rating"`
}

// DraftFrom turns an existing record back into an editable draft.
func DraftFrom(e Evaluation) Draft {
	d := Draft{
		ID:           e.ID,
		FirstName:    e.FirstName,
		LastName:     e.LastName,
		AcademicYear: e.AcademicYear,
		Trimester:    e.Trimester,
		Date:         e.Date,
		Ratings:      e.Ratings.Clone(),
	}
	if d.Ratings == nil {
		d.Ratings = Ratings{}
	}
	return d
}

// IsNew reports whether the draft has never been saved.
func (d Draft) IsNew() bool { return strings.TrimSpace(d.ID) == "" }

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		_ = v.RegisterValidation("notblank", validators.NotBlank)
		_ = v.RegisterValidation("rating", func(fl validator.FieldLevel) bool {
			return Rating(fl.Field().String()).Valid()
		})
		validate = v
	})
	return validate
}

// Validate checks required fields and rating codes. The returned error wraps
// ErrValidation and names every offending field.
func (d Draft) Validate() error {
	err := validatorInstance().Struct(d)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	fields := make([]string, 0, len(verrs))
	seen := make(map[string]bool, len(verrs))
	for _, fe := range verrs {
		name := fe.Field()
		if fe.Tag() == "rating" {
			name = "ratings"
		}
		if !seen[name] {
			seen[name] = true
			fields = append(fields, name)
		}
	}
	sort.Strings(fields)
	return fmt.Errorf("%w: missing or invalid %s", ErrValidation, strings.Join(fields, ", "))
}

// Record builds the evaluation to persist. New drafts get a fresh id and the
// given timestamp; edits keep their id, and keep createdAt when it is set.
func (d Draft) Record(now time.Time, createdAt Timestamp) Evaluation {
	e := Evaluation{
		ID:           strings.TrimSpace(d.ID),
		FirstName:    strings.TrimSpace(d.FirstName),
		LastName:     strings.TrimSpace(d.LastName),
		AcademicYear: strings.TrimSpace(d.AcademicYear),
		Trimester:    strings.TrimSpace(d.Trimester),
		Date:         d.Date,
		Ratings:      d.Ratings.Clone(),
	}
	if e.ID == "" {
		e.ID = NewID()
	}
	if e.Ratings == nil {
		e.Ratings = Ratings{}
	}
	if !createdAt.IsZero() {
		e.Date = createdAt
	}
	if e.Date.IsZero() {
		e.Date = NewTimestamp(now)
	}
	return e
}

// NewID returns a fresh record identifier.
func NewID() string { return uuid.NewString() }
