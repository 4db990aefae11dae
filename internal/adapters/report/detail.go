// Package report turns an evaluation into its printable form: a resolved
// detail structure and an A4 PDF rendering of it.
package report

import (
	"math"
	"regexp"
	"strings"

	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/domain/catalog"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/domain/model"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/domain/stats"
)

// Fixed document headings.
const (
	Program     = "RESIDENCIA DE EMERGENCIOLOGÍA Y CUIDADOS CRÍTICOS"
	Institution = "HOSPITAL SALVADOR B. GAUTIER"
	FormTitle   = "Formulario de Evaluación de Competencias del Residente"

	// NotRated is shown for items without a rating.
	NotRated = "No calificado"

	displayDate = "02/01/2006"
	fileDate    = "2006-01-02"
)

// Detail is a fully resolved evaluation, independent of the catalog that
// produced it.
type Detail struct {
	ID           string      `json:"id"`
	Program      string      `json:"program"`
	Institution  string      `json:"institution"`
	FormTitle    string      `json:"formTitle"`
	Resident     string      `json:"resident"`
	AcademicYear string      `json:"academicYear"`
	Trimester    string      `json:"trimester"`
	Date         string      `json:"date"`
	Sections     []Section   `json:"sections"`
	Average      float64     `json:"average"`
	RatedItems   int         `json:"ratedItems"`
	TotalItems   int         `json:"totalItems"`
	Signatures   []Signature `json:"signatures"`
}

// Section is one rubric category.
type Section struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Subtitle string  `json:"subtitle"`
	Rows     []Row   `json:"rows"`
	Average  float64 `json:"average"`
	Rated    int     `json:"rated"`
}

// Row is one item with its rating.
type Row struct {
	ItemID string       `json:"itemId"`
	Label  string       `json:"label"`
	Code   model.Rating `json:"code"`
	Text   string       `json:"text"`
}

// Signature is a caption under a signature line.
type Signature struct {
	Caption string `json:"caption"`
	Note    string `json:"note"`
}

// Resolve lays ev out along the catalog. Catalog order is kept, and ratings
// for items the catalog does not define are left out.
func Resolve(ev model.Evaluation, c *catalog.Catalog) Detail {
	d := Detail{
		ID:           ev.ID,
		Program:      Program,
		Institution:  Institution,
		FormTitle:    FormTitle,
		Resident:     ev.FullName(),
		AcademicYear: ev.AcademicYear,
		Trimester:    ev.Trimester,
		Signatures: []Signature{
			{Caption: "FIRMA DEL EVALUADOR", Note: "Nombre, Sello y Cédula"},
			{Caption: "FIRMA DEL EVALUADO", Note: "Residente en Formación"},
		},
	}
	if !ev.Date.IsZero() {
		d.Date = ev.Date.Format(displayDate)
	}

	averages := stats.CategoryAverages(ev, c)
	sum := 0
	for i, cat := range c.Categories {
		sec := Section{
			ID:       cat.ID,
			Title:    cat.Title,
			Subtitle: cat.Subtitle,
			Rows:     make([]Row, 0, len(cat.Items)),
			Average:  averages[i].Average,
			Rated:    averages[i].Rated,
		}
		for _, it := range cat.Items {
			code := ev.Rating(cat.ID, it.ID)
			if !code.Valid() {
				code = model.Unrated
			}
			sec.Rows = append(sec.Rows, Row{ItemID: it.ID, Label: it.Label, Code: code, Text: RatingText(code)})
			if code.Rated() {
				sum += code.Value()
				d.RatedItems++
			}
		}
		d.TotalItems += len(cat.Items)
		d.Sections = append(d.Sections, sec)
	}
	if d.RatedItems > 0 {
		d.Average = math.Round(float64(sum)/float64(d.RatedItems)*10) / 10
	}
	return d
}

// RatingText renders a rating the way the printed form shows it.
func RatingText(r model.Rating) string {
	if !r.Rated() {
		return NotRated
	}
	return string(r) + " - " + r.Label()
}

var unsafeName = regexp.MustCompile(`[\\/:*?"<>|\s]+`)

// Filename is Eval_<Last>_<First>_<YYYY-MM-DD>.pdf, with characters that
// are unsafe in file names replaced.
func Filename(ev model.Evaluation) string {
	date := "sin-fecha"
	if !ev.Date.IsZero() {
		date = ev.Date.Format(fileDate)
	}
	parts := []string{"Eval", clean(ev.LastName), clean(ev.FirstName), date}
	return strings.Join(parts, "_") + ".pdf"
}

func clean(s string) string {
	s = strings.Trim(unsafeName.ReplaceAllString(strings.TrimSpace(s), "-"), "-")
	if s == "" {
		return "x"
	}
	return s
}

// upper uppercases headings; strings.ToUpper handles the accented letters.
func upper(s string) string { return strings.ToUpper(s) }
