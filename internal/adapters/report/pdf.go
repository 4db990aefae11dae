package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/domain/model"
)

// Page geometry in millimetres (A4 portrait).
const (
	marginX      = 15.0
	marginTop    = 15.0
	marginBottom = 18.0
	idColW       = 14.0
	ratingColW   = 42.0
	lineH        = 5.0
	cellPad      = 1.5
)

type rgb struct{ r, g, b int }

var (
	colorInk    = rgb{15, 23, 42}
	colorMuted  = rgb{100, 116, 139}
	colorAccent = rgb{37, 99, 235}
	colorPanel  = rgb{248, 250, 252}
	colorRule   = rgb{226, 232, 240}
)

// ratingTone mirrors the colour coding of the on-screen detail view.
func ratingTone(r model.Rating) (fg, bg rgb) {
	switch r {
	case model.Excellent:
		return rgb{5, 150, 105}, rgb{236, 253, 245}
	case model.Good:
		return rgb{37, 99, 235}, rgb{239, 246, 255}
	case model.Fair:
		return rgb{217, 119, 6}, rgb{255, 251, 235}
	case model.Insufficient:
		return rgb{220, 38, 38}, rgb{254, 242, 242}
	default:
		return rgb{148, 163, 184}, colorPanel
	}
}

// renderer wraps fpdf with the translator needed for the core fonts, which
// only understand cp1252.
type renderer struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

// RenderOption tweaks PDF output.
type RenderOption func(*fpdf.Fpdf)

// WithCreationDate fixes the document creation date, which makes the output
// byte-for-byte reproducible.
func WithCreationDate(t time.Time) RenderOption {
	return func(p *fpdf.Fpdf) {
		p.SetCreationDate(t)
		p.SetModificationDate(t)
	}
}

// RenderPDF writes d as an A4 document. Content that does not fit on a page
// continues on the next one.
func RenderPDF(w io.Writer, d Detail, opts ...RenderOption) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginX, marginTop, marginX)
	pdf.SetAutoPageBreak(true, marginBottom)
	pdf.SetCatalogSort(true)
	pdf.AliasNbPages("")
	for _, opt := range opts {
		opt(pdf)
	}

	r := &renderer{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	pdf.SetTitle(r.tr(d.FormTitle+" - "+d.Resident), false)
	pdf.SetAuthor(r.tr(d.Institution), false)
	pdf.SetFooterFunc(r.footer)

	pdf.AddPage()
	r.header(d)
	r.resident(d)
	for _, sec := range d.Sections {
		r.section(sec)
	}
	r.summary(d)
	r.signatures(d.Signatures)

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrRender, err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("%w: %w", ErrRender, err)
	}
	return nil
}

func (r *renderer) text(c rgb) { r.pdf.SetTextColor(c.r, c.g, c.b) }
func (r *renderer) fill(c rgb) { r.pdf.SetFillColor(c.r, c.g, c.b) }
func (r *renderer) draw(c rgb) { r.pdf.SetDrawColor(c.r, c.g, c.b) }

func (r *renderer) width() float64 {
	w, _ := r.pdf.GetPageSize()
	return w - 2*marginX
}

// ensure starts a new page unless h more millimetres fit on this one.
func (r *renderer) ensure(h float64) {
	_, pageH := r.pdf.GetPageSize()
	if r.pdf.GetY()+h > pageH-marginBottom {
		r.pdf.AddPage()
	}
}

func (r *renderer) header(d Detail) {
	p := r.pdf
	r.text(colorInk)
	p.SetFont("Helvetica", "B", 14)
	p.CellFormat(0, 7, r.tr(d.Program), "", 1, "C", false, 0, "")
	p.SetFont("Helvetica", "B", 12)
	r.text(rgb{51, 65, 85})
	p.CellFormat(0, 6, r.tr(d.Institution), "", 1, "C", false, 0, "")
	p.Ln(2)
	p.SetFont("Helvetica", "B", 9)
	r.text(colorAccent)
	p.CellFormat(0, 5, r.tr(upper(d.FormTitle)), "", 1, "C", false, 0, "")
	p.Ln(2)
	r.draw(colorAccent)
	p.SetLineWidth(0.6)
	y := p.GetY()
	p.Line(marginX, y, marginX+r.width(), y)
	p.SetLineWidth(0.2)
	p.Ln(5)
}

func (r *renderer) resident(d Detail) {
	p := r.pdf
	fields := [][2]string{
		{"RESIDENTE", d.Resident},
		{"AÑO ACADÉMICO", d.AcademicYear},
		{"TRIMESTRE", d.Trimester},
		{"FECHA", d.Date},
	}
	colW := r.width() / float64(len(fields))
	x, y := p.GetXY()
	r.fill(colorPanel)
	r.draw(colorRule)
	for i, f := range fields {
		cx := x + float64(i)*colW
		p.Rect(cx, y, colW-2, 16, "FD")
		p.SetXY(cx+2, y+2)
		p.SetFont("Helvetica", "B", 7)
		r.text(colorMuted)
		p.CellFormat(colW-6, 4, r.tr(f[0]), "", 2, "L", false, 0, "")
		p.SetFont("Helvetica", "B", 10)
		r.text(colorInk)
		p.CellFormat(colW-6, 6, r.tr(f[1]), "", 0, "L", false, 0, "")
	}
	p.SetXY(x, y+22)
}

func (r *renderer) section(sec Section) {
	p := r.pdf
	// Keep the heading with at least its first row.
	r.ensure(9 + 6 + 2*lineH + 2*cellPad)

	r.fill(colorInk)
	p.SetFont("Helvetica", "B", 11)
	r.text(rgb{96, 165, 250})
	p.CellFormat(idColW, 9, r.tr(sec.ID), "", 0, "C", true, 0, "")
	p.SetFont("Helvetica", "B", 9)
	p.SetTextColor(255, 255, 255)
	p.CellFormat(0, 9, r.tr(upper(sec.Title)), "", 1, "L", true, 0, "")

	labelW := r.width() - idColW - ratingColW
	r.fill(colorPanel)
	r.draw(colorRule)
	p.SetFont("Helvetica", "B", 7)
	r.text(colorMuted)
	p.CellFormat(idColW, 6, "ID", "B", 0, "C", true, 0, "")
	p.CellFormat(labelW, 6, r.tr(upper(sec.Subtitle)), "B", 0, "L", true, 0, "")
	p.CellFormat(ratingColW, 6, r.tr("CALIFICACIÓN"), "B", 1, "C", true, 0, "")

	for _, row := range sec.Rows {
		r.row(row, labelW)
	}

	p.SetFont("Helvetica", "I", 8)
	r.text(colorMuted)
	avg := "Promedio: -"
	if sec.Rated > 0 {
		avg = "Promedio: " + strconv.FormatFloat(sec.Average, 'f', 1, 64)
	}
	p.CellFormat(0, 6, r.tr(avg+"  ("+strconv.Itoa(sec.Rated)+"/"+strconv.Itoa(len(sec.Rows))+")"), "", 1, "R", false, 0, "")
	p.Ln(3)
}

// wrap breaks UTF-8 text into lines no wider than w in the current font.
// Widths are measured on the translated text because the core fonts only
// carry cp1252 metrics. A word longer than w gets a line of its own.
func (r *renderer) wrap(text string, w float64) []string {
	avail := w - 2*r.pdf.GetCellMargin()
	var lines []string
	var cur string
	for _, word := range strings.Fields(text) {
		next := word
		if cur != "" {
			next = cur + " " + word
		}
		if cur != "" && r.pdf.GetStringWidth(r.tr(next)) > avail {
			lines = append(lines, cur)
			next = word
		}
		cur = next
	}
	if cur != "" || len(lines) == 0 {
		lines = append(lines, cur)
	}
	return lines
}

func (r *renderer) row(row Row, labelW float64) {
	p := r.pdf
	p.SetFont("Helvetica", "", 9)
	lines := r.wrap(row.Label, labelW-2*cellPad)
	h := float64(len(lines))*lineH + 2*cellPad
	r.ensure(h)

	x, y := p.GetXY()
	r.draw(colorRule)

	p.SetFont("Helvetica", "B", 9)
	r.text(colorAccent)
	p.CellFormat(idColW, h, r.tr(row.ItemID), "B", 0, "C", false, 0, "")

	p.SetFont("Helvetica", "", 9)
	r.text(rgb{71, 85, 105})
	for i, line := range lines {
		p.SetXY(x+idColW+cellPad, y+cellPad+float64(i)*lineH)
		p.CellFormat(labelW-2*cellPad, lineH, r.tr(line), "", 0, "L", false, 0, "")
	}
	p.Line(x+idColW, y+h, x+idColW+labelW, y+h)

	fg, bg := ratingTone(row.Code)
	p.SetXY(x+idColW+labelW, y)
	p.CellFormat(ratingColW, h, "", "B", 0, "C", false, 0, "")
	r.fill(bg)
	p.SetXY(x+idColW+labelW+2, y+(h-6)/2)
	p.SetFont("Helvetica", "B", 7)
	r.text(fg)
	p.CellFormat(ratingColW-4, 6, r.tr(upper(row.Text)), "", 0, "C", true, 0, "")

	p.SetXY(x, y+h)
}

func (r *renderer) summary(d Detail) {
	p := r.pdf
	r.ensure(10)
	p.SetFont("Helvetica", "B", 10)
	r.text(colorInk)
	avg := "-"
	if d.RatedItems > 0 {
		avg = strconv.FormatFloat(d.Average, 'f', 1, 64)
	}
	line := fmt.Sprintf("Promedio general: %s   Ítems calificados: %d de %d", avg, d.RatedItems, d.TotalItems)
	p.CellFormat(0, 8, r.tr(line), "T", 1, "L", false, 0, "")
}

func (r *renderer) signatures(sigs []Signature) {
	if len(sigs) == 0 {
		return
	}
	p := r.pdf
	r.ensure(45)
	p.Ln(28)

	gap := 20.0
	colW := (r.width() - gap*float64(len(sigs)-1)) / float64(len(sigs))
	y := p.GetY()
	r.draw(colorInk)
	p.SetLineWidth(0.5)
	for i, s := range sigs {
		x := marginX + float64(i)*(colW+gap)
		p.Line(x, y, x+colW, y)
		p.SetXY(x, y+2)
		p.SetFont("Helvetica", "B", 8)
		r.text(colorInk)
		p.CellFormat(colW, 5, r.tr(s.Caption), "", 2, "C", false, 0, "")
		p.SetFont("Helvetica", "BI", 7)
		r.text(colorMuted)
		p.CellFormat(colW, 4, r.tr(upper(s.Note)), "", 0, "C", false, 0, "")
	}
	p.SetLineWidth(0.2)
}

func (r *renderer) footer() {
	p := r.pdf
	p.SetY(-12)
	p.SetFont("Helvetica", "", 7)
	r.text(colorMuted)
	p.CellFormat(0, 5, r.tr(fmt.Sprintf("%s · Página %d/{nb}", Institution, p.PageNo())), "", 0, "C", false, 0, "")
}
