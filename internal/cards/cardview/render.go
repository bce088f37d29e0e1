package cardview

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"ms-fidelity/internal/cards/catalog"
	"ms-fidelity/internal/i18n"
)

//go:embed templates/*.html
var templateFS embed.FS

// GridView is the programs grid: either an error, the "no cards yet" state
// of the my-cards filter, the empty catalog, or the cards.
type GridView struct {
	Cards []CardView

	Error   bool
	NoCards bool

	ErrorText     string
	EmptyText     string
	NoCardsTitle  string
	NoCardsBody   string
	BrowseAllText string
}

func NewGridView(cards []CardView, t i18n.Translator) GridView {
	return GridView{
		Cards:         cards,
		ErrorText:     t.T(i18n.ProgramsError),
		EmptyText:     t.T(i18n.ProgramsEmpty),
		NoCardsTitle:  t.T(i18n.ProgramsNoCards),
		NoCardsBody:   t.T(i18n.ProgramsNoCardsBody),
		BrowseAllText: t.T(i18n.ProgramsBrowseAll),
	}
}

// OverlayView wraps the card highlighted after a discovery scan.
type OverlayView struct {
	Card       CardView
	CloseURL   string
	CloseLabel string
}

// CodeModalView is the "show QR code" modal of an owned card.
type CodeModalView struct {
	ProgramID  string
	Name       string
	CardNumber int64
	Size       int
	CloseURL   string

	ScanLabel        string
	Instructions     string
	CardNumberLabel  string
	ManualEntryLabel string
}

func NewCodeModalView(e catalog.Entry, size int, closeURL string, t i18n.Translator) CodeModalView {
	v := CodeModalView{
		ProgramID:        e.Program.ID,
		Name:             e.Program.DisplayName,
		Size:             size,
		CloseURL:         closeURL,
		ScanLabel:        t.T(i18n.CodeScanCard),
		Instructions:     t.T(i18n.CodeInstructions),
		CardNumberLabel:  t.T(i18n.CodeCardNumber),
		ManualEntryLabel: t.T(i18n.CodeManualEntry),
	}
	if e.Enrollment != nil {
		v.CardNumber = e.Enrollment.CardNumber
		if e.Enrollment.DisplayName != "" {
			v.Name = e.Enrollment.DisplayName
		}
	}
	return v
}

type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("cards").Funcs(template.FuncMap{
		// values reaching css are built by Background and safeColor
		"css": func(s string) template.CSS { return template.CSS(s) },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse card templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Templates exposes the parsed fragments so page templates can include them.
func (r *Renderer) Templates() *template.Template {
	return r.tmpl
}

func (r *Renderer) RenderCard(w io.Writer, v CardView) error {
	return r.tmpl.ExecuteTemplate(w, "card", v)
}

func (r *Renderer) RenderGrid(w io.Writer, v GridView) error {
	return r.tmpl.ExecuteTemplate(w, "grid", v)
}

func (r *Renderer) RenderOverlay(w io.Writer, v OverlayView) error {
	return r.tmpl.ExecuteTemplate(w, "overlay", v)
}

func (r *Renderer) RenderCodeModal(w io.Writer, v CodeModalView) error {
	return r.tmpl.ExecuteTemplate(w, "code_modal", v)
}
