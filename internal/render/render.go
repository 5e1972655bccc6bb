// Package render builds the branded Word document for a candidate.
package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/fumiama/go-docx"
	"github.com/xaenox/cvformat-bot/internal/models"
)

const (
	headerColor = "0070C0"
	headerSize  = "24" // half-points
	titleSize   = "32"
)

// Brand holds the agency details printed on every document.
type Brand struct {
	Title          string
	ConsultantName string
	ConsultantTel  string
}

type Renderer struct {
	brand Brand
}

func New(brand Brand) *Renderer {
	return &Renderer{brand: brand}
}

// Render returns the .docx bytes for rec. Identical records render to
// identical document text.
func (r *Renderer) Render(rec *models.CandidateRecord) ([]byte, error) {
	if rec == nil {
		return nil, fmt.Errorf("render: nil candidate record")
	}

	w := docx.New().WithDefaultTheme()
	d := &builder{doc: w}

	if r.brand.Title != "" {
		d.doc.AddParagraph().Justification("center").AddText(r.brand.Title).Bold().Size(titleSize)
		d.blank()
	}

	d.header("Personal Details")
	d.field("Name", rec.Name)
	d.field("Location", rec.Location)
	d.field("Right to Work", "")
	d.field("Notice", "")
	d.blank()

	d.header("Candidate Profile")
	if profile := strings.TrimSpace(rec.Profile); profile != "" {
		d.text(profile)
	}
	d.blank()

	if len(rec.Education) > 0 {
		d.header("Education")
		for _, edu := range rec.Education {
			d.dated(edu.Dates, joinNonEmpty(", ", edu.Institution, edu.Location))
			if edu.Title != "" {
				d.text(edu.Title)
			}
			d.bullets(edu.Details)
		}
		d.blank()
	}

	if len(rec.WorkExperience) > 0 {
		d.header("Work Experience")
		for _, job := range rec.WorkExperience {
			d.dated(job.Dates, joinNonEmpty(", ", job.Company, job.Location))
			if job.Position != "" {
				d.field("Position:", job.Position)
			}
			d.bullets(job.Bullets)
			d.blank()
		}
	}

	r.otherInformation(d, rec)
	d.blank()

	d.header("Consultant Contact Details")
	d.field("Name", r.brand.ConsultantName)
	d.field("Tel", r.brand.ConsultantTel)

	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("render: write docx: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) otherInformation(d *builder, rec *models.CandidateRecord) {
	technical := rec.TechnicalSkills()
	soft := rec.SoftSkills()
	languages := rec.OtherInformation.Languages
	certifications := rec.OtherInformation.Certifications

	if len(technical)+len(soft)+len(languages)+len(certifications) > 0 {
		d.header("Other Information")
		d.group("Technical Skills", technical)
		d.group("Soft Skills", soft)
		d.group("Languages", languages)
		d.group("Certifications", certifications)
		return
	}

	// Some CVs only carry a skillset block.
	if len(rec.Skillset.Business)+len(rec.Skillset.Technical) > 0 {
		d.header("Skillset")
		if len(rec.Skillset.Business) > 0 {
			d.field("Business & Leadership Skills:", strings.Join(rec.Skillset.Business, ", "))
		}
		if len(rec.Skillset.Technical) > 0 {
			d.field("Technical Skills:", strings.Join(rec.Skillset.Technical, ", "))
		}
	}
}

type builder struct {
	doc *docx.Docx
}

func (b *builder) header(text string) {
	b.doc.AddParagraph().AddText(text).Bold().Size(headerSize).Color(headerColor)
}

func (b *builder) field(label, value string) {
	p := b.doc.AddParagraph()
	p.AddText(label).Bold().AddTab()
	if value != "" {
		p.AddText(value)
	}
}

func (b *builder) dated(dates, place string) {
	if dates == "" && place == "" {
		return
	}
	p := b.doc.AddParagraph()
	if dates != "" {
		p.AddText(dates).AddTab()
	}
	if place != "" {
		p.AddText(place)
	}
}

func (b *builder) text(s string) {
	b.doc.AddParagraph().AddText(s)
}

func (b *builder) bullets(items []string) {
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			b.doc.AddParagraph().AddText("• " + item)
		}
	}
}

func (b *builder) group(title string, items []string) {
	if len(items) == 0 {
		return
	}
	b.doc.AddParagraph().AddText(title).Bold()
	b.bullets(items)
}

func (b *builder) blank() {
	b.doc.AddParagraph()
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
