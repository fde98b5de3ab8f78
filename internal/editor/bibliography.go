package editor

import (
	"strings"
	"time"

	"github.com/pavelanni/rpsplanner/internal/model"
)

// Bibliography fields.
var (
	BibTitle = newField("judul", func(b *model.BibliographyEntry, v Value) {
		b.Title = v.String()
	})
	BibAuthor = newField("penulis", func(b *model.BibliographyEntry, v Value) {
		b.Author = v.String()
	})
	BibYear = newField("tahun", func(b *model.BibliographyEntry, v Value) {
		b.Year = max(v.intOr(0), 0)
	})
	BibPublisher = newField("penerbit", func(b *model.BibliographyEntry, v Value) {
		b.Publisher = v.String()
	})
	// BibKind ignores unknown kinds.
	BibKind = newField("jenis", func(b *model.BibliographyEntry, v Value) {
		if k := model.BibliographyKind(strings.ToLower(strings.TrimSpace(v.String()))); k.Valid() {
			b.Kind = k
		}
	})
	BibISBN = newField("isbn", func(b *model.BibliographyEntry, v Value) {
		b.ISBN = v.String()
	})
	BibPages = newField("halaman", func(b *model.BibliographyEntry, v Value) {
		b.Pages = v.String()
	})
	BibURL = newField("url", func(b *model.BibliographyEntry, v Value) {
		b.URL = v.String()
	})
	BibMandatory = newField("is_wajib", func(b *model.BibliographyEntry, v Value) {
		b.Mandatory = v.boolean()
	})
	BibOrder = newField("urutan", func(b *model.BibliographyEntry, v Value) {
		b.Order = max(v.intOr(1), 1)
	})
)

var bibliographyFields = fieldsOf(BibTitle, BibAuthor, BibYear, BibPublisher, BibKind,
	BibISBN, BibPages, BibURL, BibMandatory, BibOrder)

// BibliographyField looks up a bibliography field by wire name.
func BibliographyField(name string) (Field[model.BibliographyEntry], bool) {
	return bibliographyFields.lookup(name)
}

// AddBibliography appends a mandatory book entry for the current year.
func (d *Document) AddBibliography() {
	if d.readOnly {
		return
	}
	d.SetBibliography(appended(d.bibliography, model.BibliographyEntry{
		Year:      time.Now().Year(),
		Kind:      model.KindBook,
		Mandatory: true,
		Order:     len(d.bibliography) + 1,
	}))
}

// UpdateBibliography sets one field of the entry at index i.
func (d *Document) UpdateBibliography(i int, f Field[model.BibliographyEntry], v Value) bool {
	if d.readOnly || !f.valid() {
		return false
	}
	next, ok := replaced(d.bibliography, i, func(b *model.BibliographyEntry) { f.apply(b, v) })
	if ok {
		d.SetBibliography(next)
	}
	return ok
}

// RemoveBibliography drops the entry at index i.
func (d *Document) RemoveBibliography(i int) bool {
	if d.readOnly {
		return false
	}
	next, ok := without(d.bibliography, i)
	if ok {
		d.SetBibliography(next)
	}
	return ok
}

// MandatoryReferences returns the entries flagged is_wajib, in collection order.
func (d *Document) MandatoryReferences() []model.BibliographyEntry {
	return filterBibliography(d.bibliography, true)
}

// SupplementaryReferences returns the entries not flagged is_wajib, in collection order.
func (d *Document) SupplementaryReferences() []model.BibliographyEntry {
	return filterBibliography(d.bibliography, false)
}

func filterBibliography(entries []model.BibliographyEntry, mandatory bool) []model.BibliographyEntry {
	out := []model.BibliographyEntry{}
	for _, b := range entries {
		if b.Mandatory == mandatory {
			out = append(out, b)
		}
	}
	return out
}
