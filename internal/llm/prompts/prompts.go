// Package prompts renders the review prompts sent to the language model.
package prompts

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"
)

//go:embed templates/*.txt
var templateFS embed.FS

var documentTagRegex = regexp.MustCompile(`(?i)</?\s*rps-document\b[^>]*>`)

// maxDocumentRunes caps the document text placed in a prompt.
const maxDocumentRunes = 20000

// Variant selects how strict the reviewer is.
type Variant string

const (
	Strict   Variant = "strict"
	Standard Variant = "standard"
	Lenient  Variant = "lenient"
)

var variants = []Variant{Strict, Standard, Lenient}

var (
	loadOnce  sync.Once
	loadErr   error
	templates map[Variant]*template.Template
)

// IsValidVariant reports whether v names a prompt variant.
func IsValidVariant(v string) bool {
	for _, known := range variants {
		if Variant(v) == known {
			return true
		}
	}
	return false
}

// ReviewData is the template input of a review prompt.
type ReviewData struct {
	Course   string
	Credits  int
	Semester int
	Language string
	Dangling []string
	Document string
}

func load() error {
	loadOnce.Do(func() {
		templates = make(map[Variant]*template.Template, len(variants))
		for _, v := range variants {
			name := "templates/review_" + string(v) + ".txt"
			content, err := templateFS.ReadFile(name)
			if err != nil {
				loadErr = fmt.Errorf("read prompt file %s: %w", name, err)
				return
			}
			tmpl, err := template.New(string(v)).Parse(string(content))
			if err != nil {
				loadErr = fmt.Errorf("parse prompt template %s: %w", name, err)
				return
			}
			templates[v] = tmpl
		}
	})
	return loadErr
}

// BuildReview renders the review prompt for variant.
func BuildReview(variant Variant, data ReviewData) (string, error) {
	if err := load(); err != nil {
		return "", err
	}
	tmpl, ok := templates[variant]
	if !ok {
		return "", errors.New("invalid prompt variant: " + string(variant))
	}
	if data.Language == "" {
		data.Language = "English"
	}
	data.Document = sanitizeDocument(data.Document)

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func sanitizeDocument(doc string) string {
	doc = documentTagRegex.ReplaceAllString(doc, "")
	doc = strings.TrimSpace(doc)
	if doc == "" {
		return "[Empty document]"
	}
	if utf8.RuneCountInString(doc) > maxDocumentRunes {
		runes := []rune(doc)
		doc = string(runes[:maxDocumentRunes]) + "\n\n[Document truncated due to length]"
	}
	return doc
}
