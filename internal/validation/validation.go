// Package validation checks single records (learning outcomes, courses,
// users) before they are stored and reports problems per field.
package validation

import (
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/id"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	id_translations "github.com/go-playground/validator/v10/translations/id"
)

// Errors maps a field's JSON name to its first failing rule.
type Errors map[string]string

func (e Errors) Error() string {
	if len(e) == 0 {
		return ""
	}
	parts := make([]string, 0, len(e))
	for f, msg := range e {
		parts = append(parts, f+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// custom validation tags
const (
	codeTag       = "outcode"
	meaningfulTag = "meaningful"
)

var codePattern = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

var customMessages = map[string]map[string]string{
	"en": {
		codeTag:       "{0} may only contain letters, digits and hyphens",
		meaningfulTag: "{0} must contain text, not only spaces or hyphens",
	},
	"id": {
		codeTag:       "{0} hanya boleh berisi huruf, angka, dan tanda hubung",
		meaningfulTag: "{0} harus berisi teks, bukan hanya spasi atau tanda hubung",
	},
}

var (
	validate    *validator.Validate
	translators = map[string]ut.Translator{}
)

func init() {
	validate = validator.New()

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(codeTag, func(fl validator.FieldLevel) bool {
		return codePattern.MatchString(fl.Field().String())
	})
	_ = validate.RegisterValidation(meaningfulTag, func(fl validator.FieldLevel) bool {
		return Meaningful(fl.Field().String())
	})

	_en, _id := en.New(), id.New()
	uni := ut.New(_en, _en, _id)
	enT, _ := uni.GetTranslator("en")
	idT, _ := uni.GetTranslator("id")
	_ = en_translations.RegisterDefaultTranslations(validate, enT)
	_ = id_translations.RegisterDefaultTranslations(validate, idT)
	translators["en"] = enT
	translators["id"] = idT

	for lang, msgs := range customMessages {
		trans := translators[lang]
		for tag, msg := range msgs {
			_ = validate.RegisterTranslation(tag, trans,
				func(t ut.Translator) error { return t.Add(tag, msg, true) },
				func(t ut.Translator, fe validator.FieldError) string {
					s, err := t.T(fe.Tag(), fe.Field())
					if err != nil {
						return fe.Error()
					}
					return s
				})
		}
	}
}

// Meaningful reports whether s has any character besides whitespace and hyphens.
func Meaningful(s string) bool {
	return strings.TrimFunc(s, func(r rune) bool { return unicode.IsSpace(r) || r == '-' }) != ""
}

// Struct validates v and returns the failing fields with messages in lang
// (en or id, default en). A nil result means v is valid.
func Struct(v any, lang string) Errors {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return Errors{"": err.Error()}
	}
	trans, ok := translators[lang]
	if !ok {
		trans = translators["en"]
	}
	out := make(Errors, len(verrs))
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		out[fe.Field()] = fe.Translate(trans)
	}
	return out
}
