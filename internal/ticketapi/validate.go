package ticketapi

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/linnemanlabs/ticketwatch/internal/reply"
	"github.com/linnemanlabs/ticketwatch/internal/triage"
)

type fieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// newValidator reports json field names and checks language tags on every
// struct carrying one.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		t := sl.Current().Interface().(triage.Ticket)
		if t.Language != "" && !triage.ValidLanguage(t.Language) {
			sl.ReportError(t.Language, "language", "Language", "language_tag", "")
		}
	}, triage.Ticket{})
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		req := sl.Current().Interface().(reply.Request)
		if req.Language != "" && !triage.ValidLanguage(req.Language) {
			sl.ReportError(req.Language, "language", "Language", "language_tag", "")
		}
	}, reply.Request{})
	return v
}

// fieldErrors flattens validator errors into namespaced json paths such as
// "tickets[0].last_message".
func fieldErrors(err error) []fieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []fieldError{{Field: "", Rule: "invalid"}}
	}
	out := make([]fieldError, 0, len(verrs))
	for _, fe := range verrs {
		ns := fe.Namespace()
		// drop the root struct name
		if _, rest, ok := strings.Cut(ns, "."); ok {
			ns = rest
		}
		out = append(out, fieldError{Field: ns, Rule: fe.Tag()})
	}
	return out
}
