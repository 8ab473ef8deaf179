package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/linnemanlabs/ticketwatch/internal/triage"
)

type ticketFile struct {
	Tickets []triage.Ticket `json:"tickets" validate:"required,min=1,dive"`
}

type resultFile struct {
	Results []triage.Result `json:"results"`
}

// readTickets reads {"tickets":[...]} from path, or from in when path is
// empty or "-".
func readTickets(path string, in io.Reader) ([]triage.Ticket, error) {
	var r io.Reader = in
	if path != "" && path != "-" {
		f, err := os.Open(path) //nolint:gosec // path is an operator-supplied CLI argument
		if err != nil {
			return nil, fmt.Errorf("open tickets: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	var tf ticketFile
	if err := json.NewDecoder(r).Decode(&tf); err != nil {
		return nil, fmt.Errorf("decode tickets: %w", err)
	}
	if err := validator.New().Struct(tf); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, fmt.Errorf("invalid tickets: %s failed %s", verrs[0].Namespace(), verrs[0].Tag())
		}
		return nil, fmt.Errorf("invalid tickets: %w", err)
	}
	for i := range tf.Tickets {
		if l := tf.Tickets[i].Language; l != "" && !triage.ValidLanguage(l) {
			return nil, fmt.Errorf("invalid tickets: tickets[%d].language %q is not a BCP 47 tag", i, l)
		}
	}
	return tf.Tickets, nil
}

func writeResults(w io.Writer, results []triage.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(resultFile{Results: results})
}
