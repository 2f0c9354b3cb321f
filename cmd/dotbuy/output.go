package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/benithors/dotbuy/client"
	"github.com/benithors/dotbuy/internal/domain"
	"golang.org/x/term"
)

type outputFormat int

const (
	formatTable outputFormat = iota
	formatNDJSON
	formatJSON
	formatPlain
)

func resolveFormat(flagVal string, stdout io.Writer) outputFormat {
	switch strings.ToLower(strings.TrimSpace(flagVal)) {
	case "table":
		return formatTable
	case "ndjson":
		return formatNDJSON
	case "json":
		return formatJSON
	case "plain":
		return formatPlain
	}

	if f, ok := stdout.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return formatTable
	}
	return formatNDJSON
}

// writeRows renders items in the chosen format. json emits one array,
// ndjson one object per line; plain and table use row.
func writeRows[T any](w io.Writer, format outputFormat, items []T, header []string, row func(T) []string) error {
	switch format {
	case formatNDJSON:
		enc := json.NewEncoder(w)
		for _, it := range items {
			if err := enc.Encode(it); err != nil {
				return err
			}
		}
		return nil
	case formatJSON:
		if items == nil {
			items = []T{}
		}
		return json.NewEncoder(w).Encode(items)
	case formatPlain:
		for _, it := range items {
			if _, err := fmt.Fprintln(w, strings.Join(row(it), "\t")); err != nil {
				return err
			}
		}
		return nil
	default:
		tw := domain.NewTabWriter(w)
		fmt.Fprintln(tw, strings.Join(header, "\t"))
		for _, it := range items {
			fmt.Fprintln(tw, strings.Join(row(it), "\t"))
		}
		return tw.Flush()
	}
}

func writeAvailability(w io.Writer, format outputFormat, results []client.Availability) error {
	return writeRows(w, format, results,
		[]string{"DOMAIN", "STATUS", "PREMIUM", "PRICE", "RENEWAL", "DETAIL"},
		func(r client.Availability) []string {
			return []string{r.Domain, availabilityStatus(r.Available), yesNo(r.Premium), price(r.Price), price(r.RenewalPrice), r.Reason}
		})
}

func writeSuggestions(w io.Writer, format outputFormat, results []client.Suggestion) error {
	return writeRows(w, format, results,
		[]string{"DOMAIN", "STATUS", "PREMIUM", "PRICE"},
		func(s client.Suggestion) []string {
			return []string{s.Domain, availabilityStatus(s.Available), yesNo(s.Premium), price(s.Price)}
		})
}

func writeOrders(w io.Writer, format outputFormat, orders []client.Order) error {
	return writeRows(w, format, orders,
		[]string{"ORDER", "DOMAIN", "STATUS", "AMOUNT", "EXPIRES", "DETAIL"},
		func(o client.Order) []string {
			amount := o.Amount
			if amount != "" && o.Currency != "" {
				amount += " " + o.Currency
			}
			var expires string
			if o.Registration != nil && o.Registration.ExpiresAt != nil {
				expires = o.Registration.ExpiresAt.UTC().Format(time.DateOnly)
			}
			detail := o.FailureReason
			if o.Credit != nil {
				detail = strings.TrimSpace("credit " + o.Credit.Status + " " + o.Credit.Amount)
			}
			return []string{o.ID, o.Domain, string(o.Status), amount, expires, detail}
		})
}

// validationRow flattens a dry-run result so every format can carry it.
type validationRow struct {
	Domain   string `json:"domain"`
	Valid    bool   `json:"valid"`
	Severity string `json:"severity,omitempty"`
	Code     string `json:"code,omitempty"`
	Message  string `json:"message,omitempty"`
}

func writeValidation(w io.Writer, format outputFormat, name string, res *client.ValidationResult) error {
	rows := []validationRow{}
	for _, e := range res.Errors {
		rows = append(rows, validationRow{Domain: name, Valid: res.Valid, Severity: "error", Code: e.Code, Message: e.Message})
	}
	for _, e := range res.Warnings {
		rows = append(rows, validationRow{Domain: name, Valid: res.Valid, Severity: "warning", Code: e.Code, Message: e.Message})
	}
	if len(rows) == 0 {
		rows = append(rows, validationRow{Domain: name, Valid: res.Valid})
	}
	return writeRows(w, format, rows,
		[]string{"DOMAIN", "VALID", "SEVERITY", "CODE", "MESSAGE"},
		func(r validationRow) []string {
			return []string{r.Domain, yesNo(r.Valid), r.Severity, r.Code, r.Message}
		})
}

func availabilityStatus(ok bool) string {
	if ok {
		return "AVAILABLE"
	}
	return "TAKEN"
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func price(p *client.Price) string {
	if p == nil || p.Amount == "" {
		return ""
	}
	return strings.TrimSpace(p.Amount + " " + p.Currency)
}
