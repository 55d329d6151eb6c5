package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"procurement-backoffice/internal/adapters/export"
	"procurement-backoffice/internal/app"
)

// ErrUsage is returned for unknown subcommands and missing arguments.
var ErrUsage = errors.New("usage: app calc | schema | get <id> | recalc <id> | items <id> [user] | total <id> <amount|null> [user] | status <id> <STATUS> [user] | costs <id> [--xlsx path]")

// Run executes a one-shot CLI command.
// args is os.Args[1:]; the first element is the subcommand name.
func Run(ctx context.Context, svc app.ApplicationService, args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) == 0 {
		return ErrUsage
	}

	switch args[0] {
	case "calc", "c":
		var req app.CalculateRequest
		if err := decodeInput(stdin, &req); err != nil {
			return err
		}
		result, err := svc.CalculateBreakdown(ctx, req)
		if err != nil {
			return err
		}
		return printJSON(stdout, result)

	case "schema":
		return printJSON(stdout, app.CalculateRequestSchema())

	case "get":
		if len(args) < 2 {
			return ErrUsage
		}
		result, err := svc.GetDocument(ctx, args[1])
		if err != nil {
			return err
		}
		printDocument(stdout, result)
		return nil

	case "recalc", "r":
		if len(args) < 2 {
			return ErrUsage
		}
		result, err := svc.RecalculateDocument(ctx, args[1])
		if err != nil {
			return err
		}
		printDocument(stdout, result)
		return nil

	case "items":
		if len(args) < 2 {
			return ErrUsage
		}
		var items []map[string]any
		if err := decodeInput(stdin, &items); err != nil {
			return err
		}
		result, err := svc.ReplaceLineItems(ctx, app.ReplaceItemsRequest{
			DocumentID: args[1],
			Items:      items,
			User:       argOr(args, 2, ""),
		})
		if err != nil {
			return err
		}
		printDocument(stdout, result)
		return nil

	case "total":
		if len(args) < 3 {
			return ErrUsage
		}
		var total any = args[2]
		if strings.EqualFold(args[2], "null") || args[2] == "" {
			total = nil
		}
		result, err := svc.SetTotalOverride(ctx, app.SetTotalRequest{
			DocumentID: args[1],
			Total:      total,
			User:       argOr(args, 3, ""),
		})
		if err != nil {
			return err
		}
		printDocument(stdout, result)
		return nil

	case "status", "s":
		if len(args) < 3 {
			return ErrUsage
		}
		result, err := svc.TransitionStatus(ctx, app.TransitionRequest{
			DocumentID: args[1],
			Status:     args[2],
			User:       argOr(args, 3, ""),
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Document %s is now %s.\n", result.Document.ID, result.Document.Status)
		return nil

	case "costs":
		if len(args) < 2 {
			return ErrUsage
		}
		result, err := svc.ExpectedCosts(ctx, args[1])
		if err != nil {
			return err
		}
		if len(args) >= 4 && args[2] == "--xlsx" {
			return writeXLSX(args[3], result, stdout)
		}
		printExpectedCosts(stdout, result)
		return nil

	default:
		return fmt.Errorf("unknown command %q: %w", args[0], ErrUsage)
	}
}

func decodeInput(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON on stdin: %w", err)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func argOr(args []string, i int, def string) string {
	if i < len(args) {
		return args[i]
	}
	return def
}

func writeXLSX(path string, result *app.ExpectedCostResult, stdout io.Writer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := export.WriteExpectedCosts(f, result); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	fmt.Fprintf(stdout, "Expected costs written to %s.\n", path)
	return nil
}

func printDocument(w io.Writer, result *app.DocumentResult) {
	doc := result.Document
	rec := result.Reconciliation
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 62))
	fmt.Fprintf(w, "  %s %s %s  [%s]\n", doc.Type, doc.Kind, doc.Number, doc.Status)
	fmt.Fprintf(w, "  Id : %s\n", doc.ID)
	fmt.Fprintln(w, strings.Repeat("=", 62))

	fields := result.Fields
	row := func(label string, v string) {
		fmt.Fprintf(w, "  %-30s %29s\n", label, v)
	}
	row("Item total", fields.ItemTotal.Decimal.StringFixed(2))
	row("Charges total", fields.ChargesTotal.Decimal.StringFixed(2))
	row("Tax total", fields.TaxTotal.Decimal.StringFixed(2))
	row("Computed total", rec.ComputedTotal.StringFixed(2))
	row("Final total (after deductions)", rec.FinalTotal.StringFixed(2))
	if rec.OverrideApplied {
		row("Manual total", rec.EditableTotal.Decimal.StringFixed(2))
	}
	fmt.Fprintln(w, strings.Repeat("-", 62))
	row(fields.TotalField, rec.DocumentTotal.StringFixed(2))
	fmt.Fprintln(w, strings.Repeat("=", 62))
}

func printExpectedCosts(w io.Writer, result *app.ExpectedCostResult) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  EXPECTED COSTS  %s\n", result.DocumentNumber)
	fmt.Fprintln(w, strings.Repeat("=", 78))
	fmt.Fprintf(w, "  %-30s %14s %14s %14s\n", "ITEM", "LINE TOTAL", "CHARGES+TAX", "EXPECTED")
	fmt.Fprintln(w, strings.Repeat("-", 78))
	for _, l := range result.Lines {
		extra := l.ExpectedCost.Sub(l.LineTotal)
		fmt.Fprintf(w, "  %-30s %14s %14s %14s\n", truncate(l.ItemName, 30),
			l.LineTotal.StringFixed(2), extra.StringFixed(2), l.ExpectedCost.StringFixed(2))
	}
	fmt.Fprintln(w, strings.Repeat("-", 78))
	fmt.Fprintf(w, "  %-30s %44s\n", "TOTAL", result.Total.StringFixed(2))
	fmt.Fprintln(w, strings.Repeat("=", 78))
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}
