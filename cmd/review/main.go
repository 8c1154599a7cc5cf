package main

import (
	"context"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ashmitsharp/pausal-api/internal/client"
	"github.com/ashmitsharp/pausal-api/internal/logger"
	"github.com/ashmitsharp/pausal-api/internal/models"
	"github.com/ashmitsharp/pausal-api/internal/services"
)

type options struct {
	apiURL           string
	servicesURL      string
	token            string
	mode             services.ReviewMode
	year             int
	acceptHeuristics bool
	exclude          []string
	note             string
	dryRun           bool
	xmlOut           string
	qrOut            string
}

// validate rejects flag combinations that would be silently ignored
func (o options) validate() error {
	switch o.mode {
	case services.ReviewOutflow:
		if len(o.exclude) > 0 || o.note != "" {
			return fmt.Errorf("--exclude and --note only apply to --mode inflow")
		}
	case services.ReviewInflow:
		if o.acceptHeuristics {
			return fmt.Errorf("--accept-heuristics only applies to --mode outflow")
		}
		if o.note != "" && len(o.exclude) == 0 {
			return fmt.Errorf("--note requires --exclude")
		}
	default:
		return fmt.Errorf("--mode must be outflow or inflow")
	}
	if (o.xmlOut != "" || o.qrOut != "") && o.servicesURL == "" {
		return fmt.Errorf("--xml and --qr require --services")
	}
	return nil
}

func splitIDs(s string) []string {
	var ids []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func main() {
	log := logger.New(os.Getenv("LOG_LEVEL"))

	// Parse CLI flags
	apiURL := flag.String("api", "http://localhost:8080/v1", "Base URL of the pausal API")
	servicesURL := flag.String("services", os.Getenv("PAUSAL_SERVICES_URL"), "Base URL of the PO-SD form and payment code services (or set PAUSAL_SERVICES_URL)")
	token := flag.String("token", os.Getenv("PAUSAL_TOKEN"), "Bearer token (or set PAUSAL_TOKEN)")
	mode := flag.String("mode", "outflow", "Review mode: outflow or inflow")
	year := flag.Int("year", time.Now().Year(), "Reviewed year")
	acceptHeuristics := flag.Bool("accept-heuristics", false, "Store every heuristic tax classification (outflow)")
	exclude := flag.String("exclude", "", "Comma separated inflow IDs to exclude from PO-SD receipts")
	note := flag.String("note", "", "Note stored on every excluded inflow")
	dryRun := flag.Bool("dry-run", false, "Print the batch without committing it")
	xmlOut := flag.String("xml", "", "Write the rendered PO-SD form to this file")
	qrOut := flag.String("qr", "", "Write the payment QR code for an owed difference to this file")
	flag.Parse()

	opts := options{
		apiURL:           *apiURL,
		servicesURL:      *servicesURL,
		token:            *token,
		mode:             services.ReviewMode(*mode),
		year:             *year,
		acceptHeuristics: *acceptHeuristics,
		exclude:          splitIDs(*exclude),
		note:             *note,
		dryRun:           *dryRun,
		xmlOut:           *xmlOut,
		qrOut:            *qrOut,
	}
	if err := opts.validate(); err != nil {
		log.Fatal().Err(err).Msg("Error: invalid flags")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	// The API stores transactions; form and QR rendering live on a separate host
	api := client.New(opts.apiURL, 30*time.Second)
	var generator *client.Client
	if opts.servicesURL != "" {
		generator = client.New(opts.servicesURL, 30*time.Second)
	}
	if opts.token != "" {
		api = api.WithToken(opts.token)
		if generator != nil {
			generator = generator.WithToken(opts.token)
		}
	}

	session := services.NewReviewSession(api, services.NewDefaultCategorizer(), opts.mode, opts.year)
	if err := session.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to load review")
	}

	if err := stageEdits(session, opts); err != nil {
		log.Fatal().Err(err).Msg("failed to stage edit")
	}

	stats := session.Stats()
	log.Info().
		Str("mode", string(opts.mode)).
		Int("year", opts.year).
		Int("count", stats.Count).
		Str("tax", stats.Tax.StringFixed(2)).
		Str("surtax", stats.Surtax.StringFixed(2)).
		Str("included", stats.Included.StringFixed(2)).
		Str("excluded", stats.Excluded.StringFixed(2)).
		Msg("review loaded")

	payload := session.Payload()
	for _, item := range payload {
		event := log.Info().Str("id", item.ID)
		if item.TaxType != nil {
			event = event.Str("tax_type", string(*item.TaxType))
		}
		if item.IsExcluded != nil {
			event = event.Bool("is_excluded", *item.IsExcluded)
		}
		event.Msg("pending")
	}

	if opts.dryRun {
		log.Info().Int("items", len(payload)).Msg("dry run, nothing committed")
		return
	}

	if err := session.Commit(ctx); err != nil {
		var failure *services.CommitFailure
		if errors.As(err, &failure) {
			log.Fatal().Err(failure.Err).Int("items", failure.Items).Msg("commit failed, rerun to retry")
		}
		log.Fatal().Err(err).Msg("commit failed")
	}
	for _, w := range session.Warnings() {
		log.Warn().
			Str("id", w.ID).
			Str("reason", w.Reason).
			Str("now", string(w.After)).
			Msg("classification differs from what was reviewed")
	}

	result, err := api.POSDStats(ctx, opts.year)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to fetch PO-SD stats")
	}
	log.Info().
		Int("committed", len(payload)).
		Str("bracket", result.TaxBracket).
		Str("status", string(result.Reconciliation.Status)).
		Str("difference", result.Reconciliation.Difference.StringFixed(2)).
		Msg("PO-SD reconciled")

	if opts.xmlOut != "" {
		if err := writePOSDForm(ctx, generator, result, opts.xmlOut); err != nil {
			log.Fatal().Err(err).Str("file", opts.xmlOut).Msg("failed to write PO-SD form")
		}
		log.Info().Str("file", opts.xmlOut).Msg("PO-SD form written")
	}

	if opts.qrOut != "" {
		order, err := writePaymentCode(ctx, api, generator, opts.year, opts.qrOut)
		if err != nil {
			log.Fatal().Err(err).Str("file", opts.qrOut).Msg("failed to write payment code")
		}
		if order == nil {
			log.Info().Msg("nothing owed, no payment code written")
			return
		}
		log.Info().Str("file", opts.qrOut).Str("amount", order.Amount.StringFixed(2)).Msg("payment code written")
	}
}

func stageEdits(session *services.ReviewSession, opts options) error {
	if opts.acceptHeuristics {
		for _, row := range session.Rows() {
			if row.Source != services.SourceHeuristic || row.Category == services.CategoryNone {
				continue
			}
			if err := session.SetTaxType(row.Transaction.ID, models.TaxType(row.Category)); err != nil {
				return fmt.Errorf("%s: %w", row.Transaction.ID, err)
			}
		}
	}
	for _, id := range opts.exclude {
		if err := session.SetExcluded(id, true); err != nil {
			return err
		}
		if opts.note != "" {
			if err := session.SetNote(id, opts.note); err != nil {
				return err
			}
		}
	}
	return nil
}

// writePOSDForm renders the form on the generator service and saves it to path
func writePOSDForm(ctx context.Context, generator *client.Client, stats models.POSDStats, path string) error {
	data, err := generator.GeneratePOSDXML(ctx, stats)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// writePaymentCode fetches the payment order from the API and has the generator
// service render it. It returns nil without writing when nothing is owed.
func writePaymentCode(ctx context.Context, api, generator *client.Client, year int, path string) (*models.PaymentCodeRequest, error) {
	order, err := api.PaymentOrder(ctx, year)
	if err != nil || order == nil {
		return nil, err
	}
	code, err := generator.GeneratePaymentCode(ctx, *order)
	if err != nil {
		return nil, err
	}
	png, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(code.QRCode, "data:image/png;base64,"))
	if err != nil {
		return nil, fmt.Errorf("malformed payment code: %w", err)
	}
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return nil, err
	}
	return order, nil
}
