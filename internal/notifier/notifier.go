// Package notifier matches tracked titles against the listing page and sends
// notifications for recently published chapters.
package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"manga_bot/internal/listing"
	"manga_bot/internal/metrics"
	"manga_bot/internal/model"
	"manga_bot/internal/scanner"
	"manga_bot/internal/storage"
)

// Sender delivers a chapter notification to a chat.
type Sender interface {
	SendPhoto(chatID int64, photo, caption string) error
}

// PageFetcher downloads and parses the listing page.
type PageFetcher interface {
	Fetch(ctx context.Context, url, baseURL string) (*listing.Page, error)
}

// Report summarizes one dispatch run.
type Report struct {
	Titles int
	Sent   int
	Failed int
}

// Dispatcher drives the scanner over tracked titles.
type Dispatcher struct {
	store     storage.Storage
	fetcher   PageFetcher
	sender    Sender
	sourceURL string
	limiter   *rate.Limiter
	metrics   metrics.Recorder
	log       *slog.Logger
}

// Options configures a Dispatcher. Zero values pick defaults.
type Options struct {
	SourceURL string
	// SendRate limits outbound notifications per second.
	SendRate rate.Limit
	Metrics  metrics.Recorder
}

// DefaultSendRate stays under Telegram's broadcast limit of ~30 messages/sec.
const DefaultSendRate = rate.Limit(20)

// New creates a Dispatcher.
func New(store storage.Storage, f PageFetcher, sender Sender, opts Options, log *slog.Logger) *Dispatcher {
	if opts.SendRate == 0 {
		opts.SendRate = DefaultSendRate
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Nop{}
	}
	return &Dispatcher{
		store:     store,
		fetcher:   f,
		sender:    sender,
		sourceURL: opts.SourceURL,
		limiter:   rate.NewLimiter(opts.SendRate, 1),
		metrics:   opts.Metrics,
		log:       log,
	}
}

// DispatchAllStored notifies every user about their tracked titles.
func (d *Dispatcher) DispatchAllStored(ctx context.Context) (Report, error) {
	titles, err := d.store.ListAllTitles(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("list titles: %w", err)
	}
	return d.DispatchAll(ctx, titles)
}

// DispatchUser notifies a single user about their tracked titles.
func (d *Dispatcher) DispatchUser(ctx context.Context, ownerID int64) (Report, error) {
	titles, err := d.store.ListTitles(ctx, ownerID)
	if err != nil {
		return Report{}, fmt.Errorf("list titles: %w", err)
	}
	return d.DispatchAll(ctx, titles)
}

// DispatchAll fetches the listing once and sends a notification for every
// recent chapter of every title. A fetch failure aborts the run; a failed
// send is logged and does not affect the other titles.
func (d *Dispatcher) DispatchAll(ctx context.Context, titles []model.TrackedTitle) (Report, error) {
	start := time.Now()
	report, err := d.dispatch(ctx, titles)
	d.metrics.RecordCycle(time.Since(start), err)
	return report, err
}

func (d *Dispatcher) dispatch(ctx context.Context, titles []model.TrackedTitle) (Report, error) {
	var report Report
	if len(titles) == 0 {
		return report, nil
	}

	page, err := d.fetcher.Fetch(ctx, d.sourceURL, d.sourceURL)
	if err != nil {
		d.metrics.RecordFetchFailure()
		return report, fmt.Errorf("fetch listing: %w", err)
	}
	if len(page.Blocks) == 0 {
		d.log.Warn("listing has no title blocks", "url", d.sourceURL)
	}

	for _, t := range titles {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Titles++

		sent, failed, err := d.notifyTitle(ctx, page, t)
		report.Sent += sent
		report.Failed += failed
		if err != nil {
			return report, err
		}
	}

	return report, nil
}

func (d *Dispatcher) notifyTitle(ctx context.Context, page *listing.Page, t model.TrackedTitle) (sent, failed int, err error) {
	slug := t.Slug()
	results, scanErr := scanner.Scan(page, slug)
	if scanErr != nil {
		for _, e := range unwrapJoined(scanErr) {
			d.metrics.RecordScanFault()
			d.log.Warn("skip chapter row", "owner_id", t.OwnerID, "slug", slug, "error", e)
		}
	}

	for _, r := range scanner.Recent(results) {
		if err := d.limiter.Wait(ctx); err != nil {
			return sent, failed, err
		}

		sendErr := d.sender.SendPhoto(t.OwnerID, r.CoverImageURL, FormatCaption(t.Title, r))
		d.metrics.RecordNotification(sendErr)
		if sendErr != nil {
			failed++
			d.log.Error("send notification",
				"owner_id", t.OwnerID,
				"title", t.Title,
				"chapter", r.ChapterLabel,
				"error", sendErr,
			)
			continue
		}
		sent++
		d.log.Info("sent notification", "owner_id", t.OwnerID, "title", t.Title, "chapter", r.ChapterLabel)
	}
	return sent, failed, nil
}

func unwrapJoined(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}
