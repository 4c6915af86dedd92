package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/onnwee/chatstock/auditlog"
	"github.com/onnwee/chatstock/chatwork"
	"github.com/onnwee/chatstock/config"
	"github.com/onnwee/chatstock/docstore"
	"github.com/onnwee/chatstock/telemetry"
	"github.com/onnwee/chatstock/textproc"
)

// Fetcher retrieves the recent message window for one room.
type Fetcher interface {
	FetchMessages(ctx context.Context, roomID string) ([]chatwork.Message, error)
}

// SectionNotFoundError reports a configured section name absent from the
// destination document. It is a skip-with-warning condition, not a failure:
// the likely cause is operator-side naming and auto-creating sections would
// hide it.
type SectionNotFoundError struct{ Name string }

func (e *SectionNotFoundError) Error() string {
	return fmt.Sprintf("section %q not found in destination document", e.Name)
}

// WriteError is a failed append to the destination document. The room's
// watermark stays put, so the same messages are retried next cycle.
type WriteError struct {
	Section string
	Err     error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("append to section %q failed: %v", e.Section, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Pipeline holds one cycle's collaborators. Tests substitute fakes for the
// interfaces; Run wires the real ones.
type Pipeline struct {
	Fetcher     Fetcher
	KV          KV
	Store       docstore.Store
	Audit       *auditlog.Logger
	Transformer *textproc.Transformer
	Cfg         *config.Config
	Now         func() time.Time
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

var bannerRule = strings.Repeat("-", 50)

// cycleMu serializes archival cycles across all entry points. The cron chain
// only guards scheduled runs against each other; a manual /admin/run trigger
// goes through here too, so it can never overlap one.
var cycleMu sync.Mutex

// Run loads configuration, wires the real collaborators against the database,
// and runs one archival cycle. It is the single entry point for both the
// scheduler and the manual trigger; it never panics out and always returns a
// human-readable status string.
func Run(ctx context.Context, dbc *sql.DB) string {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("archive cycle aborted: config load failed", slog.Any("err", err))
		return "configuration error: " + err.Error()
	}
	if err := cfg.ValidateArchiveReady(); err != nil {
		slog.Warn("archive cycle aborted", slog.Any("err", err))
		return err.Error()
	}

	tr := &textproc.Transformer{}
	if cfg.VocabPath != "" {
		if phrases, err := textproc.LoadPhrases(cfg.VocabPath); err != nil {
			slog.Warn("vocab override ignored", slog.Any("err", err))
		} else {
			tr.Phrases = phrases
		}
	}
	if cfg.MaskWordsPath != "" {
		if words, err := textproc.LoadMaskWords(cfg.MaskWordsPath); err != nil {
			slog.Warn("mask words override ignored", slog.Any("err", err))
		} else {
			tr.MaskWords = words
		}
	}

	p := &Pipeline{
		Fetcher:     &chatwork.Client{Token: cfg.ChatworkToken, BaseURL: cfg.ChatworkBaseURL},
		KV:          dbKV{db: dbc},
		Store:       &docstore.PGStore{DB: dbc},
		Audit:       &auditlog.Logger{DB: dbc},
		Transformer: tr,
		Cfg:         cfg,
	}
	return p.RunCycle(ctx)
}

// RunCycle processes every configured room once, sequentially. Per-room errors
// are logged and audited at the room boundary and never abort the cycle.
func (p *Pipeline) RunCycle(ctx context.Context) (status string) {
	if !cycleMu.TryLock() {
		slog.Warn("archive cycle skipped: previous cycle still running")
		return "previous cycle still running; skipped"
	}
	defer cycleMu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			status = fmt.Sprintf("cycle aborted: internal error: %v", r)
			slog.Error("archive cycle panic", slog.Any("panic", r))
		}
	}()

	runID := uuid.New().String()
	ctx = telemetry.WithCorrelation(ctx, runID)
	ctx, span := telemetry.StartSpan(ctx, "archive", "archive-cycle")
	defer span.End()
	logger := telemetry.LoggerWithCorr(ctx).With(slog.String("component", "archive"))

	if telemetry.CyclesTotal != nil {
		telemetry.CyclesTotal.Inc()
	}
	start := p.now()

	var total, processed, skipped int
	for _, room := range p.Cfg.Rooms {
		if ctx.Err() != nil {
			// Killed externally mid-cycle; uncommitted rooms simply retry next time.
			logger.Warn("cycle interrupted", slog.Int("rooms_remaining", len(p.Cfg.Rooms)-processed-skipped))
			break
		}
		n, err := p.processRoom(ctx, room)
		var snf *SectionNotFoundError
		switch {
		case errors.As(err, &snf):
			skipped++
			logger.Warn("room skipped: destination section missing",
				slog.String("room_id", room.ID), slog.String("section", room.Section))
			if telemetry.RoomsSkipped != nil {
				telemetry.RoomsSkipped.Inc()
			}
			p.Audit.Error(ctx, room.ID, room.Section, "destination section not found", "")
		case err != nil:
			skipped++
			logger.Error("room processing failed",
				slog.String("room_id", room.ID), slog.String("section", room.Section), slog.Any("err", err))
			if telemetry.RoomsSkipped != nil {
				telemetry.RoomsSkipped.Inc()
			}
			p.Audit.Error(ctx, room.ID, room.Section, "room processing failed", err.Error())
		default:
			processed++
			total += n
			if telemetry.RoomsProcessed != nil {
				telemetry.RoomsProcessed.Inc()
			}
			if n > 0 {
				logger.Info("room archived", slog.String("room_id", room.ID), slog.Int("messages", n))
				p.Audit.Info(ctx, room.ID, room.Section, fmt.Sprintf("archived %d messages", n))
			}
		}
	}

	d := time.Since(start)
	if telemetry.CycleDuration != nil {
		telemetry.CycleDuration.Observe(d.Seconds())
	}
	telemetry.SetLastCycleNewMessages(total)

	status = fmt.Sprintf("archived %d new messages across %d rooms (%d skipped) in %s",
		total, processed, skipped, d.Round(time.Millisecond))
	// Best-effort cycle bookkeeping for /status.
	_ = p.KV.Set(ctx, "job_archive_last", p.now().UTC().Format(time.RFC3339))
	_ = p.KV.Set(ctx, "job_archive_status", status)
	telemetry.SetSpanSuccess(span)
	return status
}

// processRoom runs fetch -> filter -> transform -> append -> commit for one
// room. The watermark advances only after the append succeeds.
func (p *Pipeline) processRoom(ctx context.Context, room config.Room) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "archive", "process-room",
		telemetry.RoomIDAttr(room.ID), telemetry.SectionAttr(room.Section))
	defer span.End()

	last, err := p.lastID(ctx, room.ID)
	if err != nil {
		telemetry.RecordError(span, err)
		return 0, fmt.Errorf("read watermark: %w", err)
	}

	var batch []chatwork.Message
	var fetchErr error
	telemetry.TimeFunc(telemetry.FetchDuration, func() {
		batch, fetchErr = p.Fetcher.FetchMessages(ctx, room.ID)
	})
	if fetchErr != nil {
		telemetry.RecordError(span, fetchErr)
		return 0, fmt.Errorf("fetch: %w", fetchErr)
	}

	newMsgs := FilterAndOrder(batch, last)
	if len(newMsgs) == 0 {
		return 0, nil
	}

	names := buildNameTable(batch)
	block, written := p.assembleBlock(newMsgs, names)
	if written == 0 {
		// Every body cleaned to empty. Nothing to append, but re-fetching these
		// messages can never produce output, so the watermark still advances.
		if err := p.commit(ctx, room.ID, newMsgs); err != nil {
			return 0, fmt.Errorf("commit watermark: %w", err)
		}
		return 0, nil
	}

	sec, err := p.Store.FindSection(ctx, room.Section)
	if err != nil {
		telemetry.RecordError(span, err)
		return 0, fmt.Errorf("resolve section: %w", err)
	}
	if sec == nil {
		return 0, &SectionNotFoundError{Name: room.Section}
	}

	var appendErr error
	telemetry.TimeFunc(telemetry.AppendDuration, func() {
		appendErr = p.Store.Append(ctx, sec, block)
	})
	if appendErr != nil {
		telemetry.RecordError(span, appendErr)
		return 0, &WriteError{Section: room.Section, Err: appendErr}
	}

	if err := p.commit(ctx, room.ID, newMsgs); err != nil {
		// The block is written but the cursor is not; next cycle duplicates it.
		// At-least-once into the document is the accepted trade-off here.
		telemetry.RecordError(span, err)
		return 0, fmt.Errorf("commit watermark: %w", err)
	}

	telemetry.AddMessagesArchived(written)
	telemetry.SetSpanSuccess(span)
	return written, nil
}

// buildNameTable collects sender metadata from the whole fetched window, so a
// mention of someone who spoke earlier in the window still resolves.
func buildNameTable(batch []chatwork.Message) textproc.NameTable {
	names := make(textproc.NameTable, len(batch))
	for _, m := range batch {
		if m.Account.AccountID != 0 && m.Account.Name != "" {
			names[m.Account.AccountID] = m.Account.Name
		}
	}
	return names
}

// assembleBlock formats the batch into one text block: a banner, then each
// message as "[time] sender:" plus its cleaned body. Messages whose bodies
// clean to empty are omitted entirely. Returns the block and how many
// messages it actually contains.
func (p *Pipeline) assembleBlock(msgs []chatwork.Message, names textproc.NameTable) (string, int) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\narchived %s (new: %d)\n\n",
		bannerRule, p.now().In(p.Cfg.Timezone).Format(config.TimeFormat), len(msgs))

	written := 0
	for _, m := range msgs {
		body := p.Transformer.Transform(m.Body, names)
		if body == "" {
			continue
		}
		if p.Cfg.MaskSecrets {
			masked := p.Transformer.MaskSecretLines(body)
			if masked != body && telemetry.LinesMasked != nil {
				telemetry.LinesMasked.Add(float64(strings.Count(masked, textproc.MaskedLine) - strings.Count(body, textproc.MaskedLine)))
			}
			body = masked
		}
		ts := time.Unix(m.SendTime, 0).In(p.Cfg.Timezone).Format(config.TimeFormat)
		fmt.Fprintf(&b, "[%s] %s:\n%s\n\n", ts, m.Account.Name, body)
		written++
	}
	return b.String(), written
}
