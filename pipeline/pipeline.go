// Package pipeline sequences extraction, summarization and storage, and
// turns every failure into a status a front-end can show.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"strings"
	"time"

	"github.com/use-agent/recipebox/extractor"
	"github.com/use-agent/recipebox/llm"
	"github.com/use-agent/recipebox/models"
	"github.com/use-agent/recipebox/notify"
	"github.com/use-agent/recipebox/store"
	"github.com/use-agent/recipebox/tab"
)

// Observer is told about every stage transition of a run.
type Observer func(stage models.Stage, status models.UiStatus)

// Orchestrator runs the user-triggered operations. It holds no per-run
// state and is safe for concurrent use; concurrent crawls of one key
// resolve as last write wins.
type Orchestrator struct {
	extractor  *extractor.Extractor
	policy     extractor.Policy
	summarizer llm.Summarizer
	store      store.Store
	notifier   notify.Notifier
	now        func() time.Time
	observer   Observer
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithPolicy sets the usability policy.
func WithPolicy(p extractor.Policy) Option {
	return func(o *Orchestrator) { o.policy = p }
}

// WithNotifier sets where change events go.
func WithNotifier(n notify.Notifier) Option {
	return func(o *Orchestrator) { o.notifier = n }
}

// WithClock overrides the time source for SavedAt.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithObserver registers a stage observer.
func WithObserver(fn Observer) Option {
	return func(o *Orchestrator) { o.observer = fn }
}

// New creates an Orchestrator. summarizer may be nil for front-ends that
// only read and delete.
func New(ex *extractor.Extractor, summarizer llm.Summarizer, st store.Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		extractor:  ex,
		policy:     extractor.PolicyTitleAndAnyList,
		summarizer: summarizer,
		store:      st,
		notifier:   notify.Nop{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Observed returns a copy of o that reports stage transitions to fn.
// Front-ends that are created after the orchestrator use it to attach
// their own observer.
func (o *Orchestrator) Observed(fn Observer) *Orchestrator {
	c := *o
	c.observer = fn
	return &c
}

// RunCrawlAndSummarize extracts the recipe from the active tab, summarizes
// it and saves the summary under the tab's canonical URL.
//
// An unusable page is reported without calling the summarizer or touching
// the store. A summarizer failure is shown verbatim and nothing is stored.
// A store failure still returns the generated summary.
func (o *Orchestrator) RunCrawlAndSummarize(ctx context.Context, src tab.Source) (out *models.Outcome) {
	stage := models.StageIdle
	defer o.recoverInto(&out, &stage)

	if o.summarizer == nil {
		return o.fail(stage, models.NewPipelineError(models.ErrCodeInternal, "no summarizer configured", nil))
	}
	o.emit(stage, models.Busy(models.MsgResolvingTab))

	// ── 1. Resolve the active tab ───────────────────────────────────
	t, err := src.Resolve(ctx)
	if err != nil {
		return o.fail(stage, err)
	}
	key, err := CanonicalKey(t.URL)
	if err != nil {
		return o.fail(stage, err)
	}

	// ── 2. Extract ──────────────────────────────────────────────────
	stage = models.StageExtracting
	o.emit(stage, models.Busy(models.MsgExtracting))
	rec := models.EmptyRecord()
	if doc, err := t.Document(); err == nil {
		rec = o.extractor.Extract(doc, t.URL)
	} else {
		slog.Warn("failed to parse page, treating as empty", "url", t.URL, "error", err)
	}
	if !o.policy.Usable(rec) {
		slog.Info("no recipe found", "url", t.URL, "policy", o.policy)
		return o.report(models.MsgNoRecipes, models.ErrCodeExtractionEmpty)
	}

	// ── 3. Summarize ────────────────────────────────────────────────
	stage = models.StageSummarizing
	o.emit(stage, models.Busy(models.MsgAnalyzing))
	start := time.Now()
	text, err := o.summarizer.Summarize(ctx, rec)
	if err != nil {
		slog.Warn("summarization failed", "url", t.URL, "summarizer", o.summarizer.Name(), "error", err)
		return o.fail(stage, err)
	}
	slog.Info("recipe summarized",
		"url", t.URL,
		"title", rec.Title,
		"summarizer", o.summarizer.Name(),
		"elapsed", time.Since(start).String(),
	)

	// ── 4. Save ─────────────────────────────────────────────────────
	stage = models.StageSaving
	o.emit(stage, models.Busy(models.MsgSaving))
	sum := &models.StoredSummary{
		Key:           key,
		Title:         rec.Title,
		GeneratedText: text,
		SavedAt:       o.now().UTC(),
	}
	if err := o.store.Put(ctx, key, sum); err != nil {
		slog.Error("failed to save summary", "key", key, "error", err)
		out = o.fail(stage, err)
		out.Summary = sum
		return out
	}

	// ── 5. Done ─────────────────────────────────────────────────────
	o.notify(ctx, notify.NewEvent(notify.EventSaved, key, sum.Title, sum.SavedAt))
	status := models.Idle(models.MsgSaved)
	o.emit(models.StageDone, status)
	return &models.Outcome{
		Success: true,
		Stage:   models.StageDone,
		Status:  status,
		Summary: sum,
	}
}

// RunViewAll returns every saved summary, newest first.
func (o *Orchestrator) RunViewAll(ctx context.Context) (out *models.Outcome) {
	stage := models.StageIdle
	defer o.recoverInto(&out, &stage)

	all, err := o.store.List(ctx)
	if err != nil {
		return o.fail(stage, err)
	}
	if len(all) == 0 {
		status := models.Reported(models.MsgNoSavedRecipes)
		o.emit(models.StageReported, status)
		return &models.Outcome{Stage: models.StageReported, Status: status}
	}

	entries := make([]*models.StoredSummary, 0, len(all))
	for _, s := range all {
		entries = append(entries, s)
	}
	SortEntries(entries)

	status := models.Idle("")
	o.emit(models.StageDone, status)
	return &models.Outcome{
		Success: true,
		Stage:   models.StageDone,
		Status:  status,
		Entries: entries,
	}
}

// SortEntries orders entries newest first, then by key, so renders are
// stable across backends.
func SortEntries(entries []*models.StoredSummary) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.SavedAt.Equal(b.SavedAt) {
			return a.SavedAt.After(b.SavedAt)
		}
		return a.Key < b.Key
	})
}

// RunLoadForCurrentTab returns the saved summary for the active tab, if
// any. A miss is a silent idle outcome.
func (o *Orchestrator) RunLoadForCurrentTab(ctx context.Context, src tab.Source) (out *models.Outcome) {
	stage := models.StageIdle
	defer o.recoverInto(&out, &stage)

	raw, err := src.CurrentURL(ctx)
	if err != nil {
		return o.fail(stage, err)
	}
	key, err := CanonicalKey(raw)
	if err != nil {
		return o.fail(stage, err)
	}

	sum, ok, err := o.store.Get(ctx, key)
	if err != nil {
		return o.fail(stage, err)
	}
	if !ok {
		return &models.Outcome{Success: true, Stage: models.StageIdle, Status: models.Idle("")}
	}
	status := models.Idle("")
	o.emit(models.StageDone, status)
	return &models.Outcome{
		Success: true,
		Stage:   models.StageDone,
		Status:  status,
		Summary: sum,
	}
}

// RunDelete removes the summary stored under key. The key is deleted
// exactly as given, so entries listed by RunViewAll under legacy or
// non-canonical keys can be removed; when key is also a URL whose
// canonical form differs, that entry is removed too. Deleting a missing
// key succeeds.
func (o *Orchestrator) RunDelete(ctx context.Context, rawKey string) (out *models.Outcome) {
	stage := models.StageIdle
	defer o.recoverInto(&out, &stage)

	key := rawKey
	if strings.TrimSpace(key) == "" {
		return o.fail(stage, models.NewPipelineError(models.ErrCodeInvalidInput, "key is required", nil))
	}
	keys := []string{key}
	if canon, err := CanonicalKey(key); err == nil && canon != key {
		keys = append(keys, canon)
	}
	for _, k := range keys {
		if err := o.store.Delete(ctx, k); err != nil {
			return o.fail(stage, err)
		}
	}
	slog.Info("summary deleted", "key", key)
	o.notify(ctx, notify.NewEvent(notify.EventDeleted, key, "", o.now().UTC()))

	status := models.Idle(models.MsgDeleted)
	o.emit(models.StageDone, status)
	return &models.Outcome{Success: true, Stage: models.StageDone, Status: status}
}

func (o *Orchestrator) emit(stage models.Stage, status models.UiStatus) {
	if o.observer != nil {
		o.observer(stage, status)
	}
}

func (o *Orchestrator) report(msg, code string) *models.Outcome {
	status := models.Reported(msg)
	o.emit(models.StageReported, status)
	return &models.Outcome{
		Stage:  models.StageReported,
		Status: status,
		Error:  models.NewPipelineError(code, msg, nil).ToDetail(),
	}
}

func (o *Orchestrator) fail(stage models.Stage, err error) *models.Outcome {
	detail := models.AsPipelineError(err).ToDetail()
	status := models.Failed(detail.Message)
	o.emit(models.StageFailed, status)
	return &models.Outcome{
		Stage:  models.StageFailed,
		Status: status,
		Error:  detail,
	}
}

func (o *Orchestrator) notify(ctx context.Context, ev notify.Event) {
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := o.notifier.Notify(nctx, ev); err != nil {
		slog.Warn("change notification failed", "event", ev.Type, "key", ev.Key, "error", err)
	}
}

func (o *Orchestrator) recoverInto(out **models.Outcome, stage *models.Stage) {
	r := recover()
	if r == nil {
		return
	}
	slog.Error("pipeline panic", "stage", *stage, "panic", r, "stack", string(debug.Stack()))
	*out = o.fail(*stage, models.NewPipelineError(models.ErrCodeInternal, fmt.Sprintf("internal error during %s", *stage), nil))
}
