package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"codeberg.org/snonux/smartdeck/internal/card"
	"codeberg.org/snonux/smartdeck/internal/media"
	"codeberg.org/snonux/smartdeck/internal/svcerr"
)

var (
	ErrNoDefinition = errors.New("no definition generated")
	ErrInterrupted  = errors.New("interrupted before write")
	ErrNotProcessed = errors.New("not processed")
)

// Aggregator produces the textual content of a card.
type Aggregator interface {
	Aggregate(ctx context.Context, word string) (*card.Record, error)
}

// Fetcher gathers audio and image artifacts.
type Fetcher interface {
	Fetch(ctx context.Context, word string, includeImages bool) media.Result
}

// Reconciler writes a finished record into the note store.
type Reconciler interface {
	Reconcile(ctx context.Context, rc card.RunContext, rec card.Record) card.Outcome
}

// Store is what the preflight and the outage probe need from the note
// store.
type Store interface {
	Ping(ctx context.Context) error
	ModelNames(ctx context.Context) ([]string, error)
	DeckNames(ctx context.Context) ([]string, error)
	CreateDeck(ctx context.Context, name string) (int64, error)
}

// Recorder persists outcomes, e.g. to the run journal.
type Recorder interface {
	Record(ctx context.Context, o card.Outcome) error
}

// Deps are the capabilities the processor is built from. Recorder,
// OnOutcome and Logger are optional.
type Deps struct {
	Aggregator Aggregator
	Fetcher    Fetcher
	Reconciler Reconciler
	Store      Store
	Recorder   Recorder

	// Workers bounds how many words run at once; 0 or 1 is sequential.
	Workers int
	// OnOutcome is called once per word as soon as its outcome is known,
	// never concurrently. index is the word's position in the input.
	OnOutcome func(index int, o card.Outcome)

	Logger *slog.Logger
}

// Processor handles the main word processing logic
type Processor struct {
	agg        Aggregator
	fetcher    Fetcher
	reconciler Reconciler
	store      Store
	recorder   Recorder
	workers    int
	onOutcome  func(int, card.Outcome)
	outcomeMu  sync.Mutex
	logger     *slog.Logger
}

// New creates a new word processor
func New(deps Deps) *Processor {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workers := deps.Workers
	if workers < 1 {
		workers = 1
	}
	return &Processor{
		agg:        deps.Aggregator,
		fetcher:    deps.Fetcher,
		reconciler: deps.Reconciler,
		store:      deps.Store,
		recorder:   deps.Recorder,
		workers:    workers,
		onOutcome:  deps.OnOutcome,
		logger:     logger.With("component", "processor"),
	}
}

// Preflight checks that the store answers and knows the note type, and
// creates the deck when it does not exist yet.
func (p *Processor) Preflight(ctx context.Context, rc card.RunContext) error {
	if err := p.store.Ping(ctx); err != nil {
		if svcerr.IsStoreUnavailable(err) || ctx.Err() != nil {
			return err
		}
		return &svcerr.StoreUnavailableError{Err: err}
	}

	models, err := p.store.ModelNames(ctx)
	if err != nil {
		return fmt.Errorf("listing note types: %w", err)
	}
	if !slices.Contains(models, rc.Model) {
		return svcerr.Permanent("anki", "preflight", 0, fmt.Errorf("note type %q not found", rc.Model))
	}

	decks, err := p.store.DeckNames(ctx)
	if err != nil {
		return fmt.Errorf("listing decks: %w", err)
	}
	if !slices.Contains(decks, rc.Deck) {
		p.logger.Info("creating deck", "deck", rc.Deck)
		if _, err := p.store.CreateDeck(ctx, rc.Deck); err != nil {
			return fmt.Errorf("creating deck %q: %w", rc.Deck, err)
		}
	}
	return nil
}

// GenerateOne processes a single word and always returns its outcome.
func (p *Processor) GenerateOne(ctx context.Context, word string, rc card.RunContext) card.Outcome {
	out := p.generate(ctx, strings.TrimSpace(word), rc)
	p.record(ctx, out)
	return out
}

func (p *Processor) generate(ctx context.Context, word string, rc card.RunContext) card.Outcome {
	var (
		rec     *card.Record
		fetched media.Result
	)

	// A content failure cancels the media fetch, which is useless alone.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := p.agg.Aggregate(gctx, word)
		if err != nil {
			return err
		}
		rec = r
		return nil
	})
	g.Go(func() error {
		fetched = p.fetcher.Fetch(gctx, word, rc.IncludeImages)
		return nil
	})
	if err := g.Wait(); err != nil {
		return card.Fail(word, err)
	}

	if rec == nil || rec.Incomplete || !rec.HasDefinition() {
		return card.Outcome{Word: word, Kind: card.Failed, Reason: ErrNoDefinition.Error(), Err: ErrNoDefinition, Notices: fetched.Notices}
	}
	if err := ctx.Err(); err != nil {
		return card.Fail(word, fmt.Errorf("%w: %w", ErrInterrupted, err))
	}

	final := rec.WithMedia(fetched.USAudio, fetched.UKAudio, fetched.Image).WithTags(rc.Tags...)

	// Once writing starts it is finished even if the run is interrupted,
	// so that a note never ends up half written.
	out := p.reconciler.Reconcile(context.WithoutCancel(ctx), rc, final)
	out.Notices = append(slices.Clone(fetched.Notices), out.Notices...)
	return out
}

// GenerateMany processes words after a preflight. Outcomes are returned
// in input order, one per word. The returned error is non-nil when the
// run was aborted by a store outage or cancelled; the outcomes are valid
// either way.
func (p *Processor) GenerateMany(ctx context.Context, words []string, rc card.RunContext) ([]card.Outcome, error) {
	if err := p.Preflight(ctx, rc); err != nil {
		return nil, err
	}

	outcomes := make([]card.Outcome, len(words))
	done := make([]bool, len(words))

	var (
		stopped  atomic.Bool
		abortMu  sync.Mutex
		abortErr error
	)
	halted := func() bool { return stopped.Load() || ctx.Err() != nil }

	g := new(errgroup.Group)
	g.SetLimit(p.workers)

	for i, word := range words {
		if halted() {
			break
		}
		g.Go(func() error {
			// Re-checked because Go blocks until a worker is free.
			if halted() {
				return nil
			}

			out := p.GenerateOne(ctx, word, rc)
			outcomes[i] = out
			done[i] = true
			p.notify(i, out)

			if err := p.StoreDown(ctx, out); err != nil {
				abortMu.Lock()
				if abortErr == nil {
					abortErr = err
				}
				abortMu.Unlock()
				stopped.Store(true)
			}
			return nil
		})
	}
	_ = g.Wait()

	for i, word := range words {
		if done[i] {
			continue
		}
		out := card.Fail(strings.TrimSpace(word), ErrNotProcessed)
		outcomes[i] = out
		p.record(ctx, out)
		p.notify(i, out)
	}

	switch {
	case abortErr != nil:
		return outcomes, fmt.Errorf("run aborted: %w", abortErr)
	case ctx.Err() != nil:
		return outcomes, ctx.Err()
	}
	return outcomes, nil
}

// StoreDown reports whether out's failure means the note store is gone.
// A StoreUnavailableError is confirmed with a health probe; when the store
// still answers the failure was local to the word and nil is returned.
// Otherwise the word's error is returned and the caller should stop.
func (p *Processor) StoreDown(ctx context.Context, out card.Outcome) error {
	if !svcerr.IsStoreUnavailable(out.Err) || ctx.Err() != nil {
		return nil
	}
	if err := p.store.Ping(ctx); err != nil {
		p.logger.Error("note store is unavailable, stopping run", "word", out.Word, "error", err)
		return out.Err
	}
	p.logger.Warn("store failure was local to word, continuing", "word", out.Word)
	return nil
}

func (p *Processor) notify(index int, out card.Outcome) {
	p.logger.Info("word processed", "word", out.Word, "result", out.Kind.String(), "note_id", out.NoteID, "reason", out.Reason)
	if p.onOutcome == nil {
		return
	}
	p.outcomeMu.Lock()
	defer p.outcomeMu.Unlock()
	p.onOutcome(index, out)
}

func (p *Processor) record(ctx context.Context, out card.Outcome) {
	if p.recorder == nil {
		return
	}
	if err := p.recorder.Record(context.WithoutCancel(ctx), out); err != nil {
		p.logger.Warn("failed to record outcome", "word", out.Word, "error", err)
	}
}
