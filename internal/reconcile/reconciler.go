package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"codeberg.org/snonux/smartdeck/internal"
	"codeberg.org/snonux/smartdeck/internal/ankiconnect"
	"codeberg.org/snonux/smartdeck/internal/card"
	"codeberg.org/snonux/smartdeck/internal/svcerr"
)

// Store is the subset of the note store the reconciler writes through.
type Store interface {
	FindNotes(ctx context.Context, query string) ([]int64, error)
	NotesInfo(ctx context.Context, ids []int64) ([]ankiconnect.NoteInfo, error)
	AddNote(ctx context.Context, note ankiconnect.Note) (int64, error)
	UpdateNoteFields(ctx context.Context, id int64, fields map[string]string) error
	AddTags(ctx context.Context, ids []int64, tags []string) error
	StoreMediaFile(ctx context.Context, filename string, data []byte) (string, error)
}

// Reconciler brings the store in line with generated records.
type Reconciler struct {
	store  Store
	logger *slog.Logger
}

// New creates a Reconciler.
func New(store Store, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{store: store, logger: logger.With("component", "reconcile")}
}

// SearchQuery is the store query for notes of the run's deck and model
// carrying word.
func SearchQuery(rc card.RunContext, word string) string {
	return ankiconnect.FieldQuery(rc.Deck, rc.Model, FieldWord, word)
}

// Lookup returns the IDs of notes whose Word field equals word,
// ignoring case and markup.
func (r *Reconciler) Lookup(ctx context.Context, rc card.RunContext, word string) ([]int64, error) {
	ids, err := r.store.FindNotes(ctx, SearchQuery(rc, word))
	if err != nil || len(ids) == 0 {
		return nil, err
	}
	infos, err := r.store.NotesInfo(ctx, ids)
	if err != nil {
		return nil, err
	}

	var matches []int64
	for _, info := range infos {
		if strings.EqualFold(ankiconnect.PlainText(info.Field(FieldWord)), strings.TrimSpace(word)) {
			matches = append(matches, info.NoteID)
		}
	}
	return matches, nil
}

// Reconcile writes rec according to Decide and reports the outcome.
func (r *Reconciler) Reconcile(ctx context.Context, rc card.RunContext, rec card.Record) card.Outcome {
	matches, err := r.Lookup(ctx, rc, rec.Word)
	if err != nil {
		return card.Fail(rec.Word, fmt.Errorf("looking up existing notes: %w", err))
	}

	action := Decide(matches, rc.Force)
	r.logger.Debug("reconciling", "word", rec.Word, "matches", len(matches), "action", action.String())

	switch action {
	case ActionFail:
		return card.Fail(rec.Word, &svcerr.ReconciliationError{Word: rec.Word, Matches: matches})
	case ActionSkip:
		return card.Outcome{Word: rec.Word, Kind: card.Skipped, NoteID: matches[0]}
	}

	refs, notices, err := r.uploadMedia(ctx, rec)
	if err != nil {
		return card.Fail(rec.Word, err)
	}
	fields := Fields(rec, refs)

	if action == ActionCreate {
		id, err := r.store.AddNote(ctx, ankiconnect.Note{
			DeckName:  rc.Deck,
			ModelName: rc.Model,
			Fields:    fields,
			Tags:      rec.Tags,
			Options:   &ankiconnect.NoteOptions{AllowDuplicate: false, DuplicateScope: "deck"},
		})
		if err != nil {
			return card.Fail(rec.Word, fmt.Errorf("adding note: %w", err))
		}
		r.logger.Info("note created", "word", rec.Word, "note_id", id)
		return card.Outcome{Word: rec.Word, Kind: card.Created, NoteID: id, Notices: notices}
	}

	id := matches[0]
	if err := r.store.UpdateNoteFields(ctx, id, UpdateFields(fields)); err != nil {
		return card.Fail(rec.Word, fmt.Errorf("updating note %d: %w", id, err))
	}
	if err := r.store.AddTags(ctx, []int64{id}, rec.Tags); err != nil {
		if svcerr.IsStoreUnavailable(err) {
			return card.Fail(rec.Word, fmt.Errorf("tagging note %d: %w", id, err))
		}
		notices = append(notices, "tags not updated: "+err.Error())
	}
	r.logger.Info("note updated", "word", rec.Word, "note_id", id)
	return card.Outcome{Word: rec.Word, Kind: card.Updated, NoteID: id, Notices: notices}
}

// uploadMedia stores every present artifact. A failed upload leaves its
// field empty unless the store itself is gone.
func (r *Reconciler) uploadMedia(ctx context.Context, rec card.Record) (MediaRefs, []string, error) {
	var (
		refs    MediaRefs
		notices []string
	)
	uploads := []struct {
		label string
		media *card.Media
		dst   *string
	}{
		{"US audio", rec.USAudio, &refs.USAudio},
		{"UK audio", rec.UKAudio, &refs.UKAudio},
		{"image", rec.Image, &refs.Image},
	}

	for _, u := range uploads {
		if u.media.Empty() {
			continue
		}
		name := internal.MediaFilename(u.media.Filename, u.media.Data)
		stored, err := r.store.StoreMediaFile(ctx, name, u.media.Data)
		if err != nil {
			if svcerr.IsStoreUnavailable(err) || errors.Is(err, context.Canceled) {
				return refs, notices, fmt.Errorf("uploading %s: %w", u.label, err)
			}
			r.logger.Warn("media upload failed", "word", rec.Word, "artifact", u.label, "error", err)
			notices = append(notices, u.label+" upload failed")
			continue
		}
		*u.dst = stored
	}
	return refs, notices, nil
}
