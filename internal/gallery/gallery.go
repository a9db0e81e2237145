// Package gallery assembles finished creations into persisted records:
// blob uploads, derived thumbnail and certificate, and the database rows
// behind the gallery view.
package gallery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kidcreatives/kidcreatives/internal/prompt"
	"github.com/kidcreatives/kidcreatives/internal/render"
	"github.com/kidcreatives/kidcreatives/internal/storage"
	"github.com/kidcreatives/kidcreatives/internal/trophy"
)

// ErrNotFound is returned when a creation does not exist or belongs to a
// different owner.
var ErrNotFound = errors.New("gallery: creation not found")

// Item is one persisted creation as presented to clients. Image and
// certificate payloads are served as separate blob endpoints, not
// inlined here.
type Item struct {
	ID              uuid.UUID       `json:"id"`
	CreatedAt       int64           `json:"createdAt"` // epoch milliseconds
	IntentStatement string          `json:"intentStatement"`
	PromptState     json.RawMessage `json:"promptState"`
	Stats           trophy.Stats    `json:"stats"`
}

// StatsRow mirrors the creation_stats table.
type StatsRow struct {
	CreationID      uuid.UUID
	TotalQuestions  int
	TotalEdits      int
	TimeSpent       int
	VariablesUsed   []string
	CreativityScore int
	PromptLength    int
}

// Row is one creation joined with its stats. Stats is nil when the
// stats row is missing; loading falls back to defaults.
type Row struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID
	Intent      string
	PromptState []byte
	CreatedAt   time.Time
	Stats       *StatsRow
}

// Querier is the database surface the store needs. Defined here, on the
// consumer side; the pgx-backed implementation lives in this package and
// tests substitute a mock.
type Querier interface {
	InsertCreation(ctx context.Context, row Row) error
	GetCreation(ctx context.Context, owner, id uuid.UUID) (Row, error)
	ListCreations(ctx context.Context, owner uuid.UUID) ([]Row, error)
	DeleteCreation(ctx context.Context, owner, id uuid.UUID) (int64, error)
}

// Store persists creations: blobs on the blob store, records through the
// querier. Safe for concurrent use.
type Store struct {
	querier Querier
	blobs   *storage.Blobs
	logger  *slog.Logger
}

// NewStore builds a gallery store.
func NewStore(querier Querier, blobs *storage.Blobs, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{querier: querier, blobs: blobs, logger: logger}
}

// SaveInput is everything the trophy phase hands over at "Save to
// Gallery" time. PromptCard is optional.
type SaveInput struct {
	OriginalImage []byte
	RefinedImage  []byte
	PromptCard    []byte
	ChildName     string
	PromptState   *prompt.State
	Stats         trophy.Stats
}

// SaveCreation renders the thumbnail and certificate (concurrently, both
// are CPU-bound and independent), writes all blobs, then inserts the
// creation and stats rows. Blobs written before a database failure are
// cleaned up best-effort.
func (s *Store) SaveCreation(ctx context.Context, owner uuid.UUID, in SaveInput) (*Item, error) {
	if len(in.OriginalImage) == 0 || len(in.RefinedImage) == 0 {
		return nil, fmt.Errorf("gallery: save requires original and refined images")
	}
	if in.PromptState == nil {
		return nil, fmt.Errorf("gallery: save requires prompt state")
	}

	id := uuid.New()
	now := time.Now()

	var (
		wg          sync.WaitGroup
		thumbnail   []byte
		certificate []byte
		thumbErr    error
		certErr     error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		thumbnail, thumbErr = render.Thumbnail(in.RefinedImage, render.DefaultMaxWidth, render.DefaultMaxHeight)
	}()
	go func() {
		defer wg.Done()
		certificate, certErr = trophy.Certificate(trophy.CertificateOptions{
			ChildName:         in.ChildName,
			CreationDate:      now,
			OriginalImage:     in.OriginalImage,
			FinalImage:        in.RefinedImage,
			SynthesizedPrompt: synthesizedPrompt(in.PromptState),
			Stats:             in.Stats,
		})
	}()
	wg.Wait()
	if thumbErr != nil {
		return nil, fmt.Errorf("render thumbnail: %w", thumbErr)
	}
	if certErr != nil {
		return nil, fmt.Errorf("render certificate: %w", certErr)
	}

	blobs := map[string][]byte{
		storage.BlobOriginal:    in.OriginalImage,
		storage.BlobRefined:     in.RefinedImage,
		storage.BlobThumbnail:   thumbnail,
		storage.BlobCertificate: certificate,
	}
	if len(in.PromptCard) > 0 {
		blobs[storage.BlobPromptCard] = in.PromptCard
	}
	for name, data := range blobs {
		if err := s.blobs.Put(owner, id, name, data); err != nil {
			s.cleanupBlobs(owner, id)
			return nil, fmt.Errorf("upload %s: %w", name, err)
		}
	}

	stateJSON, err := json.Marshal(in.PromptState)
	if err != nil {
		s.cleanupBlobs(owner, id)
		return nil, fmt.Errorf("encode prompt state: %w", err)
	}

	row := Row{
		ID:          id,
		OwnerID:     owner,
		Intent:      in.PromptState.IntentStatement,
		PromptState: stateJSON,
		CreatedAt:   now,
		Stats: &StatsRow{
			CreationID:      id,
			TotalQuestions:  in.Stats.TotalQuestions,
			TotalEdits:      in.Stats.TotalEdits,
			TimeSpent:       in.Stats.TimeSpent,
			VariablesUsed:   in.Stats.VariablesUsed,
			CreativityScore: in.Stats.CreativityScore,
			PromptLength:    in.Stats.PromptLength,
		},
	}
	if err := s.querier.InsertCreation(ctx, row); err != nil {
		s.cleanupBlobs(owner, id)
		return nil, fmt.Errorf("insert creation: %w", err)
	}

	s.logger.Info("saved creation", "owner", owner, "creation", id)
	item := rowToItem(row)
	return &item, nil
}

// ListCreations returns the owner's creations, newest first.
func (s *Store) ListCreations(ctx context.Context, owner uuid.UUID) ([]Item, error) {
	rows, err := s.querier.ListCreations(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list creations: %w", err)
	}
	items := make([]Item, len(rows))
	for i, row := range rows {
		items[i] = rowToItem(row)
	}
	return items, nil
}

// GetCreation returns one creation by id, scoped to its owner.
func (s *Store) GetCreation(ctx context.Context, owner, id uuid.UUID) (*Item, error) {
	row, err := s.querier.GetCreation(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	item := rowToItem(row)
	return &item, nil
}

// DeleteCreation removes the creation's blobs, then its record. Blob
// removal tolerates already-missing files so a half-deleted creation can
// be deleted again; the stats row goes with the record via cascade.
func (s *Store) DeleteCreation(ctx context.Context, owner, id uuid.UUID) error {
	if err := s.blobs.DeleteCreation(owner, id); err != nil {
		return fmt.Errorf("delete creation blobs: %w", err)
	}
	affected, err := s.querier.DeleteCreation(ctx, owner, id)
	if err != nil {
		return fmt.Errorf("delete creation record: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	s.logger.Info("deleted creation", "owner", owner, "creation", id)
	return nil
}

func (s *Store) cleanupBlobs(owner, id uuid.UUID) {
	if err := s.blobs.DeleteCreation(owner, id); err != nil {
		s.logger.Warn("cleanup of orphaned blobs failed",
			"owner", owner, "creation", id, "error", err)
	}
}

// rowToItem maps a database row to the client shape. A missing stats row
// is reconstructed from the stored prompt state with a neutral default
// creativity score.
func rowToItem(row Row) Item {
	item := Item{
		ID:              row.ID,
		CreatedAt:       row.CreatedAt.UnixMilli(),
		IntentStatement: row.Intent,
		PromptState:     json.RawMessage(row.PromptState),
	}
	if row.Stats != nil {
		item.Stats = trophy.Stats{
			TotalQuestions:  row.Stats.TotalQuestions,
			TotalEdits:      row.Stats.TotalEdits,
			TimeSpent:       row.Stats.TimeSpent,
			VariablesUsed:   row.Stats.VariablesUsed,
			CreativityScore: row.Stats.CreativityScore,
			PromptLength:    row.Stats.PromptLength,
		}
		return item
	}

	item.Stats = defaultStats(row.PromptState)
	return item
}

// defaultCreativityScore stands in for creations saved before stats were
// recorded.
const defaultCreativityScore = 85

func defaultStats(stateJSON []byte) trophy.Stats {
	stats := trophy.Stats{
		VariablesUsed:   []string{},
		CreativityScore: defaultCreativityScore,
	}

	var state prompt.State
	if err := json.Unmarshal(stateJSON, &state); err != nil {
		return stats
	}

	stats.TotalQuestions = state.TotalQuestions
	if stats.TotalQuestions == 0 {
		stats.TotalQuestions = len(state.Variables)
	}
	for _, v := range state.Variables {
		stats.VariablesUsed = append(stats.VariablesUsed, string(v.Variable))
	}
	if state.SynthesizedPrompt != nil {
		stats.PromptLength = len([]rune(*state.SynthesizedPrompt))
	}
	return stats
}

func synthesizedPrompt(s *prompt.State) string {
	if s.SynthesizedPrompt != nil {
		return *s.SynthesizedPrompt
	}
	return prompt.Synthesize(s)
}
