// Package memory keeps every repository in process memory. It backs the
// memory database driver and the service and handler tests.
package memory

import (
	"context"
	"maps"
	"sort"
	"strings"
	"sync"

	"review-api/internal/data/entity"
	"review-api/internal/data/repository"

	"github.com/google/uuid"
)

type store struct {
	mu sync.RWMutex
	// gate serializes writers with units of work. It is nil on the working
	// copy a unit of work runs against.
	gate *sync.Mutex

	users       map[uuid.UUID]entity.User
	codes       map[uuid.UUID]entity.ConfirmationCode
	categories  map[uuid.UUID]entity.Category
	genres      map[uuid.UUID]entity.Genre
	titles      map[uuid.UUID]entity.Title
	titleGenres map[uuid.UUID]entity.TitleGenre
	reviews     map[uuid.UUID]entity.Review
	comments    map[uuid.UUID]entity.Comment
}

// New creates an empty memory repository.
func New() *repository.Repository {
	s := &store{
		gate:        &sync.Mutex{},
		users:       map[uuid.UUID]entity.User{},
		codes:       map[uuid.UUID]entity.ConfirmationCode{},
		categories:  map[uuid.UUID]entity.Category{},
		genres:      map[uuid.UUID]entity.Genre{},
		titles:      map[uuid.UUID]entity.Title{},
		titleGenres: map[uuid.UUID]entity.TitleGenre{},
		reviews:     map[uuid.UUID]entity.Review{},
		comments:    map[uuid.UUID]entity.Comment{},
	}

	repo := bind(s)
	repo.Tx = &transactor{s: s}
	return repo
}

func (s *store) Lock() {
	if s.gate != nil {
		s.gate.Lock()
	}
	s.mu.Lock()
}

func (s *store) Unlock() {
	s.mu.Unlock()
	if s.gate != nil {
		s.gate.Unlock()
	}
}

func (s *store) RLock()   { s.mu.RLock() }
func (s *store) RUnlock() { s.mu.RUnlock() }

// snapshot copies every table into an ungated store.
func (s *store) snapshot() *store {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return &store{
		users:       maps.Clone(s.users),
		codes:       maps.Clone(s.codes),
		categories:  maps.Clone(s.categories),
		genres:      maps.Clone(s.genres),
		titles:      maps.Clone(s.titles),
		titleGenres: maps.Clone(s.titleGenres),
		reviews:     maps.Clone(s.reviews),
		comments:    maps.Clone(s.comments),
	}
}

// adopt swaps in the tables of a committed working copy.
func (s *store) adopt(work *store) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users = work.users
	s.codes = work.codes
	s.categories = work.categories
	s.genres = work.genres
	s.titles = work.titles
	s.titleGenres = work.titleGenres
	s.reviews = work.reviews
	s.comments = work.comments
}

func bind(s *store) *repository.Repository {
	return &repository.Repository{
		User:         &userRepository{s},
		Confirmation: &confirmationRepository{s},
		Category:     &categoryRepository{s},
		Genre:        &genreRepository{s},
		Title:        &titleRepository{s},
		TitleGenre:   &titleGenreRepository{s},
		Review:       &reviewRepository{s},
		Comment:      &commentRepository{s},
	}
}

// transactor runs a unit of work against a private copy of the store and
// swaps it in on success. Other writers wait for the unit to finish and
// readers never observe a partial unit. A failed unit leaves the store as
// it was.
type transactor struct {
	s *store
}

func (t *transactor) InTx(ctx context.Context, fn func(repo *repository.Repository) error) error {
	t.s.gate.Lock()
	defer t.s.gate.Unlock()

	work := t.s.snapshot()
	inner := bind(work)
	inner.Tx = joined{repo: inner}
	if err := fn(inner); err != nil {
		return err
	}

	t.s.adopt(work)
	return nil
}

type joined struct {
	repo *repository.Repository
}

func (j joined) InTx(ctx context.Context, fn func(repo *repository.Repository) error) error {
	return fn(j.repo)
}

func page[T any](items []*T, limit, offset int) []*T {
	if offset >= len(items) {
		return nil
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

func contains(s string, search *string) bool {
	if search == nil || *search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(*search))
}

// newestFirst orders by creation time descending, then id.
func newestFirst[T any](items []*T, base func(*T) entity.Base) {
	sort.Slice(items, func(i, j int) bool {
		a, b := base(items[i]), base(items[j])
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})
}
