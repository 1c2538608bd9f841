package medications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/giygas/medicine-shop/kvstore"
	"github.com/giygas/medicine-shop/logging"
	"github.com/google/uuid"
)

// StorageKey is the key the list is persisted under in each namespace
const StorageKey = "medications"

// Service lists, adds and deletes medications per owner namespace
type Service struct {
	store kvstore.Store
	now   func() time.Time
	newID func() uuid.UUID
}

// NewService returns a Service persisting into store
func NewService(store kvstore.Store) *Service {
	return &Service{
		store: store,
		now:   time.Now,
		newID: uuid.New,
	}
}

// List returns the owner's medications in insertion order. Unreadable
// stored data yields an empty list.
func (s *Service) List(ctx context.Context, owner string) ([]Medication, error) {
	data, err := kvstore.Scoped(s.store, owner).Get(ctx, StorageKey)
	if errors.Is(err, kvstore.ErrNotFound) {
		return []Medication{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read medications: %w", err)
	}

	var list []Medication
	if err := json.Unmarshal(data, &list); err != nil {
		logging.Warn("Discarding malformed medication list", "owner", owner, "error", err)
		return []Medication{}, nil
	}
	if list == nil {
		list = []Medication{}
	}
	return list, nil
}

// Add validates in and appends a new medication
func (s *Service) Add(ctx context.Context, owner string, in Input) (Medication, error) {
	if err := in.Normalize(); err != nil {
		return Medication{}, err
	}

	list, err := s.List(ctx, owner)
	if err != nil {
		return Medication{}, err
	}

	med := Medication{
		ID:           s.newID().String(),
		Name:         in.Name,
		Dosage:       in.Dosage,
		Frequency:    in.Frequency,
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
		Instructions: in.Instructions,
		Reminder:     in.Reminder,
		CreatedAt:    s.now().Format(CreatedLayout),
	}

	if err := s.save(ctx, owner, append(list, med)); err != nil {
		return Medication{}, err
	}

	logging.Debug("Medication added", "owner", owner, "id", med.ID)
	return med, nil
}

// Delete removes the medication with id. It reports false when no such
// medication exists.
func (s *Service) Delete(ctx context.Context, owner, id string) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, nil
	}

	list, err := s.List(ctx, owner)
	if err != nil {
		return false, err
	}

	kept := make([]Medication, 0, len(list))
	for _, m := range list {
		if m.ID != id {
			kept = append(kept, m)
		}
	}
	if len(kept) == len(list) {
		return false, nil
	}

	if err := s.save(ctx, owner, kept); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) save(ctx context.Context, owner string, list []Medication) error {
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to encode medications: %w", err)
	}
	if err := kvstore.Scoped(s.store, owner).Set(ctx, StorageKey, data); err != nil {
		return fmt.Errorf("failed to save medications: %w", err)
	}
	return nil
}
