// Package scheduler refreshes the medicine catalog on a fixed interval and
// swaps it into the data store.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/giygas/medicine-shop/catalog"
	"github.com/giygas/medicine-shop/interfaces"
	"github.com/giygas/medicine-shop/logging"
	"github.com/giygas/medicine-shop/validation"
	"github.com/go-co-op/gocron"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

const loadTimeout = 2 * time.Minute

// Scheduler handles catalog refreshes using dependency injection
type Scheduler struct {
	dataStore interfaces.DataStore
	loader    interfaces.CatalogLoader
	interval  time.Duration
	scheduler *gocron.Scheduler
	onUpdate  func(count int)

	mu      sync.Mutex
	lastErr error
	stop    chan struct{}
	once    sync.Once
}

// NewScheduler creates a scheduler that reloads the catalog every interval
func NewScheduler(dataStore interfaces.DataStore, loader interfaces.CatalogLoader, interval time.Duration) *Scheduler {
	return &Scheduler{
		dataStore: dataStore,
		loader:    loader,
		interval:  interval,
		scheduler: gocron.NewScheduler(time.Local),
		stop:      make(chan struct{}),
	}
}

// OnUpdate registers a callback invoked with the catalog size after each swap
func (s *Scheduler) OnUpdate(fn func(count int)) {
	s.onUpdate = fn
}

// Start loads the catalog once and schedules the periodic refresh. A failed
// first load leaves the catalog empty; the service keeps answering and the
// next tick retries.
func (s *Scheduler) Start() error {
	if err := s.UpdateData(); err != nil {
		logging.Error("Failed to perform initial catalog load", "error", err)
	}

	minutes := int(s.interval / time.Minute)
	if minutes < 1 {
		minutes = 1
	}

	_, err := s.scheduler.Every(minutes).Minutes().WaitForSchedule().Do(func() {
		if err := s.UpdateData(); err != nil {
			logging.Error("Failed to refresh catalog", "error", err)
		}
	})
	if err != nil {
		logging.Error("Failed to schedule catalog refresh", "error", err)
		return fmt.Errorf("failed to schedule catalog refresh: %w", err)
	}

	s.scheduler.StartAsync()
	s.startHealthMonitoring()

	return nil
}

// Stop stops the scheduler and the staleness monitor
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	s.once.Do(func() { close(s.stop) })
}

// LastError returns the error of the most recent refresh, nil on success
func (s *Scheduler) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// UpdateData performs one refresh. The current catalog is kept on failure.
func (s *Scheduler) UpdateData() error {
	if !s.dataStore.BeginUpdate() {
		logging.Info("Catalog update already in progress, skipping...")
		return nil
	}
	defer s.dataStore.EndUpdate()

	logging.Info("Starting catalog update")
	start := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()

	medicines, err := s.loader.Load(ctx)
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	medicines = checkQuality(medicines)

	s.dataStore.UpdateData(medicines)
	if s.onUpdate != nil {
		s.onUpdate(len(medicines))
	}

	logging.Info("Catalog update completed", "duration", time.Since(start).String(), "medicine_count", len(medicines))
	return nil
}

// checkQuality drops invalid entries and logs the data quality report
func checkQuality(medicines []catalog.Medicine) []catalog.Medicine {
	kept := make([]catalog.Medicine, 0, len(medicines))
	for i := range medicines {
		if err := validation.ValidateMedicine(&medicines[i]); err != nil {
			logging.Warn("Dropping invalid catalog entry", "error", err)
			continue
		}
		kept = append(kept, medicines[i])
	}

	report := validation.ReportCatalogQuality(kept)

	if len(report.DuplicateNames) > 0 {
		logging.Warn("Duplicate medicine names detected",
			"total", len(report.DuplicateNames),
			"names", report.DuplicateNames,
		)
	}

	if report.WithoutCategory > 0 {
		logging.Warn("Medicines without category", "count", report.WithoutCategory)
	}

	if report.FreeItems > 0 {
		logging.Warn("Medicines with a zero price", "count", report.FreeItems)
	}

	if len(report.TooLongDescriptions) > 0 {
		logging.Debug("Medicines with very long descriptions", "names", report.TooLongDescriptions)
	}

	return kept
}

// startHealthMonitoring warns when the catalog has gone stale
func (s *Scheduler) startHealthMonitoring() {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				lastUpdate := s.dataStore.GetLastUpdated()
				if time.Since(lastUpdate) > 3*s.interval {
					logging.Warn("Catalog hasn't been updated recently", "last_update", lastUpdate.Format(time.RFC3339))
				}
			}
		}
	}()
}
