package calendar

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/staysync/backend/internal/storage"
	"github.com/staysync/backend/internal/storage/models"
	"github.com/staysync/backend/internal/websocket"
)

// Scheduler manages periodic per-property sync jobs.
type Scheduler struct {
	cron         *cron.Cron
	syncService  *SyncService
	propertyRepo *storage.PropertyRepository
	broadcaster  *websocket.EventBroadcaster

	// Track jobs per property
	jobs   map[string]cron.EntryID
	jobsMu sync.RWMutex

	// Default sync interval if a property doesn't specify one
	defaultInterval time.Duration
}

// NewScheduler creates a new sync scheduler.
func NewScheduler(
	syncService *SyncService,
	propertyRepo *storage.PropertyRepository,
	hub *websocket.Hub,
	defaultIntervalMin int,
) *Scheduler {
	if defaultIntervalMin <= 0 {
		defaultIntervalMin = 60
	}

	var broadcaster *websocket.EventBroadcaster
	if hub != nil {
		broadcaster = websocket.NewEventBroadcaster(hub)
	}

	return &Scheduler{
		cron:            cron.New(),
		syncService:     syncService,
		propertyRepo:    propertyRepo,
		broadcaster:     broadcaster,
		jobs:            make(map[string]cron.EntryID),
		defaultInterval: time.Duration(defaultIntervalMin) * time.Minute,
	}
}

// Start begins the scheduler and loads all enabled properties.
func (s *Scheduler) Start(ctx context.Context) error {
	log.Println("Starting calendar sync scheduler...")

	properties, err := s.propertyRepo.ListEnabled(ctx)
	if err != nil {
		return err
	}

	for _, prop := range properties {
		s.ScheduleProperty(prop)
	}

	// Catch newly added or modified properties.
	s.cron.AddFunc("@every 5m", func() {
		s.refreshSchedules(context.Background())
	})

	s.cron.Start()
	log.Printf("Calendar scheduler started with %d properties", len(properties))

	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() {
	log.Println("Stopping calendar sync scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("Calendar scheduler stopped")
}

// ScheduleProperty adds or updates a property's sync schedule. Properties
// without a configured feed are left unscheduled.
func (s *Scheduler) ScheduleProperty(prop models.Property) {
	if !prop.Enabled || !prop.HasFeed() {
		s.UnscheduleProperty(prop.ID)
		return
	}

	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	if existingID, exists := s.jobs[prop.ID]; exists {
		s.cron.Remove(existingID)
		delete(s.jobs, prop.ID)
	}

	spec := minutesToCronSpec(prop.SyncIntervalMin, s.defaultInterval)

	entryID, err := s.cron.AddFunc(spec, func() {
		s.syncProperty(prop.ID, prop.Name)
	})
	if err != nil {
		log.Printf("Failed to schedule property %s: %v", prop.ID, err)
		return
	}

	s.jobs[prop.ID] = entryID
	log.Printf("Scheduled property %s (%s): %s", prop.ID, prop.Name, spec)
}

// UnscheduleProperty removes a property from the sync schedule.
func (s *Scheduler) UnscheduleProperty(propertyID string) {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	if entryID, exists := s.jobs[propertyID]; exists {
		s.cron.Remove(entryID)
		delete(s.jobs, propertyID)
		log.Printf("Unscheduled property %s", propertyID)
	}
}

// syncProperty performs one scheduled sync. Scheduled runs are never forced,
// so the freshness window still governs.
func (s *Scheduler) syncProperty(propertyID, propertyName string) {
	ctx := context.Background()

	result, err := s.syncService.RunSync(ctx, propertyID, false)
	if err != nil {
		log.Printf("Scheduled sync failed for %s: %v", propertyID, err)
		if s.broadcaster != nil {
			s.broadcaster.BroadcastSyncError(propertyID, propertyName, err)
		}
		return
	}

	if result.Skipped {
		return
	}

	log.Printf("Scheduled sync completed for %s: %d events, %d reservations",
		propertyID, result.EventsFound, result.ReservationsCount)

	if s.broadcaster != nil {
		s.broadcaster.BroadcastSyncCompleted(propertyName, *result)
	}
}

// refreshSchedules reloads property schedules from the database.
func (s *Scheduler) refreshSchedules(ctx context.Context) {
	properties, err := s.propertyRepo.ListEnabled(ctx)
	if err != nil {
		log.Printf("Failed to refresh property schedules: %v", err)
		return
	}

	currentIDs := make(map[string]bool)
	for _, prop := range properties {
		currentIDs[prop.ID] = true
		s.ScheduleProperty(prop)
	}

	// Drop jobs for properties that no longer exist or are disabled.
	s.jobsMu.Lock()
	for propID := range s.jobs {
		if !currentIDs[propID] {
			s.cron.Remove(s.jobs[propID])
			delete(s.jobs, propID)
			log.Printf("Removed schedule for property %s (no longer enabled)", propID)
		}
	}
	s.jobsMu.Unlock()
}

// minutesToCronSpec converts a minute interval to a cron spec.
func minutesToCronSpec(minutes int, fallback time.Duration) string {
	interval := time.Duration(minutes) * time.Minute
	if interval < time.Minute {
		interval = fallback
	}
	return "@every " + interval.String()
}

// ScheduledProperties returns the currently scheduled property IDs.
func (s *Scheduler) ScheduledProperties() []string {
	s.jobsMu.RLock()
	defer s.jobsMu.RUnlock()

	ids := make([]string, 0, len(s.jobs))
	for id := range s.jobs {
		ids = append(ids, id)
	}
	return ids
}

// NextRun returns the next scheduled run time for a property.
func (s *Scheduler) NextRun(propertyID string) *time.Time {
	s.jobsMu.RLock()
	defer s.jobsMu.RUnlock()

	if entryID, exists := s.jobs[propertyID]; exists {
		entry := s.cron.Entry(entryID)
		if !entry.Next.IsZero() {
			return &entry.Next
		}
	}
	return nil
}
