// Package memory provides process-lifetime implementations of the service's
// storage interfaces. It is the default backend for development and tests;
// nothing survives a restart.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/oceanwatch/hazard-report-service/internal/domain"
	"github.com/oceanwatch/hazard-report-service/internal/service"
)

// Store keeps reports and profiles in memory. It implements
// service.ReportStore and service.ProfileStore. Reports are listed in
// insertion order.
type Store struct {
	mu       sync.RWMutex
	order    []string
	reports  map[string]domain.Report
	profiles map[string]domain.Profile
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		reports:  make(map[string]domain.Report),
		profiles: make(map[string]domain.Profile),
	}
}

// Insert stores a new report.
func (s *Store) Insert(_ context.Context, r domain.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.reports[r.ID]; !exists {
		s.order = append(s.order, r.ID)
	}
	s.reports[r.ID] = r
	return nil
}

// Get returns a report by id.
func (s *Store) Get(_ context.Context, id string) (domain.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[id]
	if !ok {
		return domain.Report{}, domain.ErrNotFound
	}
	return r, nil
}

// List returns reports matching the filter in insertion order.
func (s *Store) List(_ context.Context, f service.Filter) ([]domain.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Report, 0, len(s.order))
	for _, id := range s.order {
		r := s.reports[id]
		if f.HazardType != "" && string(r.HazardType) != f.HazardType {
			continue
		}
		if f.Status != "" && string(r.Status) != f.Status {
			continue
		}
		if f.Severity != "" && string(r.Severity) != f.Severity {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// Update overwrites an existing report.
func (s *Store) Update(_ context.Context, r domain.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reports[r.ID]; !ok {
		return domain.ErrNotFound
	}
	s.reports[r.ID] = r
	return nil
}

// Ping always succeeds; memory is never unreachable.
func (s *Store) Ping(_ context.Context) error { return nil }

// GetProfile returns a profile by user id.
func (s *Store) GetProfile(_ context.Context, userID string) (domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return domain.Profile{}, domain.ErrNotFound
	}
	return p, nil
}

// SaveProfile upserts a profile.
func (s *Store) SaveProfile(_ context.Context, p domain.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.UserID] = p
	return nil
}

// Profiles adapts the store to the service.ProfileStore interface, keeping
// the report and profile method sets from colliding on Get.
func (s *Store) Profiles() service.ProfileStore { return profileStore{s} }

type profileStore struct{ s *Store }

func (p profileStore) Get(ctx context.Context, userID string) (domain.Profile, error) {
	return p.s.GetProfile(ctx, userID)
}

func (p profileStore) Save(ctx context.Context, profile domain.Profile) error {
	return p.s.SaveProfile(ctx, profile)
}

// Leaderboard is an in-memory top-N by points. It implements
// service.Leaderboard and is the fallback when Redis is not configured.
type Leaderboard struct {
	mu     sync.RWMutex
	points map[string]int
}

// NewLeaderboard creates an empty leaderboard.
func NewLeaderboard() *Leaderboard {
	return &Leaderboard{points: make(map[string]int)}
}

// Record sets a user's point total.
func (l *Leaderboard) Record(_ context.Context, userID string, points int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.points[userID] = points
	return nil
}

// Top returns the n highest point totals, ties broken by user id for a
// stable order.
func (l *Leaderboard) Top(_ context.Context, n int) ([]domain.LeaderboardEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entries := make([]domain.LeaderboardEntry, 0, len(l.points))
	for user, pts := range l.points {
		entries = append(entries, domain.LeaderboardEntry{UserID: user, Points: pts})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Points != entries[j].Points {
			return entries[i].Points > entries[j].Points
		}
		return entries[i].UserID < entries[j].UserID
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries, nil
}
