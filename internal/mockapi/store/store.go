// Package store is the mock backend's in-memory data layer. Every method is
// safe for concurrent use and returns copies, never pointers into the maps.
package store

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/learnhub/internal/mockapi/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

type Memory struct {
	mu sync.RWMutex

	users         map[string]domain.User // by id
	usersByEmail  map[string]string      // email -> id
	refreshTokens map[string]domain.RefreshToken
	courses       map[string]domain.Course
	modules       map[string]domain.Module
	materials     map[string]domain.StudyMaterial
	classes       map[string]domain.Class
	reviews       map[string][]domain.Review // by course id
	orders        map[string]domain.Order
	purchases     map[purchaseKey]domain.Purchase
	progress      map[purchaseKey]domain.VideoProgress // (user, class)
}

type purchaseKey struct{ userID, id string }

func NewMemory() *Memory {
	return &Memory{
		users:         make(map[string]domain.User),
		usersByEmail:  make(map[string]string),
		refreshTokens: make(map[string]domain.RefreshToken),
		courses:       make(map[string]domain.Course),
		modules:       make(map[string]domain.Module),
		materials:     make(map[string]domain.StudyMaterial),
		classes:       make(map[string]domain.Class),
		reviews:       make(map[string][]domain.Review),
		orders:        make(map[string]domain.Order),
		purchases:     make(map[purchaseKey]domain.Purchase),
		progress:      make(map[purchaseKey]domain.VideoProgress),
	}
}

// Ping exists so readiness checks look the same as for a real driver.
func (s *Memory) Ping(context.Context) error { return nil }

// ============================================================================
// Users
// ============================================================================

func (s *Memory) CreateUser(_ context.Context, u domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.usersByEmail[u.Email]; ok {
		return ErrAlreadyExists
	}
	s.users[u.ID] = u
	s.usersByEmail[u.Email] = u.ID
	return nil
}

func (s *Memory) GetUserByID(_ context.Context, id string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return domain.User{}, ErrNotFound
	}
	return u, nil
}

func (s *Memory) GetUserByEmail(_ context.Context, email string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.usersByEmail[email]
	if !ok {
		return domain.User{}, ErrNotFound
	}
	return s.users[id], nil
}

// UpdateUser applies fn to the stored user under the write lock.
func (s *Memory) UpdateUser(_ context.Context, id string, fn func(*domain.User)) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return domain.User{}, ErrNotFound
	}
	fn(&u)
	s.users[id] = u
	return u, nil
}

// DeleteUnverifiedBefore removes signups that never completed verification.
func (s *Memory) DeleteUnverifiedBefore(_ context.Context, cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, u := range s.users {
		if !u.Verified && u.CreatedAt.Before(cutoff) {
			delete(s.users, id)
			delete(s.usersByEmail, u.Email)
			n++
		}
	}
	return n
}

// ============================================================================
// Refresh tokens
// ============================================================================

func (s *Memory) CreateRefreshToken(_ context.Context, t domain.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshTokens[t.Fingerprint] = t
	return nil
}

// ConsumeRefreshToken revokes a live token and returns it. Revoked, expired
// and unknown tokens yield ErrNotFound.
func (s *Memory) ConsumeRefreshToken(_ context.Context, fingerprint string, now time.Time) (domain.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.refreshTokens[fingerprint]
	if !ok || t.Revoked || !now.Before(t.ExpiresAt) {
		return domain.RefreshToken{}, ErrNotFound
	}
	t.Revoked = true
	s.refreshTokens[fingerprint] = t
	return t, nil
}

func (s *Memory) RevokeRefreshToken(_ context.Context, fingerprint string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.refreshTokens[fingerprint]; ok {
		t.Revoked = true
		s.refreshTokens[fingerprint] = t
	}
}

// RevokeAllRefreshTokens revokes every outstanding token.
func (s *Memory) RevokeAllRefreshTokens(context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, t := range s.refreshTokens {
		t.Revoked = true
		s.refreshTokens[k] = t
	}
}

func (s *Memory) DeleteExpiredRefreshTokens(_ context.Context, now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, t := range s.refreshTokens {
		if t.Revoked || !now.Before(t.ExpiresAt) {
			delete(s.refreshTokens, k)
			n++
		}
	}
	return n
}

// ============================================================================
// Catalog
// ============================================================================

func (s *Memory) PutCourse(_ context.Context, c domain.Course) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.courses[c.ID] = c
}

func (s *Memory) GetCourse(_ context.Context, id string) (domain.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.courses[id]
	if !ok {
		return domain.Course{}, ErrNotFound
	}
	return c, nil
}

// ListCourses returns courses matching keep (all when nil), newest first.
func (s *Memory) ListCourses(_ context.Context, keep func(domain.Course) bool) []domain.Course {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Course, 0, len(s.courses))
	for _, c := range s.courses {
		if keep == nil || keep(c) {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b domain.Course) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

func (s *Memory) PutModule(_ context.Context, m domain.Module) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modules[m.ID] = m
}

func (s *Memory) GetModule(_ context.Context, id string) (domain.Module, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.modules[id]
	if !ok {
		return domain.Module{}, ErrNotFound
	}
	return m, nil
}

func (s *Memory) ModulesByCourse(_ context.Context, courseID string) []domain.Module {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Module
	for _, m := range s.modules {
		if m.CourseID == courseID {
			out = append(out, m)
		}
	}
	slices.SortFunc(out, func(a, b domain.Module) int { return a.Order - b.Order })
	return out
}

func (s *Memory) PutMaterial(_ context.Context, m domain.StudyMaterial) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.materials[m.ID] = m
}

func (s *Memory) MaterialsByModule(_ context.Context, moduleID string) []domain.StudyMaterial {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.StudyMaterial{}
	for _, m := range s.materials {
		if m.ModuleID == moduleID {
			out = append(out, m)
		}
	}
	slices.SortFunc(out, func(a, b domain.StudyMaterial) int { return strings.Compare(a.ID, b.ID) })
	return out
}

func (s *Memory) PutClass(_ context.Context, c domain.Class) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.classes[c.ID] = c
}

func (s *Memory) GetClass(_ context.Context, id string) (domain.Class, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.classes[id]
	if !ok {
		return domain.Class{}, ErrNotFound
	}
	return c, nil
}

func (s *Memory) ClassesByCourse(_ context.Context, courseID string) []domain.Class {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Class{}
	for _, c := range s.classes {
		if c.CourseID == courseID {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b domain.Class) int { return strings.Compare(a.ID, b.ID) })
	return out
}

// DeleteCourse removes a course with its modules, materials, classes and
// reviews. Purchases are kept as the record of payment.
func (s *Memory) DeleteCourse(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.courses[id]; !ok {
		return ErrNotFound
	}
	delete(s.courses, id)
	delete(s.reviews, id)
	for mid, m := range s.modules {
		if m.CourseID == id {
			s.deleteModuleLocked(mid)
		}
	}
	for cid, c := range s.classes {
		if c.CourseID == id {
			delete(s.classes, cid)
		}
	}
	return nil
}

// DeleteModule removes a module with its materials and classes.
func (s *Memory) DeleteModule(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.modules[id]; !ok {
		return ErrNotFound
	}
	s.deleteModuleLocked(id)
	return nil
}

func (s *Memory) deleteModuleLocked(id string) {
	delete(s.modules, id)
	for k, m := range s.materials {
		if m.ModuleID == id {
			delete(s.materials, k)
		}
	}
	for k, c := range s.classes {
		if c.ModuleID == id {
			delete(s.classes, k)
		}
	}
}

func (s *Memory) GetMaterial(_ context.Context, id string) (domain.StudyMaterial, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.materials[id]
	if !ok {
		return domain.StudyMaterial{}, ErrNotFound
	}
	return m, nil
}

func (s *Memory) DeleteMaterial(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.materials[id]; !ok {
		return ErrNotFound
	}
	delete(s.materials, id)
	return nil
}

func (s *Memory) ClassesByModule(_ context.Context, moduleID string) []domain.Class {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Class{}
	for _, c := range s.classes {
		if c.ModuleID == moduleID {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b domain.Class) int { return strings.Compare(a.ID, b.ID) })
	return out
}

func (s *Memory) DeleteClass(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.classes[id]; !ok {
		return ErrNotFound
	}
	delete(s.classes, id)
	return nil
}

// ============================================================================
// Reviews, progress
// ============================================================================

func (s *Memory) AddReview(_ context.Context, r domain.Review) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reviews[r.CourseID] = append(s.reviews[r.CourseID], r)
}

func (s *Memory) ReviewsByCourse(_ context.Context, courseID string) []domain.Review {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Review{}, s.reviews[courseID]...)
}

func (s *Memory) SaveProgress(_ context.Context, p domain.VideoProgress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress[purchaseKey{p.UserID, p.ClassID}] = p
}

func (s *Memory) GetProgress(_ context.Context, userID, classID string) (domain.VideoProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.progress[purchaseKey{userID, classID}]
	if !ok {
		return domain.VideoProgress{}, ErrNotFound
	}
	return p, nil
}

// ============================================================================
// Orders and purchases
// ============================================================================

func (s *Memory) CreateOrder(_ context.Context, o domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = o
}

func (s *Memory) GetOrder(_ context.Context, id string) (domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return domain.Order{}, ErrNotFound
	}
	return o, nil
}

// CompleteOrder marks a created order paid and records the entitlement in one
// step. A second completion of the same order returns ErrAlreadyExists.
func (s *Memory) CompleteOrder(_ context.Context, orderID, paymentID string, now time.Time) (domain.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return domain.Purchase{}, ErrNotFound
	}
	if o.Status != domain.OrderCreated {
		return domain.Purchase{}, ErrAlreadyExists
	}
	o.Status = domain.OrderPaid
	s.orders[orderID] = o

	p := domain.Purchase{
		UserID:    o.UserID,
		CourseID:  o.CourseID,
		OrderID:   o.ID,
		PaymentID: paymentID,
		CreatedAt: now,
	}
	s.purchases[purchaseKey{o.UserID, o.CourseID}] = p
	return p, nil
}

// HasPurchase reports a live, non-revoked entitlement.
func (s *Memory) HasPurchase(_ context.Context, userID, courseID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.purchases[purchaseKey{userID, courseID}]
	return ok && !p.Revoked
}

func (s *Memory) RevokePurchase(_ context.Context, userID, courseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := purchaseKey{userID, courseID}
	p, ok := s.purchases[k]
	if !ok {
		return ErrNotFound
	}
	p.Revoked = true
	s.purchases[k] = p
	return nil
}

func (s *Memory) PutPurchase(_ context.Context, p domain.Purchase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purchases[purchaseKey{p.UserID, p.CourseID}] = p
}
