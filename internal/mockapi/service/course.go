package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/learnhub/internal/mockapi/domain"
	"github.com/aussiebroadwan/learnhub/internal/mockapi/store"
	"github.com/aussiebroadwan/learnhub/pkg/idx"
)

var (
	ErrCourseNotFound = errors.New("course_not_found")
	ErrForbidden      = errors.New("forbidden")
	ErrNoModules      = errors.New("no_modules")
)

// CourseService answers catalog reads and decides who may see protected
// course content: the authoring educator, or anyone with a purchase.
type CourseService struct {
	Store *store.Memory
}

func (s *CourseService) All(ctx context.Context) []domain.Course {
	return s.Store.ListCourses(ctx, nil)
}

func (s *CourseService) Get(ctx context.Context, id string) (domain.Course, error) {
	c, err := s.Store.GetCourse(ctx, id)
	if err != nil {
		return domain.Course{}, ErrCourseNotFound
	}
	return c, nil
}

// Search matches the query against title, description and category,
// case-insensitively. An empty query matches everything.
func (s *CourseService) Search(ctx context.Context, query string) []domain.Course {
	q := strings.ToLower(strings.TrimSpace(query))
	return s.Store.ListCourses(ctx, func(c domain.Course) bool {
		return q == "" ||
			strings.Contains(strings.ToLower(c.Title), q) ||
			strings.Contains(strings.ToLower(c.Description), q) ||
			strings.Contains(strings.ToLower(c.Category), q)
	})
}

func (s *CourseService) ByEducator(ctx context.Context, educatorID string) []domain.Course {
	return s.Store.ListCourses(ctx, func(c domain.Course) bool { return c.EducatorID == educatorID })
}

// IsOwner reports whether userID authored the course.
func (s *CourseService) IsOwner(ctx context.Context, userID, courseID string) (bool, error) {
	c, err := s.Get(ctx, courseID)
	if err != nil {
		return false, err
	}
	return c.EducatorID != "" && c.EducatorID == userID, nil
}

// HasPurchase reports a completed purchase of an existing course.
func (s *CourseService) HasPurchase(ctx context.Context, userID, courseID string) (bool, error) {
	if _, err := s.Get(ctx, courseID); err != nil {
		return false, err
	}
	return s.Store.HasPurchase(ctx, userID, courseID), nil
}

// CanAccess is ownership or purchase.
func (s *CourseService) CanAccess(ctx context.Context, userID, courseID string) (bool, error) {
	owner, err := s.IsOwner(ctx, userID, courseID)
	if err != nil || owner {
		return owner, err
	}
	return s.Store.HasPurchase(ctx, userID, courseID), nil
}

func (s *CourseService) requireAccess(ctx context.Context, userID, courseID string) error {
	ok, err := s.CanAccess(ctx, userID, courseID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

// Modules returns the course's modules in order. A course without modules
// yields ErrNoModules.
func (s *CourseService) Modules(ctx context.Context, userID, courseID string) ([]domain.Module, error) {
	if err := s.requireAccess(ctx, userID, courseID); err != nil {
		return nil, err
	}
	mods := s.Store.ModulesByCourse(ctx, courseID)
	if len(mods) == 0 {
		return nil, ErrNoModules
	}
	return mods, nil
}

// Materials checks access against the module's course.
func (s *CourseService) Materials(ctx context.Context, userID, moduleID string) ([]domain.StudyMaterial, error) {
	m, err := s.Store.GetModule(ctx, moduleID)
	if err != nil {
		return nil, ErrCourseNotFound
	}
	if err := s.requireAccess(ctx, userID, m.CourseID); err != nil {
		return nil, err
	}
	return s.Store.MaterialsByModule(ctx, moduleID), nil
}

func (s *CourseService) Classes(ctx context.Context, userID, courseID string) ([]domain.Class, error) {
	if err := s.requireAccess(ctx, userID, courseID); err != nil {
		return nil, err
	}
	return s.Store.ClassesByCourse(ctx, courseID), nil
}

// SaveProgress records a 0-100 watch percentage for a class the user can see.
func (s *CourseService) SaveProgress(ctx context.Context, userID, classID string, progress float64) error {
	if progress < 0 || progress > 100 {
		return &ValidationError{Field: "progress", Message: "must be between 0 and 100"}
	}
	c, err := s.Store.GetClass(ctx, classID)
	if err != nil {
		return ErrCourseNotFound
	}
	if err := s.requireAccess(ctx, userID, c.CourseID); err != nil {
		return err
	}
	s.Store.SaveProgress(ctx, domain.VideoProgress{
		UserID:    userID,
		ClassID:   classID,
		Progress:  progress,
		UpdatedAt: time.Now().UTC(),
	})
	return nil
}

func (s *CourseService) Reviews(ctx context.Context, courseID string) ([]domain.Review, error) {
	if _, err := s.Get(ctx, courseID); err != nil {
		return nil, err
	}
	return s.Store.ReviewsByCourse(ctx, courseID), nil
}

// AddReview accepts reviews from purchasers only; authors cannot review their
// own course.
func (s *CourseService) AddReview(ctx context.Context, userID, courseID string, rating int, comment string) (domain.Review, error) {
	if rating < 1 || rating > 5 {
		return domain.Review{}, &ValidationError{Field: "rating", Message: "must be between 1 and 5"}
	}
	purchased, err := s.HasPurchase(ctx, userID, courseID)
	if err != nil {
		return domain.Review{}, err
	}
	if !purchased {
		return domain.Review{}, ErrForbidden
	}
	u, err := s.Store.GetUserByID(ctx, userID)
	if err != nil {
		return domain.Review{}, fmt.Errorf("load reviewer: %w", err)
	}

	r := domain.Review{
		ID:        idx.NewPrefixed("rev").String(),
		CourseID:  courseID,
		UserID:    userID,
		UserName:  u.Name,
		Rating:    rating,
		Comment:   strings.TrimSpace(comment),
		CreatedAt: time.Now().UTC(),
	}
	s.Store.AddReview(ctx, r)
	return r, nil
}
