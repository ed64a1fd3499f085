package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/learnhub/internal/mockapi/domain"
	"github.com/aussiebroadwan/learnhub/pkg/idx"
)

// CourseInput is the editable part of a course. Updates replace every field.
type CourseInput struct {
	Title       string
	Description string
	Category    string
	Price       int64
	Thumbnail   string
}

func (in CourseInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return &ValidationError{Field: "title", Message: "is required"}
	}
	if in.Price < 0 {
		return &ValidationError{Field: "price", Message: "must not be negative"}
	}
	return nil
}

type ModuleInput struct {
	Title       string
	Description string
	Order       int // 0 appends on create and keeps the position on update
}

type MaterialInput struct {
	Title string
	URL   string
	Kind  string
}

type ClassInput struct {
	Title    string
	VideoURL string
	Duration int
}

func requireTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return &ValidationError{Field: "title", Message: "is required"}
	}
	return nil
}

// ============================================================================
// Courses
// ============================================================================

// CreateCourse publishes a course authored by userID, who must be an educator
// according to the stored account, not the token.
func (s *CourseService) CreateCourse(ctx context.Context, userID string, in CourseInput) (domain.Course, error) {
	if err := in.validate(); err != nil {
		return domain.Course{}, err
	}
	u, err := s.Store.GetUserByID(ctx, userID)
	if err != nil {
		return domain.Course{}, fmt.Errorf("load author: %w", err)
	}
	if !u.IsEducator() {
		return domain.Course{}, ErrForbidden
	}

	c := domain.Course{
		ID:          idx.NewPrefixed("course").String(),
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Category:    in.Category,
		Price:       in.Price,
		EducatorID:  userID,
		Thumbnail:   in.Thumbnail,
		CreatedAt:   time.Now().UTC(),
	}
	s.Store.PutCourse(ctx, c)
	return c, nil
}

func (s *CourseService) UpdateCourse(ctx context.Context, userID, courseID string, in CourseInput) (domain.Course, error) {
	if err := in.validate(); err != nil {
		return domain.Course{}, err
	}
	c, err := s.requireOwner(ctx, userID, courseID)
	if err != nil {
		return domain.Course{}, err
	}

	c.Title = strings.TrimSpace(in.Title)
	c.Description = in.Description
	c.Category = in.Category
	c.Price = in.Price
	c.Thumbnail = in.Thumbnail
	s.Store.PutCourse(ctx, c)
	return c, nil
}

func (s *CourseService) DeleteCourse(ctx context.Context, userID, courseID string) error {
	if _, err := s.requireOwner(ctx, userID, courseID); err != nil {
		return err
	}
	return s.Store.DeleteCourse(ctx, courseID)
}

// requireOwner loads the course and fails with ErrForbidden unless userID
// authored it.
func (s *CourseService) requireOwner(ctx context.Context, userID, courseID string) (domain.Course, error) {
	c, err := s.Get(ctx, courseID)
	if err != nil {
		return domain.Course{}, err
	}
	if c.EducatorID == "" || c.EducatorID != userID {
		return domain.Course{}, ErrForbidden
	}
	return c, nil
}

// ownedModule resolves a module and checks its course belongs to userID.
func (s *CourseService) ownedModule(ctx context.Context, userID, moduleID string) (domain.Module, error) {
	m, err := s.Store.GetModule(ctx, moduleID)
	if err != nil {
		return domain.Module{}, ErrCourseNotFound
	}
	if _, err := s.requireOwner(ctx, userID, m.CourseID); err != nil {
		return domain.Module{}, err
	}
	return m, nil
}

// ============================================================================
// Modules
// ============================================================================

func (s *CourseService) CreateModule(ctx context.Context, userID, courseID string, in ModuleInput) (domain.Module, error) {
	if err := requireTitle(in.Title); err != nil {
		return domain.Module{}, err
	}
	if _, err := s.requireOwner(ctx, userID, courseID); err != nil {
		return domain.Module{}, err
	}

	order := in.Order
	if order <= 0 {
		order = len(s.Store.ModulesByCourse(ctx, courseID)) + 1
	}
	m := domain.Module{
		ID:          idx.NewPrefixed("mod").String(),
		CourseID:    courseID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Order:       order,
	}
	s.Store.PutModule(ctx, m)
	return m, nil
}

func (s *CourseService) UpdateModule(ctx context.Context, userID, moduleID string, in ModuleInput) (domain.Module, error) {
	if err := requireTitle(in.Title); err != nil {
		return domain.Module{}, err
	}
	m, err := s.ownedModule(ctx, userID, moduleID)
	if err != nil {
		return domain.Module{}, err
	}

	m.Title = strings.TrimSpace(in.Title)
	m.Description = in.Description
	if in.Order > 0 {
		m.Order = in.Order
	}
	s.Store.PutModule(ctx, m)
	return m, nil
}

func (s *CourseService) DeleteModule(ctx context.Context, userID, moduleID string) error {
	if _, err := s.ownedModule(ctx, userID, moduleID); err != nil {
		return err
	}
	return s.Store.DeleteModule(ctx, moduleID)
}

// ============================================================================
// Study materials
// ============================================================================

func (s *CourseService) AddMaterial(ctx context.Context, userID, moduleID string, in MaterialInput) (domain.StudyMaterial, error) {
	if err := validateMaterial(in); err != nil {
		return domain.StudyMaterial{}, err
	}
	if _, err := s.ownedModule(ctx, userID, moduleID); err != nil {
		return domain.StudyMaterial{}, err
	}

	m := domain.StudyMaterial{
		ID:       idx.NewPrefixed("mat").String(),
		ModuleID: moduleID,
		Title:    strings.TrimSpace(in.Title),
		URL:      in.URL,
		Kind:     materialKind(in.Kind),
	}
	s.Store.PutMaterial(ctx, m)
	return m, nil
}

func (s *CourseService) UpdateMaterial(ctx context.Context, userID, materialID string, in MaterialInput) (domain.StudyMaterial, error) {
	if err := validateMaterial(in); err != nil {
		return domain.StudyMaterial{}, err
	}
	m, err := s.Store.GetMaterial(ctx, materialID)
	if err != nil {
		return domain.StudyMaterial{}, err
	}
	if _, err := s.ownedModule(ctx, userID, m.ModuleID); err != nil {
		return domain.StudyMaterial{}, err
	}

	m.Title = strings.TrimSpace(in.Title)
	m.URL = in.URL
	m.Kind = materialKind(in.Kind)
	s.Store.PutMaterial(ctx, m)
	return m, nil
}

func (s *CourseService) DeleteMaterial(ctx context.Context, userID, materialID string) error {
	m, err := s.Store.GetMaterial(ctx, materialID)
	if err != nil {
		return err
	}
	if _, err := s.ownedModule(ctx, userID, m.ModuleID); err != nil {
		return err
	}
	return s.Store.DeleteMaterial(ctx, materialID)
}

func validateMaterial(in MaterialInput) error {
	if err := requireTitle(in.Title); err != nil {
		return err
	}
	if strings.TrimSpace(in.URL) == "" {
		return &ValidationError{Field: "url", Message: "is required"}
	}
	return nil
}

func materialKind(kind string) string {
	if kind == "" {
		return "link"
	}
	return kind
}

// ============================================================================
// Classes
// ============================================================================

func (s *CourseService) CreateClass(ctx context.Context, userID, moduleID string, in ClassInput) (domain.Class, error) {
	if err := validateClass(in); err != nil {
		return domain.Class{}, err
	}
	m, err := s.ownedModule(ctx, userID, moduleID)
	if err != nil {
		return domain.Class{}, err
	}

	c := domain.Class{
		ID:       idx.NewPrefixed("class").String(),
		CourseID: m.CourseID,
		ModuleID: m.ID,
		Title:    strings.TrimSpace(in.Title),
		VideoURL: in.VideoURL,
		Duration: in.Duration,
	}
	s.Store.PutClass(ctx, c)
	return c, nil
}

func (s *CourseService) UpdateClass(ctx context.Context, userID, classID string, in ClassInput) (domain.Class, error) {
	if err := validateClass(in); err != nil {
		return domain.Class{}, err
	}
	c, err := s.Store.GetClass(ctx, classID)
	if err != nil {
		return domain.Class{}, err
	}
	if _, err := s.requireOwner(ctx, userID, c.CourseID); err != nil {
		return domain.Class{}, err
	}

	c.Title = strings.TrimSpace(in.Title)
	c.VideoURL = in.VideoURL
	c.Duration = in.Duration
	s.Store.PutClass(ctx, c)
	return c, nil
}

func (s *CourseService) DeleteClass(ctx context.Context, userID, classID string) error {
	c, err := s.Store.GetClass(ctx, classID)
	if err != nil {
		return err
	}
	if _, err := s.requireOwner(ctx, userID, c.CourseID); err != nil {
		return err
	}
	return s.Store.DeleteClass(ctx, classID)
}

// ModuleClasses lists one module's classes for anyone who can see the course.
func (s *CourseService) ModuleClasses(ctx context.Context, userID, moduleID string) ([]domain.Class, error) {
	m, err := s.Store.GetModule(ctx, moduleID)
	if err != nil {
		return nil, ErrCourseNotFound
	}
	if err := s.requireAccess(ctx, userID, m.CourseID); err != nil {
		return nil, err
	}
	return s.Store.ClassesByModule(ctx, moduleID), nil
}

func validateClass(in ClassInput) error {
	if err := requireTitle(in.Title); err != nil {
		return err
	}
	if in.Duration < 0 {
		return &ValidationError{Field: "duration", Message: "must not be negative"}
	}
	return nil
}
