package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/learnhub/internal/mockapi/domain"
	"github.com/aussiebroadwan/learnhub/pkg/idx"
)

// Demo accounts created by Seed.
const (
	DemoPassword      = "learnhub-demo"
	DemoEducatorEmail = "educator@learnhub.dev"
	DemoStudentEmail  = "student@learnhub.dev"
)

// Seed loads two verified accounts and a small catalog. The educator owns
// every course; the student has bought the first one.
func Seed(ctx context.Context, b *Backend, logger *slog.Logger) error {
	hash, err := b.Auth.Hasher.Hash(DemoPassword)
	if err != nil {
		return fmt.Errorf("hash demo password: %w", err)
	}

	now := time.Now().UTC()
	educator := domain.User{
		ID:           idx.New().String(),
		Email:        DemoEducatorEmail,
		Name:         "Demo Educator",
		Role:         domain.RoleEducator,
		Bio:          "Teaches the demo courses.",
		PasswordHash: hash,
		Verified:     true,
		CreatedAt:    now,
	}
	student := domain.User{
		ID:           idx.New().String(),
		Email:        DemoStudentEmail,
		Name:         "Demo Student",
		Role:         domain.RoleStudent,
		PasswordHash: hash,
		Verified:     true,
		CreatedAt:    now,
	}
	for _, u := range []domain.User{educator, student} {
		if err := b.Store.CreateUser(ctx, u); err != nil {
			return fmt.Errorf("create %s: %w", u.Email, err)
		}
	}

	courses := []struct {
		title, category string
		price           int64
		modules         []string
	}{
		{"Go for Backend Engineers", "programming", 49900, []string{"Tooling", "Concurrency", "HTTP services"}},
		{"Practical SQL", "data", 29900, []string{"Queries", "Indexes"}},
		{"Design Systems 101", "design", 19900, nil},
	}

	var first string
	for i, c := range courses {
		course := domain.Course{
			ID:          idx.NewPrefixed("course").String(),
			Title:       c.title,
			Description: "A demo course about " + c.category + ".",
			Category:    c.category,
			Price:       c.price,
			EducatorID:  educator.ID,
			CreatedAt:   now.Add(-time.Duration(i) * time.Hour),
		}
		b.Store.PutCourse(ctx, course)
		if i == 0 {
			first = course.ID
		}

		for order, title := range c.modules {
			mod := domain.Module{
				ID:       idx.NewPrefixed("mod").String(),
				CourseID: course.ID,
				Title:    title,
				Order:    order + 1,
			}
			b.Store.PutModule(ctx, mod)
			b.Store.PutMaterial(ctx, domain.StudyMaterial{
				ID:       idx.NewPrefixed("mat").String(),
				ModuleID: mod.ID,
				Title:    title + " notes",
				URL:      "https://cdn.learnhub.dev/" + mod.ID + ".pdf",
				Kind:     "pdf",
			})
			b.Store.PutClass(ctx, domain.Class{
				ID:       idx.NewPrefixed("class").String(),
				CourseID: course.ID,
				ModuleID: mod.ID,
				Title:    title + " lecture",
				VideoURL: "https://cdn.learnhub.dev/" + mod.ID + ".mp4",
				Duration: 600,
			})
		}
	}

	b.Store.PutPurchase(ctx, domain.Purchase{
		UserID:    student.ID,
		CourseID:  first,
		OrderID:   idx.NewPrefixed("order").String(),
		PaymentID: idx.NewPrefixed("pay").String(),
		CreatedAt: now,
	})

	logger.Info("demo data seeded",
		"educator", DemoEducatorEmail,
		"student", DemoStudentEmail,
		"password", DemoPassword,
		"courses", len(courses),
	)
	return nil
}
