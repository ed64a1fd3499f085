package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/learnhub/internal/mockapi/domain"
	"github.com/aussiebroadwan/learnhub/internal/mockapi/service"
	"github.com/aussiebroadwan/learnhub/internal/mockapi/store"
	"github.com/aussiebroadwan/learnhub/pkg/httpx"
	"github.com/aussiebroadwan/learnhub/pkg/learnsdk"
)

// Response bodies reuse the client SDK's exported types so both sides agree
// on the wire format.

type authResponse struct {
	httpx.Envelope
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type userResponse struct {
	httpx.Envelope
	User learnsdk.User `json:"user"`
}

type dataResponse[T any] struct {
	httpx.Envelope
	Data T `json:"data"`
}

type orderResponse struct {
	httpx.Envelope
	Order learnsdk.Order `json:"order"`
	Key   string         `json:"key"`
}

func ok[T any](data T) dataResponse[T] {
	return dataResponse[T]{Envelope: httpx.Envelope{Success: true}, Data: data}
}

func toUser(u domain.User) learnsdk.User {
	return learnsdk.User{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		Phone:      u.Phone,
		Pfp:        u.Pfp,
		Role:       u.Role,
		IsEducator: u.IsEducator(),
		IsAdmin:    u.IsAdmin(),
		Verified:   u.Verified,
	}
}

func toCourse(c domain.Course) learnsdk.Course {
	return learnsdk.Course{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Category:    c.Category,
		Price:       c.Price,
		EducatorID:  c.EducatorID,
		Thumbnail:   c.Thumbnail,
		CreatedAt:   c.CreatedAt,
	}
}

func toCourses(cs []domain.Course) []learnsdk.Course {
	out := make([]learnsdk.Course, 0, len(cs))
	for _, c := range cs {
		out = append(out, toCourse(c))
	}
	return out
}

func toModule(m domain.Module) learnsdk.Module {
	return learnsdk.Module{
		ID:          m.ID,
		CourseID:    m.CourseID,
		Title:       m.Title,
		Description: m.Description,
		Order:       m.Order,
	}
}

func toModules(ms []domain.Module) []learnsdk.Module {
	out := make([]learnsdk.Module, 0, len(ms))
	for _, m := range ms {
		out = append(out, toModule(m))
	}
	return out
}

func toMaterial(m domain.StudyMaterial) learnsdk.StudyMaterial {
	return learnsdk.StudyMaterial{ID: m.ID, ModuleID: m.ModuleID, Title: m.Title, URL: m.URL, Kind: m.Kind}
}

func toMaterials(ms []domain.StudyMaterial) []learnsdk.StudyMaterial {
	out := make([]learnsdk.StudyMaterial, 0, len(ms))
	for _, m := range ms {
		out = append(out, toMaterial(m))
	}
	return out
}

func toClass(c domain.Class) learnsdk.Class {
	return learnsdk.Class{
		ID:       c.ID,
		CourseID: c.CourseID,
		ModuleID: c.ModuleID,
		Title:    c.Title,
		VideoURL: c.VideoURL,
		Duration: c.Duration,
	}
}

func toClasses(cs []domain.Class) []learnsdk.Class {
	out := make([]learnsdk.Class, 0, len(cs))
	for _, c := range cs {
		out = append(out, toClass(c))
	}
	return out
}

func toReview(r domain.Review) learnsdk.Review {
	return learnsdk.Review{
		ID:        r.ID,
		CourseID:  r.CourseID,
		UserID:    r.UserID,
		UserName:  r.UserName,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
	}
}

func toReviews(rs []domain.Review) []learnsdk.Review {
	out := make([]learnsdk.Review, 0, len(rs))
	for _, r := range rs {
		out = append(out, toReview(r))
	}
	return out
}

// writeServiceError maps service and store errors onto status codes. Anything
// unrecognised is logged and reported as a 500.
func writeServiceError(w http.ResponseWriter, log *slog.Logger, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		httpx.WriteError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, service.ErrCourseNotFound), errors.Is(err, store.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, service.ErrNoModules):
		httpx.WriteError(w, http.StatusNotFound, "No modules found for this course")
	case errors.Is(err, service.ErrForbidden):
		httpx.WriteError(w, http.StatusForbidden, "You do not have access to this course")
	default:
		log.Error("request failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}
