package learnsdk

import (
	"context"
	"net/http"
	"net/url"
)

type Reviews struct {
	sm *SessionManager
}

func NewReviews(sm *SessionManager) *Reviews {
	return &Reviews{sm: sm}
}

// CourseReviews is public.
func (r *Reviews) CourseReviews(ctx context.Context, courseID string) ([]Review, error) {
	var resp dataResponse[[]Review]
	err := r.sm.Do(ctx, &Request{
		Op:        "reviews.list",
		Method:    http.MethodGet,
		Path:      "/reviews/" + url.PathEscape(courseID),
		Anonymous: true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

type reviewBody struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// CreateReview posts a review as the signed-in user. The backend only
// accepts reviews from users with access to the course.
func (r *Reviews) CreateReview(ctx context.Context, courseID string, rating int, comment string) (Review, error) {
	var resp dataResponse[Review]
	err := r.sm.Do(ctx, &Request{
		Op:     "reviews.create",
		Method: http.MethodPost,
		Path:   "/reviews/" + url.PathEscape(courseID),
		Body:   reviewBody{Rating: rating, Comment: comment},
	}, &resp)
	return resp.Data, err
}
