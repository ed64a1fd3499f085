package learnsdk

import (
	"context"
	"net/http"
	"net/url"
)

// Catalog reads public course listings. No access gate applies.
type Catalog struct {
	sm *SessionManager
}

func NewCatalog(sm *SessionManager) *Catalog {
	return &Catalog{sm: sm}
}

func (c *Catalog) ListCourses(ctx context.Context) ([]Course, error) {
	return c.list(ctx, "courses.list", "/courses/all", nil)
}

func (c *Catalog) GetCourse(ctx context.Context, id string) (Course, error) {
	var resp dataResponse[Course]
	err := c.sm.Do(ctx, &Request{
		Op:        "courses.get",
		Method:    http.MethodGet,
		Path:      "/courses/single/" + url.PathEscape(id),
		Anonymous: true,
	}, &resp)
	return resp.Data, err
}

func (c *Catalog) SearchCourses(ctx context.Context, query string) ([]Course, error) {
	return c.list(ctx, "courses.search", "/courses/search", url.Values{"query": {query}})
}

func (c *Catalog) CoursesByEducator(ctx context.Context, educatorID string) ([]Course, error) {
	return c.list(ctx, "courses.byEducator", "/courses/educator/"+url.PathEscape(educatorID), nil)
}

func (c *Catalog) list(ctx context.Context, op, path string, q url.Values) ([]Course, error) {
	var resp dataResponse[[]Course]
	err := c.sm.Do(ctx, &Request{
		Op:        op,
		Method:    http.MethodGet,
		Path:      path,
		Query:     q,
		Anonymous: true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}
