package learnsdk

import (
	"context"
	"errors"
	"net/http"
	"net/url"
)

// Content fetches protected course material. Every course-scoped read asks
// the AccessGate first and never reaches the backend when locked.
type Content struct {
	sm   *SessionManager
	gate *AccessGate
}

func NewContent(sm *SessionManager, gate *AccessGate) *Content {
	return &Content{sm: sm, gate: gate}
}

// ListModules returns the course's modules. A course without modules yields
// an empty slice, not an error.
func (c *Content) ListModules(ctx context.Context, courseID string) ([]Module, error) {
	if err := c.gate.Require(ctx, courseID); err != nil {
		return nil, err
	}

	var resp dataResponse[[]Module]
	err := c.sm.Do(ctx, &Request{
		Op:     "content.modules",
		Method: http.MethodGet,
		Path:   "/content/getAllModules/" + url.PathEscape(courseID),
	}, &resp)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return []Module{}, nil
		}
		return nil, err
	}
	if resp.Data == nil {
		return []Module{}, nil
	}
	return resp.Data, nil
}

// ListStudyMaterials returns a module's materials. The gate checks courseID
// and moduleID must be one of that course's modules.
func (c *Content) ListStudyMaterials(ctx context.Context, courseID, moduleID string) ([]StudyMaterial, error) {
	if _, err := c.moduleOf(ctx, courseID, moduleID); err != nil {
		return nil, err
	}

	var resp dataResponse[[]StudyMaterial]
	err := c.sm.Do(ctx, &Request{
		Op:     "content.materials",
		Method: http.MethodGet,
		Path:   "/content/getModuleStudyMaterials/" + url.PathEscape(moduleID),
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// ListModuleClasses returns the classes of one module of courseID.
func (c *Content) ListModuleClasses(ctx context.Context, courseID, moduleID string) ([]Class, error) {
	if _, err := c.moduleOf(ctx, courseID, moduleID); err != nil {
		return nil, err
	}

	var resp dataResponse[[]Class]
	err := c.sm.Do(ctx, &Request{
		Op:     "content.moduleClasses",
		Method: http.MethodGet,
		Path:   "/content/getModuleClasses/" + url.PathEscape(moduleID),
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// moduleOf resolves moduleID through the gated module listing of courseID,
// so a module id can never borrow another course's decision.
func (c *Content) moduleOf(ctx context.Context, courseID, moduleID string) (Module, error) {
	mods, err := c.ListModules(ctx, courseID)
	if err != nil {
		return Module{}, err
	}
	for _, m := range mods {
		if m.ID == moduleID {
			return m, nil
		}
	}
	return Module{}, &AuthError{Kind: KindForbidden, Op: "access", Message: "module " + moduleID + " is not part of course " + courseID}
}

func (c *Content) ListClasses(ctx context.Context, courseID string) ([]Class, error) {
	if err := c.gate.Require(ctx, courseID); err != nil {
		return nil, err
	}

	var resp dataResponse[[]Class]
	err := c.sm.Do(ctx, &Request{
		Op:     "content.classes",
		Method: http.MethodGet,
		Path:   "/content/getAllClassesOfCourse/" + url.PathEscape(courseID),
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

type videoProgressBody struct {
	ClassID  string  `json:"classId"`
	Progress float64 `json:"progress"`
}

// SaveVideoProgress records how far into a class video the user got (0-100).
func (c *Content) SaveVideoProgress(ctx context.Context, classID string, progress float64) error {
	return c.sm.Do(ctx, &Request{
		Op:     "content.videoProgress",
		Method: http.MethodPost,
		Path:   "/content/saveVideoProgress",
		Body:   videoProgressBody{ClassID: classID, Progress: progress},
	}, nil)
}
