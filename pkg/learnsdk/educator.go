package learnsdk

import (
	"context"
	"net/http"
	"net/url"
)

// Educator manages the signed-in educator's own courses. Every write is
// preceded by an ownership check through the AccessGate, and a caller who
// did not author the course gets ErrForbidden without the write being sent.
// Module, material and class ids are resolved inside the named course so an
// owned course cannot be used to reach into another one.
type Educator struct {
	sm      *SessionManager
	gate    *AccessGate
	content *Content
}

func NewEducator(sm *SessionManager, gate *AccessGate) *Educator {
	return &Educator{sm: sm, gate: gate, content: NewContent(sm, gate)}
}

// ============================================================================
// Courses
// ============================================================================

// CreateCourse publishes a new course authored by the signed-in educator.
func (e *Educator) CreateCourse(ctx context.Context, in CourseInput) (Course, error) {
	sess := e.sm.Current()
	if sess.User == nil || !sess.User.IsEducator {
		return Course{}, &AuthError{Kind: KindForbidden, Op: "courses.create", Message: "only educators can create courses"}
	}

	var resp dataResponse[Course]
	err := e.sm.Do(ctx, &Request{
		Op:     "courses.create",
		Method: http.MethodPost,
		Path:   "/courses/create",
		Body:   in,
	}, &resp)
	return resp.Data, err
}

func (e *Educator) UpdateCourse(ctx context.Context, courseID string, in CourseInput) (Course, error) {
	if err := e.requireOwner(ctx, "courses.update", courseID); err != nil {
		return Course{}, err
	}

	var resp dataResponse[Course]
	err := e.sm.Do(ctx, &Request{
		Op:     "courses.update",
		Method: http.MethodPut,
		Path:   "/courses/update/" + url.PathEscape(courseID),
		Body:   in,
	}, &resp)
	return resp.Data, err
}

// DeleteCourse removes the course and forgets any cached decision for it.
func (e *Educator) DeleteCourse(ctx context.Context, courseID string) error {
	if err := e.requireOwner(ctx, "courses.delete", courseID); err != nil {
		return err
	}

	err := e.sm.Do(ctx, &Request{
		Op:     "courses.delete",
		Method: http.MethodDelete,
		Path:   "/courses/delete/" + url.PathEscape(courseID),
	}, nil)
	if err != nil {
		return err
	}
	e.gate.Invalidate(courseID)
	return nil
}

// ============================================================================
// Modules
// ============================================================================

func (e *Educator) CreateModule(ctx context.Context, courseID string, in ModuleInput) (Module, error) {
	if err := e.requireOwner(ctx, "content.createModule", courseID); err != nil {
		return Module{}, err
	}

	var resp dataResponse[Module]
	err := e.sm.Do(ctx, &Request{
		Op:     "content.createModule",
		Method: http.MethodPost,
		Path:   "/content/createModule",
		Body:   CreateModuleBody{CourseID: courseID, ModuleInput: in},
	}, &resp)
	return resp.Data, err
}

func (e *Educator) UpdateModule(ctx context.Context, courseID, moduleID string, in ModuleInput) (Module, error) {
	if err := e.requireModule(ctx, "content.updateModule", courseID, moduleID); err != nil {
		return Module{}, err
	}

	var resp dataResponse[Module]
	err := e.sm.Do(ctx, &Request{
		Op:     "content.updateModule",
		Method: http.MethodPut,
		Path:   "/content/updateModule/" + url.PathEscape(moduleID),
		Body:   in,
	}, &resp)
	return resp.Data, err
}

// DeleteModule removes the module with its materials and classes.
func (e *Educator) DeleteModule(ctx context.Context, courseID, moduleID string) error {
	if err := e.requireModule(ctx, "content.deleteModule", courseID, moduleID); err != nil {
		return err
	}

	return e.sm.Do(ctx, &Request{
		Op:     "content.deleteModule",
		Method: http.MethodDelete,
		Path:   "/content/module/" + url.PathEscape(moduleID),
	}, nil)
}

// ============================================================================
// Study materials
// ============================================================================

func (e *Educator) UploadStudyMaterial(ctx context.Context, courseID, moduleID string, in MaterialInput) (StudyMaterial, error) {
	if err := e.requireModule(ctx, "content.uploadMaterial", courseID, moduleID); err != nil {
		return StudyMaterial{}, err
	}

	var resp dataResponse[StudyMaterial]
	err := e.sm.Do(ctx, &Request{
		Op:     "content.uploadMaterial",
		Method: http.MethodPost,
		Path:   "/content/uploadStudyMaterial",
		Body:   UploadMaterialBody{ModuleID: moduleID, MaterialData: in},
	}, &resp)
	return resp.Data, err
}

func (e *Educator) UpdateStudyMaterial(ctx context.Context, courseID, moduleID, materialID string, in MaterialInput) (StudyMaterial, error) {
	if err := e.requireMaterial(ctx, "content.updateMaterial", courseID, moduleID, materialID); err != nil {
		return StudyMaterial{}, err
	}

	var resp dataResponse[StudyMaterial]
	err := e.sm.Do(ctx, &Request{
		Op:     "content.updateMaterial",
		Method: http.MethodPut,
		Path:   "/content/updateStudymaterial/" + url.PathEscape(materialID),
		Body:   in,
	}, &resp)
	return resp.Data, err
}

func (e *Educator) DeleteStudyMaterial(ctx context.Context, courseID, moduleID, materialID string) error {
	if err := e.requireMaterial(ctx, "content.deleteMaterial", courseID, moduleID, materialID); err != nil {
		return err
	}

	return e.sm.Do(ctx, &Request{
		Op:     "content.deleteMaterial",
		Method: http.MethodDelete,
		Path:   "/content/deleteStudyMaterial/" + url.PathEscape(materialID),
	}, nil)
}

// ============================================================================
// Classes
// ============================================================================

func (e *Educator) CreateClass(ctx context.Context, courseID, moduleID string, in ClassInput) (Class, error) {
	if err := e.requireModule(ctx, "content.createClass", courseID, moduleID); err != nil {
		return Class{}, err
	}

	var resp dataResponse[Class]
	err := e.sm.Do(ctx, &Request{
		Op:     "content.createClass",
		Method: http.MethodPost,
		Path:   "/content/" + url.PathEscape(moduleID),
		Body:   in,
	}, &resp)
	return resp.Data, err
}

func (e *Educator) UpdateClass(ctx context.Context, courseID, classID string, in ClassInput) (Class, error) {
	if err := e.requireClass(ctx, "content.updateClass", courseID, classID); err != nil {
		return Class{}, err
	}

	var resp dataResponse[Class]
	err := e.sm.Do(ctx, &Request{
		Op:     "content.updateClass",
		Method: http.MethodPut,
		Path:   "/content/class/" + url.PathEscape(classID),
		Body:   in,
	}, &resp)
	return resp.Data, err
}

func (e *Educator) DeleteClass(ctx context.Context, courseID, classID string) error {
	if err := e.requireClass(ctx, "content.deleteClass", courseID, classID); err != nil {
		return err
	}

	return e.sm.Do(ctx, &Request{
		Op:     "content.deleteClass",
		Method: http.MethodDelete,
		Path:   "/content/deleteClass/" + url.PathEscape(classID),
	}, nil)
}

// ============================================================================
// Ownership checks
// ============================================================================

func (e *Educator) requireOwner(ctx context.Context, op, courseID string) error {
	owner, err := e.gate.CheckOwnership(ctx, courseID)
	if err != nil {
		return err
	}
	if !owner {
		return &AuthError{Kind: KindForbidden, Op: op, Message: "not the owner of course " + courseID}
	}
	return nil
}

func (e *Educator) requireModule(ctx context.Context, op, courseID, moduleID string) error {
	if err := e.requireOwner(ctx, op, courseID); err != nil {
		return err
	}
	_, err := e.content.moduleOf(ctx, courseID, moduleID)
	return err
}

func (e *Educator) requireMaterial(ctx context.Context, op, courseID, moduleID, materialID string) error {
	if err := e.requireOwner(ctx, op, courseID); err != nil {
		return err
	}
	mats, err := e.content.ListStudyMaterials(ctx, courseID, moduleID)
	if err != nil {
		return err
	}
	for _, m := range mats {
		if m.ID == materialID {
			return nil
		}
	}
	return &AuthError{Kind: KindForbidden, Op: op, Message: "material " + materialID + " is not part of module " + moduleID}
}

func (e *Educator) requireClass(ctx context.Context, op, courseID, classID string) error {
	if err := e.requireOwner(ctx, op, courseID); err != nil {
		return err
	}
	classes, err := e.content.ListClasses(ctx, courseID)
	if err != nil {
		return err
	}
	for _, c := range classes {
		if c.ID == classID {
			return nil
		}
	}
	return &AuthError{Kind: KindForbidden, Op: op, Message: "class " + classID + " is not part of course " + courseID}
}
