package learnsdk

import (
	"context"
	"net/http"
)

// GetProfile returns the signed-in user's profile from the users service.
func (m *SessionManager) GetProfile(ctx context.Context) (*User, error) {
	var resp dataResponse[*User]
	if err := m.Do(ctx, &Request{Op: "users.profile", Method: http.MethodGet, Path: "/users/getprofile"}, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// UpdateProfile changes the given fields and refreshes the cached session user.
func (m *SessionManager) UpdateProfile(ctx context.Context, upd ProfileUpdate) (*User, error) {
	var resp dataResponse[*User]
	err := m.Do(ctx, &Request{
		Op:     "users.updateProfile",
		Method: http.MethodPut,
		Path:   "/users/updateprofile",
		Body:   upd,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if _, err := m.ValidateSession(ctx); err != nil {
		m.log.Warn("revalidate after profile update", "err", err)
	}
	return resp.Data, nil
}

// EducatorRegistration is the form completed after OTP verification when the
// account signed up as an educator.
type EducatorRegistration struct {
	Bio       string   `json:"bio"`
	Expertise []string `json:"expertise"`
}

// RegisterEducator upgrades the signed-in account to an educator. The cached
// session is revalidated so ownership checks see the new role.
func (m *SessionManager) RegisterEducator(ctx context.Context, reg EducatorRegistration) (Session, error) {
	err := m.Do(ctx, &Request{
		Op:     "educator.register",
		Method: http.MethodPost,
		Path:   "/educator/register",
		Body:   reg,
	}, nil)
	if err != nil {
		return Session{}, err
	}
	return m.ValidateSession(ctx)
}
