/*
Package learnsdk provides a client SDK for the LearnHub course marketplace API.

# Overview

The learnsdk package owns the token lifecycle of a LearnHub client: it stores
the access/refresh pair, attaches the bearer token to outgoing calls, refreshes
it when the backend answers 401 and decides whether the signed-in user may see
a course's protected content.

# SessionManager

A SessionManager is the single writer of the TokenStore and the only holder of
the current Session:

	sm, err := learnsdk.NewSessionManager(learnsdk.Config{
		BaseURL:          "https://api.learnhub.example",
		OnSessionExpired: func() { fmt.Println("please sign in again") },
	})

	// Resume a stored session on startup
	sess, err := sm.Init(ctx)

	// Or authenticate
	sess, err = sm.Login(ctx, email, password)

Signup is a two step flow. A pending account is created and a one-time code is
mailed; VerifyOTP exchanges the code for tokens and reports what to do next:

	err := sm.Signup(ctx, learnsdk.SignupRequest{Name: name, Email: email, Password: pw, AsEducator: true})
	res, err := sm.VerifyOTP(ctx, email, code)
	if res.NextStep == learnsdk.StepEducatorRegistration {
		sess, err = sm.RegisterEducator(ctx, learnsdk.EducatorRegistration{Bio: bio})
	}

# Automatic Token Refresh

Every authenticated call goes through the manager's pipeline:

 1. The current access token is attached as a bearer token
 2. On 401, one refresh is performed, shared by every caller that hit the same 401
 3. The original request is replayed exactly once with the new token
 4. A failed refresh, or a 401 on the replay, clears the tokens and fires OnSessionExpired

Logging out, logging in or a session expiry bumps the session generation. A
refresh that completes after the generation moved on is discarded, so a slow
refresh can never resurrect a session that was already ended.

# Access Control

An AccessGate combines two checks: whether the user authored the course
(educators only) and whether they have a completed purchase. Any failure to
reach or understand the backend yields "no access":

	gate := learnsdk.NewAccessGate(sm)
	content := learnsdk.NewContent(sm, gate)

	// Returns an error matching ErrForbidden without calling the content API
	modules, err := content.ListModules(ctx, courseID)

Decisions are cached briefly per user, course and session generation. A
successful Checkout invalidates the course and asks the backend again; the
payment result itself is never treated as proof of access.

An Educator edits the signed-in educator's own courses. Each write is checked
with CheckOwnership first and refused locally for anyone else:

	educator := learnsdk.NewEducator(sm, gate)
	mod, err := educator.CreateModule(ctx, courseID, learnsdk.ModuleInput{Title: "Intro"})

# Error Handling

Session failures are *AuthError values and match the sentinels with errors.Is:

	if errors.Is(err, learnsdk.ErrSessionExpired) {
		// tokens are already cleared
	}

Other non-2xx responses are *APIError. A 403 also matches ErrForbidden.

# Thread Safety

SessionManager, AccessGate and the bundled stores are safe for concurrent use.
*/
package learnsdk
