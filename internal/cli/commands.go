package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"strings"
	"text/tabwriter"

	"github.com/aussiebroadwan/learnhub/pkg/learnsdk"
)

// ============================================================================
// Account
// ============================================================================

func (c *CLI) signup(ctx context.Context, args []string) error {
	fs := newFlagSet(c, "signup")
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	educator := fs.Bool("educator", false, "continue into educator registration after verification")
	if err := fs.Parse(args); err != nil {
		return err
	}

	err := c.sm.Signup(ctx, learnsdk.SignupRequest{
		Name:       *name,
		Email:      *email,
		Password:   *password,
		AsEducator: *educator,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Verification code sent to %s. Run `learnhub verify -email %s -code CODE`.\n", *email, *email)
	return nil
}

func (c *CLI) verify(ctx context.Context, args []string) error {
	fs := newFlagSet(c, "verify")
	email := fs.String("email", "", "account email")
	code := fs.String("code", "", "one-time code from the verification mail")
	if err := fs.Parse(args); err != nil {
		return err
	}

	res, err := c.sm.VerifyOTP(ctx, *email, *code)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Verified. Signed in as %s.\n", describeUser(res.Session.User))
	if res.NextStep == learnsdk.StepEducatorRegistration {
		fmt.Fprintln(c.out, "Next: run `learnhub educator -bio BIO` to finish educator registration.")
	}
	return nil
}

func (c *CLI) educator(ctx context.Context, args []string) error {
	fs := newFlagSet(c, "educator")
	bio := fs.String("bio", "", "short biography shown on your courses")
	expertise := fs.String("expertise", "", "comma separated list of topics")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := c.requireSession(ctx); err != nil {
		return err
	}

	sess, err := c.sm.RegisterEducator(ctx, learnsdk.EducatorRegistration{
		Bio:       *bio,
		Expertise: splitList(*expertise),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Educator registration complete for %s.\n", describeUser(sess.User))
	return nil
}

func (c *CLI) login(ctx context.Context, args []string) error {
	fs := newFlagSet(c, "login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sess, err := c.sm.Login(ctx, *email, *password)
	if errors.Is(err, learnsdk.ErrInvalidCredentials) {
		return errors.New("invalid email or password")
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Signed in as %s.\n", describeUser(sess.User))
	return nil
}

func (c *CLI) logout(ctx context.Context, _ []string) error {
	if err := c.sm.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Signed out.")
	return nil
}

func (c *CLI) whoami(ctx context.Context, _ []string) error {
	sess, err := c.sm.Init(ctx)
	if err != nil {
		return err
	}
	if !sess.IsAuthenticated {
		fmt.Fprintln(c.out, "Not signed in.")
		return nil
	}
	fmt.Fprintln(c.out, describeUser(sess.User))
	return nil
}

func (c *CLI) profile(ctx context.Context, args []string) error {
	fs := newFlagSet(c, "profile")
	name := fs.String("name", "", "new display name")
	phone := fs.String("phone", "", "new phone number")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := c.requireSession(ctx); err != nil {
		return err
	}

	var upd learnsdk.ProfileUpdate
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			upd.Name = name
		case "phone":
			upd.Phone = phone
		}
	})

	var u *learnsdk.User
	var err error
	if upd == (learnsdk.ProfileUpdate{}) {
		u, err = c.sm.GetProfile(ctx)
	} else {
		u, err = c.sm.UpdateProfile(ctx, upd)
	}
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Name:\t%s\n", u.Name)
	fmt.Fprintf(w, "Email:\t%s\n", u.Email)
	fmt.Fprintf(w, "Phone:\t%s\n", u.Phone)
	fmt.Fprintf(w, "Role:\t%s\n", u.Role)
	return w.Flush()
}

// ============================================================================
// Catalog
// ============================================================================

func (c *CLI) courses(ctx context.Context, args []string) error {
	fs := newFlagSet(c, "courses")
	query := fs.String("q", "", "search title, description and category")
	educatorID := fs.String("educator", "", "only courses by this educator id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var (
		list []learnsdk.Course
		err  error
	)
	switch {
	case *educatorID != "":
		list, err = c.catalog.CoursesByEducator(ctx, *educatorID)
	case *query != "":
		list, err = c.catalog.SearchCourses(ctx, *query)
	default:
		list, err = c.catalog.ListCourses(ctx)
	}
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(c.out, "No courses found.")
		return nil
	}

	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tCATEGORY\tPRICE")
	for _, course := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", course.ID, course.Title, course.Category, formatPrice(course.Price))
	}
	return w.Flush()
}

func (c *CLI) listReviews(ctx context.Context, args []string) error {
	fs := newFlagSet(c, "reviews")
	if err := fs.Parse(args); err != nil {
		return err
	}
	courseID, err := courseArg(fs)
	if err != nil {
		return err
	}

	list, err := c.reviews.CourseReviews(ctx, courseID)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(c.out, "No reviews yet.")
		return nil
	}
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	for _, r := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\n", strings.Repeat("*", r.Rating), r.UserName, r.Comment)
	}
	return w.Flush()
}

func (c *CLI) review(ctx context.Context, args []string) error {
	fs := newFlagSet(c, "review")
	rating := fs.Int("rating", 0, "1 to 5")
	comment := fs.String("comment", "", "review text")
	if err := fs.Parse(args); err != nil {
		return err
	}
	courseID, err := courseArg(fs)
	if err != nil {
		return err
	}
	if _, err := c.requireSession(ctx); err != nil {
		return err
	}

	if _, err := c.reviews.CreateReview(ctx, courseID, *rating, *comment); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Review posted.")
	return nil
}

// ============================================================================
// Protected content
// ============================================================================

func (c *CLI) access(ctx context.Context, args []string) error {
	fs := newFlagSet(c, "access")
	if err := fs.Parse(args); err != nil {
		return err
	}
	courseID, err := courseArg(fs)
	if err != nil {
		return err
	}
	if _, err := c.requireSession(ctx); err != nil {
		return err
	}

	d, err := c.gate.Decide(ctx, courseID)
	if err != nil {
		return fmt.Errorf("could not check access, treating %s as locked: %w", courseID, err)
	}
	fmt.Fprintln(c.out, describeDecision(d))
	return nil
}

func (c *CLI) modules(ctx context.Context, args []string) error {
	fs := newFlagSet(c, "modules")
	if err := fs.Parse(args); err != nil {
		return err
	}
	courseID, err := courseArg(fs)
	if err != nil {
		return err
	}
	if _, err := c.requireSession(ctx); err != nil {
		return err
	}

	mods, err := c.content.ListModules(ctx, courseID)
	if err != nil {
		return lockedHint(courseID, err)
	}
	if len(mods) == 0 {
		fmt.Fprintln(c.out, "This course has no modules yet.")
		return nil
	}
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	for _, m := range mods {
		fmt.Fprintf(w, "%d.\t%s\t%s\n", m.Order, m.Title, m.ID)
	}
	return w.Flush()
}

func (c *CLI) classes(ctx context.Context, args []string) error {
	fs := newFlagSet(c, "classes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	courseID, err := courseArg(fs)
	if err != nil {
		return err
	}
	if _, err := c.requireSession(ctx); err != nil {
		return err
	}

	list, err := c.content.ListClasses(ctx, courseID)
	if err != nil {
		return lockedHint(courseID, err)
	}
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	for _, cl := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\n", cl.ID, cl.Title, cl.VideoURL)
	}
	return w.Flush()
}

// ============================================================================
// Checkout
// ============================================================================

func (c *CLI) buy(ctx context.Context, args []string) error {
	fs := newFlagSet(c, "buy")
	if err := fs.Parse(args); err != nil {
		return err
	}
	courseID, err := courseArg(fs)
	if err != nil {
		return err
	}
	if _, err := c.requireSession(ctx); err != nil {
		return err
	}

	course, err := c.catalog.GetCourse(ctx, courseID)
	if err != nil {
		return err
	}
	if d, err := c.gate.Decide(ctx, courseID); err == nil && d.Allowed() {
		fmt.Fprintf(c.out, "You already have access to %q.\n", course.Title)
		return nil
	}

	d, err := c.checkout.Purchase(ctx, courseID, course.Price)
	if errors.Is(err, learnsdk.ErrPaymentNotVerified) {
		return errors.New("payment could not be verified, you have not been charged for access")
	}
	if err != nil {
		return err
	}
	if !d.Allowed() {
		return fmt.Errorf("payment recorded but access to %s is not yet granted", courseID)
	}
	fmt.Fprintf(c.out, "Purchased %q for %s.\n", course.Title, formatPrice(course.Price))
	return nil
}

// gatewayProcessor pays through the backend's sandbox gateway instead of an
// interactive widget.
type gatewayProcessor struct {
	sm *learnsdk.SessionManager
}

func (p gatewayProcessor) Collect(ctx context.Context, order learnsdk.Order) (learnsdk.PaymentResult, error) {
	var res learnsdk.PaymentResult
	err := p.sm.Do(ctx, &learnsdk.Request{
		Op:        "gateway.pay",
		Method:    http.MethodPost,
		Path:      "/gateway/pay",
		Body:      map[string]string{"orderId": order.ID},
		Anonymous: true,
	}, &res)
	return res, err
}

// ============================================================================
// Formatting
// ============================================================================

func describeUser(u *learnsdk.User) string {
	if u == nil {
		return "unknown user"
	}
	return fmt.Sprintf("%s <%s> (%s)", u.Name, u.Email, u.Role)
}

func describeDecision(d learnsdk.AccessDecision) string {
	switch {
	case d.IsOwner:
		return "owner: you authored this course"
	case d.HasAccess:
		return "purchased: full access"
	default:
		return "locked: purchase the course with `learnhub buy`"
	}
}

func lockedHint(courseID string, err error) error {
	if errors.Is(err, learnsdk.ErrForbidden) {
		return fmt.Errorf("course %s is locked: run `learnhub buy %s`", courseID, courseID)
	}
	return err
}

// formatPrice renders minor units, e.g. 49900 -> "499.00".
func formatPrice(minor int64) string {
	return fmt.Sprintf("%d.%02d", minor/100, minor%100)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
