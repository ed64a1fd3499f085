package idx

import (
	"crypto/rand"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

type ID string

// Zero represents the zero value ID, only meaningful as a placeholder.
const Zero ID = ""

// ErrInvalid reports a malformed ULID string or prefix.
var ErrInvalid = errors.New("idx: invalid id")

var (
	globalOnce sync.Once
	global     *generator
)

// generator hands out ULIDs from a monotonic source so ids minted within the
// same millisecond still sort in creation order.
type generator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func (g *generator) newAt(t time.Time) ulid.ULID {
	g.mu.Lock()
	defer g.mu.Unlock()

	return ulid.MustNew(ulid.Timestamp(t), g.entropy)
}

func initGlobal() {
	global = &generator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// New returns a new lexicographically sortable ULID-based ID.
func New() ID {
	return NewAt(time.Now().UTC())
}

// NewAt generates an ID at the provided time (UTC).
func NewAt(t time.Time) ID {
	globalOnce.Do(initGlobal)
	return ID(global.newAt(t).String())
}

// NewPrefixed returns an ID of the form "<prefix>_<ulid>", e.g. "order_01J...".
// Prefixed ids mirror the shape payment processors hand back for orders and
// payments, which keeps test fixtures readable.
func NewPrefixed(prefix string) ID {
	return ID(prefix + "_" + New().String())
}

// Parse validates a bare ULID string.
func Parse(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero, ErrInvalid
	}
	if _, err := ulid.ParseStrict(s); err != nil {
		return Zero, ErrInvalid
	}
	return ID(s), nil
}

// ParsePrefixed validates an id produced by NewPrefixed with the given prefix.
func ParsePrefixed(prefix, s string) (ID, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(s), prefix+"_")
	if !ok {
		return Zero, ErrInvalid
	}
	if _, err := Parse(rest); err != nil {
		return Zero, err
	}
	return ID(prefix + "_" + rest), nil
}

// IsZero reports whether id is the zero value.
func (id ID) IsZero() bool { return id == Zero }

// String returns the canonical string form.
func (id ID) String() string { return string(id) }

// Time extracts the embedded timestamp. Prefixed ids are supported; invalid
// ids yield the zero time.
func (id ID) Time() time.Time {
	s := id.String()
	if i := strings.LastIndexByte(s, '_'); i >= 0 {
		s = s[i+1:]
	}

	u, err := ulid.ParseStrict(s)
	if err != nil {
		return time.Time{}
	}
	return ulid.Time(u.Time())
}
