package idx_test

import (
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/learnhub/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestNewAndParse(t *testing.T) {
	id := idx.New()
	require.False(t, id.IsZero())

	parsed, err := idx.Parse(id.String())
	require.NoError(t, err)
	require.Equal(t, id, parsed)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := idx.Parse("")
	require.ErrorIs(t, err, idx.ErrInvalid)

	_, err = idx.Parse("not-a-ulid")
	require.ErrorIs(t, err, idx.ErrInvalid)
}

func TestPrefixed(t *testing.T) {
	id := idx.NewPrefixed("order")
	require.True(t, strings.HasPrefix(id.String(), "order_"))

	parsed, err := idx.ParsePrefixed("order", id.String())
	require.NoError(t, err)
	require.Equal(t, id, parsed)

	// Wrong prefix is rejected even though the ULID part is fine
	_, err = idx.ParsePrefixed("pay", id.String())
	require.ErrorIs(t, err, idx.ErrInvalid)
}

func TestTimeExtraction(t *testing.T) {
	tm := time.Unix(1700000000, 0).UTC()
	id := idx.NewAt(tm)
	require.WithinDuration(t, tm, id.Time(), time.Millisecond)

	require.True(t, idx.ID("order_garbage").Time().IsZero())
}

func TestOrdering(t *testing.T) {
	a := idx.NewAt(time.Unix(1, 0).UTC())
	b := idx.NewAt(time.Unix(2, 0).UTC())
	require.Less(t, a.String(), b.String())
}
