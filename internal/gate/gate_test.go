package gate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/gatebot/internal/store"
)

const owner int64 = 1000

type nopBackend struct{ saved store.Snapshot }

func (b *nopBackend) Load(context.Context) (store.Snapshot, error) { return store.Snapshot{}, nil }
func (b *nopBackend) Save(_ context.Context, s store.Snapshot) error {
	b.saved = s
	return nil
}
func (b *nopBackend) Close() error { return nil }

func newMachine(t *testing.T) (*Machine, *store.Store, *nopBackend) {
	t.Helper()
	b := &nopBackend{}
	st := store.Open(context.Background(), b)
	return New(st, owner), st, b
}

func TestCheckCreatesUnverified(t *testing.T) {
	m, st, _ := newMachine(t)
	ctx := context.Background()

	assert.False(t, m.Check(ctx, 1))
	rec, ok := st.Get(1)
	require.True(t, ok)
	assert.Equal(t, store.Record{}, rec)
	assert.Equal(t, Unverified, m.State(1))
}

func TestOwnerExempt(t *testing.T) {
	m, st, _ := newMachine(t)
	assert.True(t, m.IsOwner(owner))
	assert.True(t, m.Check(context.Background(), owner))
	_, ok := st.Get(owner)
	assert.False(t, ok)

	noOwner := New(st, 0)
	assert.False(t, noOwner.IsOwner(0))
}

func TestHappyPath(t *testing.T) {
	m, _, b := newMachine(t)
	ctx := context.Background()

	st, err := m.GetLink(ctx, 5, 5)
	require.NoError(t, err)
	assert.Equal(t, LinkViewed, st)
	assert.Equal(t, store.Record{ClickedLink: true}, b.saved["5"])

	st, err = m.ConfirmSubscribed(ctx, 5, 5)
	require.NoError(t, err)
	assert.Equal(t, Verified, st)
	assert.Equal(t, store.Record{Allowed: true, ClickedLink: true}, b.saved["5"])
	assert.True(t, m.Check(ctx, 5))
}

func TestConfirmBeforeLinkIsOrderViolation(t *testing.T) {
	m, st, b := newMachine(t)
	ctx := context.Background()
	m.Check(ctx, 6)

	state, err := m.ConfirmSubscribed(ctx, 6, 6)
	assert.ErrorIs(t, err, ErrOrderViolation)
	assert.Equal(t, Unverified, state)
	rec, _ := st.Get(6)
	assert.Equal(t, store.Record{}, rec)
	assert.Nil(t, b.saved)
}

func TestUnauthorizedNeverMutates(t *testing.T) {
	m, st, b := newMachine(t)
	ctx := context.Background()

	_, err := m.GetLink(ctx, 1, 2)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = m.ConfirmSubscribed(ctx, 1, 2)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, ok := st.Get(2)
	assert.False(t, ok)
	_, ok = st.Get(1)
	assert.False(t, ok)
	assert.Nil(t, b.saved)

	// the owner cannot drive someone else's gate either
	_, err = m.GetLink(ctx, owner, 2)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestTransitionsAreMonotonic(t *testing.T) {
	m, _, _ := newMachine(t)
	ctx := context.Background()

	steps := []func() (State, error){
		func() (State, error) { return m.GetLink(ctx, 9, 9) },
		func() (State, error) { return m.ConfirmSubscribed(ctx, 9, 9) },
		func() (State, error) { return m.GetLink(ctx, 9, 9) },
		func() (State, error) { return m.ConfirmSubscribed(ctx, 9, 9) },
		func() (State, error) { return m.GetLink(ctx, 9, 9) },
	}
	prev := m.State(9)
	for i, step := range steps {
		st, err := step()
		require.NoError(t, err, "step %d", i)
		assert.GreaterOrEqual(t, st, prev, "step %d regressed", i)
		prev = st
	}
	assert.Equal(t, Verified, prev)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "unverified", Unverified.String())
	assert.Equal(t, "link_viewed", LinkViewed.String())
	assert.Equal(t, "verified", Verified.String())
	assert.Equal(t, "unknown", State(7).String())
}
