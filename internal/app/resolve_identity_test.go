package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Amund211/riftlight/internal/adapters/cache"
	"github.com/Amund211/riftlight/internal/app"
	"github.com/Amund211/riftlight/internal/domain"
	"github.com/Amund211/riftlight/internal/executor"
	"github.com/stretchr/testify/require"
)

func immediateAfterFunc(time.Duration) <-chan time.Time {
	immediate := make(chan time.Time)
	close(immediate)
	return immediate
}

func newTestExecutor() *executor.Executor {
	return executor.New(executor.DefaultConcurrencyCap, executor.NewRetryPolicy(0, time.Millisecond, immediateAfterFunc))
}

func notFoundStatusError() error {
	return &executor.StatusError{
		StatusCode: 404,
		Err:        domain.ErrPlayerNotFound,
	}
}

type resolveAttempt struct {
	name   string
	suffix string

	identity domain.PlayerIdentity
	err      error
}

type mockAccountResolver struct {
	t *testing.T

	script []resolveAttempt
	next   int
}

func (m *mockAccountResolver) ResolveAccount(ctx context.Context, name string, suffix string) (domain.PlayerIdentity, error) {
	m.t.Helper()
	require.Less(m.t, m.next, len(m.script), "unexpected ResolveAccount call for %s#%s", name, suffix)

	attempt := m.script[m.next]
	m.next++

	require.Equal(m.t, attempt.name, name)
	require.Equal(m.t, attempt.suffix, suffix)

	return attempt.identity, attempt.err
}

func (m *mockAccountResolver) requireExhausted() {
	m.t.Helper()
	require.Equal(m.t, len(m.script), m.next, "expected all scripted attempts to be used")
}

func buildTestResolveIdentity(resolver *mockAccountResolver) app.ResolveIdentity {
	return app.BuildResolveIdentity(cache.NewBasicCache[domain.PlayerIdentity](), resolver, newTestExecutor())
}

func TestResolveIdentity(t *testing.T) {
	t.Parallel()

	ctx := t.Context()

	ashe := domain.PlayerIdentity{Name: "Ashe", Suffix: "NA1", StableID: "stable-ashe"}

	t.Run("explicit suffix resolves directly", func(t *testing.T) {
		t.Parallel()

		resolver := &mockAccountResolver{t: t, script: []resolveAttempt{
			{name: "Ashe", suffix: "NA1", identity: ashe},
		}}

		identity, err := buildTestResolveIdentity(resolver)(ctx, "Ashe#NA1", "NA1")
		require.NoError(t, err)
		require.Equal(t, ashe, identity)
		resolver.requireExhausted()
	})

	t.Run("explicit suffix adopts canonical casing", func(t *testing.T) {
		t.Parallel()

		resolver := &mockAccountResolver{t: t, script: []resolveAttempt{
			{name: "ashe", suffix: "na1", identity: ashe},
		}}

		identity, err := buildTestResolveIdentity(resolver)(ctx, "ashe#na1", "NA1")
		require.NoError(t, err)
		require.Equal(t, "Ashe", identity.Name)
		require.Equal(t, "NA1", identity.Suffix)
	})

	t.Run("explicit suffix not found fails without guessing", func(t *testing.T) {
		t.Parallel()

		resolver := &mockAccountResolver{t: t, script: []resolveAttempt{
			{name: "Ashe", suffix: "EUW", err: notFoundStatusError()},
		}}

		_, err := buildTestResolveIdentity(resolver)(ctx, "Ashe#EUW", "NA1")
		require.ErrorIs(t, err, domain.ErrPlayerNotFound)
		resolver.requireExhausted()

		exhausted := &app.SuffixesExhaustedError{}
		require.NotErrorAs(t, err, &exhausted)
	})

	t.Run("guessing tries candidates in order and stops at success", func(t *testing.T) {
		t.Parallel()

		asheNA := domain.PlayerIdentity{Name: "Ashe", Suffix: "NA", StableID: "stable-ashe"}
		resolver := &mockAccountResolver{t: t, script: []resolveAttempt{
			{name: "Ashe", suffix: "NA1", err: notFoundStatusError()},
			{name: "Ashe", suffix: "NA", identity: asheNA},
		}}

		identity, err := buildTestResolveIdentity(resolver)(ctx, "Ashe", "NA1")
		require.NoError(t, err)
		require.Equal(t, asheNA, identity)
		require.Equal(t, "Ashe#NA", identity.CompoundName())
		resolver.requireExhausted()
	})

	t.Run("guessing aborts on unrelated errors", func(t *testing.T) {
		t.Parallel()

		resolver := &mockAccountResolver{t: t, script: []resolveAttempt{
			{name: "Ashe", suffix: "NA1", err: notFoundStatusError()},
			{name: "Ashe", suffix: "NA", err: &executor.StatusError{
				StatusCode: 500,
				Err:        domain.ErrTemporarilyUnavailable,
			}},
		}}

		_, err := buildTestResolveIdentity(resolver)(ctx, "Ashe", "NA1")
		require.Error(t, err)
		require.NotErrorIs(t, err, domain.ErrPlayerNotFound)
		resolver.requireExhausted()
	})

	t.Run("guessing exhaustion lists tried combinations", func(t *testing.T) {
		t.Parallel()

		resolver := &mockAccountResolver{t: t, script: []resolveAttempt{
			{name: "Ashe", suffix: "NA1", err: notFoundStatusError()},
			{name: "Ashe", suffix: "NA", err: notFoundStatusError()},
			{name: "Ashe", suffix: "001", err: notFoundStatusError()},
		}}

		_, err := buildTestResolveIdentity(resolver)(ctx, "Ashe", "NA1")
		require.ErrorIs(t, err, domain.ErrPlayerNotFound)
		resolver.requireExhausted()

		exhausted := &app.SuffixesExhaustedError{}
		require.ErrorAs(t, err, &exhausted)
		require.Equal(t, []string{"Ashe#NA1", "Ashe#NA", "Ashe#001"}, exhausted.Tried)
	})

	t.Run("unknown region falls back to region and stripped region", func(t *testing.T) {
		t.Parallel()

		resolver := &mockAccountResolver{t: t, script: []resolveAttempt{
			{name: "Ashe", suffix: "XX2", err: notFoundStatusError()},
			{name: "Ashe", suffix: "XX", err: notFoundStatusError()},
		}}

		_, err := buildTestResolveIdentity(resolver)(ctx, "Ashe", "XX2")
		require.ErrorIs(t, err, domain.ErrPlayerNotFound)
		resolver.requireExhausted()

		exhausted := &app.SuffixesExhaustedError{}
		require.ErrorAs(t, err, &exhausted)
		require.Equal(t, []string{"Ashe#XX2", "Ashe#XX"}, exhausted.Tried)
	})

	t.Run("malformed compound name is a client error", func(t *testing.T) {
		t.Parallel()

		resolver := &mockAccountResolver{t: t, script: nil}

		_, err := buildTestResolveIdentity(resolver)(ctx, "Ashe#", "NA1")
		require.ErrorIs(t, err, domain.ErrClientRequest)
		resolver.requireExhausted()
	})

	t.Run("empty name is a client error", func(t *testing.T) {
		t.Parallel()

		resolver := &mockAccountResolver{t: t, script: nil}

		_, err := buildTestResolveIdentity(resolver)(ctx, "", "NA1")
		require.ErrorIs(t, err, domain.ErrClientRequest)
		resolver.requireExhausted()
	})

	t.Run("second resolution is served from the cache", func(t *testing.T) {
		t.Parallel()

		resolver := &mockAccountResolver{t: t, script: []resolveAttempt{
			{name: "Ashe", suffix: "NA1", identity: ashe},
		}}
		resolveIdentity := buildTestResolveIdentity(resolver)

		identity, err := resolveIdentity(ctx, "Ashe", "NA1")
		require.NoError(t, err)
		require.Equal(t, ashe, identity)

		identity, err = resolveIdentity(ctx, "Ashe", "NA1")
		require.NoError(t, err)
		require.Equal(t, ashe, identity)
		resolver.requireExhausted()
	})

	t.Run("not found errors pass through the executor unretried", func(t *testing.T) {
		t.Parallel()

		resolver := &mockAccountResolver{t: t, script: []resolveAttempt{
			{name: "Ashe", suffix: "EUW", err: notFoundStatusError()},
		}}

		_, err := buildTestResolveIdentity(resolver)(ctx, "Ashe#EUW", "NA1")
		require.ErrorIs(t, err, domain.ErrPlayerNotFound)
		require.False(t, errors.Is(err, domain.ErrRetriesExhausted))
		resolver.requireExhausted()
	})
}
