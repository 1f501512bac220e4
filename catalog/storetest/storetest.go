// Package storetest holds the behavior every catalog.Store implementation must share.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skosovsky/fnguard"
	"github.com/skosovsky/fnguard/catalog"
	"github.com/skosovsky/fnguard/testutil"
)

// Run exercises a Store built fresh by newStore for every subtest.
func Run(t *testing.T, newStore func(t *testing.T) catalog.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("profile round trip", func(t *testing.T) {
		s := newStore(t)
		p := testutil.ValidProfile("demo", testutil.NewTool("lookup", nil, testutil.Props("q", "string")))
		p.Stop = []string{"\n"}
		require.NoError(t, s.UpsertProfile(ctx, *p))

		got, err := s.GetProfile(ctx, "demo")
		require.NoError(t, err)
		assert.Equal(t, "demo", got.Name)
		assert.Equal(t, fnguard.ModelGPT4, *got.Model)
		assert.Equal(t, []string{"\n"}, got.Stop)
		assert.Empty(t, got.Tools, "tools are kept as associations, not in the profile")

		p.Temperature = testutil.Float(1.5)
		require.NoError(t, s.UpsertProfile(ctx, *p))
		got, err = s.GetProfile(ctx, "demo")
		require.NoError(t, err)
		assert.Equal(t, 1.5, *got.Temperature)
	})

	t.Run("missing objects", func(t *testing.T) {
		s := newStore(t)
		_, err := s.GetProfile(ctx, "nope")
		require.ErrorIs(t, err, catalog.ErrNotFound)
		_, err = s.GetTool(ctx, "nope")
		require.ErrorIs(t, err, catalog.ErrNotFound)
		require.ErrorIs(t, s.DeleteProfile(ctx, "nope"), catalog.ErrNotFound)
		require.ErrorIs(t, s.DeleteTool(ctx, "nope"), catalog.ErrNotFound)
		_, err = s.ToolProfiles(ctx, "nope")
		require.ErrorIs(t, err, catalog.ErrNotFound)
		_, err = s.ProfileTools(ctx, "nope")
		require.ErrorIs(t, err, catalog.ErrNotFound)
		require.ErrorIs(t, s.RemoveAssociations(ctx, "nope", []string{"demo"}), catalog.ErrNotFound)
	})

	t.Run("listing is sorted", func(t *testing.T) {
		s := newStore(t)
		for _, name := range []string{"zeta", "alpha", "mid"} {
			require.NoError(t, s.UpsertProfile(ctx, *testutil.ValidProfile(name)))
			require.NoError(t, s.UpsertTool(ctx, testutil.NewTool(name, nil, nil)))
		}
		profiles, err := s.ListProfiles(ctx)
		require.NoError(t, err)
		require.Len(t, profiles, 3)
		assert.Equal(t, []string{"alpha", "mid", "zeta"}, []string{profiles[0].Name, profiles[1].Name, profiles[2].Name})

		tools, err := s.ListTools(ctx)
		require.NoError(t, err)
		require.Len(t, tools, 3)
		assert.Equal(t, "alpha", tools[0].Function.Name)
		assert.Equal(t, "zeta", tools[2].Function.Name)
	})

	t.Run("empty listing", func(t *testing.T) {
		s := newStore(t)
		profiles, err := s.ListProfiles(ctx)
		require.NoError(t, err)
		assert.Empty(t, profiles)
		tools, err := s.ListTools(ctx)
		require.NoError(t, err)
		assert.Empty(t, tools)
	})

	t.Run("tool keeps property order", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.UpsertTool(ctx, testutil.NewTool("order", []string{"z"}, testutil.Props("z", "int", "a", "date", "m", "char"))))
		got, err := s.GetTool(ctx, "order")
		require.NoError(t, err)
		var keys []string
		for pair := got.Function.Parameters.Properties.Oldest(); pair != nil; pair = pair.Next() {
			keys = append(keys, pair.Key)
		}
		assert.Equal(t, []string{"z", "a", "m"}, keys)
		assert.Equal(t, []string{"z"}, got.Function.Parameters.Required)
	})

	t.Run("associations", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.UpsertTool(ctx, testutil.NewTool("lookup", nil, nil)))
		require.NoError(t, s.UpsertTool(ctx, testutil.NewTool("book", nil, nil)))
		require.NoError(t, s.UpsertProfile(ctx, *testutil.ValidProfile("b")))
		require.NoError(t, s.UpsertProfile(ctx, *testutil.ValidProfile("a")))

		require.NoError(t, s.AddAssociations(ctx, "lookup", []string{"b", "a"}))
		require.NoError(t, s.AddAssociations(ctx, "lookup", []string{"a"}), "re-adding is a no-op")
		require.NoError(t, s.AddAssociations(ctx, "book", []string{"a"}))

		profiles, err := s.ToolProfiles(ctx, "lookup")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, profiles)

		tools, err := s.ProfileTools(ctx, "a")
		require.NoError(t, err)
		require.Len(t, tools, 2)
		assert.Equal(t, "book", tools[0].Function.Name)
		assert.Equal(t, "lookup", tools[1].Function.Name)

		require.NoError(t, s.RemoveAssociations(ctx, "lookup", []string{"a", "unknown"}))
		profiles, err = s.ToolProfiles(ctx, "lookup")
		require.NoError(t, err)
		assert.Equal(t, []string{"b"}, profiles)
	})

	t.Run("association with missing side writes nothing", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.UpsertTool(ctx, testutil.NewTool("lookup", nil, nil)))
		require.NoError(t, s.UpsertProfile(ctx, *testutil.ValidProfile("a")))

		require.ErrorIs(t, s.AddAssociations(ctx, "lookup", []string{"a", "ghost"}), catalog.ErrNotFound)
		require.ErrorIs(t, s.AddAssociations(ctx, "ghost", []string{"a"}), catalog.ErrNotFound)

		profiles, err := s.ToolProfiles(ctx, "lookup")
		require.NoError(t, err)
		assert.Empty(t, profiles)
	})

	t.Run("deletes cascade associations", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.UpsertTool(ctx, testutil.NewTool("lookup", nil, nil)))
		require.NoError(t, s.UpsertProfile(ctx, *testutil.ValidProfile("a")))
		require.NoError(t, s.UpsertProfile(ctx, *testutil.ValidProfile("b")))
		require.NoError(t, s.AddAssociations(ctx, "lookup", []string{"a", "b"}))

		require.NoError(t, s.DeleteProfile(ctx, "a"))
		profiles, err := s.ToolProfiles(ctx, "lookup")
		require.NoError(t, err)
		assert.Equal(t, []string{"b"}, profiles)

		require.NoError(t, s.DeleteTool(ctx, "lookup"))
		tools, err := s.ProfileTools(ctx, "b")
		require.NoError(t, err)
		assert.Empty(t, tools)

		require.NoError(t, s.UpsertTool(ctx, testutil.NewTool("lookup", nil, nil)))
		profiles, err = s.ToolProfiles(ctx, "lookup")
		require.NoError(t, err)
		assert.Empty(t, profiles, "a recreated tool starts without associations")
	})

	t.Run("returned values are copies", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.UpsertTool(ctx, testutil.NewTool("lookup", []string{"q"}, testutil.Props("q", "string"))))
		got, err := s.GetTool(ctx, "lookup")
		require.NoError(t, err)
		got.Function.Parameters.Required[0] = "changed"
		got.Function.Parameters.Properties.Set("extra", fnguard.PropertySchema{Type: fnguard.PropertyInt})

		again, err := s.GetTool(ctx, "lookup")
		require.NoError(t, err)
		assert.Equal(t, []string{"q"}, again.Function.Parameters.Required)
		assert.Equal(t, 1, again.Function.Parameters.Properties.Len())
	})
}
