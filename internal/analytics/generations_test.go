package analytics_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"linkbio/internal/analytics"
)

func TestGenerations(t *testing.T) {
	t.Run("newer request supersedes and cancels the older one", func(t *testing.T) {
		g := analytics.NewGenerations()

		ctx1, t1 := g.Begin(context.Background(), "viewer")
		assert.True(t, t1.Current())

		ctx2, t2 := g.Begin(context.Background(), "viewer")
		assert.False(t, t1.Current())
		assert.True(t, t2.Current())
		assert.ErrorIs(t, ctx1.Err(), context.Canceled)
		assert.NoError(t, ctx2.Err())

		t1.Done()
		assert.True(t, t2.Current())
		assert.Equal(t, 1, g.InFlight())

		t2.Done()
		assert.Equal(t, 0, g.InFlight())
		assert.ErrorIs(t, ctx2.Err(), context.Canceled)
	})

	t.Run("viewers do not interfere", func(t *testing.T) {
		g := analytics.NewGenerations()

		_, a := g.Begin(context.Background(), "a")
		_, b := g.Begin(context.Background(), "b")

		assert.True(t, a.Current())
		assert.True(t, b.Current())
		a.Done()
		b.Done()
	})

	t.Run("empty key is never superseded", func(t *testing.T) {
		g := analytics.NewGenerations()

		ctx, t1 := g.Begin(context.Background(), "")
		_, t2 := g.Begin(context.Background(), "")

		assert.True(t, t1.Current())
		assert.True(t, t2.Current())
		assert.NoError(t, ctx.Err())
		assert.Equal(t, 0, g.InFlight())
		t1.Done()
	})
}
