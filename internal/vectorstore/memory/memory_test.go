package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfrag/internal/domain"
)

func entry(source string, page, index int, text string, vector []float32) domain.Entry {
	return domain.Entry{
		Chunk:  domain.Chunk{Source: source, Page: page, Index: index, Text: text},
		Vector: vector,
	}
}

func TestSearchOrdersNearestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Init(ctx, "test-model", 2))
	require.NoError(t, s.Append(ctx, []domain.Entry{
		entry("a.pdf", 1, 0, "east", []float32{1, 0}),
		entry("b.pdf", 2, 0, "north", []float32{0, 1}),
		entry("c.pdf", 3, 0, "northeast", []float32{1, 1}),
	}))

	results, err := s.Search(ctx, []float32{0, 1}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "b.pdf", results[0].Chunk.Source)
	assert.Equal(t, "c.pdf", results[1].Chunk.Source)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestSearchTiesKeepInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Init(ctx, "test-model", 2))
	// identical vectors, so scores tie exactly
	require.NoError(t, s.Append(ctx, []domain.Entry{
		entry("first.pdf", 1, 0, "one", []float32{1, 0}),
		entry("second.pdf", 1, 0, "two", []float32{1, 0}),
		entry("third.pdf", 1, 0, "three", []float32{1, 0}),
	}))

	for i := 0; i < 3; i++ {
		results, err := s.Search(ctx, []float32{1, 0}, 3)
		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, "first.pdf", results[0].Chunk.Source)
		assert.Equal(t, "second.pdf", results[1].Chunk.Source)
		assert.Equal(t, "third.pdf", results[2].Chunk.Source)
	}
}

func TestSearchReturnsFewerWhenStoreIsSmall(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Init(ctx, "test-model", 2))
	require.NoError(t, s.Append(ctx, []domain.Entry{
		entry("a.pdf", 1, 0, "only", []float32{1, 0}),
	}))

	results, err := s.Search(ctx, []float32{1, 0}, 4)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestUninitializedStoreErrors(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	_, err := s.Search(ctx, []float32{1, 0}, 4)
	assert.ErrorIs(t, err, domain.ErrStoreNotInitialized)

	_, err = s.Count(ctx)
	assert.ErrorIs(t, err, domain.ErrStoreNotInitialized)

	err = s.Append(ctx, []domain.Entry{entry("a.pdf", 1, 0, "x", []float32{1, 0})})
	assert.ErrorIs(t, err, domain.ErrStoreNotInitialized)
}

func TestAppendRejectsWrongDimension(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Init(ctx, "test-model", 3))
	err := s.Append(ctx, []domain.Entry{entry("a.pdf", 1, 0, "x", []float32{1, 0})})
	assert.Error(t, err)
}

func TestInitClearsAndRecordsModel(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Init(ctx, "model-one", 2))
	require.NoError(t, s.Append(ctx, []domain.Entry{entry("a.pdf", 1, 0, "x", []float32{1, 0})}))

	require.NoError(t, s.Init(ctx, "model-two", 2))
	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	model, err := s.Model(ctx)
	require.NoError(t, err)
	assert.Equal(t, "model-two", model)
}
