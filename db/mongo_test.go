package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestIndexModels(t *testing.T) {
	idx := indexModels()

	require.Contains(t, idx, "reviews")
	require.Contains(t, idx, "users")
	require.Contains(t, idx, "courses")
	require.Contains(t, idx, "blogs")

	author := idx["reviews"][0]
	assert.Equal(t, bson.D{
		{Key: "user_id", Value: 1},
		{Key: "subject_type", Value: 1},
		{Key: "subject_id", Value: 1},
	}, author.Keys)
	require.NotNil(t, author.Options.Unique)
	assert.True(t, *author.Options.Unique)
	assert.Equal(t, "uniq_author_subject", *author.Options.Name)

	for _, m := range idx["users"] {
		require.NotNil(t, m.Options.Unique)
		assert.True(t, *m.Options.Unique)
	}
}
