package schema_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abrachat/abrachat/schema"
)

type searchRequest struct {
	Search string `json:"search,omitempty" jsonschema:"title=search,description=Search term to filter by name or code."`
	Limit  int    `json:"limit,omitempty" jsonschema:"title=limit,description=Maximum number of results,default=50"`
}

type nestedRequest struct {
	Query searchRequest `json:"query" jsonschema:"title=query,description=The query."`
}

func Test_New(t *testing.T) {
	sc, err := schema.New(reflect.TypeOf(searchRequest{}))
	require.NoError(t, err)
	require.NotNil(t, sc.Parameters)

	assert.Equal(t, "object", sc.Parameters.Type)
	_, ok := sc.Parameters.Properties.Get("search")
	assert.True(t, ok)
	_, ok = sc.Parameters.Properties.Get("limit")
	assert.True(t, ok)

	// cached
	sc2, err := schema.New(reflect.TypeOf(searchRequest{}))
	require.NoError(t, err)
	assert.Same(t, sc, sc2)
}

func Test_New_ResolvesRefs(t *testing.T) {
	sc, err := schema.New(reflect.TypeOf(nestedRequest{}))
	require.NoError(t, err)

	prop, ok := sc.Parameters.Properties.Get("query")
	require.True(t, ok)
	assert.Empty(t, prop.Ref)
	require.NotNil(t, prop.Properties)
	_, ok = prop.Properties.Get("search")
	assert.True(t, ok)
}
