package queryparams

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/XavierBriggs/fortuna/services/replay-api/internal/apierrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_MissingRequiredReportedTogether(t *testing.T) {
	query := url.Values{}
	query.Set("limit", "10")

	_, err := Parse(query,
		Param{Name: "ids", Required: true, List: true},
		Param{Name: "names", Required: true, List: true},
		Param{Name: "limit", Kind: Int},
	)
	require.Error(t, err)

	apiErr, ok := apierrors.From(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode())
	assert.Equal(t, "Query parameters ids and names are required.", apiErr.Message)
}

func TestParse_EmptyValueCountsAsMissing(t *testing.T) {
	query := url.Values{"id": []string{"  "}}

	_, err := Parse(query, Param{Name: "id", Required: true})

	apiErr, ok := apierrors.From(err)
	require.True(t, ok)
	assert.Equal(t, "Query parameter id are required.", apiErr.Message)
}

func TestParse_InvalidFormat(t *testing.T) {
	query := url.Values{"limit": []string{"ten"}}

	_, err := Parse(query, Param{Name: "limit", Kind: Int, Tip: "must be an integer"})

	apiErr, ok := apierrors.From(err)
	require.True(t, ok)
	assert.Equal(t, apierrors.CodeInvalidQueryParamFormat, apiErr.Code)
	assert.Equal(t, "[ten] is in invalid format for Query parameter [limit] tip: must be an integer", apiErr.Message)
}

func TestParse_TypedValues(t *testing.T) {
	query := url.Values{
		"limit":   []string{"25"},
		"ratio":   []string{"0.5"},
		"private": []string{"true"},
		"date":    []string{"2019-03-01"},
		"names":   []string{"a", "b"},
	}

	values, err := Parse(query,
		Param{Name: "limit", Kind: Int},
		Param{Name: "ratio", Kind: Float},
		Param{Name: "private", Kind: Bool},
		Param{Name: "date", Kind: Date},
		Param{Name: "names", List: true},
		Param{Name: "offset", Kind: Int},
	)
	require.NoError(t, err)

	assert.Equal(t, 25, values.Int("limit", 0))
	assert.Equal(t, 0.5, values.Float("ratio", 0))
	assert.True(t, values.Bool("private", false))
	require.NotNil(t, values.Date("date"))
	assert.Equal(t, 2019, values.Date("date").Year())
	assert.Equal(t, []string{"a", "b"}, values.Strings("names"))
	assert.Equal(t, 7, values.Int("offset", 7))
	assert.False(t, values.Has("offset"))
}

func TestRequireSameLength(t *testing.T) {
	values, err := Parse(url.Values{
		"tag_names":        []string{"a", "b", "c"},
		"private_tag_keys": []string{"k"},
	},
		Param{Name: "tag_names", List: true},
		Param{Name: "private_tag_keys", List: true},
	)
	require.NoError(t, err)

	err = RequireSameLength(values, "tag_names", "private_tag_keys")
	apiErr, ok := apierrors.From(err)
	require.True(t, ok)
	assert.Equal(t, "Query parameter tag_names does not have the same number of elements as private_tag_keys: 3 != 1", apiErr.Message)

	values["private_tag_keys"] = []any{"k1", "k2", "k3"}
	assert.NoError(t, RequireSameLength(values, "tag_names", "private_tag_keys"))
}
