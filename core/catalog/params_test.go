package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunestat/tunestat/core/shared/errors"
)

func rangeQueryDef() *Definition {
	return &Definition{
		ID:        4,
		Name:      "song-count-by-year",
		Statement: "SELECT year, COUNT(*) AS song_count FROM songs WHERE year >= {{ inputs.from_year }} AND year <= {{ inputs.to_year }} GROUP BY year ORDER BY year ASC",
		Params: []ParamSpec{
			{Name: "from_year", Type: ParamInt},
			{Name: "to_year", Type: ParamInt},
		},
	}
}

func TestValidateParams(t *testing.T) {
	def := rangeQueryDef()

	validated, err := ValidateParams(def, map[string]any{"from_year": "1990", "to_year": 2000})
	require.NoError(t, err)
	assert.Equal(t, int64(1990), validated["from_year"])
	assert.Equal(t, int64(2000), validated["to_year"])
}

func TestValidateParamsFailures(t *testing.T) {
	def := rangeQueryDef()

	tests := []struct {
		name   string
		params map[string]any
	}{
		{"missing parameter", map[string]any{"from_year": 1990}},
		{"unknown parameter", map[string]any{"from_year": 1990, "to_year": 2000, "genre": "Rock"}},
		{"wrong type", map[string]any{"from_year": "nineteen-ninety", "to_year": 2000}},
		{"fractional int", map[string]any{"from_year": 1990.5, "to_year": 2000}},
		{"empty arg list", map[string]any{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateParams(def, tt.params)
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeParameterValidation, errors.CodeOf(err))
		})
	}
}

func TestPlaceholders(t *testing.T) {
	refs := Placeholders("SELECT * FROM songs WHERE genre = {{ inputs.genre }} AND year >= {{ inputs.from_year }} AND genre = {{ inputs.genre }}")
	assert.Equal(t, []string{"genre", "from_year"}, refs)
}

func TestCompileBindsInOccurrenceOrder(t *testing.T) {
	stmt, args, err := Compile(
		"SELECT * FROM songs WHERE year >= {{ inputs.from_year }} AND year <= {{ inputs.to_year }} ORDER BY year ASC",
		map[string]any{"from_year": int64(1990), "to_year": int64(2000)},
	)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM songs WHERE year >= ? AND year <= ? ORDER BY year ASC", stmt)
	assert.Equal(t, []any{int64(1990), int64(2000)}, args)
}

func TestCompileRepeatedPlaceholder(t *testing.T) {
	stmt, args, err := Compile(
		"SELECT * FROM songs WHERE artist = {{ inputs.artist }} OR title = {{ inputs.artist }} ORDER BY title ASC",
		map[string]any{"artist": "Nina Simone"},
	)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM songs WHERE artist = ? OR title = ? ORDER BY title ASC", stmt)
	assert.Equal(t, []any{"Nina Simone", "Nina Simone"}, args)
}

func TestCompileMissingValue(t *testing.T) {
	_, _, err := Compile("SELECT * FROM songs WHERE genre = {{ inputs.genre }}", map[string]any{})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeParameterValidation, errors.CodeOf(err))
}
