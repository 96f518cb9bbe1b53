package common

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumericRoundTrip(t *testing.T) {
	for _, v := range []uint64{0, 1, 200, math.MaxInt64, math.MaxUint64} {
		got, err := ParseNumeric(Numeric(v))
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}

	got, err := ParseNumeric(" 42.0 ")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), got)

	_, err = ParseNumeric("-1")
	assert.Error(t, err)
}

func TestPQErrorClassification(t *testing.T) {
	dup := fmt.Errorf("insert: %w", &pq.Error{Code: "23505"})
	assert.True(t, IsUniqueViolation(dup))
	assert.False(t, IsSerializationFailure(dup))

	assert.True(t, IsSerializationFailure(&pq.Error{Code: "40001"}))
	assert.True(t, IsSerializationFailure(&pq.Error{Code: "40P01"}))
	assert.False(t, IsUniqueViolation(errors.New("plain")))
}
