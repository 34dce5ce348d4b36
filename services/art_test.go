package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinishDate(t *testing.T) {
	today := date(2024, 6, 1)

	on, err := FinishDate(false, nil, today)
	require.NoError(t, err)
	assert.Nil(t, on)

	on, err = FinishDate(true, nil, today)
	require.NoError(t, err)
	require.NotNil(t, on)
	assert.True(t, on.Equal(today))

	given := date(2024, 3, 15)
	on, err = FinishDate(true, &given, today)
	require.NoError(t, err)
	assert.True(t, on.Equal(given))

	_, err = FinishDate(false, &given, today)
	assert.ErrorIs(t, err, ErrInvariant)
}
