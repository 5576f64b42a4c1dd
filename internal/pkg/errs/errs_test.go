//go:build unit

package errs_test

import (
	"errors"
	"testing"

	"villa-booking/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
)

var (
	errFirst  = errs.Define("first", errs.ErrValidation)
	errSecond = errs.Define("second", errs.ErrValidation)
	errRemote = errs.Define("remote failed", errs.ErrProvider)
)

func TestDefine(t *testing.T) {
	t.Run("sentinels match their category", func(t *testing.T) {
		assert.ErrorIs(t, errFirst, errs.ErrValidation)
		assert.Equal(t, errs.ErrValidation, errs.Category(errFirst))
		assert.Equal(t, "first", errFirst.Error())
	})

	t.Run("sentinels of one category stay distinct", func(t *testing.T) {
		assert.False(t, errs.Is(errFirst, errSecond))
		assert.False(t, errs.Is(errSecond, errFirst))
		assert.NotErrorIs(t, errFirst, errSecond)
	})

	t.Run("wrapping keeps identity and category", func(t *testing.T) {
		err := errs.Wrap(errFirst, "while doing work")
		assert.ErrorIs(t, err, errFirst)
		assert.Equal(t, errs.ErrValidation, errs.Category(err))
	})
}

func TestMark(t *testing.T) {
	t.Run("marked errors match the sentinel and its category", func(t *testing.T) {
		err := errs.Mark(errs.Wrap(errors.New("connection reset"), "call remote"), errRemote)

		assert.True(t, errs.Is(err, errRemote))
		assert.Equal(t, errs.ErrProvider, errs.Category(err))
		assert.False(t, errs.Is(err, errFirst))
	})

	t.Run("marking a categorised error adds the second category", func(t *testing.T) {
		err := errs.Mark(errFirst, errRemote)
		assert.True(t, errs.Is(err, errFirst))
		assert.True(t, errs.Is(err, errRemote))
	})

	t.Run("nil error yields the mark", func(t *testing.T) {
		assert.Equal(t, errRemote, errs.Mark(nil, errRemote))
	})

	t.Run("uncategorised errors", func(t *testing.T) {
		assert.Nil(t, errs.Category(errors.New("boom")))
	})
}
