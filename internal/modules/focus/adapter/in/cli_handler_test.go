package in_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	focusin "tabfocus/internal/modules/focus/adapter/in"
	apperrors "tabfocus/internal/platform/errors"
)

func TestCLIHandlerToggleFocusMode(t *testing.T) {
	api := &fakeAPI{}
	h := focusin.NewCLIHandler(api)

	// fakeAPI always reports focus mode on, so a toggle turns it off.
	next, err := h.ToggleFocusMode(context.Background())
	require.NoError(t, err)
	assert.False(t, next)
	require.NotNil(t, api.enabledValue())
	assert.False(t, *api.enabledValue())
}

func TestCLIHandlerPassesErrorsThrough(t *testing.T) {
	h := focusin.NewCLIHandler(&fakeAPI{})

	err := h.SetAlertTime(context.Background(), 2)
	assert.ErrorIs(t, err, apperrors.ErrInvalidAlertTime)

	_, err = h.SelectTabs(context.Background(), []int{404})
	assert.ErrorIs(t, err, apperrors.ErrTabNotFound)
}
