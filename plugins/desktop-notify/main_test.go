package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabfocus/internal/modules/focus/adapter/out/notifyrpc"
)

func TestShowReportsDelivery(t *testing.T) {
	var gotTitle, gotMessage string
	s := &server{appName: "tabfocus", notify: func(title, message string) error {
		gotTitle, gotMessage = title, message
		return nil
	}}

	resp, err := s.Show(context.Background(), &notifyrpc.ShowRequest{Title: "Focus Reminder", Message: "back to work"})
	require.NoError(t, err)
	assert.True(t, resp.Delivered)
	assert.Equal(t, "Focus Reminder", gotTitle)
	assert.Equal(t, "back to work", gotMessage)

	_, err = s.Show(context.Background(), &notifyrpc.ShowRequest{Message: "untitled"})
	require.NoError(t, err)
	assert.Equal(t, "tabfocus", gotTitle)
}

func TestShowReportsFailureInBand(t *testing.T) {
	s := &server{appName: "tabfocus", notify: func(string, string) error {
		return errors.New("no notification daemon")
	}}

	resp, err := s.Show(context.Background(), &notifyrpc.ShowRequest{Title: "t", Message: "m"})
	require.NoError(t, err)
	assert.False(t, resp.Delivered)
	assert.Equal(t, "no notification daemon", resp.Error)
}
