package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/diarydesk/diarydesk/internal/app"
	_ "github.com/diarydesk/diarydesk/testing"
)

func TestWorkerReturnsInTestMode(t *testing.T) {
	app.RefreshTestMode()
	assert.True(t, app.InTestMode())
	assert.NotPanics(t, main)
}
