package main

import (
	"testing"

	"stock_portfolio_backend/scheduler"

	"github.com/stretchr/testify/assert"
)

func TestActiveSchedulerSeesLateRegistration(t *testing.T) {
	setScheduler(nil)
	t.Cleanup(func() { setScheduler(nil) })

	// Before background init completes there is nothing to stop
	assert.Nil(t, activeScheduler())

	// Shutdown must see a scheduler registered after startup
	s := scheduler.NewScheduler(nil, nil)
	setScheduler(s)
	assert.Same(t, s, activeScheduler())
}
