package cronmanager

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadJobs(t *testing.T) {
	runs := 0
	cm := NewCronManager(JobRegistry{
		"sessions_cleanup": {Func: func() { runs++ }, Schedule: "*/5 * * * *"},
		"assets_cleanup":   {Func: func() {}, Schedule: "0 3 * * *"},
	})

	require.NoError(t, cm.LoadJobs())
	assert.Equal(t, []string{"assets_cleanup", "sessions_cleanup"}, cm.Scheduled())

	cm.RemoveJob("assets_cleanup")
	assert.Equal(t, []string{"sessions_cleanup"}, cm.Scheduled())

	require.NoError(t, cm.RunNow("sessions_cleanup"))
	assert.Equal(t, 1, runs)
	assert.Error(t, cm.RunNow("missing"))
}

func TestLoadJobsBadSchedule(t *testing.T) {
	cm := NewCronManager(JobRegistry{
		"broken": {Func: func() {}, Schedule: "every day"},
		"ok":     {Func: func() {}, Schedule: "@hourly"},
	})

	assert.Error(t, cm.LoadJobs())
	assert.Equal(t, []string{"ok"}, cm.Scheduled())
}
