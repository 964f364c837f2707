package autosave

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aisa-it/pencraft/internal/pencraft/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDebouncer(save SaveFunc, opts ...Option) (*Debouncer, *utils.FakeClock) {
	clock := utils.NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	return NewDebouncer(save, append([]Option{WithClock(clock)}, opts...)...), clock
}

func TestDebounceBurst(t *testing.T) {
	saves := 0
	d, clock := newTestDebouncer(func(context.Context) error { saves++; return nil })

	for range 5 {
		d.Trigger()
		clock.Advance(4 * time.Second)
	}
	assert.Equal(t, 0, saves, "no save in the middle of a burst")
	assert.True(t, d.Pending())

	clock.Advance(time.Second)
	assert.Equal(t, 1, saves)
	assert.False(t, d.Pending())

	clock.Advance(time.Minute)
	assert.Equal(t, 1, saves)
}

func TestDebounceStatus(t *testing.T) {
	var statuses []Status
	fail := false
	d, clock := newTestDebouncer(func(context.Context) error {
		if fail {
			return errors.New("db down")
		}
		return nil
	}, WithStatus(func(s Status) { statuses = append(statuses, s) }))

	d.Trigger()
	clock.Advance(DefaultWindow)
	assert.Equal(t, []Status{StatusSaving, StatusSaved}, statuses)

	fail = true
	statuses = nil
	d.Trigger()
	clock.Advance(DefaultWindow)
	assert.Equal(t, []Status{StatusSaving, StatusFailed}, statuses)
}

func TestFlush(t *testing.T) {
	saves := 0
	d, clock := newTestDebouncer(func(context.Context) error { saves++; return nil }, WithWindow(time.Second))

	require.NoError(t, d.Flush(context.Background()))
	assert.Equal(t, 0, saves, "nothing pending")

	d.Trigger()
	require.NoError(t, d.Flush(context.Background()))
	assert.Equal(t, 1, saves)

	clock.Advance(time.Second)
	assert.Equal(t, 1, saves, "timer cancelled by flush")
}

func TestStop(t *testing.T) {
	saves := 0
	d, clock := newTestDebouncer(func(context.Context) error { saves++; return nil })

	d.Trigger()
	d.Stop()
	clock.Advance(DefaultWindow)
	d.Trigger()
	clock.Advance(DefaultWindow)

	assert.Equal(t, 0, saves)
	assert.Zero(t, clock.Pending())
}

func TestNothingToSave(t *testing.T) {
	var statuses []Status
	d, clock := newTestDebouncer(func(context.Context) error {
		return ErrNothingToSave
	}, WithStatus(func(s Status) { statuses = append(statuses, s) }))

	d.Trigger()
	clock.Advance(DefaultWindow)
	assert.Equal(t, []Status{StatusSaving, StatusIdle}, statuses)
	require.NoError(t, d.Flush(context.Background()))
}
