package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryPumpRunsReadyInSubmitOrder(t *testing.T) {
	var jobs []func()
	pump := NewQueryPump(func(fn func()) { jobs = append(jobs, fn) })

	var got []int
	record := func(v int, err error) { got = append(got, v) }
	first := Submit(pump, func() (int, error) { return 1, nil }, record)
	second := Submit(pump, func() (int, error) { return 2, nil }, record)
	third := Submit(pump, func() (int, error) { return 3, nil }, record)

	assert.Zero(t, pump.ProcessReady())
	assert.Equal(t, 3, pump.Pending())
	assert.False(t, first.Ready())

	jobs[2]()
	jobs[0]()
	assert.True(t, third.Ready())
	assert.Equal(t, 2, pump.ProcessReady())
	assert.Equal(t, []int{1, 3}, got)
	assert.Equal(t, 1, pump.Pending())

	jobs[1]()
	assert.True(t, second.Ready())
	assert.Equal(t, 1, pump.ProcessReady())
	assert.Equal(t, []int{1, 3, 2}, got)
	assert.Zero(t, pump.Pending())
}

func TestQueryPumpNeverRunsCallbackInline(t *testing.T) {
	pump := NewQueryPump(SyncExecutor)

	ran := false
	fut := Submit(pump, func() (string, error) { return "", errors.New("timeout") },
		func(_ string, err error) {
			ran = true
			assert.EqualError(t, err, "timeout")
		})

	assert.True(t, fut.Ready())
	assert.False(t, ran)
	assert.Equal(t, 1, pump.ProcessReady())
	assert.True(t, ran)
}

func TestQueryPumpGoroutineExecutor(t *testing.T) {
	pump := NewQueryPump(nil)

	fut := Submit(pump, func() ([]uint64, error) { return []uint64{4, 2}, nil }, func([]uint64, error) {})
	ids, err := fut.Wait()
	require.NoError(t, err)
	assert.Equal(t, []uint64{4, 2}, ids)
	assert.Equal(t, 1, pump.ProcessReady())
}
