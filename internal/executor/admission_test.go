package executor

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAdmissionState_EnterLeave(t *testing.T) {
	a := newAdmissionState(2, defaultMinLimit)
	require.Equal(t, uint32(2), a.loadLimit())
	require.Zero(t, a.loadInFlight())

	a.enter()
	a.enter()
	require.Equal(t, uint32(2), a.loadInFlight())

	a.leave()
	require.Equal(t, uint32(1), a.loadInFlight())
}

func TestAdmissionState_EnterLeaveUnderContention(t *testing.T) {
	a := newAdmissionState(1, defaultMinLimit)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.enter()
			a.leave()
		}()
	}
	wg.Wait()

	require.Zero(t, a.loadInFlight())
}

func TestAdmissionState_Double(t *testing.T) {
	a := newAdmissionState(2, defaultMinLimit)
	a.double()
	require.Equal(t, uint32(4), a.loadLimit())

	a.double()
	require.Equal(t, uint32(8), a.loadLimit())
}

func TestAdmissionState_DoubleSaturatesOnOverflow(t *testing.T) {
	a := newAdmissionState(^uint32(0)/2+2, defaultMinLimit)
	a.double()
	require.Equal(t, ^uint32(0), a.loadLimit())
}

func TestAdmissionState_DecrementClampsAtFloor(t *testing.T) {
	a := newAdmissionState(2, defaultMinLimit)
	a.decrement()
	require.Equal(t, uint32(1), a.loadLimit())

	a.decrement()
	require.Equal(t, uint32(defaultMinLimit), a.loadLimit())

	a.decrement()
	require.Equal(t, uint32(defaultMinLimit), a.loadLimit())
}
