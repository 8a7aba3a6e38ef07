package executor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSystemClock_MonotonicallyNonDecreasing(t *testing.T) {
	a := SystemClock()
	time.Sleep(time.Millisecond)
	b := SystemClock()

	require.GreaterOrEqual(t, b, a)
}
