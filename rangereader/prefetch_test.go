package rangereader

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPrefetchPlanner_SkipsBelowDupRatio(t *testing.T) {
	p := NewPrefetchPlanner(10, 0.5)

	p.Observe(PayloadRef{Offset: 0, Length: 10}, true)
	for i := 0; i < 9; i++ {
		p.Observe(PayloadRef{Offset: int64(i * 100), Length: 10}, false)
	}

	require.Nil(t, p.Plan(1024))
}

func TestPrefetchPlanner_PlansAboveDupRatio(t *testing.T) {
	p := NewPrefetchPlanner(10, 0.25)

	p.Observe(PayloadRef{Offset: 0, Length: 10}, true)
	p.Observe(PayloadRef{Offset: 5, Length: 10}, true)
	p.Observe(PayloadRef{Offset: 1000, Length: 10}, false)

	plan := p.Plan(1024)
	require.NotEmpty(t, plan)
	require.Equal(t, int64(0), plan[0].Start)
}

func TestPrefetchPlanner_RespectsCap(t *testing.T) {
	p := NewPrefetchPlanner(2, 0)

	for i := 0; i < 5; i++ {
		p.Observe(PayloadRef{Offset: int64(i * 10000), Length: 10}, true)
	}

	plan := p.Plan(0)
	require.LessOrEqual(t, len(plan), 2)
}

func TestPrefetchPlanner_NoObservationsReturnsNil(t *testing.T) {
	p := NewPrefetchPlanner(0, 0)
	require.Nil(t, p.Plan(1024))
}
