package nav

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueDrainOrder(t *testing.T) {
	q := newRequestQueue(0)
	q.push(&Request{EntityID: "c", Priority: 1})
	q.push(&Request{EntityID: "a", Priority: 1})
	q.push(&Request{EntityID: "z", Priority: 5})
	q.push(&Request{EntityID: "b", Priority: 1})

	got := q.popN(4)
	require.Len(t, got, 4)
	assert.Equal(t, "z", got[0].EntityID, "highest priority first")
	assert.Equal(t, "a", got[1].EntityID)
	assert.Equal(t, "b", got[2].EntityID)
	assert.Equal(t, "c", got[3].EntityID)
}

func TestQueuePopNPartial(t *testing.T) {
	q := newRequestQueue(0)
	for i := 0; i < 5; i++ {
		q.push(&Request{EntityID: fmt.Sprintf("e%d", i)})
	}

	got := q.popN(3)
	assert.Len(t, got, 3)
	assert.Equal(t, 2, q.len())

	got = q.popN(10)
	assert.Len(t, got, 2)
	assert.Zero(t, q.len())
}

func TestQueueBoundedDropsWorst(t *testing.T) {
	q := newRequestQueue(3)
	require.Nil(t, q.push(&Request{EntityID: "a", Priority: 3}))
	require.Nil(t, q.push(&Request{EntityID: "b", Priority: 1}))
	require.Nil(t, q.push(&Request{EntityID: "c", Priority: 2}))

	dropped := q.push(&Request{EntityID: "d", Priority: 2})
	require.NotNil(t, dropped)
	assert.Equal(t, "b", dropped.EntityID, "lowest priority request is shed")
	assert.Equal(t, 3, q.len())

	// The incoming request itself is the worst: it is the one shed.
	dropped = q.push(&Request{EntityID: "e", Priority: 0})
	require.NotNil(t, dropped)
	assert.Equal(t, "e", dropped.EntityID)
	assert.Equal(t, 3, q.len())
}

// 150 requests against a budget of 100: exactly the top hundred by
// (priority desc, entity ID asc) resolve on the first tick, the remaining
// fifty on the second, regardless of arrival order.
func TestSchedulerOverloadDeterminism(t *testing.T) {
	rows := openMap(10)
	sx, sz := cellCenterWorld(rows, 4, 0, 0)
	ex, ez := cellCenterWorld(rows, 4, 9, 9)

	type spec struct {
		entity   string
		priority int
	}
	specs := make([]spec, 150)
	for i := range specs {
		specs[i] = spec{entity: fmt.Sprintf("unit-%03d", i), priority: i % 3}
	}

	run := func(seed int64) ([]string, []string) {
		svc, rec := newTestService(t, rows, WithoutCache())

		shuffled := make([]spec, len(specs))
		copy(shuffled, specs)
		rng := rand.New(rand.NewSource(seed))
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		for _, sp := range shuffled {
			svc.RequestPath(sp.entity, sx, sz, ex, ez, sp.priority)
		}
		require.Equal(t, 150, svc.QueueLen())

		svc.Tick()
		require.Len(t, rec.deliveries, 100, "exactly maxPerTick requests resolve")
		require.Equal(t, 50, svc.QueueLen())

		firstTick := make([]string, 0, 100)
		for _, d := range rec.deliveries {
			firstTick = append(firstTick, d.entity)
		}

		svc.Tick()
		require.Len(t, rec.deliveries, 150)
		require.Zero(t, svc.QueueLen())

		secondTick := make([]string, 0, 50)
		for _, d := range rec.deliveries[100:] {
			secondTick = append(secondTick, d.entity)
		}
		return firstTick, secondTick
	}

	first1, second1 := run(7)
	first2, second2 := run(99)

	assert.Equal(t, first1, first2, "drain order must not depend on arrival order")
	assert.Equal(t, second1, second2)

	// Priorities 2 then 1 cover the first hundred, each block in entity order.
	assert.Equal(t, "unit-002", first1[0])
	for i := 1; i < 50; i++ {
		assert.Equal(t, 2, priorityOf(t, first1[i-1]))
	}
	assert.Equal(t, 2, priorityOf(t, first1[49]))
	assert.Equal(t, 1, priorityOf(t, first1[50]))
	assert.Equal(t, 0, priorityOf(t, second1[0]))
}

func priorityOf(t *testing.T, entity string) int {
	t.Helper()
	var n int
	_, err := fmt.Sscanf(entity, "unit-%03d", &n)
	require.NoError(t, err)
	return n % 3
}
