package nav

import "sort"

// Request is one queued path query. Consumed exactly once: serviced on some
// tick's drain, its result delivered, then discarded.
type Request struct {
	EntityID string
	StartX   float64
	StartZ   float64
	EndX     float64
	EndZ     float64
	Priority int

	cacheKey     string
	enqueuedTick uint64
}

// requestQueue buffers requests arriving faster than the per-tick service
// budget. Drain order is a total order over explicit keys — priority
// descending, then entity ID ascending — so two instances holding the same
// logical request set always service the same subset first.
type requestQueue struct {
	items  []*Request
	maxLen int
}

func newRequestQueue(maxLen int) *requestQueue {
	return &requestQueue{maxLen: maxLen}
}

// less is the drain order: higher priority first, lexicographically
// smaller entity ID first among equals.
func requestLess(a, b *Request) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	return a.EntityID < b.EntityID
}

// push appends a request. When the queue is full the request at the very
// back of the drain order (lowest priority, then highest entity ID) is
// dropped — possibly the incoming one — and returned to the caller.
func (q *requestQueue) push(r *Request) *Request {
	q.items = append(q.items, r)
	if q.maxLen <= 0 || len(q.items) <= q.maxLen {
		return nil
	}

	worst := 0
	for i := 1; i < len(q.items); i++ {
		if requestLess(q.items[worst], q.items[i]) {
			worst = i
		}
	}
	dropped := q.items[worst]
	q.items = append(q.items[:worst], q.items[worst+1:]...)
	return dropped
}

// popN sorts the queue into drain order and removes up to n requests from
// the front. The sort is stable over explicit keys; insertion order only
// ever matters for requests that compare fully equal.
func (q *requestQueue) popN(n int) []*Request {
	sort.SliceStable(q.items, func(i, j int) bool {
		return requestLess(q.items[i], q.items[j])
	})

	if n > len(q.items) {
		n = len(q.items)
	}
	out := q.items[:n:n]
	q.items = q.items[n:]
	return out
}

// len returns the number of waiting requests.
func (q *requestQueue) len() int { return len(q.items) }
