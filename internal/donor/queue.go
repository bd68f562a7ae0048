package donor

import (
	"container/heap"
	"time"
)

type grant struct {
	playerID int64
	due      time.Time
	seq      uint64
}

// delayQueue is a min-heap of grants ordered by due time, then insertion.
type delayQueue []grant

func (q delayQueue) Len() int { return len(q) }

func (q delayQueue) Less(i, j int) bool {
	if q[i].due.Equal(q[j].due) {
		return q[i].seq < q[j].seq
	}
	return q[i].due.Before(q[j].due)
}

func (q delayQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *delayQueue) Push(x any) { *q = append(*q, x.(grant)) }

func (q *delayQueue) Pop() any {
	old := *q
	n := len(old)
	g := old[n-1]
	*q = old[:n-1]
	return g
}

// popDue removes and returns every grant due at or before now.
func (q *delayQueue) popDue(now time.Time) []grant {
	var due []grant
	for q.Len() > 0 && !(*q)[0].due.After(now) {
		due = append(due, heap.Pop(q).(grant))
	}
	return due
}

// next reports the earliest due time.
func (q delayQueue) next() (time.Time, bool) {
	if len(q) == 0 {
		return time.Time{}, false
	}
	return q[0].due, true
}
