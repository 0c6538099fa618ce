// Package match holds the matchmaking queue: connection ids awaiting a
// partner, in insertion order (first waiter, first served), with an O(1)
// membership index. Like the registry it is a plain structure mutated only
// under the hub's mutex.
package match

// Queue is an insertion-ordered set of connection ids.
type Queue struct {
	order   []string
	present map[string]struct{}
}

// NewQueue returns an empty queue.
func NewQueue() *Queue { return &Queue{present: make(map[string]struct{})} }

// Push appends id unless it is already queued. Reports whether it was added.
func (q *Queue) Push(id string) bool {
	if _, ok := q.present[id]; ok {
		return false
	}
	q.order = append(q.order, id)
	q.present[id] = struct{}{}
	return true
}

// Pop removes and returns the oldest id. ok is false on an empty queue.
func (q *Queue) Pop() (id string, ok bool) {
	if len(q.order) == 0 {
		return "", false
	}
	id = q.order[0]
	q.order = q.order[1:]
	delete(q.present, id)
	return id, true
}

// PushFront re-inserts id at the head of the queue, preserving its priority
// when a pairing attempt pops it without finding a partner. No-op when the
// id is already queued.
func (q *Queue) PushFront(id string) bool {
	if _, ok := q.present[id]; ok {
		return false
	}
	q.order = append([]string{id}, q.order...)
	q.present[id] = struct{}{}
	return true
}

// Remove deletes id from the queue wherever it sits.
func (q *Queue) Remove(id string) {
	if _, ok := q.present[id]; !ok {
		return
	}
	delete(q.present, id)
	for i, v := range q.order {
		if v == id {
			q.order = append(q.order[:i], q.order[i+1:]...)
			break
		}
	}
}

// Contains reports queue membership.
func (q *Queue) Contains(id string) bool {
	_, ok := q.present[id]
	return ok
}

// Len returns the number of waiting ids.
func (q *Queue) Len() int { return len(q.order) }
