// Implements the RequestQueue, which holds requests waiting at a node for a
// free processing slot. Requests are enqueued on arrival.

package sim

import (
	"fmt"
	"strings"
)

// RequestQueue is a FIFO queue of requests waiting to be admitted into processing.
type RequestQueue struct {
	queue []*Request
}

// Enqueue adds a request to the back of the queue.
func (q *RequestQueue) Enqueue(r *Request) {
	q.queue = append(q.queue, r)
}

func (q *RequestQueue) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, val := range q.queue {
		sb.WriteString(fmt.Sprint(val.ID))
		if i < len(q.queue)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}

// Len returns the number of requests in the queue.
func (q *RequestQueue) Len() int {
	return len(q.queue)
}

// Peek returns the request at the front of the queue without removing it.
// Returns nil if the queue is empty.
func (q *RequestQueue) Peek() *Request {
	if len(q.queue) == 0 {
		return nil
	}
	return q.queue[0]
}

// Dequeue removes and returns the request at the front of the queue.
// Returns nil if the queue is empty.
func (q *RequestQueue) Dequeue() *Request {
	if len(q.queue) == 0 {
		return nil
	}
	head := q.queue[0]
	q.queue[0] = nil
	q.queue = q.queue[1:]
	return head
}

// Items returns the queue contents in FIFO order.
// The returned slice is the queue's internal storage; callers MUST NOT modify it.
func (q *RequestQueue) Items() []*Request {
	return q.queue
}
