package book

import "lobmm/internal/model"

// orderNode is one link in a PriceLevel's FIFO queue. It is the "stable
// handle into the level's queue, in place of the
// source's shared-pointer cycles: the level owns the node, the index
// borrows it, and removal by handle is O(1) regardless of queue depth.
type orderNode struct {
	order      model.Order
	prev, next *orderNode
}

// PriceLevel is an ordered queue of Orders at one price. It preserves
// insertion order and supports O(1) push-back, pop-front, and removal by
// handle via an internal doubly-linked list.
type PriceLevel struct {
	Price model.Price
	head  *orderNode
	tail  *orderNode
	count int
	// Total is the aggregate resting size at this level, maintained
	// incrementally so BestBid/BestAsk/Depth never need to walk the queue.
	Total model.Size
}

func newPriceLevel(price model.Price) *PriceLevel {
	return &PriceLevel{Price: price}
}

func (l *PriceLevel) empty() bool { return l.count == 0 }

// pushBack appends an order to the back of the queue and returns its handle.
func (l *PriceLevel) pushBack(o model.Order) *orderNode {
	n := &orderNode{order: o}
	if l.tail == nil {
		l.head, l.tail = n, n
	} else {
		n.prev = l.tail
		l.tail.next = n
		l.tail = n
	}
	l.count++
	l.Total += o.RemainingSize
	return n
}

// front returns the first node in the queue, or nil if empty.
func (l *PriceLevel) front() *orderNode { return l.head }

// remove detaches n from the queue. n must belong to this level.
func (l *PriceLevel) remove(n *orderNode) {
	l.Total -= n.order.RemainingSize
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
	n.prev, n.next = nil, nil
	l.count--
}

// reduce shrinks a resting order's remaining size by delta, keeping Total
// consistent. Caller is responsible for removing the node if it empties.
func (l *PriceLevel) reduce(n *orderNode, delta model.Size) {
	n.order.RemainingSize -= delta
	l.Total -= delta
}

// Orders returns the queue contents front-to-back, for snapshotting/tests.
// Not used on any matching hot path.
func (l *PriceLevel) Orders() []model.Order {
	out := make([]model.Order, 0, l.count)
	for n := l.head; n != nil; n = n.next {
		out = append(out, n.order)
	}
	return out
}
