package sim

// interceptsAtAdmission reports whether a node of type t classifies a request
// of type rt at admission instead of giving it a processing slot.
func interceptsAtAdmission(t NodeType, rt RequestType) bool {
	return t == NodeEntryFilter && rt == RequestFraud
}

// admit moves queued requests into free processing slots in FIFO order.
// Intercepted requests never occupy a slot and are returned to the caller.
func (n *Node) admit() (intercepted []*Request) {
	for len(n.processing) < n.Capacity && n.queue.Len() > 0 {
		req := n.queue.Dequeue()
		if interceptsAtAdmission(n.Type, req.Type) {
			intercepted = append(intercepted, req)
			continue
		}
		req.State = StateProcessing
		n.processing = append(n.processing, job{req: req})
	}
	return intercepted
}
