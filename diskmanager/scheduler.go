package diskmanager

import "storagekit/page"

// Request is a single-page read or write request. Done is signaled
// exactly once, with nil on success.
type Request struct {
	PageID  page.ID
	IsWrite bool
	Data    []byte
	Done    chan error
}

// Scheduler submits single-page requests against a Manager on a
// dedicated worker goroutine, decoupling the buffer pool from the
// backing file's I/O latency. Callers await completion on their own
// Request.Done channel; the scheduler never blocks a caller beyond
// handing the request off.
type Scheduler struct {
	mgr   *Manager
	queue chan *Request
	done  chan struct{}
}

// NewScheduler starts a worker goroutine that services requests against
// mgr until Stop is called.
func NewScheduler(mgr *Manager) *Scheduler {
	s := &Scheduler{
		mgr:   mgr,
		queue: make(chan *Request, 32),
		done:  make(chan struct{}),
	}
	go s.run()
	return s
}

// Schedule enqueues req for processing. req.Done must be a buffered or
// otherwise-drained channel of capacity at least 1.
func (s *Scheduler) Schedule(req *Request) {
	s.queue <- req
}

// NewRequest builds a Request with a ready-to-receive Done channel.
func NewRequest(id page.ID, isWrite bool, data []byte) *Request {
	return &Request{PageID: id, IsWrite: isWrite, Data: data, Done: make(chan error, 1)}
}

func (s *Scheduler) run() {
	for {
		select {
		case req := <-s.queue:
			s.serve(req)
		case <-s.done:
			return
		}
	}
}

func (s *Scheduler) serve(req *Request) {
	var err error
	if req.IsWrite {
		err = s.mgr.WritePage(req.PageID, req.Data)
	} else {
		err = s.mgr.ReadPage(req.PageID, req.Data)
	}
	req.Done <- err
}

// Stop shuts down the worker goroutine. Any requests still queued are
// dropped; callers awaiting their Done channel will block forever if
// they raced with Stop, so Stop should only be called once all
// submitted requests have completed.
func (s *Scheduler) Stop() {
	close(s.done)
}
