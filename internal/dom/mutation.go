package dom

import "slices"

// RecordType distinguishes structural records from attribute records.
type RecordType int

const (
	// ChildList records nodes added to or removed from Target.
	ChildList RecordType = iota
	// Attributes records an attribute change on Target.
	Attributes
)

func (t RecordType) String() string {
	switch t {
	case ChildList:
		return "childList"
	case Attributes:
		return "attributes"
	default:
		return "unknown"
	}
}

// MutationRecord describes one observed change.
type MutationRecord struct {
	Type    RecordType
	Target  *Node
	Added   []*Node
	Removed []*Node

	AttributeName      string
	AttributeNamespace string
	OldValue           NullString
}

// Subscription receives batches of records from a document.
type Subscription struct {
	doc     *Document
	fn      func([]MutationRecord)
	pending []MutationRecord
	closed  bool
}

// Observe subscribes fn to every mutation of the connected tree. fn is only
// called from Deliver. A nil fn makes a pull subscription: Deliver skips it
// and the owner collects its records with TakeRecords.
func (d *Document) Observe(fn func([]MutationRecord)) *Subscription {
	s := &Subscription{doc: d, fn: fn}
	d.subs = append(d.subs, s)
	return s
}

// Disconnect stops the subscription and drops undelivered records.
func (s *Subscription) Disconnect() {
	if s.closed {
		return
	}
	s.closed = true
	s.pending = nil
	s.doc.subs = slices.DeleteFunc(s.doc.subs, func(o *Subscription) bool { return o == s })
}

// TakeRecords returns and clears the undelivered records.
func (s *Subscription) TakeRecords() []MutationRecord {
	out := s.pending
	s.pending = nil
	return out
}

// Pending reports whether any subscription has undelivered records.
func (d *Document) Pending() bool {
	for _, s := range d.subs {
		if len(s.pending) > 0 {
			return true
		}
	}
	return false
}

// Deliver hands every subscription its accumulated records as one batch and
// reports whether anything was delivered. Records produced while a batch is
// being handled wait for the next Deliver.
func (d *Document) Deliver() bool {
	delivered := false
	for _, s := range slices.Clone(d.subs) {
		if s.closed || s.fn == nil || len(s.pending) == 0 {
			continue
		}
		batch := s.TakeRecords()
		delivered = true
		s.fn(batch)
	}
	return delivered
}

func (d *Document) record(r MutationRecord) {
	for _, s := range d.subs {
		s.pending = append(s.pending, r)
	}
}
