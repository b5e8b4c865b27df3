package trampoline

// Callback is a queued invocation target. The receiver is the value the
// callback is bound to (it may be nil), and arg is a single opaque argument.
type Callback func(receiver, arg any)

// Settler is implemented by deferred computations (e.g. promises) that batch
// their reactions, and want them run through the engine's normal queue.
type Settler interface {
	// SettlePendingReactions runs every reaction that is waiting on the
	// receiver's settlement.
	SettlePendingReactions()
}

// EntryKind discriminates the variants of [Entry].
type EntryKind uint8

const (
	// EntryInvalid is the zero value, it is never queued.
	EntryInvalid EntryKind = iota
	// EntryCallback is a (callback, receiver, argument) triplet.
	EntryCallback
	// EntrySettlement is a request to run [Settler.SettlePendingReactions].
	EntrySettlement
)

// String returns a human-readable representation of the kind.
func (k EntryKind) String() string {
	switch k {
	case EntryCallback:
		return "Callback"
	case EntrySettlement:
		return "Settlement"
	default:
		return "Invalid"
	}
}

// Entry is a single queued task, either a callback or a settlement.
//
// The settlement target shares storage with the receiver, so an Entry is the
// same size regardless of variant.
type Entry struct {
	fn       Callback
	receiver any
	arg      any
	kind     EntryKind
}

func callbackEntry(fn Callback, receiver, arg any) Entry {
	return Entry{kind: EntryCallback, fn: fn, receiver: receiver, arg: arg}
}

func settlementEntry(target Settler) Entry {
	return Entry{kind: EntrySettlement, receiver: target}
}

// Kind reports which variant the entry is.
func (e Entry) Kind() EntryKind { return e.kind }

// Callback returns the callback, receiver and argument of a callback entry.
// The values are all nil for any other kind.
func (e Entry) Callback() (fn Callback, receiver, arg any) {
	if e.kind != EntryCallback {
		return nil, nil, nil
	}
	return e.fn, e.receiver, e.arg
}

// Settler returns the target of a settlement entry, or nil.
func (e Entry) Settler() Settler {
	if e.kind != EntrySettlement {
		return nil
	}
	return e.receiver.(Settler)
}

// run executes the entry.
func (e Entry) run() {
	switch e.kind {
	case EntryCallback:
		e.fn(e.receiver, e.arg)
	case EntrySettlement:
		e.receiver.(Settler).SettlePendingReactions()
	}
}
