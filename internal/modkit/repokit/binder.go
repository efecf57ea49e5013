package repokit

// Binder builds a repo over a Queryer; the ledger binds once per transaction
type Binder[T any] interface {
	Bind(Queryer) T
}

// BindFunc adapts a constructor such as func(Queryer) *queries
type BindFunc[T any] func(Queryer) T

// Bind implements Binder
func (f BindFunc[T]) Bind(q Queryer) T { return f(q) }

// MustBind is Bind that rejects a nil Queryer; that only happens when a TxRunner is miswired
func MustBind[T any](b Binder[T], q Queryer) T {
	if q == nil {
		panic("repokit: bind on nil Queryer")
	}
	return b.Bind(q)
}
