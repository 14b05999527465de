package types

import "sync"

// collectionPool recycles Collection slices for callers on a hot allocation
// path (the evaluator's per-step results); Get/Put around a temporary
// Collection to avoid a fresh allocation each time.
var collectionPool = sync.Pool{
	New: func() interface{} {
		c := make(Collection, 0, 4)
		return &c
	},
}

// GetCollection borrows a zero-length Collection from the pool.
func GetCollection() *Collection {
	return collectionPool.Get().(*Collection)
}

// PutCollection returns c to the pool, truncating it to length 0 first.
// A nil c is a no-op.
func PutCollection(c *Collection) {
	if c == nil {
		return
	}
	*c = (*c)[:0]
	collectionPool.Put(c)
}

// NewCollectionWithCap preallocates a Collection of the given capacity, for
// callers that know their result size up front.
func NewCollectionWithCap(capacity int) Collection {
	return make(Collection, 0, capacity)
}

// SingletonCollection wraps a single Value as a one-element Collection.
func SingletonCollection(v Value) Collection {
	return Collection{v}
}

// EmptyCollection is a shared, never-mutated empty collection.
var EmptyCollection = Collection{}

// The two Boolean values FHIRPath ever produces are interned once so
// GetBoolean and the True/FalseCollection singletons below never allocate.
var (
	internedTrue  = Boolean{value: true}
	internedFalse = Boolean{value: false}

	TrueCollection  = Collection{internedTrue}
	FalseCollection = Collection{internedFalse}
)

// GetBoolean returns the interned Boolean for b.
func GetBoolean(b bool) Boolean {
	if b {
		return internedTrue
	}
	return internedFalse
}

// smallIntegers interns Integer values in [-128, 127] - small offsets and
// counts dominate FHIRPath arithmetic (index(), count(), year deltas), so
// this avoids an allocation for the common case.
var smallIntegers [256]Integer

func init() {
	for i := range smallIntegers {
		smallIntegers[i] = Integer{value: int64(i - 128)}
	}
}

// GetInteger returns an interned Integer for n in [-128, 127], or a freshly
// allocated one otherwise.
func GetInteger(n int64) Integer {
	if n >= -128 && n <= 127 {
		return smallIntegers[n+128]
	}
	return Integer{value: n}
}
