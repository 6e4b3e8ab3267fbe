package allocator

// Policy selects the placement strategy used to choose a gap for a new
// block within a pool's free space.
type Policy int

const (
	// LinearFit always places the new block immediately after the last
	// block in the pool, ignoring any gaps left by earlier frees.
	LinearFit Policy = iota
	// FirstFit places the new block in the first gap encountered that is
	// large enough.
	FirstFit
	// BestFit places the new block in the smallest gap that is still
	// large enough, minimizing leftover fragmentation.
	BestFit
	// WorstFit places the new block in the largest available gap.
	WorstFit
)

func (p Policy) String() string {
	switch p {
	case LinearFit:
		return "linear"
	case FirstFit:
		return "first-fit"
	case BestFit:
		return "best-fit"
	case WorstFit:
		return "worst-fit"
	default:
		return "unknown"
	}
}

const (
	// DefaultPoolCount is the number of pools eagerly allocated when the
	// first call to Allocate lazily initializes the global map.
	DefaultPoolCount uint64 = 0
	// DefaultPoolSize is the byte size of each eagerly allocated pool, and
	// the floor used when a dynamically grown pool must be sized to fit a
	// single oversized request.
	DefaultPoolSize uint64 = 8 * 1024
	// DefaultPolicy is the placement policy returned by DefaultParams.
	// The zero value of Params selects LinearFit instead.
	DefaultPolicy = BestFit
	// DefaultDynamic controls whether the map may grow new pools on
	// demand in the Params returned by DefaultParams. The zero value of
	// Params is not dynamic.
	DefaultDynamic = true
)

// Params configures a Map: which placement policy it searches with, and
// whether it may allocate additional pools from the OS once its existing
// pools are exhausted.
type Params struct {
	Policy    Policy
	IsDynamic bool
}

// DefaultParams returns the Params used when the global map is
// lazily initialized by the first call to Allocate.
func DefaultParams() Params {
	return Params{Policy: DefaultPolicy, IsDynamic: DefaultDynamic}
}
