// Package limits collects the fixed module-wide bounds that keep a
// compiled module and its execution cheap to represent inside a ZK circuit:
// caps on recursion depth, memory pages, table size, and value-stack
// height. These are constants, not configuration, because the circuit side
// of this project bakes them into fixed-size columns.
package limits

const (
	// MaxRecursionDepth bounds the call stack; exceeding it traps with
	// StackOverflow rather than growing unbounded.
	MaxRecursionDepth = 1024

	// MaxDataSegments bounds how many distinct data segments a module may
	// declare (active and passive combined).
	MaxDataSegments = 1024

	// BytesPerMemoryPage is WebAssembly's fixed page size, 64 KiB.
	BytesPerMemoryPage = 65536

	// MaxMemoryPages caps total memory growth to ~64 MiB. The original
	// carries a "more-max-pages" build variant raising this to 2048; this
	// port targets the default (not-more-max-pages) limit since nothing in
	// spec.md calls for the higher cap.
	MaxMemoryPages = 1024

	// MaxTableSize bounds the number of entries a single table may hold.
	MaxTableSize = 1024

	// MaxStackHeight bounds the simulated value-stack height the
	// translator will accept before StackAlloc's target would overflow
	// what the interpreter's value stack is sized for.
	MaxStackHeight = 4096

	// DefaultMemoryIndex is the only memory index rWASM recognizes; WASM's
	// multi-memory proposal is out of scope.
	DefaultMemoryIndex = 0
)
