package client

import (
	"context"
	"errors"
	"sync"
)

// ScanState is the position of the scan-and-resolve flow.  A scan moves
// Idle → Scanning → Resolving → Found or NotFound → Idle; any transport
// failure during resolution drops straight back to Idle.
type ScanState int

const (
	StateIdle ScanState = iota
	StateScanning
	StateResolving
	StateFound
	StateNotFound
)

func (s ScanState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanning:
		return "scanning"
	case StateResolving:
		return "resolving"
	case StateFound:
		return "found"
	case StateNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Catalog is the slice of the API client the flow needs; tests provide
// in-memory implementations.
type Catalog interface {
	LookupProduct(ctx context.Context, barcode string) (*Product, error)
	CreateProduct(ctx context.Context, draft ProductDraft) (*Product, error)
}

var (
	// ErrScanInFlight rejects a decode while a lookup is resolving.  The
	// flow is single-flight: the in-flight lookup is never cancelled in
	// favor of a newer one.
	ErrScanInFlight = errors.New("a scan is already resolving")
	// ErrNotScanning rejects operations performed from the wrong state,
	// such as a decode before Begin or a submit without a NotFound.
	ErrNotScanning = errors.New("flow is not in the required state")
)

// ScanFlow is the per-scan state machine between the barcode decoder
// and the catalog.  The mutex is never held across a network call, so
// state queries stay responsive while a lookup resolves.
type ScanFlow struct {
	mu      sync.Mutex
	state   ScanState
	barcode string
	product *Product
	catalog Catalog
}

// NewScanFlow builds an idle flow over the given catalog.
func NewScanFlow(catalog Catalog) *ScanFlow {
	return &ScanFlow{catalog: catalog}
}

// State returns the current flow state.
func (f *ScanFlow) State() ScanState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Barcode returns the barcode of the current scan, if any.
func (f *ScanFlow) Barcode() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.barcode
}

// Product returns the resolved product after a Found transition.
func (f *ScanFlow) Product() *Product {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.product
}

// Begin arms the scanner: Idle → Scanning.
func (f *ScanFlow) Begin() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateIdle {
		return ErrNotScanning
	}
	f.state = StateScanning
	f.barcode = ""
	f.product = nil
	return nil
}

// HandleDecode feeds one decode event into the flow.  Only a Scanning
// flow accepts it; a decode while Resolving is a rejected no-op (the
// debounce), and decodes in any other state return ErrNotScanning.
//
// The lookup runs synchronously.  On a hit the flow lands in Found with
// the product available; on a miss it lands in NotFound, which is a
// normal branch, not an error.  Any other failure is terminal for this
// scan: the error is returned once and the flow is back at Idle.
func (f *ScanFlow) HandleDecode(ctx context.Context, barcode string) (ScanState, error) {
	f.mu.Lock()
	switch f.state {
	case StateScanning:
		// proceed
	case StateResolving:
		f.mu.Unlock()
		return StateResolving, ErrScanInFlight
	default:
		st := f.state
		f.mu.Unlock()
		return st, ErrNotScanning
	}
	f.state = StateResolving
	f.barcode = barcode
	f.mu.Unlock()

	product, err := f.catalog.LookupProduct(ctx, barcode)

	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case err == nil:
		f.state = StateFound
		f.product = product
		return StateFound, nil
	case errors.Is(err, ErrNotFound):
		f.state = StateNotFound
		return StateNotFound, nil
	default:
		f.state = StateIdle
		return StateIdle, err
	}
}

// Acknowledge dismisses a Found display: Found → Idle.
func (f *ScanFlow) Acknowledge() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateFound {
		return ErrNotScanning
	}
	f.state = StateIdle
	return nil
}

// Cancel declines to add an unknown product: NotFound → Idle.
func (f *ScanFlow) Cancel() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateNotFound {
		return ErrNotScanning
	}
	f.state = StateIdle
	f.barcode = ""
	return nil
}

// AddDraft hands the unresolved barcode to the create flow as a
// pre-filled draft.  The flow stays in NotFound until the draft is
// submitted or abandoned.
func (f *ScanFlow) AddDraft() (ProductDraft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateNotFound {
		return ProductDraft{}, ErrNotScanning
	}
	return ProductDraft{Barcode: f.barcode}, nil
}

// Submit sends the completed draft to the catalog.  On success the flow
// returns to Idle and the created product is returned.  On failure
// (validation, auth, transport) the flow stays in NotFound so the user
// can correct the form, retry or Abandon.
func (f *ScanFlow) Submit(ctx context.Context, draft ProductDraft) (*Product, error) {
	f.mu.Lock()
	if f.state != StateNotFound {
		f.mu.Unlock()
		return nil, ErrNotScanning
	}
	f.mu.Unlock()

	product, err := f.catalog.CreateProduct(ctx, draft)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = StateIdle
	f.barcode = ""
	return product, nil
}

// Abandon gives up on adding the product: NotFound → Idle.
func (f *ScanFlow) Abandon() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateNotFound {
		return ErrNotScanning
	}
	f.state = StateIdle
	f.barcode = ""
	return nil
}
