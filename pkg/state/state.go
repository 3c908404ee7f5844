package state

import (
	"strings"
	"sync"

	"ptrack/pkg/models"
)

// WarningMessage is shown to the user when a query is incomplete.
const WarningMessage = "input an address and select a blockchain network"

// ValidationError reports why a query was rejected before any fetch.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return WarningMessage
}

// Validate turns raw form input into a WalletQuery.
func Validate(address, network string) (models.WalletQuery, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return models.WalletQuery{}, &ValidationError{Field: "address", Reason: "empty"}
	}
	if strings.TrimSpace(network) == "" {
		return models.WalletQuery{}, &ValidationError{Field: "network", Reason: "empty"}
	}
	n, err := models.ParseNetwork(network)
	if err != nil {
		return models.WalletQuery{}, &ValidationError{Field: "network", Reason: err.Error()}
	}
	return models.WalletQuery{Address: address, Network: n}, nil
}

// ViewState is everything the page renders from.
type ViewState struct {
	Address string
	Network models.Network
	Native  models.Resource[models.AssetBalance]
	Tokens  models.Resource[models.AssetBalance]
	NFTs    models.Resource[models.NftRecord]
	Loading bool
	// Cycle is the id of the most recently started fetch cycle.
	Cycle uint64
}

// New returns an empty state with the given network preselected.
func New(network models.Network) ViewState {
	return ViewState{Network: network}
}

// SetAddress stores the raw address as typed.
func (s *ViewState) SetAddress(raw string) {
	s.Address = raw
}

// SetNetwork stores the selected network without validating it.
func (s *ViewState) SetNetwork(id models.Network) {
	s.Network = id
}

// Query validates the current form input.
func (s ViewState) Query() (models.WalletQuery, error) {
	return Validate(s.Address, string(s.Network))
}

// Begin marks a new cycle as in flight and puts every resource into loading.
func (s *ViewState) Begin(cycle uint64, q models.WalletQuery) {
	s.Cycle = cycle
	s.Address = q.Address
	s.Network = q.Network
	s.Loading = true
	s.Native = models.Loading[models.AssetBalance]()
	s.Tokens = models.Loading[models.AssetBalance]()
	s.NFTs = models.Loading[models.NftRecord]()
}

// Finish clears loading if cycle is the latest one started. Results of an
// older overlapping cycle may still have been applied; the last write wins.
func (s *ViewState) Finish(cycle uint64) {
	if cycle == s.Cycle {
		s.Loading = false
	}
}

func (s *ViewState) SetNative(r models.Resource[models.AssetBalance]) { s.Native = r }

func (s *ViewState) SetTokens(r models.Resource[models.AssetBalance]) { s.Tokens = r }

func (s *ViewState) SetNFTs(r models.Resource[models.NftRecord]) { s.NFTs = r }

// Store guards a ViewState shared between goroutines.
type Store struct {
	mu    sync.RWMutex
	state ViewState
}

func NewStore(network models.Network) *Store {
	return &Store{state: New(network)}
}

// Snapshot returns a copy of the current state. Listings are replaced
// wholesale and never mutated, so sharing their backing arrays is safe.
func (st *Store) Snapshot() ViewState {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.state
}

// Update applies fn under the write lock.
func (st *Store) Update(fn func(*ViewState)) {
	st.mu.Lock()
	defer st.mu.Unlock()
	fn(&st.state)
}
