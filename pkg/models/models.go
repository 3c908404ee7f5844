package models

import (
	"fmt"
	"strings"
)

// Network identifies a chain as named by the upstream data API.
type Network string

const (
	EthMainnet    Network = "eth-mainnet"
	BscMainnet    Network = "bsc-mainnet"
	MaticMainnet  Network = "matic-mainnet"
	FantomMainnet Network = "fantom-mainnet"
)

// DefaultNetwork is preselected in every surface.
const DefaultNetwork = EthMainnet

// NetworkInfo holds display metadata for a supported network.
type NetworkInfo struct {
	ID           Network `json:"id"`
	Label        string  `json:"label"`
	NativeSymbol string  `json:"native_symbol"`
	ExplorerURL  string  `json:"explorer_url"`
}

// Networks lists the supported networks in selector order.
var Networks = []NetworkInfo{
	{ID: EthMainnet, Label: "Ethereum", NativeSymbol: "ETH", ExplorerURL: "https://etherscan.io"},
	{ID: BscMainnet, Label: "Binance", NativeSymbol: "BNB", ExplorerURL: "https://bscscan.com"},
	{ID: MaticMainnet, Label: "Polygon", NativeSymbol: "MATIC", ExplorerURL: "https://polygonscan.com"},
	{ID: FantomMainnet, Label: "Fantom", NativeSymbol: "FTM", ExplorerURL: "https://ftmscan.com"},
}

// ParseNetwork returns the Network for s or an error if s is not supported.
func ParseNetwork(s string) (Network, error) {
	id := Network(strings.ToLower(strings.TrimSpace(s)))
	for _, n := range Networks {
		if n.ID == id {
			return id, nil
		}
	}
	return "", fmt.Errorf("unsupported network %q", s)
}

// Info returns the display metadata for n. Unknown networks get their raw id as label.
func (n Network) Info() NetworkInfo {
	for _, info := range Networks {
		if info.ID == n {
			return info
		}
	}
	return NetworkInfo{ID: n, Label: string(n)}
}

// NetworkIndex returns the selector position of n, or 0 if n is unknown.
func NetworkIndex(n Network) int {
	for i, info := range Networks {
		if info.ID == n {
			return i
		}
	}
	return 0
}

// WalletQuery is one validated request for a wallet's holdings.
type WalletQuery struct {
	Address string  `json:"address"`
	Network Network `json:"network"`
}

// AssetBalance describes a single native or fungible asset held by a wallet.
// Balance is the raw integer amount; the human amount is Balance / 10^Decimals.
type AssetBalance struct {
	ContractAddress string  `json:"contract_address"`
	Name            string  `json:"name"`
	Symbol          string  `json:"symbol"`
	Balance         string  `json:"balance"`
	Decimals        int     `json:"decimals"`
	LogoURL         string  `json:"logo_url,omitempty"`
	PrettyQuote     *string `json:"pretty_quote"`
	Type            string  `json:"type,omitempty"`
	Native          bool    `json:"native"`
}

// NftRecord describes an NFT collection held by a wallet.
type NftRecord struct {
	ContractAddress  string  `json:"contract_address"`
	Name             string  `json:"name"`
	Symbol           string  `json:"symbol"`
	PrettyFloorPrice *string `json:"pretty_floor_price"`
	Count            string  `json:"count,omitempty"`
}

// Status is the lifecycle position of one fetched resource.
type Status int

const (
	StatusNotRequested Status = iota
	StatusLoading
	StatusSucceeded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return "not_requested"
	}
}

// Resource holds the outcome of one fetch. Data is only meaningful when
// Status is StatusSucceeded and Err only when Status is StatusFailed.
type Resource[T any] struct {
	Status Status
	Data   []T
	Err    error
}

// Loading returns a resource in the in-flight state.
func Loading[T any]() Resource[T] {
	return Resource[T]{Status: StatusLoading}
}

// Succeeded wraps a resolved listing. A nil listing is normalised to empty.
func Succeeded[T any](data []T) Resource[T] {
	if data == nil {
		data = []T{}
	}
	return Resource[T]{Status: StatusSucceeded, Data: data}
}

// Failed wraps a fetch error.
func Failed[T any](err error) Resource[T] {
	return Resource[T]{Status: StatusFailed, Err: err}
}

// Ok reports whether the resource resolved successfully.
func (r Resource[T]) Ok() bool {
	return r.Status == StatusSucceeded
}

// CheckResult holds the outcome of probing one network during a config check.
type CheckResult struct {
	Network Network `json:"network"`
	Status  string  `json:"status"` // "ok", "error" or "skipped"
	Items   int     `json:"items,omitempty"`
	Error   string  `json:"error,omitempty"`
}

// CheckReport holds the results of the configuration check.
type CheckReport struct {
	ConfigPath      string        `json:"config_path"`
	ValidStructure  bool          `json:"valid_structure"`
	StructureErrors []string      `json:"structure_errors,omitempty"`
	APIKeyPresent   bool          `json:"api_key_present"`
	BaseURL         string        `json:"base_url"`
	FetchMode       string        `json:"fetch_mode"`
	Probed          bool          `json:"probed"`
	Networks        []CheckResult `json:"networks,omitempty"`
}
