// Package display projects a ViewState into the cards and tables every
// surface renders. All functions are pure.
package display

import (
	"fmt"
	"strconv"

	"ptrack/pkg/models"
	"ptrack/pkg/state"
	"ptrack/pkg/utils"
)

// ZeroQuote replaces a missing fiat quote in table cells.
const ZeroQuote = "$0.00"

// SummaryView holds the three cards. Empty strings and nil counts mean
// there is nothing to show, which is different from a count of zero.
type SummaryView struct {
	NativeAmount string `json:"native_amount"`
	NativeSymbol string `json:"native_symbol"`
	NativeQuote  string `json:"native_quote"`
	TokenCount   *int   `json:"token_count"`
	NFTCount     *int   `json:"nft_count"`
}

// Currency is the text of the currency card, e.g. "1.0 ETH".
func (s SummaryView) Currency() string {
	switch {
	case s.NativeAmount == "":
		return s.NativeSymbol
	case s.NativeSymbol == "":
		return s.NativeAmount
	default:
		return s.NativeAmount + " " + s.NativeSymbol
	}
}

func (s SummaryView) TokenCountText() string { return countText(s.TokenCount) }

func (s SummaryView) NFTCountText() string { return countText(s.NFTCount) }

func countText(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}

// TokenRow is one line of the tokens table.
type TokenRow struct {
	Key             string `json:"key"`
	SN              int    `json:"sn"`
	Name            string `json:"name"`
	Symbol          string `json:"symbol"`
	Amount          string `json:"amount"`
	Value           string `json:"value"`
	ContractAddress string `json:"contract_address"`
	LogoURL         string `json:"logo_url,omitempty"`
}

// NFTRow is one line of the NFTs table.
type NFTRow struct {
	Key             string `json:"key"`
	SN              int    `json:"sn"`
	Name            string `json:"name"`
	Symbol          string `json:"symbol"`
	ContractAddress string `json:"contract_address"`
	FloorPrice      string `json:"floor_price"`
	Count           string `json:"count,omitempty"`
}

// Summary renders the cards. Only the first native record is used.
func Summary(s state.ViewState) SummaryView {
	var v SummaryView
	if s.Native.Ok() && len(s.Native.Data) > 0 {
		first := s.Native.Data[0]
		v.NativeAmount = Amount(first)
		v.NativeSymbol = first.Symbol
		if first.PrettyQuote != nil {
			v.NativeQuote = *first.PrettyQuote
		}
	}
	if s.Tokens.Ok() {
		n := len(s.Tokens.Data)
		v.TokenCount = &n
	}
	if s.NFTs.Ok() {
		n := len(s.NFTs.Data)
		v.NFTCount = &n
	}
	return v
}

// Amount formats the balance of a, falling back to the raw string when it
// cannot be interpreted.
func Amount(a models.AssetBalance) string {
	out, err := utils.FormatUnits(a.Balance, a.Decimals)
	if err != nil {
		return a.Balance
	}
	return out
}

// TokenRows renders the tokens table in upstream order.
func TokenRows(s state.ViewState) []TokenRow {
	if !s.Tokens.Ok() {
		return nil
	}
	keys := newKeyer()
	rows := make([]TokenRow, 0, len(s.Tokens.Data))
	for i, t := range s.Tokens.Data {
		rows = append(rows, TokenRow{
			Key:             keys.next(t.ContractAddress),
			SN:              i + 1,
			Name:            t.Name,
			Symbol:          t.Symbol,
			Amount:          Amount(t),
			Value:           quoteOrZero(t.PrettyQuote),
			ContractAddress: t.ContractAddress,
			LogoURL:         t.LogoURL,
		})
	}
	return rows
}

// NFTRows renders the NFTs table in upstream order.
func NFTRows(s state.ViewState) []NFTRow {
	if !s.NFTs.Ok() {
		return nil
	}
	keys := newKeyer()
	rows := make([]NFTRow, 0, len(s.NFTs.Data))
	for i, n := range s.NFTs.Data {
		rows = append(rows, NFTRow{
			Key:             keys.next(n.ContractAddress),
			SN:              i + 1,
			Name:            n.Name,
			Symbol:          n.Symbol,
			ContractAddress: n.ContractAddress,
			FloorPrice:      quoteOrZero(n.PrettyFloorPrice),
			Count:           n.Count,
		})
	}
	return rows
}

// Status describes a resource for display: "" when never requested.
func Status[T any](r models.Resource[T]) string {
	switch r.Status {
	case models.StatusLoading:
		return "loading"
	case models.StatusSucceeded:
		return "ok"
	case models.StatusFailed:
		if r.Err == nil {
			return "failed"
		}
		return "failed: " + r.Err.Error()
	default:
		return ""
	}
}

func quoteOrZero(q *string) string {
	if q == nil || *q == "" {
		return ZeroQuote
	}
	return *q
}

// keyer hands out row keys, suffixing repeated contract addresses with #n.
type keyer map[string]int

func newKeyer() keyer { return keyer{} }

func (k keyer) next(addr string) string {
	k[addr]++
	if n := k[addr]; n > 1 {
		return fmt.Sprintf("%s#%d", addr, n)
	}
	return addr
}

// Statuses holds the display status of each resource.
type Statuses struct {
	Native string `json:"native"`
	Tokens string `json:"tokens"`
	NFTs   string `json:"nfts"`
}

// PageView is the complete rendered page, used by the JSON surfaces.
type PageView struct {
	Address        string      `json:"address"`
	DisplayAddress string      `json:"display_address"`
	Network        string      `json:"network"`
	NetworkLabel   string      `json:"network_label"`
	Loading        bool        `json:"loading"`
	Cycle          uint64      `json:"cycle"`
	Summary        SummaryView `json:"summary"`
	Tokens         []TokenRow  `json:"tokens"`
	NFTs           []NFTRow    `json:"nfts"`
	Status         Statuses    `json:"status"`
}

// Page renders the whole state.
func Page(s state.ViewState) PageView {
	p := PageView{
		Address:        s.Address,
		DisplayAddress: utils.DisplayAddress(s.Address),
		Network:        string(s.Network),
		NetworkLabel:   s.Network.Info().Label,
		Loading:        s.Loading,
		Cycle:          s.Cycle,
		Summary:        Summary(s),
		Tokens:         TokenRows(s),
		NFTs:           NFTRows(s),
		Status: Statuses{
			Native: Status(s.Native),
			Tokens: Status(s.Tokens),
			NFTs:   Status(s.NFTs),
		},
	}
	if p.Tokens == nil {
		p.Tokens = []TokenRow{}
	}
	if p.NFTs == nil {
		p.NFTs = []NFTRow{}
	}
	return p
}
