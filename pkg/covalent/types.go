package covalent

import (
	"bytes"
	"encoding/json"
	"fmt"

	"ptrack/pkg/models"
)

// envelope is the common response wrapper of the v1 API.
type envelope[T any] struct {
	Data         *page[T] `json:"data"`
	Error        bool     `json:"error"`
	ErrorMessage string   `json:"error_message"`
	ErrorCode    *int     `json:"error_code"`
}

type page[T any] struct {
	Address   string `json:"address"`
	ChainName string `json:"chain_name"`
	UpdatedAt string `json:"updated_at"`
	Items     []T    `json:"items"`
}

// errorBody is decoded from non-success responses.
type errorBody struct {
	Error        bool   `json:"error"`
	ErrorMessage string `json:"error_message"`
	ErrorCode    *int   `json:"error_code"`
}

// numericString accepts a JSON string, number or null.
type numericString string

func (n *numericString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*n = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = numericString(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return fmt.Errorf("balance is neither string nor number: %w", err)
	}
	*n = numericString(num.String())
	return nil
}

type balanceItem struct {
	ContractDecimals     *int          `json:"contract_decimals"`
	ContractName         string        `json:"contract_name"`
	ContractTickerSymbol string        `json:"contract_ticker_symbol"`
	ContractAddress      string        `json:"contract_address"`
	LogoURL              string        `json:"logo_url"`
	Type                 string        `json:"type"`
	NativeToken          bool          `json:"native_token"`
	Balance              numericString `json:"balance"`
	Quote                *float64      `json:"quote"`
	PrettyQuote          *string       `json:"pretty_quote"`
}

func (i balanceItem) toModel(native bool) models.AssetBalance {
	decimals := 0
	if i.ContractDecimals != nil {
		decimals = *i.ContractDecimals
	}
	return models.AssetBalance{
		ContractAddress: i.ContractAddress,
		Name:            i.ContractName,
		Symbol:          i.ContractTickerSymbol,
		Balance:         string(i.Balance),
		Decimals:        decimals,
		LogoURL:         i.LogoURL,
		PrettyQuote:     i.PrettyQuote,
		Type:            i.Type,
		Native:          native || i.NativeToken,
	}
}

type nftItem struct {
	ContractName          string        `json:"contract_name"`
	ContractTickerSymbol  string        `json:"contract_ticker_symbol"`
	ContractAddress       string        `json:"contract_address"`
	Balance               numericString `json:"balance"`
	PrettyFloorPriceQuote *string       `json:"pretty_floor_price_quote"`
}

func (i nftItem) toModel() models.NftRecord {
	return models.NftRecord{
		ContractAddress:  i.ContractAddress,
		Name:             i.ContractName,
		Symbol:           i.ContractTickerSymbol,
		PrettyFloorPrice: i.PrettyFloorPriceQuote,
		Count:            string(i.Balance),
	}
}
