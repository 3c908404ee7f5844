package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gqlResponse struct {
	Data   map[string]interface{}   `json:"data"`
	Errors []map[string]interface{} `json:"errors"`
}

func gql(t *testing.T, s *Server, body string) gqlResponse {
	t.Helper()
	rr := do(s, http.MethodPost, "/graphql", body)
	require.Equal(t, http.StatusOK, rr.Code)
	var resp gqlResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func TestGraphQLNetworks(t *testing.T) {
	s := newTestServer(t, stubSource{})
	resp := gql(t, s, `{"query": "{ networks { id label nativeSymbol } }"}`)

	require.Empty(t, resp.Errors)
	networks := resp.Data["networks"].([]interface{})
	require.Len(t, networks, 4)
	first := networks[0].(map[string]interface{})
	assert.Equal(t, "eth-mainnet", first["id"])
	assert.Equal(t, "Ethereum", first["label"])
	assert.Equal(t, "ETH", first["nativeSymbol"])
}

func TestGraphQLExplore(t *testing.T) {
	s := newTestServer(t, stubSource{})
	resp := gql(t, s, `{
		"query": "query($a: String!, $n: String) { explore(address: $a, network: $n) { network loading cycle summary { currency nativeQuote tokenCount nftCount } tokens { sn symbol amount value } status { native } } }",
		"variables": {"a": "0xABC", "n": "eth-mainnet"}
	}`)

	require.Empty(t, resp.Errors)
	page := resp.Data["explore"].(map[string]interface{})
	assert.Equal(t, "eth-mainnet", page["network"])
	assert.Equal(t, false, page["loading"])
	assert.Equal(t, float64(1), page["cycle"])

	summary := page["summary"].(map[string]interface{})
	assert.Equal(t, "1.0 ETH", summary["currency"])
	assert.Equal(t, "$2,000.00", summary["nativeQuote"])
	assert.Equal(t, float64(2), summary["tokenCount"])
	assert.Equal(t, float64(0), summary["nftCount"])

	tokens := page["tokens"].([]interface{})
	require.Len(t, tokens, 2)
	assert.Equal(t, "5.0", tokens[0].(map[string]interface{})["amount"])
	assert.Equal(t, "$0.00", tokens[1].(map[string]interface{})["value"])
	assert.Equal(t, "ok", page["status"].(map[string]interface{})["native"])
}

func TestGraphQLExploreValidation(t *testing.T) {
	s := newTestServer(t, stubSource{})
	resp := gql(t, s, `{"query": "{ explore(address: \"  \") { network } }"}`)

	require.NotEmpty(t, resp.Errors)
	assert.Equal(t, "input an address and select a blockchain network", resp.Errors[0]["message"])
}

func TestGraphQLStatusBeforeExplore(t *testing.T) {
	s := newTestServer(t, stubSource{})
	resp := gql(t, s, `{"query": "{ status { network summary { currency tokenCount } } latency }"}`)

	require.Empty(t, resp.Errors)
	status := resp.Data["status"].(map[string]interface{})
	assert.Equal(t, "eth-mainnet", status["network"])
	assert.Nil(t, status["summary"].(map[string]interface{})["tokenCount"])
	assert.Empty(t, resp.Data["latency"])
}

func TestGraphQLBadBody(t *testing.T) {
	s := newTestServer(t, stubSource{})
	rr := do(s, http.MethodPost, "/graphql", `nope`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
