package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/graphql-go/graphql"

	"ptrack/pkg/display"
	"ptrack/pkg/models"
)

type graphQLRequest struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName,omitempty"`
	Variables     map[string]interface{} `json:"variables,omitempty"`
}

func (s *Server) handleGraphQL(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		writeJSON(c, http.StatusBadRequest, errorResponse{Error: "error reading request body"})
		return
	}
	var req graphQLRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(c, http.StatusBadRequest, errorResponse{Error: "error parsing request body"})
		return
	}

	result := graphql.Do(graphql.Params{
		Schema:         s.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        c.Request.Context(),
	})
	writeJSON(c, http.StatusOK, result)
}

func (s *Server) buildSchema() (graphql.Schema, error) {
	networkType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Network",
		Fields: graphql.Fields{
			"id": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return string(p.Source.(models.NetworkInfo).ID), nil
				},
			},
			"label":        &graphql.Field{Type: graphql.String},
			"nativeSymbol": &graphql.Field{Type: graphql.String},
		},
	})

	summaryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Summary",
		Fields: graphql.Fields{
			"currency": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(display.SummaryView).Currency(), nil
				},
			},
			"nativeAmount": &graphql.Field{Type: graphql.String},
			"nativeSymbol": &graphql.Field{Type: graphql.String},
			"nativeQuote":  &graphql.Field{Type: graphql.String},
			"tokenCount":   &graphql.Field{Type: graphql.Int},
			"nftCount":     &graphql.Field{Type: graphql.Int},
		},
	})

	tokenRowType := graphql.NewObject(graphql.ObjectConfig{
		Name: "TokenRow",
		Fields: graphql.Fields{
			"key":             &graphql.Field{Type: graphql.String},
			"sn":              &graphql.Field{Type: graphql.Int},
			"name":            &graphql.Field{Type: graphql.String},
			"symbol":          &graphql.Field{Type: graphql.String},
			"amount":          &graphql.Field{Type: graphql.String},
			"value":           &graphql.Field{Type: graphql.String},
			"contractAddress": &graphql.Field{Type: graphql.String},
			"logoUrl":         &graphql.Field{Type: graphql.String},
		},
	})

	nftRowType := graphql.NewObject(graphql.ObjectConfig{
		Name: "NFTRow",
		Fields: graphql.Fields{
			"key":             &graphql.Field{Type: graphql.String},
			"sn":              &graphql.Field{Type: graphql.Int},
			"name":            &graphql.Field{Type: graphql.String},
			"symbol":          &graphql.Field{Type: graphql.String},
			"contractAddress": &graphql.Field{Type: graphql.String},
			"floorPrice":      &graphql.Field{Type: graphql.String},
			"count":           &graphql.Field{Type: graphql.String},
		},
	})

	statusType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ResourceStatus",
		Fields: graphql.Fields{
			"native": &graphql.Field{Type: graphql.String},
			"tokens": &graphql.Field{Type: graphql.String},
			"nfts":   &graphql.Field{Type: graphql.String},
		},
	})

	pageType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Page",
		Fields: graphql.Fields{
			"address":        &graphql.Field{Type: graphql.String},
			"displayAddress": &graphql.Field{Type: graphql.String},
			"network":        &graphql.Field{Type: graphql.String},
			"networkLabel":   &graphql.Field{Type: graphql.String},
			"loading":        &graphql.Field{Type: graphql.Boolean},
			"cycle": &graphql.Field{
				Type: graphql.Int,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return int(p.Source.(display.PageView).Cycle), nil
				},
			},
			"summary": &graphql.Field{Type: summaryType},
			"tokens":  &graphql.Field{Type: graphql.NewList(tokenRowType)},
			"nfts":    &graphql.Field{Type: graphql.NewList(nftRowType)},
			"status":  &graphql.Field{Type: statusType},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"networks": &graphql.Field{
				Type: graphql.NewList(networkType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return models.Networks, nil
				},
			},
			"status": &graphql.Field{
				Type: pageType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return display.Page(s.explorer.Snapshot()), nil
				},
			},
			"latency": &graphql.Field{
				Type: graphql.NewList(graphql.Float),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					history := s.explorer.LatencyHistory()
					out := make([]float64, 0, len(history))
					for _, d := range history {
						out = append(out, float64(d.Microseconds())/1000)
					}
					return out, nil
				},
			},
			"explore": &graphql.Field{
				Type: pageType,
				Args: graphql.FieldConfigArgument{
					"address": &graphql.ArgumentConfig{
						Type: graphql.NewNonNull(graphql.String),
					},
					"network": &graphql.ArgumentConfig{
						Type:         graphql.String,
						DefaultValue: string(models.DefaultNetwork),
					},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					address, _ := p.Args["address"].(string)
					network, _ := p.Args["network"].(string)
					st, err := s.explorer.Explore(p.Context, address, network)
					if err != nil {
						return nil, err
					}
					return display.Page(st), nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}
