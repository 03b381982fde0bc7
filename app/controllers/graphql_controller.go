package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/graphql-go/graphql"

	"github.com/shashiranjanraj/dulceria/app/models"
	"github.com/shashiranjanraj/dulceria/app/repositories"
	"github.com/shashiranjanraj/dulceria/app/services"
	pkggraphql "github.com/shashiranjanraj/dulceria/pkg/graphql"
	"github.com/shashiranjanraj/dulceria/pkg/response"
)

// GraphQLController exposes a read-only query endpoint over the catalogue
// and orders for back-office dashboards.
type GraphQLController struct {
	schema graphql.Schema
}

func NewGraphQLController(products *repositories.ProductRepository, orders *services.OrderService) (*GraphQLController, error) {
	schema, err := pkggraphql.NewSchema(buildQuery(products, orders))
	if err != nil {
		return nil, err
	}
	return &GraphQLController{schema: schema}, nil
}

type graphqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

// Query executes one GraphQL query.
func (c *GraphQLController) Query(w http.ResponseWriter, r *http.Request) {
	var req graphqlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result := graphql.Do(graphql.Params{
		Schema:         c.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		Context:        r.Context(),
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result) //nolint:errcheck
}

func buildQuery(products *repositories.ProductRepository, orders *services.OrderService) *graphql.Object {
	productType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Product",
		Fields: graphql.Fields{
			"id":       &graphql.Field{Type: graphql.Int},
			"code":     &graphql.Field{Type: graphql.String},
			"name":     &graphql.Field{Type: graphql.String},
			"category": &graphql.Field{Type: graphql.String},
			"portions": &graphql.Field{Type: graphql.String},
			"price": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(models.Product).Price.StringFixed(2), nil
				},
			},
			"available": &graphql.Field{Type: graphql.Boolean},
		},
	})

	orderItemType := graphql.NewObject(graphql.ObjectConfig{
		Name: "OrderItem",
		Fields: graphql.Fields{
			"productName": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(models.OrderItem).ProductName, nil
				},
			},
			"quantity": &graphql.Field{Type: graphql.Int},
			"subtotal": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(models.OrderItem).Subtotal.StringFixed(2), nil
				},
			},
		},
	})

	orderType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Order",
		Fields: graphql.Fields{
			"id":       &graphql.Field{Type: graphql.Int},
			"username": &graphql.Field{Type: graphql.String},
			"status": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return string(p.Source.(models.Order).Status), nil
				},
			},
			"total": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(models.Order).Total.StringFixed(2), nil
				},
			},
			"deliveryType": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(models.Order).DeliveryType, nil
				},
			},
			"items": &graphql.Field{Type: graphql.NewList(orderItemType)},
		},
	})

	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"products": &graphql.Field{
				Type: graphql.NewList(productType),
				Args: graphql.FieldConfigArgument{
					"category": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if category, ok := p.Args["category"].(string); ok && category != "" {
						return products.ListByCategory(p.Context, category)
					}
					return products.All(p.Context)
				},
			},
			"categories": &graphql.Field{
				Type: graphql.NewList(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return products.Categories(p.Context)
				},
			},
			"order": &graphql.Field{
				Type: orderType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return orders.Get(p.Context, uint(p.Args["id"].(int)))
				},
			},
			"pendingOrders": &graphql.Field{
				Type: graphql.NewList(orderType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return orders.Pending(p.Context)
				},
			},
		},
	})
}
