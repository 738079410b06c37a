package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/xeipuuv/gojsonschema"

	ucp "github.com/Rakinzi/UCP"
)

const productsPath = "/products"

// Merchant catalog responses are validated before decoding so that a
// malformed merchant payload surfaces as a data fault for that one lookup
// instead of half-decoded garbage.
const productSchemaJSON = `{
	"type": "object",
	"required": ["name", "price"],
	"properties": {
		"id": {"type": "string"},
		"name": {"type": "string", "minLength": 1},
		"description": {"type": ["string", "null"]},
		"price": {"type": "number", "minimum": 0},
		"imageUrl": {"type": ["string", "null"]}
	}
}`

var (
	productSchema     = gojsonschema.NewStringLoader(productSchemaJSON)
	productListSchema = gojsonschema.NewStringLoader(fmt.Sprintf(`{"type": "array", "items": %s}`, productSchemaJSON))
)

// Product fetches one product from a merchant's catalog. The returned
// product always carries the merchant's address in Store.
func (c *MerchantClient) Product(ctx context.Context, store, productID string) (ucp.Product, error) {
	raw, err := c.getJSON(ctx, store+productsPath+"/"+url.PathEscape(productID))
	if err != nil {
		return ucp.Product{}, err
	}
	if err := validateCatalogJSON(productSchema, raw); err != nil {
		return ucp.Product{}, err
	}

	var product ucp.Product
	if err := json.Unmarshal(raw, &product); err != nil {
		return ucp.Product{}, fmt.Errorf("decode product: %w", err)
	}
	product.Store = store
	if product.ID == "" {
		product.ID = productID
	}
	return product, nil
}

// Search queries a merchant's catalog. The result may be empty; a transport
// fault or malformed response is an error the caller is expected to treat as
// zero results.
func (c *MerchantClient) Search(ctx context.Context, store, query string) ([]ucp.Product, error) {
	raw, err := c.getJSON(ctx, store+productsPath+"?q="+url.QueryEscape(query))
	if err != nil {
		return nil, err
	}
	if err := validateCatalogJSON(productListSchema, raw); err != nil {
		return nil, err
	}

	var products []ucp.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	for i := range products {
		products[i].Store = store
	}
	return products, nil
}

func (c *MerchantClient) getJSON(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog returned status %d", resp.StatusCode)
	}
	return body, nil
}

func validateCatalogJSON(schema gojsonschema.JSONLoader, raw []byte) error {
	result, err := gojsonschema.Validate(schema, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("validate catalog response: %w", err)
	}
	if !result.Valid() {
		return fmt.Errorf("catalog response rejected: %s", result.Errors()[0])
	}
	return nil
}
