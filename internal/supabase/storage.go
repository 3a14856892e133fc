// Package supabase — storage URL helpers.
package supabase

import "strings"

// ProductImagesBucket is the public bucket holding product imagery.
const ProductImagesBucket = "product-images"

// PublicURL builds the public storage URL for an object path within a bucket.
// URLs are constructed by concatenation against the backend base URL; an
// empty path yields an empty URL so callers can render placeholders.
func (c *Client) PublicURL(bucket, path string) string {
	if path == "" {
		return ""
	}
	return c.baseURL + "/storage/v1/object/public/" + bucket + "/" + strings.TrimLeft(path, "/")
}

// ProductImageURL is shorthand for PublicURL on the product-images bucket.
func (c *Client) ProductImageURL(path *string) string {
	if path == nil {
		return ""
	}
	return c.PublicURL(ProductImagesBucket, *path)
}
