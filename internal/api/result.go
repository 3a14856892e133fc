// Package api contains the domain API modules: one file per aggregate, each
// translating a domain operation into one backend gateway call, normalizing
// the outcome into a uniform Result, and applying or clearing the shared
// request cache where appropriate.
//
// Error semantics: any error from the gateway is caught at this boundary and
// mapped to Result{Success: false, Error: message} — callers never receive a
// raw error from this layer. Mutating operations invalidate the cache keys
// covering the data they changed so the next read is fresh.
package api

import "fmt"

// Result is the uniform outcome envelope returned by every API operation.
type Result[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// OK wraps data in a successful Result.
func OK[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

// Err wraps err in a failed Result.
func Err[T any](err error) Result[T] {
	return Result[T]{Error: err.Error()}
}

// Cache key builders. Keys are shared between modules so a mutation in one
// can invalidate reads served by another (e.g. send message → conversations).
func messagesKey(threadID string) string { return "messages-" + threadID }

func conversationsKey(userID string) string { return "conversations-" + userID }

func conversationKey(threadID, userID string) string {
	return fmt.Sprintf("conversation-%s-%s", threadID, userID)
}

func feedKey() string { return "feed-products" }

func productKey(id string) string { return "product-" + id }

func profileKey(id string) string { return "profile-" + id }

func saveKey(productID, userID string) string {
	return fmt.Sprintf("save-%s-%s", productID, userID)
}

func notificationsKey(userID string) string { return "notifications-" + userID }

func reactionsKey(messageID string) string { return "reactions-" + messageID }
