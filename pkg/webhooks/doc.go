// Package webhooks delivers events to the external workflow endpoint.
//
// Two events exist today: registration.created when a social login
// finishes registering a member, and product.created when a product is
// submitted for processing.
//
// Payloads are signed with HMAC-SHA256 in X-MemberHub-Signature when a
// secret is configured. Receivers verify with VerifySignature.
//
// Delivery retries transient failures with exponential backoff and is
// fire-and-forget from the caller's point of view:
//
//	notifier.NotifyAsync(r.Context(), webhooks.NewEvent(
//		webhooks.EventProductCreated,
//		map[string]interface{}{"name": name, "price": price},
//	))
//
// A failed delivery only surfaces in logs and metrics, never in the
// response to the user.
package webhooks
