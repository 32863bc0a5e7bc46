// Package api wires the portal's HTTP surface: route registration,
// handler structs, and the middleware stack.
//
// # Overview
//
// The router is built in three layers. Public routes (login page,
// password login, social login, static avatars) take no guards. The
// authenticated subrouter requires a live session and adds per-route
// permission guards for the profile editor, the member directory, and
// product submission. The /admin subrouter stacks the admin guard on
// top of the session guard, so every admin route checks both.
//
// # Handlers
//
// Handlers are grouped per concern:
//
//	AuthHandlers    - password login, logout
//	MainHandlers    - dashboard, session view, profile read/update
//	AdminHandlers   - user CRUD, role permission management
//	MemberHandlers  - member directory
//	ProductHandlers - product submission, forwarded to the workflow engine
//
// All handlers speak the shared JSON envelope {"success": bool,
// "message": string, ...} and honor content negotiation: browser
// navigations get redirects where API callers get status codes.
//
// # Health surface
//
// Liveness, readiness, and Prometheus metrics are served from a
// separate router so they can bind to an internal port. See
// Server.HealthRouter.
package api
