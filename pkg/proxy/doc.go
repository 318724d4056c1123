// Package proxy implements the request dispatch pipeline: shared-secret
// authentication, backend selection (method override or weighted draw),
// upstream forwarding with a deadline, and verbatim relay of the upstream
// response. Routing state is swapped atomically on configuration reload.
package proxy
