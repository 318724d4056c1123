// Package health monitors the weighted backend pool in the background.
//
// A Monitor periodically sends a lightweight JSON-RPC probe (getSlot by
// default) to every pool backend. Consecutive failure and success
// thresholds gate state transitions so one slow or dropped probe does not
// flap a backend out of rotation. The dispatcher consults the monitor at
// selection time; per-request forwarding failures are deliberately not fed
// back into health state, keeping the no-retry request path independent of
// the probe loop.
package health
