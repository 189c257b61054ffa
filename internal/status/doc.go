// Package status broadcasts job status transitions to WebSocket subscribers.
//
// The hub is the boundary the live UI listens on: every scheduler transition
// is fanned out as a JSON frame {jobName, state, message, data}. Slow or dead
// subscribers are dropped rather than allowed to stall the broadcast.
package status
