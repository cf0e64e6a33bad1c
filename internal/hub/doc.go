// Package hub implements connection and room bookkeeping plus notification
// fanout using the actor pattern.
//
// A single goroutine with a command channel owns all session/room state (no
// mutexes). Rooms are keyed by user ID; publishing a notification delivers it
// to every session currently joined to the target user's room. Per-connection
// write goroutines keep a slow client from ever blocking the hub or its
// neighbors.
package hub
