// Package session drives one bot through the full connection lifecycle:
// lobby connect, authenticate, server handoff, room join, and in-room event
// exchange over two sequential transport channels.
//
// Each session runs a single event loop goroutine. Every trigger (inbound
// packet, channel open or close, timer tick, caller command) is a discrete
// message on the session's inbox, so no two triggers are ever processed
// concurrently and the transition table never races against itself.
// Transitions are keyed by (current phase, packet kind+code); a trigger that
// arrives in a phase where it is not expected is logged and ignored rather
// than regressing state.
package session
