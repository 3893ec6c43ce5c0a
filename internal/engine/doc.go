// Package engine implements the rules of Mei-Tra (Meisen Trump), a four
// player partnership trick-taking game. A Game is a synchronous state machine:
// every entry point either applies a complete transition and returns the
// resulting events, or returns an error and leaves the game as it was.
package engine
