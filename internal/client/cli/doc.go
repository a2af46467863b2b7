// Package cli implements the interactive webappsync shell.
//
// The shell drives every client component from a terminal: it fetches and
// prints the navigation menu, lists, shows, adds, updates and deletes
// entities of any type, and edits the persisted filter selections.
// Results arrive asynchronously over the message channel, so commands that
// send a request wait briefly for the answer before printing the current
// state.
package cli
