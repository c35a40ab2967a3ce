// Package store maps wormhole channels and identifiers to file paths.
//
// A Store is pure path derivation rooted at the shared directory. It never
// touches the file system except in [Store.Channels], which only reads the
// root directory listing.
//
// # Layout
//
//	<root>/<channel>/<identifier>.msg     -- one payload per identifier
//	<root>/<channel>/.manifest            -- ordered identifier list
//	<root>/<channel>/.locks/<name>.lock   -- coordination files
//	<root>/<channel>/.<name>.<uuid>.tmp   -- in-flight writes
//
// Channel and identifier strings are escaped into single path elements, so
// user input can never name a file outside its channel directory or collide
// with the dot-prefixed files above.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package store
