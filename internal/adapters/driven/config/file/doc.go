// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem.
//
// Adapters:
//   - AccountStore: TOML-based account configuration storage
//   - Watcher: fsnotify-based change notification for the document
package file
