// Package file stores canonical document artifacts as JSON files, one per
// document, replaced atomically on every save.
package file
