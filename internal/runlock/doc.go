// Package runlock guards against two launchers driving the same demo at once
// with an advisory file lock.
package runlock
