// Package fileutil holds the small filesystem checks shared by the launcher:
// creating the log directory and verifying that the backend directory and the
// frontend asset exist with the expected kind before anything uses them.
package fileutil
