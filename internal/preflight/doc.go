// Package preflight verifies the backend's runtime before the demo starts:
// interpreter version, required packages, and installation of missing ones.
package preflight
