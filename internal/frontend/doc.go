// Package frontend opens the demo's static entry page in the default browser.
package frontend
