// Package backend runs the demo's backend server as a supervised child
// process. The chosen port is handed to the child through an environment
// variable, optionally merged with a dotenv file from the backend directory,
// and readiness is detected by polling a TCP connection to that port.
package backend
