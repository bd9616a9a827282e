// Package termtest runs output through a real pseudo-terminal so tests see
// exactly what a user's terminal would receive.
package termtest
