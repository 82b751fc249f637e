// Package subprocess runs the external programs speech engines are built
// on, with stdin prepared before start and prompt cancellation.
package subprocess
