// Package engines provides the speech engines wordboard can drive and a
// registry to create them by name or detect the first usable one.
package engines
