// Package speech turns words into spoken audio through a pluggable Engine.
// It keeps the snapshot of voices an engine offers, parses the rate and
// pitch controls, and makes sure only one utterance is ever in flight.
package speech
