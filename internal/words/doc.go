// Package words fetches newline-delimited word lists over HTTP(S) or from the
// local filesystem and turns them into an ordered list of trimmed, non-empty
// words.
package words
