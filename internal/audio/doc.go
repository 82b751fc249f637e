// Package audio plays synthesized speech through the system's audio device
// using oto/v3, and converts decoded audio into the single PCM format the
// device is opened with.
package audio
