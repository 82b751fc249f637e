//go:build windows

package engines

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/dgnsrekt/wordboard/internal/speech"
	"github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"
)

// SpeechVoiceSpeakFlags.
const (
	svsfAsync            = 1
	svsfPurgeBeforeSpeak = 2
	svsfIsXML            = 8
)

const sapiPoll = 50 * time.Millisecond

// sapiEngine speaks through Windows SAPI5 via OLE automation.
type sapiEngine struct {
	mu sync.Mutex
}

func newSAPI(Config) (speech.Engine, error) {
	e := &sapiEngine{}
	err := e.withVoice(func(*ole.IDispatch) error { return nil })
	if err != nil {
		return nil, speech.WrapError(SAPI, "open", err)
	}
	return e, nil
}

func (e *sapiEngine) Name() string { return SAPI }

// withVoice runs fn with a fresh SpVoice on a locked, COM-initialized
// thread.
func (e *sapiEngine) withVoice(fn func(voice *ole.IDispatch) error) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := ole.CoInitialize(0); err == nil {
		defer ole.CoUninitialize()
	}

	unknown, err := oleutil.CreateObject("SAPI.SpVoice")
	if err != nil {
		return fmt.Errorf("failed to create SAPI.SpVoice: %w", err)
	}
	voice, err := unknown.QueryInterface(ole.IID_IDispatch)
	unknown.Release()
	if err != nil {
		return fmt.Errorf("QueryInterface SpVoice failed: %w", err)
	}
	defer voice.Release()

	return fn(voice)
}

func (e *sapiEngine) Voices(context.Context) ([]speech.Voice, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	voices := []speech.Voice{}
	err := e.withVoice(func(voice *ole.IDispatch) error {
		tokensVar, err := oleutil.CallMethod(voice, "GetVoices")
		if err != nil {
			return fmt.Errorf("failed to get voices collection: %w", err)
		}
		tokens := tokensVar.ToIDispatch()
		if tokens == nil {
			return errors.New("voices collection is nil")
		}
		defer tokens.Release()

		return oleutil.ForEach(tokens, func(v *ole.VARIANT) error {
			item := v.ToIDispatch()
			if item == nil {
				return nil
			}
			defer item.Release()

			idVar, err := oleutil.CallMethod(item, "GetId")
			if err != nil {
				return nil
			}
			descVar, err := oleutil.CallMethod(item, "GetDescription", int32(0))
			if err != nil {
				return nil
			}
			lang := ""
			if langVar, err := oleutil.CallMethod(item, "GetAttribute", "Language"); err == nil {
				lang = langVar.ToString()
			}
			voices = append(voices, speech.Voice{
				ID:       idVar.ToString(),
				Name:     descVar.ToString(),
				Language: lang,
				Default:  len(voices) == 0,
			})
			return nil
		})
	})
	if err != nil {
		return nil, speech.WrapError(SAPI, "voices", err)
	}
	return voices, nil
}

func (e *sapiEngine) Speak(ctx context.Context, u speech.Utterance) error {
	if u.Text == "" {
		return speech.ErrEmptyText
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	err := e.withVoice(func(voice *ole.IDispatch) error {
		if u.Voice != nil && u.Voice.ID != "" {
			setVoiceByID(voice, u.Voice.ID)
		}
		if _, err := oleutil.PutProperty(voice, "Rate", sapiRate(u.Rate)); err != nil {
			return fmt.Errorf("failed to set rate: %w", err)
		}

		text := fmt.Sprintf(`<pitch absmiddle="%d">%s</pitch>`, sapiPitch(u.Pitch), escapeXML(u.Text))
		if _, err := oleutil.CallMethod(voice, "Speak", text, svsfAsync|svsfPurgeBeforeSpeak|svsfIsXML); err != nil {
			return fmt.Errorf("speak failed: %w", err)
		}

		for {
			select {
			case <-ctx.Done():
				// Purge what is queued or playing.
				_, _ = oleutil.CallMethod(voice, "Speak", "", svsfAsync|svsfPurgeBeforeSpeak)
				return ctx.Err()
			default:
			}
			doneVar, err := oleutil.CallMethod(voice, "WaitUntilDone", int32(sapiPoll/time.Millisecond))
			if err != nil {
				return fmt.Errorf("wait failed: %w", err)
			}
			if done, ok := doneVar.Value().(bool); ok && done {
				return nil
			}
		}
	})
	return speech.WrapError(SAPI, "speak", err)
}

func (e *sapiEngine) Close() error { return nil }

func setVoiceByID(voice *ole.IDispatch, id string) {
	tokensVar, err := oleutil.CallMethod(voice, "GetVoices")
	if err != nil {
		return
	}
	tokens := tokensVar.ToIDispatch()
	if tokens == nil {
		return
	}
	defer tokens.Release()

	_ = oleutil.ForEach(tokens, func(v *ole.VARIANT) error {
		item := v.ToIDispatch()
		if item == nil {
			return nil
		}
		defer item.Release()
		idVar, _ := oleutil.CallMethod(item, "GetId")
		if idVar != nil && idVar.ToString() == id {
			_, _ = oleutil.PutPropertyRef(voice, "Voice", item)
		}
		return nil
	})
}

// sapiRate maps a speed factor onto SAPI's -10..10 scale, where 10 is
// about three times normal speed.
func sapiRate(rate float64) int32 {
	r := math.Round(10 * math.Log(rate) / math.Log(3))
	return int32(max(-10, min(r, 10)))
}

// sapiPitch maps a pitch factor onto SAPI's -10..10 absmiddle scale.
func sapiPitch(pitch float64) int {
	p := math.Round(10 * (pitch - 1))
	return int(max(-10, min(p, 10)))
}

func escapeXML(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(s)
}
