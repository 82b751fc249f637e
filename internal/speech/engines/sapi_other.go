//go:build !windows

package engines

import (
	"errors"

	"github.com/dgnsrekt/wordboard/internal/speech"
)

func newSAPI(Config) (speech.Engine, error) {
	return nil, speech.WrapError(SAPI, "open", errors.New("SAPI is only available on Windows"))
}
