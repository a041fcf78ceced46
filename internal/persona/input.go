package persona

import (
	"fmt"
	"strings"
)

// Input is the source of a new twin's persona: Raw text supplied by the
// client, or FromProfile quiz answers that are rendered with Build.
type Input interface {
	isInput()
}

// Raw is persona text written by the client.
type Raw struct {
	Text string
}

// FromProfile is a quiz result to be rendered into persona text.
type FromProfile struct {
	Profile Profile
}

func (Raw) isInput()         {}
func (FromProfile) isInput() {}

// Resolve turns in into canonical persona text. For profile input the
// validated profile is returned alongside so it can be stored with the twin.
func Resolve(name string, in Input) (string, *Profile, error) {
	switch v := in.(type) {
	case Raw:
		return strings.TrimSpace(v.Text), nil, nil
	case FromProfile:
		if err := v.Profile.Validate(); err != nil {
			return "", nil, err
		}
		p := v.Profile
		return Build(name, p), &p, nil
	case nil:
		return "", nil, fmt.Errorf("persona: nil input")
	default:
		return "", nil, fmt.Errorf("persona: unsupported input %T", in)
	}
}
