package extract

import "context"

// Extractor maps one utterance to a slot value. Absence is reported with
// ok == false; extractors never fail.
type Extractor interface {
	Extract(ctx context.Context, text string) (value string, ok bool)
}

// DefaultHomeSatisfiesLocation decides whether "home" or "apartment" alone
// counts as a location. It does not; the user is asked where they are.
const DefaultHomeSatisfiesLocation = false
