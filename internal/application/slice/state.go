// Package slice implements the per-entity state container. A Store owns
// its State and changes it only through dispatched intents, which a pure
// reducer applies. Every fetch carries a token; completions for anything
// other than the latest token are discarded, so a slow earlier response
// can never overwrite a newer one.
package slice

import (
	"encoding/json"
	"net/url"
	"time"

	"github.com/multipos/console/internal/domain/shared"
)

// State is the observable value of a slice.
type State[T shared.Entity] struct {
	Data        []T             `json:"data"`
	Loading     bool            `json:"loading"`
	Saving      bool            `json:"saving"`
	Error       string          `json:"error,omitempty"`
	Summary     json.RawMessage `json:"summary"`
	Params      url.Values      `json:"params,omitempty"`
	// Loaded holds the params of the fetch that produced Data. Params moves
	// as soon as a fetch starts; Loaded only on success.
	Loaded      url.Values      `json:"loaded,omitempty"`
	LastFetched time.Time       `json:"lastFetched,omitzero"`

	// token of the most recently started fetch; 0 when none is in flight
	pending uint64
}

// clone copies the slices and maps so callers cannot reach into the store.
func (s State[T]) clone() State[T] {
	out := s
	if s.Data != nil {
		out.Data = append(make([]T, 0, len(s.Data)), s.Data...)
	}
	if s.Summary != nil {
		out.Summary = append(json.RawMessage(nil), s.Summary...)
	}
	out.Params = cloneValues(s.Params)
	out.Loaded = cloneValues(s.Loaded)
	return out
}

func cloneValues(v url.Values) url.Values {
	if v == nil {
		return nil
	}
	out := make(url.Values, len(v))
	for k, vs := range v {
		out[k] = append([]string(nil), vs...)
	}
	return out
}

// Pending reports whether a fetch is in flight.
func (s State[T]) Pending() bool {
	return s.pending != 0
}

// Find returns the record with id.
func (s State[T]) Find(id string) (T, bool) {
	for _, item := range s.Data {
		if item.EntityID() == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// HasSummary reports whether the last successful fetch carried a summary.
func (s State[T]) HasSummary() bool {
	return s.Summary != nil
}
