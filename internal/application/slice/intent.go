package slice

import (
	"encoding/json"
	"net/url"
	"time"

	"github.com/multipos/console/internal/domain/shared"
)

// Intent is a requested state change.
type Intent interface {
	intent()
}

type FetchStarted struct {
	Token  uint64
	Params url.Values
}

type FetchSucceeded[T shared.Entity] struct {
	Token   uint64
	Data    []T
	Summary json.RawMessage
	At      time.Time
}

type FetchFailed struct {
	Token   uint64
	Message string
}

// FetchAbandoned clears the loading flag of a fetch whose caller went
// away, without recording an error.
type FetchAbandoned struct {
	Token uint64
}

type MutationStarted struct{}

type MutationFailed struct {
	Message string
}

type Created[T shared.Entity] struct{ Item T }

type Updated[T shared.Entity] struct{ Item T }

type Deleted struct{ ID string }

// Reset returns the slice to its initial state and abandons in-flight fetches.
type Reset struct{}

func (FetchStarted) intent()      {}
func (FetchSucceeded[T]) intent() {}
func (FetchFailed) intent()       {}
func (FetchAbandoned) intent()    {}
func (MutationStarted) intent()   {}
func (MutationFailed) intent()    {}
func (Created[T]) intent()        {}
func (Updated[T]) intent()        {}
func (Deleted) intent()           {}
func (Reset) intent()             {}

// Reduce applies in to s. The second result is false when the intent was
// discarded, which happens for fetch completions whose token is stale.
func Reduce[T shared.Entity](s State[T], in Intent) (State[T], bool) {
	switch in := in.(type) {
	case FetchStarted:
		s.pending = in.Token
		s.Loading = true
		s.Params = in.Params
		return s, true

	case FetchSucceeded[T]:
		if in.Token != s.pending {
			return s, false
		}
		s.pending = 0
		s.Loading = false
		s.Error = ""
		s.Data = in.Data
		if s.Data == nil {
			s.Data = []T{}
		}
		s.Summary = in.Summary
		s.Loaded = s.Params
		s.LastFetched = in.At
		return s, true

	case FetchFailed:
		if in.Token != s.pending {
			return s, false
		}
		// Data is left as it was: stale-while-error.
		s.pending = 0
		s.Loading = false
		s.Error = in.Message
		return s, true

	case FetchAbandoned:
		if in.Token != s.pending {
			return s, false
		}
		s.pending = 0
		s.Loading = false
		return s, true

	case MutationStarted:
		s.Saving = true
		return s, true

	case MutationFailed:
		s.Saving = false
		s.Error = in.Message
		return s, true

	case Created[T]:
		s.Saving = false
		s.Error = ""
		s.Data = upsert(s.Data, in.Item)
		return s, true

	case Updated[T]:
		s.Saving = false
		s.Error = ""
		s.Data = upsert(s.Data, in.Item)
		return s, true

	case Deleted:
		s.Saving = false
		s.Error = ""
		s.Data = remove(s.Data, in.ID)
		return s, true

	case Reset:
		return State[T]{}, true
	}
	return s, false
}

// upsert replaces every record sharing item's id with item, keeping the
// first position and dropping duplicates, or appends when none exists.
func upsert[T shared.Entity](data []T, item T) []T {
	id := item.EntityID()
	out := make([]T, 0, len(data)+1)
	found := false
	for _, d := range data {
		if d.EntityID() != id {
			out = append(out, d)
			continue
		}
		if !found {
			out = append(out, item)
			found = true
		}
	}
	if !found {
		out = append(out, item)
	}
	return out
}

func remove[T shared.Entity](data []T, id string) []T {
	out := make([]T, 0, len(data))
	for _, d := range data {
		if d.EntityID() != id {
			out = append(out, d)
		}
	}
	return out
}
