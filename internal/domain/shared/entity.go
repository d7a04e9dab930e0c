package shared

import "time"

// Entity is any backend record the console keeps a copy of. Slices use the
// id to splice single records after a mutation.
type Entity interface {
	EntityID() string
}

// Timestamps is embedded by records that carry creation/update times.
type Timestamps struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

// ReadTimestamps accepts createdAt/created_at and updatedAt/updated_at.
func ReadTimestamps(f Fields) Timestamps {
	return Timestamps{CreatedAt: f.Time("createdAt"), UpdatedAt: f.Time("updatedAt")}
}

// Download is a file produced by the server, passed through untouched.
type Download struct {
	FileName    string
	ContentType string
	Body        []byte
}
