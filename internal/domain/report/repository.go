package report

import (
	"context"
	"net/url"
)

// Gateway fetches one report kind from /reports/:kind.
type Gateway interface {
	Report(ctx context.Context, kind Kind, params url.Values) (Report, error)
}
