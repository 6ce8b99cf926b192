package ports

import (
	"context"

	"github.com/netcriptus/raiden-services/internal/domain"
)

type Fetcher interface {
	Fetch(ctx context.Context) (domain.PollResult, error)
	BaseURL() string
	SetBaseURL(u string)
}
