package ports

import "github.com/netcriptus/raiden-services/internal/domain"

type Sink interface {
	Push(u domain.Update) error
	Name() string
}
