package ports

import "github.com/bnema/fleet-carrier-cli/internal/domain"

type EventDecoder interface {
	Decode(line []byte) (domain.Event, error)
}
