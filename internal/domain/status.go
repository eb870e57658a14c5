package domain

import "time"

type Status string

const (
	StatusIdle           Status = "idle"
	StatusJumping        Status = "jumping"
	StatusCoolDown       Status = "cool_down"
	StatusCoolDownCancel Status = "cool_down_cancel"
)

func (s Status) Label() string {
	switch s {
	case StatusJumping:
		return "Jumping"
	case StatusCoolDown, StatusCoolDownCancel:
		return "Cooling Down"
	case StatusIdle:
		return "Idle"
	default:
		return string(s)
	}
}

const (
	DefaultJumpCooldown   = 4*time.Minute + 50*time.Second
	DefaultCancelCooldown = time.Minute
)

type Cooldowns struct {
	Jump   time.Duration
	Cancel time.Duration
}

func DefaultCooldowns() Cooldowns {
	return Cooldowns{Jump: DefaultJumpCooldown, Cancel: DefaultCancelCooldown}
}
