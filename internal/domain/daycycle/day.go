package daycycle

import (
	"strings"
	"time"
)

// State is a business-day lifecycle state
type State string

const (
	StateLoading     State = "LOADING"
	StateOpen        State = "OPEN"
	StateClosing     State = "CLOSING"
	StateReconciling State = "RECONCILING"
	StateClosed      State = "CLOSED"
)

// allowedTransitions holds the only legal state-machine edges. A
// transition to the current state is always a permitted no-op and is
// handled before this table is consulted.
var allowedTransitions = map[State][]State{
	StateClosed:      {StateLoading},
	StateLoading:     {StateOpen, StateClosed},
	StateOpen:        {StateClosing},
	StateClosing:     {StateReconciling},
	StateReconciling: {StateClosed},
}

// ParseState maps a raw string to a known State, returning false for anything else
func ParseState(raw string) (State, bool) {
	switch State(raw) {
	case StateLoading, StateOpen, StateClosing, StateReconciling, StateClosed:
		return State(raw), true
	}
	return "", false
}

// AllowedNext returns the legal target states from the given state
func AllowedNext(from State) []State {
	return allowedTransitions[from]
}

// CanTransition reports whether from→to is a legal edge. Same-state
// requests are always allowed (idempotent check).
func CanTransition(from, to State) bool {
	if from == to {
		return true
	}
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Day is the per-calendar-date business cycle record. Exactly one row
// exists per business date; it is created lazily in LOADING and never
// deleted.
type Day struct {
	BusinessDate        time.Time  `json:"business_date"`
	State               State      `json:"state"`
	BranchesLoaded      int        `json:"branches_loaded"`
	TotalAccountsLoaded int        `json:"total_accounts_loaded"`
	OpenedAt            *time.Time `json:"opened_at,omitempty"`
	OpenedBy            string     `json:"opened_by,omitempty"`
	ClosedAt            *time.Time `json:"closed_at,omitempty"`
	ClosedBy            string     `json:"closed_by,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// Loaded reports whether at least one branch snapshot has been applied,
// the guard for the LOADING→OPEN edge
func (d *Day) Loaded() bool {
	return d.TotalAccountsLoaded > 0 && d.BranchesLoaded > 0
}

// ErrInvalidTransition indicates a requested edge outside the transition table
type ErrInvalidTransition struct {
	Current   State
	Requested State
}

func (e ErrInvalidTransition) Error() string {
	allowed := make([]string, 0, len(AllowedNext(e.Current)))
	for _, s := range AllowedNext(e.Current) {
		allowed = append(allowed, string(s))
	}
	return "invalid day transition from " + string(e.Current) + " to " + string(e.Requested) +
		" (allowed: " + strings.Join(allowed, ", ") + ")"
}

// ErrNotLoaded indicates an attempt to open the day before any snapshot load
type ErrNotLoaded struct{}

func (e ErrNotLoaded) Error() string {
	return "day cannot open: no account snapshot has been loaded"
}

// ErrDayNotLoadable indicates a snapshot load attempted outside CLOSED/LOADING
type ErrDayNotLoadable struct {
	Current State
}

func (e ErrDayNotLoadable) Error() string {
	return "day not loadable in state " + string(e.Current)
}

// ErrDayNotOpen indicates a transaction attempted while the day is not OPEN
type ErrDayNotOpen struct {
	Current State
}

func (e ErrDayNotOpen) Error() string {
	return "day not open for transactions (state " + string(e.Current) + ")"
}

// ErrDayNotClosing indicates a handoff submitted outside CLOSING/RECONCILING
type ErrDayNotClosing struct {
	Current State
}

func (e ErrDayNotClosing) Error() string {
	return "handoff not accepted in state " + string(e.Current)
}
