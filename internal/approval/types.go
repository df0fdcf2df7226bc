package approval

// Type identifies what an approval request asks for.
type Type string

const (
	TypeProfileCreation Type = "profile_creation"
	TypeTimeOff         Type = "time_off"
	TypeSickLeave       Type = "sick_leave"
	TypeAnnualLeave     Type = "annual_leave"
)

var validTypes = map[Type]bool{
	TypeProfileCreation: true,
	TypeTimeOff:         true,
	TypeSickLeave:       true,
	TypeAnnualLeave:     true,
}

// IsValid returns true if the type is a known request type
func (t Type) IsValid() bool {
	return validTypes[t]
}

// IsTimeOffFamily returns true for types whose approval materializes a calendar entry
func (t Type) IsTimeOffFamily() bool {
	return t == TypeTimeOff || t == TypeSickLeave || t == TypeAnnualLeave
}

// Label is the human readable form used in email subjects ("SICK LEAVE").
func (t Type) Label() string {
	switch t {
	case TypeProfileCreation:
		return "PROFILE CREATION"
	case TypeTimeOff:
		return "TIME OFF"
	case TypeSickLeave:
		return "SICK LEAVE"
	case TypeAnnualLeave:
		return "ANNUAL LEAVE"
	default:
		return string(t)
	}
}

func (t Type) String() string {
	return string(t)
}

// Status is the lifecycle state of an approval request
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// IsTerminal returns true once no further transition is allowed
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// IsValid returns true if the status is a known status
func (s Status) IsValid() bool {
	return s == StatusPending || s.IsTerminal()
}

func (s Status) String() string {
	return string(s)
}

// Action is what an approver does to a pending request
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// ParseAction validates a raw action string taken from a link or route.
func ParseAction(raw string) (Action, error) {
	switch Action(raw) {
	case ActionApprove, ActionReject:
		return Action(raw), nil
	default:
		return "", NewValidationError("action", "must be approve or reject")
	}
}

// Outcome returns the status an action leads to
func (a Action) Outcome() Status {
	if a == ActionApprove {
		return StatusApproved
	}
	return StatusRejected
}

func (a Action) String() string {
	return string(a)
}

// Role is the scope a profile holds in the org hierarchy
type Role string

const (
	RoleAdmin          Role = "admin"
	RoleCompanyManager Role = "company_manager"
	RoleBrandManager   Role = "brand_manager"
	RoleStoreManager   Role = "store_manager"
)

// IsValid returns true for one of the four profile roles
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleCompanyManager, RoleBrandManager, RoleStoreManager:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// Time-off subtypes offered by the calendar.
const (
	SubtypeDayOff    = "day-off"
	SubtypeSickLeave = "sick-leave"
	SubtypeAnnual    = "annual"
	SubtypeWeekend   = "weekend"
	SubtypeAvailable = "available"
	SubtypeTravel    = "travel"
	SubtypeMission   = "mission"
)

var validSubtypes = map[string]bool{
	SubtypeDayOff:    true,
	SubtypeSickLeave: true,
	SubtypeAnnual:    true,
	SubtypeWeekend:   true,
	SubtypeAvailable: true,
	SubtypeTravel:    true,
	SubtypeMission:   true,
}

// DefaultSubtype returns the calendar subtype used when the submitter gives none.
func DefaultSubtype(t Type) string {
	switch t {
	case TypeSickLeave:
		return SubtypeSickLeave
	case TypeAnnualLeave:
		return SubtypeAnnual
	default:
		return SubtypeDayOff
	}
}
