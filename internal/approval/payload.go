package approval

import (
	"encoding/json"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// DateLayout is the calendar date format used in payloads and entries.
const DateLayout = "2006-01-02"

// Length limits count characters, not bytes.
const (
	MaxNotesLength    = 500
	MaxFullNameLength = 100
)

// Payload is the type-specific snapshot stored in approval_requests.request_data.
// Each variant carries everything its approval side effect needs.
type Payload interface {
	Type() Type
	Validate() error
}

// TimeOffPayload backs time_off, sick_leave and annual_leave requests. Names are
// denormalized so emails and audits survive renames or deletes of the employee or store.
type TimeOffPayload struct {
	Kind         Type      `json:"-"`
	EmployeeID   uuid.UUID `json:"employeeId"`
	EmployeeName string    `json:"employeeName"`
	StoreID      uuid.UUID `json:"storeId"`
	StoreName    string    `json:"storeName"`
	StartDate    string    `json:"startDate"`
	EndDate      string    `json:"endDate"`
	Subtype      string    `json:"subtype"`
	Notes        string    `json:"notes,omitempty"`
}

func (p *TimeOffPayload) Type() Type {
	return p.Kind
}

func (p *TimeOffPayload) Validate() error {
	if !p.Kind.IsTimeOffFamily() {
		return NewValidationError("type", fmt.Sprintf("%q is not a time-off type", p.Kind))
	}
	if p.EmployeeID == uuid.Nil {
		return NewValidationError("employee_id", "is required")
	}
	start, end, err := ParseDateRange(p.StartDate, p.EndDate)
	if err != nil {
		return err
	}
	if end.Before(start) {
		return NewValidationError("end_date", "must be on or after start_date")
	}
	if !validSubtypes[p.Subtype] {
		return NewValidationError("subtype", fmt.Sprintf("unknown subtype %q", p.Subtype))
	}
	if utf8.RuneCountInString(p.Notes) > MaxNotesLength {
		return NewValidationError("notes", fmt.Sprintf("must be at most %d characters", MaxNotesLength))
	}
	return nil
}

// Days returns the inclusive number of calendar days covered.
func (p *TimeOffPayload) Days() int {
	start, end, err := ParseDateRange(p.StartDate, p.EndDate)
	if err != nil || end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// ProfileCreationPayload backs self-signup requests. The password is stored only as a
// bcrypt hash; the account itself is created when an admin approves.
type ProfileCreationPayload struct {
	Email        string      `json:"email"`
	PasswordHash string      `json:"passwordHash,omitempty"`
	FullName     string      `json:"fullName"`
	Role         Role        `json:"role"`
	CompanyID    *uuid.UUID  `json:"companyId,omitempty"`
	BrandIDs     []uuid.UUID `json:"brandIds,omitempty"`
	StoreID      *uuid.UUID  `json:"storeId,omitempty"`
}

func (p *ProfileCreationPayload) Type() Type {
	return TypeProfileCreation
}

func (p *ProfileCreationPayload) Validate() error {
	if _, err := mail.ParseAddress(p.Email); err != nil || strings.ContainsAny(p.Email, " <>") {
		return NewValidationError("email", "must be a valid email address")
	}
	if strings.TrimSpace(p.FullName) == "" {
		return NewValidationError("full_name", "is required")
	}
	if utf8.RuneCountInString(p.FullName) > MaxFullNameLength {
		return NewValidationError("full_name", fmt.Sprintf("must be at most %d characters", MaxFullNameLength))
	}
	if p.PasswordHash == "" {
		return NewValidationError("password", "is required")
	}
	if !p.Role.IsValid() {
		return NewValidationError("role", fmt.Sprintf("unknown role %q", p.Role))
	}
	switch p.Role {
	case RoleCompanyManager:
		if p.CompanyID == nil {
			return NewValidationError("company_id", "is required for company managers")
		}
	case RoleBrandManager:
		if p.CompanyID == nil {
			return NewValidationError("company_id", "is required for brand managers")
		}
		if len(p.BrandIDs) == 0 {
			return NewValidationError("brand_ids", "at least one brand is required for brand managers")
		}
	}
	return nil
}

// EncodePayload serializes a validated payload for storage.
func EncodePayload(p Payload) (datatypes.JSON, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", p.Type(), err)
	}
	return datatypes.JSON(raw), nil
}

// DecodePayload restores the variant matching t from stored JSON.
func DecodePayload(t Type, raw datatypes.JSON) (Payload, error) {
	switch {
	case t.IsTimeOffFamily():
		p := &TimeOffPayload{}
		if err := json.Unmarshal(raw, p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", t, err)
		}
		p.Kind = t
		return p, nil
	case t == TypeProfileCreation:
		p := &ProfileCreationPayload{}
		if err := json.Unmarshal(raw, p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", t, err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("%w: unknown request type %q", ErrValidation, t)
	}
}

// ParseDateRange parses both calendar dates, reporting the first bad field.
func ParseDateRange(startRaw, endRaw string) (time.Time, time.Time, error) {
	start, err := time.Parse(DateLayout, startRaw)
	if err != nil {
		return time.Time{}, time.Time{}, NewValidationError("start_date", "must be a YYYY-MM-DD date")
	}
	end, err := time.Parse(DateLayout, endRaw)
	if err != nil {
		return time.Time{}, time.Time{}, NewValidationError("end_date", "must be a YYYY-MM-DD date")
	}
	return start, end, nil
}
