package approval

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTimeOff() *TimeOffPayload {
	return &TimeOffPayload{
		Kind:         TypeTimeOff,
		EmployeeID:   uuid.New(),
		EmployeeName: "Dana Reyes",
		StoreID:      uuid.New(),
		StoreName:    "Downtown",
		StartDate:    "2026-03-02",
		EndDate:      "2026-03-04",
		Subtype:      SubtypeDayOff,
	}
}

func TestTimeOffPayload_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *TimeOffPayload)
		field  string
	}{
		{"valid", func(p *TimeOffPayload) {}, ""},
		{"single day", func(p *TimeOffPayload) { p.EndDate = p.StartDate }, ""},
		{"missing employee", func(p *TimeOffPayload) { p.EmployeeID = uuid.Nil }, "employee_id"},
		{"bad start", func(p *TimeOffPayload) { p.StartDate = "03/02/2026" }, "start_date"},
		{"bad end", func(p *TimeOffPayload) { p.EndDate = "" }, "end_date"},
		{"end before start", func(p *TimeOffPayload) { p.EndDate = "2026-03-01" }, "end_date"},
		{"unknown subtype", func(p *TimeOffPayload) { p.Subtype = "vacation-ish" }, "subtype"},
		{"notes too long", func(p *TimeOffPayload) { p.Notes = strings.Repeat("a", MaxNotesLength+1) }, "notes"},
		{"multibyte notes at limit", func(p *TimeOffPayload) { p.Notes = strings.Repeat("é", MaxNotesLength) }, ""},
		{"multibyte notes over limit", func(p *TimeOffPayload) { p.Notes = strings.Repeat("é", MaxNotesLength+1) }, "notes"},
		{"wrong kind", func(p *TimeOffPayload) { p.Kind = TypeProfileCreation }, "type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validTimeOff()
			tt.mutate(p)
			err := p.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrValidation)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestTimeOffPayload_Days(t *testing.T) {
	p := validTimeOff()
	assert.Equal(t, 3, p.Days())
	p.EndDate = p.StartDate
	assert.Equal(t, 1, p.Days())
}

func TestProfileCreationPayload_Validate(t *testing.T) {
	company := uuid.New()
	tests := []struct {
		name    string
		payload ProfileCreationPayload
		field   string
	}{
		{
			name:    "store manager",
			payload: ProfileCreationPayload{Email: "sam@example.com", PasswordHash: "x", FullName: "Sam", Role: RoleStoreManager},
		},
		{
			name:    "brand manager with brands",
			payload: ProfileCreationPayload{Email: "bo@example.com", PasswordHash: "x", FullName: "Bo", Role: RoleBrandManager, CompanyID: &company, BrandIDs: []uuid.UUID{uuid.New()}},
		},
		{
			name:    "brand manager without brands",
			payload: ProfileCreationPayload{Email: "bo@example.com", PasswordHash: "x", FullName: "Bo", Role: RoleBrandManager, CompanyID: &company},
			field:   "brand_ids",
		},
		{
			name:    "company manager without company",
			payload: ProfileCreationPayload{Email: "cm@example.com", PasswordHash: "x", FullName: "Cy", Role: RoleCompanyManager},
			field:   "company_id",
		},
		{
			name:    "bad email",
			payload: ProfileCreationPayload{Email: "not-an-email", PasswordHash: "x", FullName: "Sam", Role: RoleStoreManager},
			field:   "email",
		},
		{
			name:    "unknown role",
			payload: ProfileCreationPayload{Email: "sam@example.com", PasswordHash: "x", FullName: "Sam", Role: "owner"},
			field:   "role",
		},
		{
			name:    "multibyte name",
			payload: ProfileCreationPayload{Email: "lu@example.com", PasswordHash: "x", FullName: strings.Repeat("Ł", 60), Role: RoleStoreManager},
		},
		{
			name:    "multibyte name over limit",
			payload: ProfileCreationPayload{Email: "lu@example.com", PasswordHash: "x", FullName: strings.Repeat("Ł", MaxFullNameLength+1), Role: RoleStoreManager},
			field:   "full_name",
		},
		{
			name:    "missing name",
			payload: ProfileCreationPayload{Email: "sam@example.com", PasswordHash: "x", Role: RoleAdmin},
			field:   "full_name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.payload.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestDecodePayload_RestoresVariant(t *testing.T) {
	original := validTimeOff()
	original.Kind = TypeSickLeave
	original.Subtype = SubtypeSickLeave

	raw, err := EncodePayload(original)
	require.NoError(t, err)

	decoded, err := DecodePayload(TypeSickLeave, raw)
	require.NoError(t, err)

	timeOff, ok := decoded.(*TimeOffPayload)
	require.True(t, ok, "expected *TimeOffPayload, got %T", decoded)
	assert.Equal(t, TypeSickLeave, timeOff.Type())
	assert.Equal(t, original.EmployeeID, timeOff.EmployeeID)
	assert.Equal(t, "Downtown", timeOff.StoreName)

	_, err = DecodePayload(Type("expense"), raw)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestEncodePayload_RejectsInvalid(t *testing.T) {
	p := validTimeOff()
	p.EmployeeID = uuid.Nil
	_, err := EncodePayload(p)
	assert.ErrorIs(t, err, ErrValidation)
}
