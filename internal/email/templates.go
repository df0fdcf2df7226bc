package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// TimeOffData fills the approve/reject email sent to the resolved approver.
type TimeOffData struct {
	TypeLabel     string
	EmployeeName  string
	StoreName     string
	StartDate     string
	EndDate       string
	Days          int
	Subtype       string
	Notes         string
	RequesterName string
	ApproverName  string
	ApproveURL    string
	RejectURL     string
}

// SignupData fills the informational notice sent to an admin for a profile-creation request.
type SignupData struct {
	FullName  string
	Email     string
	Role      string
	AdminName string
}

// RenderTimeOff returns subject and HTML body for a time-off family request.
func RenderTimeOff(d TimeOffData) (string, string, error) {
	body, err := execute("time_off_request.html", d)
	if err != nil {
		return "", "", err
	}
	return fmt.Sprintf("%s Request - %s", d.TypeLabel, d.EmployeeName), body, nil
}

// RenderSignup returns subject and HTML body for a profile-creation notice.
func RenderSignup(d SignupData) (string, string, error) {
	body, err := execute("profile_creation.html", d)
	if err != nil {
		return "", "", err
	}
	return "New Profile Creation Request - " + d.FullName, body, nil
}

func execute(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
