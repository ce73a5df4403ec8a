package templates

import "fmt"

// ErrTemplateNotFound is returned when a template kind or identifier is not
// part of the catalog. It is the only failure mode of the renderer.
var ErrTemplateNotFound = fmt.Errorf("template not found")

// Kind identifies one of the notification templates of the catalog. The set
// is closed: adding a template means adding a constant here and a case to
// every switch below, which the compiler and the catalog tests enforce.
type Kind int

const (
	AdminWelcome Kind = iota
	MemberWelcomePending
	MemberApproved
	TrainingVerified
	TrainingRejected
	RoleUpdated
	PasswordChanged
	AccountSuspended
	OrgAnnouncement
)

// Kinds lists every template of the catalog.
var Kinds = []Kind{
	AdminWelcome,
	MemberWelcomePending,
	MemberApproved,
	TrainingVerified,
	TrainingRejected,
	RoleUpdated,
	PasswordChanged,
	AccountSuspended,
	OrgAnnouncement,
}

// definition holds the static parts of a template: the asset file key, the
// subject line, the plain text fallback body and the parameter keys the
// template substitutes. Subject and plain body are text templates themselves.
type definition struct {
	file    string
	subject string
	plain   string
	params  []string
}

// TemplateID returns the identifier under which the template is registered
// with the primary delivery provider. It doubles as the asset file key.
func (k Kind) TemplateID() string {
	def, err := k.definition()
	if err != nil {
		return ""
	}
	return def.file
}

// RequiredParams returns the parameter keys the template substitutes. Extra
// keys are harmless; missing keys render as empty strings.
func (k Kind) RequiredParams() []string {
	def, err := k.definition()
	if err != nil {
		return nil
	}
	return def.params
}

// ByTemplateID resolves a provider template identifier back to its Kind.
func ByTemplateID(id string) (Kind, error) {
	for _, k := range Kinds {
		if k.TemplateID() == id {
			return k, nil
		}
	}
	return 0, ErrTemplateNotFound
}

func (k Kind) definition() (definition, error) {
	switch k {
	case AdminWelcome:
		return definition{
			file:    "admin_welcome",
			subject: "Welcome to {{.orgName}}",
			plain: `Hi {{.name}},

An administrator account has been created for you at {{.orgName}}.
Open the admin dashboard: {{.link}}`,
			params: []string{"name", "orgName", "link"},
		}, nil
	case MemberWelcomePending:
		return definition{
			file:    "member_welcome_pending",
			subject: "Registration received at {{.orgName}}",
			plain: `Hi {{.name}},

Thank you for registering with {{.orgName}}. Your application is awaiting
approval by a club administrator.`,
			params: []string{"name", "orgName"},
		}, nil
	case MemberApproved:
		return definition{
			file:    "member_approved",
			subject: "Your membership at {{.orgName}} has been approved",
			plain: `Hi {{.name}},

Your membership at {{.orgName}} has been approved.
Go to your member page: {{.link}}`,
			params: []string{"name", "orgName", "link"},
		}, nil
	case TrainingVerified:
		return definition{
			file:    "training_verified",
			subject: "Training session verified",
			plain: `Hi {{.name}},

Your training session at {{.orgName}} has been verified.

Date: {{.date}}
Duration: {{.duration}} minutes
Discipline: {{.discipline}}
Verified by: {{.verifiedBy}}`,
			params: []string{"name", "orgName", "date", "duration", "discipline", "verifiedBy"},
		}, nil
	case TrainingRejected:
		return definition{
			file:    "training_rejected",
			subject: "Training session rejected",
			plain: `Hi {{.name}},

Your training session logged on {{.date}} ({{.discipline}}) was not
approved by {{.orgName}}.
Reason: {{.reason}}`,
			params: []string{"name", "orgName", "date", "discipline", "reason"},
		}, nil
	case RoleUpdated:
		return definition{
			file:    "role_updated",
			subject: "Your role at {{.orgName}} has changed",
			plain: `Hi {{.name}},

Your role at {{.orgName}} is now {{.role}}.`,
			params: []string{"name", "orgName", "role"},
		}, nil
	case PasswordChanged:
		return definition{
			file:    "password_changed",
			subject: "Your password has been changed",
			plain: `Hi {{.name}},

The password for your {{.orgName}} account was changed on {{.date}}.
If you did not make this change, contact a club administrator immediately.`,
			params: []string{"name", "orgName", "date"},
		}, nil
	case AccountSuspended:
		return definition{
			file:    "account_suspended",
			subject: "Your account at {{.orgName}} has been suspended",
			plain: `Hi {{.name}},

Your account at {{.orgName}} has been deactivated. If you have questions
about this decision, contact a club administrator.`,
			params: []string{"name", "orgName"},
		}, nil
	case OrgAnnouncement:
		return definition{
			file:    "org_announcement",
			subject: "{{.title}}",
			plain: `Hi {{.name}},

{{.message}}

— {{.orgName}}`,
			params: []string{"name", "orgName", "title", "message"},
		}, nil
	default:
		return definition{}, ErrTemplateNotFound
	}
}
