// Package policy enforces the dispatcher's policy step:
// dry-run/confirmation requirements for destructive tools, the permanent-
// delete double-confirmation, and write-class settings confirmation.
package policy

import "github.com/thegrumpylion/google-mcp/internal/gmailerr"

// destructiveTools require either dry_run=true or a confirmation flag.
var destructiveTools = map[string]bool{
	"trash_emails":               true,
	"delete_emails_permanently":  true,
	"delete_draft":               true,
	"delete_thread_permanently":  true,
	"delete_rule":                true,
}

// permanentDeleteTools additionally require a second, distinct
// confirmation token recorded within the same session turn.
var permanentDeleteTools = map[string]bool{
	"delete_emails_permanently": true,
	"delete_thread_permanently": true,
}

// writeSettingsTools require the same single confirmation as a normal
// destructive tool, but are not permanent-delete variants.
var writeSettingsTools = map[string]bool{
	"update_vacation_settings": true,
	"update_imap_settings":     true,
	"update_pop_settings":      true,
}

// Request carries everything the policy check needs from a dispatched
// call.
type Request struct {
	ToolName              string
	DryRun                bool
	Confirmed             bool
	ConfirmationToken     string
	SecondConfirmToken    string
	RequireConfirmation   bool // process config: require_confirmation_for_destructive
}

// IsDestructive reports whether tool requires confirmation/dry-run at all.
func IsDestructive(tool string) bool {
	return destructiveTools[tool] || writeSettingsTools[tool]
}

// IsPermanentDelete reports whether tool requires the double confirmation.
func IsPermanentDelete(tool string) bool {
	return permanentDeleteTools[tool]
}

// Check enforces the policy step, returning a PolicyDenied error when the
// request lacks the confirmation its tool requires.
func Check(req Request) error {
	if !req.RequireConfirmation {
		return nil
	}
	if !IsDestructive(req.ToolName) {
		return nil
	}
	if req.DryRun {
		return nil
	}
	if !req.Confirmed || req.ConfirmationToken == "" {
		return gmailerr.New(gmailerr.PolicyDenied, "confirmation required")
	}
	if IsPermanentDelete(req.ToolName) {
		if req.SecondConfirmToken == "" || req.SecondConfirmToken == req.ConfirmationToken {
			return gmailerr.New(gmailerr.PolicyDenied, "permanent delete requires a second, distinct confirmation token")
		}
	}
	return nil
}
