package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thegrumpylion/google-mcp/internal/gmailerr"
)

func TestCheck_NonDestructiveToolAlwaysAllowed(t *testing.T) {
	err := Check(Request{ToolName: "list_emails", RequireConfirmation: true})
	assert.NoError(t, err)
}

func TestCheck_RequireConfirmationOffAllowsEverything(t *testing.T) {
	err := Check(Request{ToolName: "delete_emails_permanently", RequireConfirmation: false})
	assert.NoError(t, err)
}

func TestCheck_DryRunBypassesConfirmation(t *testing.T) {
	err := Check(Request{ToolName: "trash_emails", RequireConfirmation: true, DryRun: true})
	assert.NoError(t, err)
}

func TestCheck_DestructiveWithoutConfirmationDenied(t *testing.T) {
	err := Check(Request{ToolName: "trash_emails", RequireConfirmation: true})
	require.Error(t, err)
	assert.Equal(t, gmailerr.PolicyDenied, gmailerr.KindOf(err))
}

func TestCheck_DestructiveWithConfirmationAllowed(t *testing.T) {
	err := Check(Request{
		ToolName:            "trash_emails",
		RequireConfirmation: true,
		Confirmed:           true,
		ConfirmationToken:   "tok-1",
	})
	assert.NoError(t, err)
}

func TestCheck_PermanentDeleteRequiresSecondDistinctToken(t *testing.T) {
	req := Request{
		ToolName:            "delete_emails_permanently",
		RequireConfirmation: true,
		Confirmed:           true,
		ConfirmationToken:   "tok-1",
	}
	err := Check(req)
	require.Error(t, err)
	assert.Equal(t, gmailerr.PolicyDenied, gmailerr.KindOf(err))

	req.SecondConfirmToken = "tok-1"
	err = Check(req)
	require.Error(t, err, "second token identical to the first must still be denied")

	req.SecondConfirmToken = "tok-2"
	err = Check(req)
	assert.NoError(t, err)
}

func TestCheck_WriteSettingsToolTreatedAsDestructive(t *testing.T) {
	err := Check(Request{ToolName: "update_vacation_settings", RequireConfirmation: true})
	require.Error(t, err)
	assert.False(t, IsPermanentDelete("update_vacation_settings"))
	assert.True(t, IsDestructive("update_vacation_settings"))
}

func TestIsDestructive_UnknownToolFalse(t *testing.T) {
	assert.False(t, IsDestructive("list_labels"))
}
