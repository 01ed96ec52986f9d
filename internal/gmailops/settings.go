package gmailops

import (
	"context"

	gmailapi "google.golang.org/api/gmail/v1"
)

// Settings Ops.

func (o *Ops) GetVacationSettings(ctx context.Context) (*gmailapi.VacationSettings, error) {
	return o.client.GetVacation(ctx)
}

func (o *Ops) UpdateVacationSettings(ctx context.Context, v *gmailapi.VacationSettings) (*gmailapi.VacationSettings, error) {
	return o.client.UpdateVacation(ctx, v)
}

func (o *Ops) GetImapSettings(ctx context.Context) (*gmailapi.ImapSettings, error) {
	return o.client.GetImap(ctx)
}

func (o *Ops) UpdateImapSettings(ctx context.Context, v *gmailapi.ImapSettings) (*gmailapi.ImapSettings, error) {
	return o.client.UpdateImap(ctx, v)
}

func (o *Ops) GetPopSettings(ctx context.Context) (*gmailapi.PopSettings, error) {
	return o.client.GetPop(ctx)
}

func (o *Ops) UpdatePopSettings(ctx context.Context, v *gmailapi.PopSettings) (*gmailapi.PopSettings, error) {
	return o.client.UpdatePop(ctx, v)
}
