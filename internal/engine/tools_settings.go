package engine

import (
	"context"

	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/thegrumpylion/google-mcp/internal/dispatch"
)

func (e *Engine) registerSettingsTools() {
	e.registry.Register(dispatch.Handler{Name: "get_vacation_settings", NewInput: func() any { return &struct{}{} }, Handle: e.handleGetVacationSettings})
	e.registry.Register(dispatch.Handler{Name: "update_vacation_settings", NewInput: func() any { return &updateVacationInput{} }, Handle: e.handleUpdateVacationSettings})
	e.registry.Register(dispatch.Handler{Name: "get_imap_settings", NewInput: func() any { return &struct{}{} }, Handle: e.handleGetImapSettings})
	e.registry.Register(dispatch.Handler{Name: "update_imap_settings", NewInput: func() any { return &updateImapInput{} }, Handle: e.handleUpdateImapSettings})
	e.registry.Register(dispatch.Handler{Name: "get_pop_settings", NewInput: func() any { return &struct{}{} }, Handle: e.handleGetPopSettings})
	e.registry.Register(dispatch.Handler{Name: "update_pop_settings", NewInput: func() any { return &updatePopInput{} }, Handle: e.handleUpdatePopSettings})
}

func (e *Engine) handleGetVacationSettings(ctx context.Context, _ any, _ dispatch.Context) dispatch.Result {
	v, err := e.ops.GetVacationSettings(ctx)
	if err != nil {
		return errResult(err)
	}
	return dataResult(v)
}

func (e *Engine) handleUpdateVacationSettings(ctx context.Context, rawInput any, _ dispatch.Context) dispatch.Result {
	in := rawInput.(*updateVacationInput)
	v, err := e.ops.UpdateVacationSettings(ctx, &gmailapi.VacationSettings{
		EnableAutoReply:    in.EnableAutoReply,
		ResponseSubject:    in.ResponseSubject,
		ResponseBodyPlainText: in.ResponseBodyPlain,
		StartTime:          in.StartTime,
		EndTime:            in.EndTime,
		RestrictToContacts: in.RestrictToContacts,
		RestrictToDomain:   in.RestrictToDomain,
	})
	if err != nil {
		return errResult(err)
	}
	return dataResult(v)
}

func (e *Engine) handleGetImapSettings(ctx context.Context, _ any, _ dispatch.Context) dispatch.Result {
	v, err := e.ops.GetImapSettings(ctx)
	if err != nil {
		return errResult(err)
	}
	return dataResult(v)
}

func (e *Engine) handleUpdateImapSettings(ctx context.Context, rawInput any, _ dispatch.Context) dispatch.Result {
	in := rawInput.(*updateImapInput)
	v, err := e.ops.UpdateImapSettings(ctx, &gmailapi.ImapSettings{
		Enabled:         in.Enabled,
		AutoExpunge:     in.AutoExpunge,
		ExpungeBehavior: in.ExpungeBehavior,
		MaxFolderSize:   in.MaxFolderSize,
	})
	if err != nil {
		return errResult(err)
	}
	return dataResult(v)
}

func (e *Engine) handleGetPopSettings(ctx context.Context, _ any, _ dispatch.Context) dispatch.Result {
	v, err := e.ops.GetPopSettings(ctx)
	if err != nil {
		return errResult(err)
	}
	return dataResult(v)
}

func (e *Engine) handleUpdatePopSettings(ctx context.Context, rawInput any, _ dispatch.Context) dispatch.Result {
	in := rawInput.(*updatePopInput)
	v, err := e.ops.UpdatePopSettings(ctx, &gmailapi.PopSettings{
		AccessWindow: in.AccessWindow,
		Disposition:  in.Disposition,
	})
	if err != nil {
		return errResult(err)
	}
	return dataResult(v)
}
