package utils

import (
	"context"

	"github.com/socioadmin/tesoreria_backend/appctx"
)

var (
	ContextKeyToken         = appctx.ContextKeyToken
	ContextKeyActorId       = appctx.ContextKeyActorId
	ContextKeyActorName     = appctx.ContextKeyActorName
	ContextKeyCorrelationId = appctx.ContextKeyCorrelationId
	ContextKeyIsAdmin       = appctx.ContextKeyIsAdmin
)

func GetTokenFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyToken)
}

func GetActorIdFromContext(ctx context.Context) (int, bool) {
	return appctx.GetInt(ctx, ContextKeyActorId)
}

func GetActorNameFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyActorName)
}

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyCorrelationId)
}

func GetIsAdminFromContext(ctx context.Context) (bool, bool) {
	return appctx.GetBool(ctx, ContextKeyIsAdmin)
}

func SetTokenInContext(ctx context.Context, token string) context.Context {
	return appctx.Set(ctx, ContextKeyToken, token)
}

func SetActorIdInContext(ctx context.Context, actorId int) context.Context {
	return appctx.Set(ctx, ContextKeyActorId, actorId)
}

func SetActorNameInContext(ctx context.Context, actorName string) context.Context {
	return appctx.Set(ctx, ContextKeyActorName, actorName)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return appctx.Set(ctx, ContextKeyCorrelationId, correlationId)
}

func SetIsAdminInContext(ctx context.Context, isAdmin bool) context.Context {
	return appctx.Set(ctx, ContextKeyIsAdmin, isAdmin)
}
