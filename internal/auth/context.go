package auth

import (
	"context"
	"errors"
)

type ctxKey int

const (
	ctxUserID ctxKey = iota
	ctxMerchantID
	ctxRole
)

func WithIdentity(ctx context.Context, id Identity) context.Context {
	ctx = context.WithValue(ctx, ctxUserID, id.UserID)
	ctx = context.WithValue(ctx, ctxMerchantID, id.MerchantID)
	ctx = context.WithValue(ctx, ctxRole, id.Role)
	return ctx
}

func UserID(ctx context.Context) (string, error) {
	v := ctx.Value(ctxUserID)
	if s, ok := v.(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("user_id not in context")
}

func MerchantID(ctx context.Context) (string, error) {
	v := ctx.Value(ctxMerchantID)
	if s, ok := v.(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("merchant_id not in context")
}

func Role(ctx context.Context) (string, error) {
	v := ctx.Value(ctxRole)
	if s, ok := v.(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("role not in context")
}

// CallerIdentity returns the full identity stored by the auth middleware.
func CallerIdentity(ctx context.Context) (Identity, error) {
	uid, _ := UserID(ctx)
	mid, _ := MerchantID(ctx)
	role, _ := Role(ctx)
	id := Identity{UserID: uid, MerchantID: mid, Role: role}
	if uid == "" && mid == "" {
		return Identity{}, errors.New("identity not in context")
	}
	return id, nil
}
