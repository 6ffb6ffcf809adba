// Package appcontext carries per-request identity through the context
package appcontext

import "context"

type contextKey string

var (
	requestIDKey = contextKey("X-Request-Id")
	methodKey    = contextKey("X-Method")
	routeKey     = contextKey("X-Route")
	remoteIPKey  = contextKey("X-Remote-Ip")
	tenantIDKey  = contextKey("X-Tenant-Id")
	userIDKey    = contextKey("X-User-Id")
)

func set(ctx context.Context, key contextKey, value string) context.Context {
	return context.WithValue(ctx, key, value)
}

func get(ctx context.Context, key contextKey) string {
	value, ok := ctx.Value(key).(string)
	if !ok {
		return ""
	}
	return value
}

func SetRequestID(ctx context.Context, requestID string) context.Context {
	return set(ctx, requestIDKey, requestID)
}

func GetRequestID(ctx context.Context) string {
	return get(ctx, requestIDKey)
}

func SetMethod(ctx context.Context, method string) context.Context {
	return set(ctx, methodKey, method)
}

func GetMethod(ctx context.Context) string {
	return get(ctx, methodKey)
}

func SetRoute(ctx context.Context, route string) context.Context {
	return set(ctx, routeKey, route)
}

func GetRoute(ctx context.Context) string {
	return get(ctx, routeKey)
}

func SetRemoteIP(ctx context.Context, remoteIP string) context.Context {
	return set(ctx, remoteIPKey, remoteIP)
}

func GetRemoteIP(ctx context.Context) string {
	return get(ctx, remoteIPKey)
}

func SetTenantID(ctx context.Context, tenantID string) context.Context {
	return set(ctx, tenantIDKey, tenantID)
}

func GetTenantID(ctx context.Context) string {
	return get(ctx, tenantIDKey)
}

// SetUserID records the authenticated caller; reviewer attribution on
// decision approvals comes from here.
func SetUserID(ctx context.Context, userID string) context.Context {
	return set(ctx, userIDKey, userID)
}

func GetUserID(ctx context.Context) string {
	return get(ctx, userIDKey)
}
