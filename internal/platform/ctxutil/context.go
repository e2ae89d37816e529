package ctxutil

import "context"

type traceDataKey struct{}
type clientDataKey struct{}

type TraceData struct {
	TraceID   string
	RequestID string
}

// ClientData describes the caller of an HTTP request. Uploads are anonymous,
// so this is the only identity the gallery ever records.
type ClientData struct {
	ClientIP  string
	UserAgent string
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(ctx, traceDataKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	if ctx == nil {
		return nil
	}
	if td, ok := ctx.Value(traceDataKey{}).(*TraceData); ok {
		return td
	}
	return nil
}

func WithClientData(ctx context.Context, cd *ClientData) context.Context {
	return context.WithValue(ctx, clientDataKey{}, cd)
}

func GetClientData(ctx context.Context) *ClientData {
	if ctx == nil {
		return nil
	}
	if cd, ok := ctx.Value(clientDataKey{}).(*ClientData); ok {
		return cd
	}
	return nil
}

// Default returns context.Background() when ctx is nil.
func Default(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
