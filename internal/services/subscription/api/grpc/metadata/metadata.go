// Package metadata defines the gRPC headers the subscription service reads
// and the interceptor that guarantees every call carries a request ID.
package metadata

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/fruitbox12/Subscription/internal/platform/errors/i18n"
	"github.com/fruitbox12/Subscription/internal/platform/id"
	"github.com/fruitbox12/Subscription/internal/platform/requestctx"
)

const (
	// RequestIDHeader carries the request correlation ID.
	RequestIDHeader = "x-subscription-request-id"
	// CallerHeader carries the caller identity when caller grants are disabled.
	CallerHeader = "x-subscription-caller"
	// LocaleHeader selects the language of error messages.
	LocaleHeader = "x-subscription-locale"
	// AcceptLanguageHeader is consulted when LocaleHeader is absent.
	AcceptLanguageHeader = "accept-language"
	// AuthorizationHeader carries "Bearer <caller grant>".
	AuthorizationHeader = "authorization"
)

// IsPrintableASCII reports whether a string contains only printable ASCII characters.
func IsPrintableASCII(value string) bool {
	if value == "" {
		return false
	}
	for i := 0; i < len(value); i++ {
		if value[i] < 0x20 || value[i] > 0x7e {
			return false
		}
	}
	return true
}

// FirstMetadataValue returns the first printable ASCII metadata value for a key.
func FirstMetadataValue(md metadata.MD, key string) string {
	if len(md) == 0 {
		return ""
	}
	for mdKey, values := range md {
		if !strings.EqualFold(mdKey, key) {
			continue
		}
		for _, value := range values {
			if IsPrintableASCII(value) {
				return value
			}
		}
	}
	return ""
}

func incoming(ctx context.Context, header string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	return FirstMetadataValue(md, header)
}

// CallerFromIncoming returns the raw caller header. The value is not trimmed
// or normalized.
func CallerFromIncoming(ctx context.Context) string {
	return incoming(ctx, CallerHeader)
}

// BearerTokenFromIncoming returns the token of an "authorization: Bearer"
// header, or "".
func BearerTokenFromIncoming(ctx context.Context) string {
	value := strings.TrimSpace(incoming(ctx, AuthorizationHeader))
	scheme, token, ok := strings.Cut(value, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// LocaleFromIncoming resolves the message locale from the locale header and
// then accept-language.
func LocaleFromIncoming(ctx context.Context) string {
	return i18n.ResolveLocale(incoming(ctx, LocaleHeader), incoming(ctx, AcceptLanguageHeader))
}

// UnaryServerInterceptor attaches a request ID and resolved locale to every
// unary call and echoes the request ID in response headers.
func UnaryServerInterceptor(idGenerator func() (string, error)) grpc.UnaryServerInterceptor {
	if idGenerator == nil {
		idGenerator = id.NewID
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		requestID := incoming(ctx, RequestIDHeader)
		if requestID == "" {
			generated, err := idGenerator()
			if err != nil {
				return nil, status.Errorf(codes.Internal, "ensure request metadata: %v", err)
			}
			requestID = generated
		}
		ctx = requestctx.WithRequestID(ctx, requestID)
		ctx = requestctx.WithLocale(ctx, LocaleFromIncoming(ctx))
		if err := grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeader, requestID)); err != nil {
			return nil, status.Errorf(codes.Internal, "set response metadata: %v", err)
		}
		return handler(ctx, req)
	}
}

// OutgoingCaller returns ctx with the caller header set for outgoing calls.
func OutgoingCaller(ctx context.Context, caller string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, CallerHeader, caller)
}

// OutgoingGrant returns ctx with a bearer caller grant for outgoing calls.
func OutgoingGrant(ctx context.Context, grant string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, AuthorizationHeader, "Bearer "+grant)
}
