package metadata

import (
	"context"
	"testing"

	"google.golang.org/grpc/metadata"
)

func TestFirstMetadataValueSkipsNonPrintable(t *testing.T) {
	md := metadata.MD{"x-subscription-caller": []string{"bad\x01", "cosmos1admin"}}
	if got := FirstMetadataValue(md, CallerHeader); got != "cosmos1admin" {
		t.Fatalf("value = %q", got)
	}
	if got := FirstMetadataValue(nil, CallerHeader); got != "" {
		t.Fatalf("value = %q, want empty", got)
	}
}

func TestCallerFromIncomingIsNotNormalized(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(CallerHeader, " Cosmos1Admin "))
	if got := CallerFromIncoming(ctx); got != " Cosmos1Admin " {
		t.Fatalf("caller = %q", got)
	}
	if got := CallerFromIncoming(context.Background()); got != "" {
		t.Fatalf("caller without metadata = %q", got)
	}
}

func TestBearerTokenFromIncoming(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{header: "Bearer abc.def", want: "abc.def"},
		{header: "bearer  abc", want: "abc"},
		{header: "Basic abc", want: ""},
		{header: "abc", want: ""},
	}
	for _, tc := range tests {
		ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(AuthorizationHeader, tc.header))
		if got := BearerTokenFromIncoming(ctx); got != tc.want {
			t.Fatalf("BearerTokenFromIncoming(%q) = %q, want %q", tc.header, got, tc.want)
		}
	}
}

func TestLocaleFromIncoming(t *testing.T) {
	tests := []struct {
		name string
		md   metadata.MD
		want string
	}{
		{name: "none", md: metadata.MD{}, want: "en-US"},
		{name: "locale header", md: metadata.Pairs(LocaleHeader, "pt-BR"), want: "pt-BR"},
		{name: "accept language", md: metadata.Pairs(AcceptLanguageHeader, "pt-BR,pt;q=0.9"), want: "pt-BR"},
		{name: "locale header wins", md: metadata.Pairs(LocaleHeader, "en-US", AcceptLanguageHeader, "pt-BR"), want: "en-US"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := metadata.NewIncomingContext(context.Background(), tc.md)
			if got := LocaleFromIncoming(ctx); got != tc.want {
				t.Fatalf("locale = %q, want %q", got, tc.want)
			}
		})
	}
}
