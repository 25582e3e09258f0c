package grpcserver

import (
	"context"
	"testing"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/ayurtrace/internal/model"
)

func TestWithPrincipal_And_PrincipalFromCtx(t *testing.T) {
	t.Parallel()

	if p, ok := PrincipalFromCtx(context.Background()); ok || p.UserID != uuid.Nil {
		t.Fatalf("expected no principal in empty ctx")
	}

	want := model.Principal{UserID: uuid.Must(uuid.NewV4()), Role: model.RoleLab}
	ctx := WithPrincipal(context.Background(), want)

	got, ok := PrincipalFromCtx(ctx)
	if !ok {
		t.Fatalf("expected principal in ctx")
	}
	if got != want {
		t.Fatalf("mismatch: got %+v, want %+v", got, want)
	}

	bad := context.WithValue(context.Background(), principalKey, "not-a-principal")
	if _, ok := PrincipalFromCtx(bad); ok {
		t.Fatalf("expected miss on wrong typed value")
	}
}
