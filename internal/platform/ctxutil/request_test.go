package ctxutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestUserIDRoundTrip(t *testing.T) {
	id := uuid.New()
	ctx := WithRequestData(context.Background(), &RequestData{UserID: id})
	if got := UserID(ctx); got != id {
		t.Fatalf("want=%s got=%s", id, got)
	}
}

func TestUserIDMissing(t *testing.T) {
	if got := UserID(context.Background()); got != uuid.Nil {
		t.Fatalf("want=nil got=%s", got)
	}
	if got := GetRequestData(nil); got != nil {
		t.Fatalf("want=nil got=%v", got)
	}
}

func TestTraceDataRoundTrip(t *testing.T) {
	ctx := WithTraceData(context.Background(), &TraceData{TraceID: "t", RequestID: "r"})
	td := GetTraceData(ctx)
	if td == nil || td.TraceID != "t" || td.RequestID != "r" {
		t.Fatalf("unexpected trace data: %+v", td)
	}
}
