package httpadapter

import (
	"context"
	"testing"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

func TestCORSMiddleware_PreflightStopsChain(t *testing.T) {
	ctx := app.NewContext(0)
	ctx.Request.Header.SetMethod(consts.MethodOptions)
	reached := false
	ctx.SetHandlers(app.HandlersChain{corsMiddleware(), func(context.Context, *app.RequestContext) { reached = true }})

	ctx.Next(context.Background())

	if reached {
		t.Fatalf("preflight must not reach the route handler")
	}
	if got, want := ctx.Response.StatusCode(), consts.StatusNoContent; got != want {
		t.Fatalf("status mismatch: got=%d want=%d", got, want)
	}
	if got, want := string(ctx.Response.Header.Peek("Access-Control-Allow-Headers")), "Content-Type"; got != want {
		t.Fatalf("allow-headers mismatch: got=%q want=%q", got, want)
	}
}

func TestCORSMiddleware_GameRequestPassesThrough(t *testing.T) {
	ctx := app.NewContext(0)
	ctx.Request.Header.SetMethod(consts.MethodPost)
	reached := false
	ctx.SetHandlers(app.HandlersChain{corsMiddleware(), func(_ context.Context, c *app.RequestContext) {
		reached = true
		c.SetStatusCode(consts.StatusOK)
	}})

	ctx.Next(context.Background())

	if !reached {
		t.Fatalf("expected the route handler to run")
	}
	if got := string(ctx.Response.Header.Peek("Access-Control-Allow-Origin")); got != "*" {
		t.Fatalf("allow-origin mismatch: got=%q want=%q", got, "*")
	}
	if got, want := string(ctx.Response.Header.Peek("Access-Control-Allow-Methods")), "GET,POST,OPTIONS"; got != want {
		t.Fatalf("allow-methods mismatch: got=%q want=%q", got, want)
	}
}
