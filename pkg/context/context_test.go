package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextValues(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetRequestID(ctx))

	ctx = SetRequestID(ctx, "req-1")
	ctx = SetMethod(ctx, "POST")
	ctx = SetRoute(ctx, "/api/v1/enrichments")
	ctx = SetRemoteIP(ctx, "10.0.0.1")
	ctx = SetUserID(ctx, "user-1")
	ctx = SetRunID(ctx, "run-1")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "POST", GetMethod(ctx))
	assert.Equal(t, "/api/v1/enrichments", GetRoute(ctx))
	assert.Equal(t, "10.0.0.1", GetRemoteIP(ctx))
	assert.Equal(t, "user-1", GetUserID(ctx))
	assert.Equal(t, "run-1", GetRunID(ctx))
}
