package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServeResult(t *testing.T) {
	assert.NoError(t, serveResult(nil))
	assert.NoError(t, serveResult(context.Canceled))
	assert.NoError(t, serveResult(fmt.Errorf("api: %w", context.Canceled)))

	boom := errors.New("listen tcp: address in use")
	assert.Equal(t, boom, serveResult(boom))
}
