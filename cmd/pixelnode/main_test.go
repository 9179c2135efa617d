package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloseOnceReleasesOnce(t *testing.T) {
	calls := 0
	release := closeOnce(func() { calls++ })

	release() // restart hook
	release() // shutdown after a failed exec
	release() // deferred close

	assert.Equal(t, 1, calls)
}

func TestHostPort(t *testing.T) {
	assert.Equal(t, ":7000", hostPort("", 7000))
	assert.Equal(t, "127.0.0.1:7001", hostPort("127.0.0.1", 7001))
}
