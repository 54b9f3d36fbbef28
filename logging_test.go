package voxmesh

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultLogger_Levels(t *testing.T) {
	var out, errOut bytes.Buffer
	l := NewLoggerTo("voxmesh", false, &out, &errOut)

	l.Debugf("hidden %d", 1)
	assert.Empty(t, out.String())

	l.Infof("meshed %d chunks", 3)
	assert.Contains(t, out.String(), "[voxmesh] INFO: meshed 3 chunks")

	l.SetDebug(true)
	assert.True(t, l.DebugEnabled())
	l.Debugf("shown %d", 2)
	assert.Contains(t, out.String(), "[voxmesh] DEBUG: shown 2")

	l.Warnf("big")
	l.Errorf("bad")
	assert.Contains(t, errOut.String(), "[voxmesh] WARN: big")
	assert.Contains(t, errOut.String(), "[voxmesh] ERROR: bad")
	assert.NotContains(t, out.String(), "WARN")
}

func TestDefaultLogger_NoPrefix(t *testing.T) {
	var out bytes.Buffer
	l := NewLoggerTo("", false, &out, &out)
	l.Infof("plain")
	assert.Contains(t, out.String(), "INFO: plain")
	assert.NotContains(t, out.String(), "[")
}

func TestLoggerOrNop(t *testing.T) {
	l := LoggerOrNop(nil)
	assert.NotNil(t, l)
	assert.False(t, l.DebugEnabled())
	l.SetDebug(true)
	assert.False(t, l.DebugEnabled())

	d := NewDefaultLogger("x", false)
	assert.Same(t, d, LoggerOrNop(d))
}

func TestDefaultLogger_ConcurrentUse(t *testing.T) {
	var out, errOut bytes.Buffer
	var l Logger = NewLoggerTo("chunks", false, &out, &errOut)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.SetDebug(i%2 == 0)
			l.Debugf("debug %d", i)
			l.Warnf("warn %d", i)
		}()
	}
	wg.Wait()

	assert.Equal(t, 8, strings.Count(errOut.String(), "[chunks] WARN: warn "))
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		if line != "" {
			assert.Contains(t, line, "[chunks] DEBUG: debug ")
		}
	}
}
