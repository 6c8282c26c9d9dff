package core

import (
	"bytes"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggingFromManyGoroutines(t *testing.T) {
	var buf bytes.Buffer
	SetLogOutput(&buf)
	t.Cleanup(func() { SetLogOutput(os.Stderr) })
	SetLogLevel(InfoLevel)
	t.Cleanup(func() { SetLogLevel(DebugLevel) })

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			LogInfo("worker %d", i)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 8, strings.Count(buf.String(), "worker "))
}
