package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArgString(t *testing.T) {
	args := map[string]interface{}{
		"temperature": 0.7,
		"count":       3.0,
		"model":       "tess-ai-light",
		"flag":        true,
	}
	// JSON numbers arrive as float64; fractional values must keep their fraction
	assert.Equal(t, "0.7", argString(args, "temperature"))
	assert.Equal(t, "3", argString(args, "count"))
	assert.Equal(t, "tess-ai-light", argString(args, "model"))
	assert.Equal(t, "true", argString(args, "flag"))
	assert.Equal(t, "", argString(args, "absent"))
}

func TestArgMessages(t *testing.T) {
	single := argMessages(map[string]interface{}{"message": "hello"})
	assert.Equal(t, 1, len(single))
	assert.Equal(t, "user", single[0].Role)

	structured := argMessages(map[string]interface{}{
		"messages": []interface{}{
			map[string]interface{}{"role": "system", "content": "be terse"},
			map[string]interface{}{"content": "hello"},
			map[string]interface{}{"role": "user"},
		},
	})
	assert.Equal(t, 2, len(structured))
	assert.Equal(t, "system", structured[0].Role)
	assert.Equal(t, "user", structured[1].Role)
}
