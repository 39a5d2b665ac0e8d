package flags

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
)

func TestRegister(t *testing.T) {
	assert := assert.New(t)

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterGlobal(fs)
	RegisterRun(fs)

	assert.NoError(fs.Parse([]string{"-c", "/tmp/p.ini", "--workload=3", "--log-level", "debug"}))
	assert.Equal("/tmp/p.ini", ConfigFile)
	assert.Equal(3, Workload)
	assert.Equal("debug", LogLevel)
	assert.Equal("", CPUProfile)
	assert.True(fs.Changed("workload"))
	assert.False(fs.Changed("memprofile"))
}
