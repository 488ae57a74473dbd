package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	info := Get()
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
	assert.Equal(t, Version, info.Version)
}

func TestInfoString(t *testing.T) {
	tests := []struct {
		name string
		info Info
		want string
	}{
		{
			name: "release",
			info: Info{Version: "1.2.0", CommitHash: "0123456789abcdef", BuildTime: "2026-01-02"},
			want: "contractgen 1.2.0 (commit 0123456, built 2026-01-02)",
		},
		{
			name: "development build",
			info: Info{Version: "dev", CommitHash: "dev", BuildTime: "unknown"},
			want: "contractgen dev (commit dev, built unknown)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.info.String())
		})
	}
}

func TestIsRelease(t *testing.T) {
	assert.True(t, Info{Version: "v0.3.1"}.IsRelease())
	assert.False(t, Info{Version: "dev"}.IsRelease())
}
