package libmm_test

import (
	"testing"
	"time"

	"github.com/mindmirror/mindmirror/pkg/libmm"
	"github.com/stretchr/testify/assert"
)

func TestEntryValidate(t *testing.T) {
	now := time.Now()

	entry := &libmm.Entry{
		ID:        "d989ccc9-15c6-475e-839b-1690bd07d073",
		Title:     "monday",
		VideoKey:  libmm.NoVideo,
		CreatedAt: &now,
	}
	assert.NoError(t, entry.Validate())

	malformed := *entry
	malformed.Title = "   "
	err := malformed.Validate()
	assert.IsType(t, &libmm.RemoteError{}, err)

	malformed = *entry
	malformed.ID = ""
	assert.IsType(t, &libmm.RemoteError{}, malformed.Validate())

	malformed = *entry
	malformed.VideoKey = ""
	assert.IsType(t, &libmm.RemoteError{}, malformed.Validate())

	malformed = *entry
	malformed.CreatedAt = nil
	assert.IsType(t, &libmm.RemoteError{}, malformed.Validate())
}

func TestEntryHasVideo(t *testing.T) {
	entry := &libmm.Entry{VideoKey: libmm.NoVideo}
	assert.False(t, entry.HasVideo())

	entry.VideoKey = ""
	assert.False(t, entry.HasVideo())

	entry.VideoKey = "1700000000000-deadbeef"
	assert.True(t, entry.HasVideo())
}
