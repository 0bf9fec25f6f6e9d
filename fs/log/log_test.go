package log

import (
	"log"
	"path/filepath"
	"testing"
	"time"

	"github.com/mediaserve/mediaserve/fs"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/natefinch/lumberjack.v2"
)

func TestFlagsFromFormat(t *testing.T) {
	for _, test := range []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"", 0, false},
		{"date,time", log.Ldate | log.Ltime, false},
		{"date, time ,microseconds", log.Ldate | log.Ltime | log.Lmicroseconds, false},
		{"UTC,shortfile", log.LUTC | log.Lshortfile, false},
		{"longfile,pid", log.Llongfile, false},
		{"date,potato", 0, true},
	} {
		got, err := flagsFromFormat(test.in)
		if test.wantErr {
			assert.Error(t, err, test.in)
			continue
		}
		require.NoError(t, err, test.in)
		assert.Equal(t, test.want, got, test.in)
	}
}

func TestLogrusLevel(t *testing.T) {
	for _, test := range []struct {
		in   fs.LogLevel
		want logrus.Level
	}{
		{fs.LogLevelDebug, logrus.DebugLevel},
		{fs.LogLevelInfo, logrus.InfoLevel},
		{fs.LogLevelNotice, logrus.WarnLevel},
		{fs.LogLevelWarning, logrus.WarnLevel},
		{fs.LogLevelError, logrus.ErrorLevel},
		{fs.LogLevelCritical, logrus.FatalLevel},
		{fs.LogLevelEmergency, logrus.PanicLevel},
	} {
		assert.Equal(t, test.want, logrusLevel(test.in), test.in.String())
	}
}

func TestOpenLogFileRotated(t *testing.T) {
	opt := Options{
		File:       filepath.Join(t.TempDir(), "mediaserve.log"),
		MaxSize:    fs.SizeSuffix(10 * fs.Mebi),
		MaxBackups: 3,
		MaxAge:     72 * time.Hour,
		Compress:   true,
	}
	w, err := openLogFile(&opt)
	require.NoError(t, err)
	lj, ok := w.(*lumberjack.Logger)
	require.True(t, ok)
	defer func() { _ = lj.Close() }()
	assert.Equal(t, opt.File, lj.Filename)
	assert.Equal(t, 10, lj.MaxSize)
	assert.Equal(t, 3, lj.MaxBackups)
	assert.Equal(t, 3, lj.MaxAge)
	assert.True(t, lj.Compress)

	// Small sizes round up to 1 MiB
	opt.MaxSize = fs.SizeSuffix(100 * fs.Kibi)
	opt.MaxAge = time.Hour
	w, err = openLogFile(&opt)
	require.NoError(t, err)
	lj = w.(*lumberjack.Logger)
	assert.Equal(t, 1, lj.MaxSize)
	assert.Equal(t, 1, lj.MaxAge)
}
