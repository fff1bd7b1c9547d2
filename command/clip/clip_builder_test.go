package clip

import (
	"clipsplit/command"
	"clipsplit/models"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFFmpeg writes a shell script standing in for ffmpeg. The script sees
// the output path as $last.
func fakeFFmpeg(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fakes need a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "ffmpeg")
	script := "#!/bin/sh\nfor last; do :; done\n" + body
	require.NoError(t, os.WriteFile(path, []byte(script), 0755))
	return path
}

func argValue(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

func TestNewClipBuilder_Defaults(t *testing.T) {
	seg := models.Segment{Index: 2, Start: 60, End: 90}
	b := NewClipBuilder("in.mp4", seg, "out/clip_60_90.mp4")

	assert.Equal(t, models.ModeReencode, b.mode)
	assert.Equal(t, DefaultVideoCodec, b.videoCodec)
	assert.Equal(t, DefaultCRF, b.crf)
	assert.Equal(t, "in.mp4", b.GetInputPath())
	assert.Equal(t, "out/clip_60_90.mp4", b.GetOutputPath())
	assert.Equal(t, seg, b.GetSegment())
	assert.Equal(t, command.TaskTypeExtract, b.GetTaskType())
}

func TestClipBuilder_BuildArgs_Reencode(t *testing.T) {
	args := NewClipBuilder("in.mov", models.Segment{Index: 2, Start: 60, End: 90}, "clip_60_90.mp4").
		SetVideoCodec("libx265").
		SetCRF(28).
		SetPreset("fast").
		SetAudioCodec("libopus").
		SetAudioBitrate("96k").
		BuildArgs()

	assert.Equal(t, "00:01:00", argValue(args, "-ss"))
	assert.Equal(t, "in.mov", argValue(args, "-i"))
	assert.Equal(t, "00:00:30", argValue(args, "-t"))
	assert.Equal(t, "libx265", argValue(args, "-c:v"))
	assert.Equal(t, "28", argValue(args, "-crf"))
	assert.Equal(t, "fast", argValue(args, "-preset"))
	assert.Equal(t, "libopus", argValue(args, "-c:a"))
	assert.Equal(t, "96k", argValue(args, "-b:a"))
	assert.Equal(t, "pipe:1", argValue(args, "-progress"))
	assert.NotContains(t, args, "copy")
	assert.Equal(t, "clip_60_90.mp4", args[len(args)-1])

	// -ss must precede -i to seek the input
	ssIdx, iIdx := -1, -1
	for i, a := range args {
		if a == "-ss" {
			ssIdx = i
		}
		if a == "-i" {
			iIdx = i
		}
	}
	assert.Less(t, ssIdx, iIdx)
}

func TestClipBuilder_BuildArgs_Copy(t *testing.T) {
	args := NewClipBuilder("in.mkv", models.Segment{Index: 1, Start: 0, End: 600}, "clip_0_600.mp4").
		SetMode(models.ModeCopy).
		BuildArgs()

	assert.Equal(t, "copy", argValue(args, "-c"))
	assert.Equal(t, "make_zero", argValue(args, "-avoid_negative_ts"))
	assert.Equal(t, "00:10:00", argValue(args, "-t"))
	assert.Empty(t, argValue(args, "-c:v"))
	assert.Empty(t, argValue(args, "-crf"))
}

func TestClipBuilder_BuildArgs_InvalidCRFOmitted(t *testing.T) {
	args := NewClipBuilder("in.mp4", models.Segment{Start: 0, End: 10}, "o.mp4").
		SetCRF(-1).
		BuildArgs()
	assert.Empty(t, argValue(args, "-crf"))
}

func TestClipBuilder_DryRun(t *testing.T) {
	cmd, err := NewClipBuilder("in.mp4", models.Segment{Index: 1, Start: 0, End: 60}, "clip_0_60.mp4").
		SetBinary("/usr/local/bin/ffmpeg").
		SetMode(models.ModeCopy).
		DryRun()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(cmd, "/usr/local/bin/ffmpeg -hide_banner"))
	assert.Contains(t, cmd, "-c copy")

	_, err = NewClipBuilder("in.mp4", models.Segment{Start: 5, End: 5}, "x.mp4").DryRun()
	assert.Error(t, err)
}

func TestClipBuilder_Run_Success(t *testing.T) {
	bin := fakeFFmpeg(t, `echo "frame=10"
echo "out_time=00:00:05.000000"
echo "progress=continue"
echo "out_time=00:00:10.000000"
echo "progress=end"
printf 'clip' > "$last"
`)
	out := filepath.Join(t.TempDir(), "clip_0_10.mp4")

	var last *models.ExtractionProgress
	updates := 0
	err := NewClipBuilder("in.mp4", models.Segment{Index: 1, Start: 0, End: 10}, out).
		SetBinary(bin).
		SetProgressCallback(func(p *models.ExtractionProgress) {
			updates++
			last = p
		}).
		Run(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "clip", string(data))
	assert.Equal(t, 2, updates)
	require.NotNil(t, last)
	assert.Equal(t, 100.0, last.Progress)
}

func TestClipBuilder_Run_Failure(t *testing.T) {
	bin := fakeFFmpeg(t, `echo "in.mp4: Invalid data found when processing input" >&2
exit 1
`)

	err := NewClipBuilder("in.mp4", models.Segment{Index: 1, Start: 0, End: 10}, filepath.Join(t.TempDir(), "x.mp4")).
		SetBinary(bin).
		Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exited with code 1")
	assert.Contains(t, err.Error(), "Invalid data found")
}

func TestClipBuilder_Run_Cancelled(t *testing.T) {
	bin := fakeFFmpeg(t, "exec sleep 5\n")

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := NewClipBuilder("in.mp4", models.Segment{Index: 1, Start: 0, End: 10}, filepath.Join(t.TempDir(), "x.mp4")).
		SetBinary(bin).
		Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interrupted")
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestClipBuilder_Run_InvalidSegment(t *testing.T) {
	err := NewClipBuilder("in.mp4", models.Segment{Start: 10, End: 0}, "x.mp4").Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid segment")
}

func TestTail(t *testing.T) {
	assert.Equal(t, "no output", tail("", 3))
	assert.Equal(t, "b; c", tail("a\nb\n\nc\n", 2))
}
