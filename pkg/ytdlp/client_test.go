package ytdlp

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetInfo_ParsesJSON(t *testing.T) {
	c := NewWithExec(func(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
		require.Equal(t, "yt-dlp", name)
		require.Contains(t, args, "--dump-single-json")
		require.Equal(t, "https://youtu.be/abc", args[len(args)-1])
		return []byte(`{"id":"abc","title":"Pasta","description":"Quick pasta","uploader":"Chef","thumbnail":"https://i/abc.jpg","duration":42,
			"formats":[{"format_id":"18","url":"https://v/18.mp4","protocol":"https","vcodec":"avc1","acodec":"mp4a","height":360}]}`), nil, nil
	})

	info, err := c.GetInfo(context.Background(), "https://youtu.be/abc")
	require.NoError(t, err)
	require.Equal(t, "abc", info.ID)
	require.Equal(t, "Pasta", info.Title)
	require.Equal(t, "Chef", info.Author())
	require.Equal(t, float64(42), info.Duration)
	require.Len(t, info.Formats, 1)
	require.NotEmpty(t, info.Raw)
}

func TestGetInfo_WrapsExecError(t *testing.T) {
	c := NewWithExec(func(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
		return []byte("out"), []byte("WARNING: x\nERROR: [Instagram] abc: login required"), errors.New("boom")
	})

	_, err := c.GetInfo(context.Background(), "https://www.instagram.com/reel/abc/")
	require.Error(t, err)
	var ee *ExecError
	require.ErrorAs(t, err, &ee)
	require.Equal(t, "[Instagram] abc: login required", ee.Reason())
}

func TestGetInfo_RequiresURL(t *testing.T) {
	_, err := New().GetInfo(context.Background(), "  ")
	require.Error(t, err)
}

func TestExec_AddsCookiesAndExtraArgs(t *testing.T) {
	var got []string
	c := NewWithExec(func(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
		got = args
		return []byte("2025.01.01\n"), nil, nil
	})
	c.ExtraArgs = []string{"--socket-timeout", "10"}
	c.CookiesFile = "/etc/rechef/cookies.txt"

	v, err := c.Version(context.Background())
	require.NoError(t, err)
	require.Equal(t, "2025.01.01", v)
	require.Equal(t, "--socket-timeout 10 --cookies /etc/rechef/cookies.txt --version", strings.Join(got, " "))
}

func TestWrapExecError_TrimsOutput(t *testing.T) {
	err := wrapExecError("yt-dlp", []string{"--version"}, []byte(" out \n"), []byte(" err \n"), errors.New("boom"))
	var ee *ExecError
	require.ErrorAs(t, err, &ee)
	require.Equal(t, 0, ee.ExitCode)
	require.Equal(t, "out", ee.Stdout)
	require.Equal(t, "err", ee.Stderr)
	require.ErrorIs(t, err, ee.Cause)
	require.Contains(t, ee.Error(), "yt-dlp --version")
}

func TestClient_PathOrDefault(t *testing.T) {
	c := &Client{Path: "   "}
	require.Equal(t, "yt-dlp", c.PathOrDefault())

	c.Path = "/usr/local/bin/yt-dlp"
	require.Equal(t, "/usr/local/bin/yt-dlp", c.PathOrDefault())
}

func TestClient_CookiesAndExtraArgsPrecedeCallArgs(t *testing.T) {
	var got []string
	c := NewWithExec(func(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
		got = args
		return []byte(`{"id":"x"}`), nil, nil
	})
	c.ExtraArgs = []string{"--socket-timeout", "10"}
	c.CookiesFile = "/run/secrets/cookies.txt"

	_, err := c.GetInfo(context.Background(), "https://www.instagram.com/reel/abc/")
	require.NoError(t, err)
	require.Equal(t, []string{"--socket-timeout", "10", "--cookies", "/run/secrets/cookies.txt"}, got[:4])
	require.Equal(t, "https://www.instagram.com/reel/abc/", got[len(got)-1])
}
