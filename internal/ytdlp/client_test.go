package ytdlp

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"subserve/internal/extractor"
)

func stubCommand(t *testing.T, mode string, capturedArgs *[]string) {
	t.Helper()
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		if capturedArgs != nil {
			*capturedArgs = append([]string(nil), args...)
		}
		outDir := ""
		for i, arg := range args {
			if arg == "--output" && i+1 < len(args) {
				outDir = filepath.Dir(args[i+1])
			}
		}
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(),
			"GO_WANT_HELPER_PROCESS=1",
			"YTDLP_HELPER_MODE="+mode,
			"YTDLP_HELPER_OUTDIR="+outDir,
		)
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})
}

func TestNewCLIWithBinary(t *testing.T) {
	cli := NewCLI(WithBinary("/opt/yt-dlp"))
	if cli.binary != "/opt/yt-dlp" {
		t.Fatalf("expected binary override to be applied, got %q", cli.binary)
	}
}

func TestDownloadCaptionsRequiresURL(t *testing.T) {
	cli := NewCLI()
	if _, err := cli.DownloadCaptions(context.Background(), "", "en", t.TempDir(), extractor.Options{}); err == nil {
		t.Fatal("expected error when video url is empty")
	}
}

func TestDownloadCaptionsRequiresWorkDir(t *testing.T) {
	cli := NewCLI()
	if _, err := cli.DownloadCaptions(context.Background(), "https://youtu.be/dQw4w9WgXcQ", "en", "", extractor.Options{}); err == nil {
		t.Fatal("expected error when working directory is empty")
	}
}

func TestDownloadCaptionsArgs(t *testing.T) {
	var capturedArgs []string
	stubCommand(t, "download", &capturedArgs)

	workDir := t.TempDir()
	cli := NewCLI()
	opts := extractor.Options{
		ImpersonateTarget: "chrome",
		SleepSeconds:      60,
		PlayerClient:      "default,-web",
		SocketTimeout:     120,
	}
	info, err := cli.DownloadCaptions(context.Background(), "https://youtu.be/dQw4w9WgXcQ", "en", workDir, opts)
	if err != nil {
		t.Fatalf("DownloadCaptions returned error: %v", err)
	}
	if info == nil || info.ID != "dQw4w9WgXcQ" {
		t.Fatalf("expected metadata record from info json, got %+v", info)
	}

	for _, pair := range [][2]string{
		{"--sub-langs", "en"},
		{"--sub-format", "vtt"},
		{"--impersonate", "chrome"},
		{"--sleep-subtitles", "60"},
		{"--extractor-args", "youtube:player_client=default,-web"},
		{"--socket-timeout", "120"},
	} {
		idx := findArg(capturedArgs, pair[0])
		if idx < 0 || idx+1 >= len(capturedArgs) {
			t.Fatalf("expected flag %s in args %v", pair[0], capturedArgs)
		}
		if capturedArgs[idx+1] != pair[1] {
			t.Fatalf("flag %s = %q, want %q", pair[0], capturedArgs[idx+1], pair[1])
		}
	}
	for _, flag := range []string{"--skip-download", "--write-subs", "--write-auto-subs", "--write-info-json"} {
		if findArg(capturedArgs, flag) < 0 {
			t.Fatalf("expected flag %s in args %v", flag, capturedArgs)
		}
	}
	if capturedArgs[len(capturedArgs)-1] != "https://youtu.be/dQw4w9WgXcQ" {
		t.Fatalf("expected video url as final arg, got %v", capturedArgs)
	}
}

func TestDownloadCaptionsOmitsUnsetOptions(t *testing.T) {
	var capturedArgs []string
	stubCommand(t, "download", &capturedArgs)

	cli := NewCLI()
	if _, err := cli.DownloadCaptions(context.Background(), "https://youtu.be/dQw4w9WgXcQ", "en", t.TempDir(), extractor.Options{}); err != nil {
		t.Fatalf("DownloadCaptions returned error: %v", err)
	}
	for _, flag := range []string{"--impersonate", "--sleep-subtitles", "--extractor-args", "--socket-timeout"} {
		if findArg(capturedArgs, flag) >= 0 {
			t.Fatalf("flag %s present with zero-valued options: %v", flag, capturedArgs)
		}
	}
}

func TestDownloadCaptionsFailurePreservesErrorText(t *testing.T) {
	stubCommand(t, "failure", nil)

	cli := NewCLI()
	_, err := cli.DownloadCaptions(context.Background(), "https://youtu.be/dQw4w9WgXcQ", "en", t.TempDir(), extractor.Options{})
	if err == nil {
		t.Fatal("expected error from failing download")
	}
	if !strings.Contains(err.Error(), "HTTP Error 429") {
		t.Fatalf("error %q should carry upstream failure text", err)
	}
	if !extractor.IsTransientMessage(err.Error()) {
		t.Fatalf("error %q should classify as transient", err)
	}
}

func TestDownloadCaptionsMissingInfoRecord(t *testing.T) {
	stubCommand(t, "silent", nil)

	cli := NewCLI()
	info, err := cli.DownloadCaptions(context.Background(), "https://youtu.be/dQw4w9WgXcQ", "en", t.TempDir(), extractor.Options{})
	if err != nil {
		t.Fatalf("DownloadCaptions returned error: %v", err)
	}
	if info != nil {
		t.Fatalf("expected nil metadata without info record, got %+v", info)
	}
}

func TestListTracks(t *testing.T) {
	stubCommand(t, "list", nil)

	cli := NewCLI()
	listing, err := cli.ListTracks(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("ListTracks returned error: %v", err)
	}
	if len(listing.Manual["en"]) != 1 || listing.Manual["en"][0].Ext != "vtt" {
		t.Fatalf("unexpected manual tracks: %+v", listing.Manual)
	}
	if len(listing.Automatic) != 2 {
		t.Fatalf("unexpected automatic tracks: %+v", listing.Automatic)
	}
}

func TestListTracksFailure(t *testing.T) {
	stubCommand(t, "failure", nil)

	cli := NewCLI()
	if _, err := cli.ListTracks(context.Background(), "https://youtu.be/dQw4w9WgXcQ"); err == nil {
		t.Fatal("expected error from failing listing")
	}
}

func TestCondenseOutputPrefersErrorLines(t *testing.T) {
	output := []byte("[youtube] extracting\nWARNING: something minor\nERROR: HTTP Error 429: Too Many Requests\n")
	got := condenseOutput(output)
	if got != "ERROR: HTTP Error 429: Too Many Requests" {
		t.Fatalf("condenseOutput() = %q", got)
	}
	if condenseOutput(nil) != "no output" {
		t.Fatalf("condenseOutput(nil) = %q", condenseOutput(nil))
	}
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	switch os.Getenv("YTDLP_HELPER_MODE") {
	case "download":
		outDir := os.Getenv("YTDLP_HELPER_OUTDIR")
		vtt := "WEBVTT\n\n00:00:01.000 --> 00:00:02.000\nHello\n"
		if err := os.WriteFile(filepath.Join(outDir, "dQw4w9WgXcQ.en.vtt"), []byte(vtt), 0o644); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		infoRecord := `{"id":"dQw4w9WgXcQ","title":"Test video","duration":212}`
		if err := os.WriteFile(filepath.Join(outDir, "dQw4w9WgXcQ.info.json"), []byte(infoRecord), 0o644); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		os.Exit(0)
	case "list":
		fmt.Println(`{"id":"dQw4w9WgXcQ","subtitles":{"en":[{"ext":"vtt"}]},"automatic_captions":{"fr":[{"ext":"vtt"}],"de":[{"ext":"vtt"}]}}`)
		os.Exit(0)
	case "failure":
		fmt.Fprintln(os.Stderr, "ERROR: [youtube] dQw4w9WgXcQ: HTTP Error 429: Too Many Requests")
		os.Exit(1)
	case "silent":
		os.Exit(0)
	default:
		os.Exit(0)
	}
}

func findArg(args []string, target string) int {
	for i, arg := range args {
		if arg == target {
			return i
		}
	}
	return -1
}
