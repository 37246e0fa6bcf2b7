package main

import (
	"bytes"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/reStrike-d-o-o/reStrike-VTA/internal/license"
	"github.com/reStrike-d-o-o/reStrike-VTA/internal/server"
)

func executeCommand(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func writeTestConfig(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `server:
  udp_port: 6000
  bind_address: "127.0.0.1"
  buffer_size: 1024
playback:
  player: /bin/sh
  args: ["-c", "exit 0"]
logging:
  level: error
  format: text
  output: stderr
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestVersionCommand(t *testing.T) {
	out, err := executeCommand("version")
	if err != nil {
		t.Fatalf("version command failed: %v", err)
	}
	want := server.ServiceName + " version " + server.ServiceVersion
	if !strings.Contains(out, want) {
		t.Errorf("expected banner %q, got: %s", want, out)
	}
}

func TestSchemaCheckEmbedded(t *testing.T) {
	out, err := executeCommand("schema", "check")
	if err != nil {
		t.Fatalf("schema check failed: %v", err)
	}
	if !strings.Contains(out, "10 definitions") {
		t.Errorf("expected 10 embedded definitions, got: %s", out)
	}
}

func TestSchemaCheckRejectsBinaryFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.txt")
	if err := os.WriteFile(path, []byte{0xff, 0xfe, 0xfd}, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := executeCommand("schema", "check", path); err == nil {
		t.Fatal("expected error for a non-UTF8 document")
	}
}

func TestSchemaShowListsStreams(t *testing.T) {
	out, err := executeCommand("schema", "show")
	if err != nil {
		t.Fatalf("schema show failed: %v", err)
	}
	for _, want := range []string{"pt1 pt2", "hl1 hl2", "clk"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got: %s", want, out)
		}
	}
}

func TestLicenseCheckCommand(t *testing.T) {
	expires := time.Now().AddDate(1, 0, 0)
	path := filepath.Join(t.TempDir(), "license.key")
	content := "licensee=Koper Taekwondo Club\n" +
		"expires=" + expires.Format("2006-01-02") + "\n" +
		"key=" + license.Sign("Koper Taekwondo Club", expires) + "\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := executeCommand("license", "check", path)
	if err != nil {
		t.Fatalf("license check failed: %v", err)
	}
	if !strings.Contains(out, "license key is valid") {
		t.Errorf("expected a valid license, got: %s", out)
	}
}

func TestLicenseCheckRejectsExpired(t *testing.T) {
	expires := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	path := filepath.Join(t.TempDir(), "license.key")
	content := "licensee=Koper Taekwondo Club\n" +
		"expires=2020-01-01\n" +
		"key=" + license.Sign("Koper Taekwondo Club", expires) + "\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := executeCommand("license", "check", path); err == nil {
		t.Fatal("expected error for an expired license")
	}
}

func TestPlayCommandRunsPlayer(t *testing.T) {
	cfg := writeTestConfig(t)
	if _, err := executeCommand("--config", cfg, "play", "clip.mp4"); err != nil {
		t.Fatalf("play command failed: %v", err)
	}
}

func TestSimulateSendsScriptedBout(t *testing.T) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1")})
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	defer conn.Close()

	received := make(chan string, len(boutScript)+4)
	go func() {
		buf := make([]byte, 1024)
		for {
			n, _, err := conn.ReadFromUDP(buf)
			if err != nil {
				return
			}
			received <- string(buf[:n])
		}
	}()

	out, err := executeCommand("simulate",
		"--target", conn.LocalAddr().String(),
		"--interval", "1ms")
	if err != nil {
		t.Fatalf("simulate failed: %v", err)
	}
	want := fmt.Sprintf("%d datagrams sent", len(boutScript))
	if !strings.Contains(out, want) {
		t.Errorf("expected %q in output, got: %s", want, out)
	}

	deadline := time.After(3 * time.Second)
	for i := range boutScript {
		select {
		case got := <-received:
			if got != boutScript[i] {
				t.Fatalf("datagram %d = %q, want %q", i, got, boutScript[i])
			}
		case <-deadline:
			t.Fatalf("timed out after receiving %d datagrams", i)
		}
	}
}
