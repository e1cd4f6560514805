package demoup_test

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/giantswarm/demoup"
)

const helperEnv = "DEMOUP_ROOT_HELPER"

// TestMain lets the test binary double as the backend: with helperEnv set it
// listens on $PORT until it is terminated.
func TestMain(m *testing.M) {
	if os.Getenv(helperEnv) == "" {
		os.Exit(m.Run())
	}
	l, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", os.Getenv("PORT")))
	if err != nil {
		os.Exit(2)
	}
	for {
		conn, err := l.Accept()
		if err != nil {
			os.Exit(0)
		}
		_ = conn.Close()
	}
}

func freePort(t *testing.T) int {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

// demoRoot lays out a project whose backend is this test binary.
func demoRoot(t *testing.T) (string, []demoup.Option) {
	t.Helper()

	exe, err := os.Executable()
	if err != nil {
		t.Fatal(err)
	}
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "backend"), 0o755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		filepath.Join("backend", ".env"): helperEnv + "=1\n",
		demoup.DefaultFrontendAsset:      "<html></html>",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(root, name), []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	return root, []demoup.Option{
		demoup.WithRoot(root),
		demoup.WithBackendCommand(exe),
		demoup.WithBackendArgs(),
		demoup.WithPort(freePort(t)),
		demoup.WithOpenBrowser(false),
		demoup.WithReadyTimeout(10 * time.Second),
	}
}

func portOpen(port int) bool {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)), 500*time.Millisecond)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

func TestRunAndStop(t *testing.T) {
	t.Parallel()

	root, opts := demoRoot(t)
	sup, err := demoup.New(opts...)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if sup.State() != demoup.StateCreated {
		t.Fatalf("State() = %v, want created", sup.State())
	}

	errCh := make(chan error, 1)
	go func() { errCh <- sup.Run(context.Background()) }()

	deadline := time.Now().Add(15 * time.Second)
	for !portOpen(sup.Port()) || sup.State() != demoup.StateRunning {
		select {
		case err := <-errCh:
			t.Fatalf("Run() returned early: %v", err)
		default:
		}
		if time.Now().After(deadline) {
			t.Fatal("backend never came up")
		}
		time.Sleep(20 * time.Millisecond)
	}

	if err := sup.Stop(); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
	if sup.State() != demoup.StateStopped {
		t.Errorf("State() = %v, want stopped", sup.State())
	}
	if portOpen(sup.Port()) {
		t.Error("backend still listening after Stop")
	}
	if _, err := os.Stat(filepath.Join(root, "logs", "backend-stdout.log")); err != nil {
		t.Errorf("backend output was not captured: %v", err)
	}
}

func TestNew_PortExhausted(t *testing.T) {
	t.Parallel()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	_, err = demoup.New(
		demoup.WithRoot(t.TempDir()),
		demoup.WithStartPort(l.Addr().(*net.TCPAddr).Port),
		demoup.WithPortSearchLimit(0),
	)
	if !errors.Is(err, demoup.ErrPortExhausted) {
		t.Fatalf("New() = %v, want ErrPortExhausted", err)
	}
}

func TestRun_MissingBackendDir(t *testing.T) {
	t.Parallel()

	_, opts := demoRoot(t)
	opts = append(opts, demoup.WithBackendDir("does-not-exist"))
	sup, err := demoup.New(opts...)
	if err != nil {
		t.Fatal(err)
	}

	err = sup.Run(context.Background())
	if !errors.Is(err, demoup.ErrBackendStart) || !errors.Is(err, demoup.ErrBackendDirNotFound) {
		t.Fatalf("Run() = %v, want ErrBackendStart and ErrBackendDirNotFound", err)
	}
	if err := sup.Run(context.Background()); !errors.Is(err, demoup.ErrStopped) {
		t.Fatalf("second Run() = %v, want ErrStopped", err)
	}
}

func TestCheckEnvironment_MissingInterpreter(t *testing.T) {
	t.Parallel()

	err := demoup.CheckEnvironment(context.Background(),
		demoup.WithRoot(t.TempDir()),
		demoup.WithBackendCommand("demoup-no-such-interpreter"),
	)
	if !errors.Is(err, demoup.ErrInterpreterNotFound) {
		t.Fatalf("CheckEnvironment() = %v, want ErrInterpreterNotFound", err)
	}
}
