package cli

import (
	"os"
	"syscall"
	"testing"
	"time"
)

func TestSetupSignalHandler(t *testing.T) {
	ctx := SetupSignalHandler()

	select {
	case <-ctx.Done():
		t.Error("context canceled before any signal")
	default:
	}
	if ctx.Done() == nil {
		t.Error("context has no Done channel")
	}
}

func TestWaitForShutdownEmptyUntilSignaled(t *testing.T) {
	sigChan := WaitForShutdown()
	if sigChan == nil {
		t.Fatal("WaitForShutdown() returned nil channel")
	}

	select {
	case sig := <-sigChan:
		t.Errorf("unexpected signal %v before any was sent", sig)
	case <-time.After(10 * time.Millisecond):
	}
}

func TestWaitForShutdownReceivesSignal(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping signal delivery test in short mode")
	}

	sigChan := WaitForShutdown()

	go func() {
		time.Sleep(50 * time.Millisecond)
		p, _ := os.FindProcess(os.Getpid())
		_ = p.Signal(syscall.SIGTERM)
	}()

	select {
	case sig := <-sigChan:
		if sig != syscall.SIGTERM {
			t.Errorf("signal = %v, want SIGTERM", sig)
		}
	case <-time.After(500 * time.Millisecond):
		t.Skip("signal not delivered within timeout")
	}
}
