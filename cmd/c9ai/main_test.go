package main

import (
	"errors"
	"testing"

	"github.com/hebbarp/c9ai/internal/router"
)

func TestOneShotExitIsClean(t *testing.T) {
	if err := run(t.TempDir(), "", "", "", true, []string{"exit"}); err != nil {
		t.Fatalf("one-shot exit: %v", err)
	}
}

func TestOneShotEmergencyExitPropagates(t *testing.T) {
	err := run(t.TempDir(), "", "", "", true, []string{"exit!"})
	if !errors.Is(err, router.ErrEmergency) {
		t.Fatalf("err=%v want ErrEmergency", err)
	}
}
