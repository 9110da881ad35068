package helpers

import (
	"os"
	"reflect"
	"strconv"
	"testing"
)

func TestHolderPIDsPrefersLsof(t *testing.T) {
	orig := commandOutput
	defer func() { commandOutput = orig }()

	var calls []string
	commandOutput = func(name string, args ...string) string {
		calls = append(calls, name)
		if name == "lsof" {
			return "42\n7\nnot-a-pid\n"
		}
		return "99"
	}

	got := HolderPIDs("/dev/video0")
	if want := []int{7, 42}; !reflect.DeepEqual(got, want) {
		t.Fatalf("HolderPIDs = %v, want %v", got, want)
	}
	if len(calls) != 1 {
		t.Fatalf("expected only lsof to run, got %v", calls)
	}
}

func TestHolderPIDsFallsBackToFuserAndSkipsSelf(t *testing.T) {
	orig := commandOutput
	defer func() { commandOutput = orig }()

	self := os.Getpid()
	commandOutput = func(name string, args ...string) string {
		if name == "fuser" {
			return "/dev/video0: 1234 " + strconv.Itoa(self)
		}
		return ""
	}

	got := HolderPIDs("/dev/video0")
	if want := []int{1234}; !reflect.DeepEqual(got, want) {
		t.Fatalf("HolderPIDs = %v, want %v", got, want)
	}
}

func TestKillDeviceHoldersDisabled(t *testing.T) {
	orig := commandOutput
	defer func() { commandOutput = orig }()
	commandOutput = func(string, ...string) string {
		t.Fatal("no command should run when disabled")
		return ""
	}
	if KillDeviceHolders("/dev/video0", false) {
		t.Fatal("disabled kill reported success")
	}
}
