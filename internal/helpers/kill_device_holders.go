// Package helpers holds small OS-level utilities shared by the camera sources
// and the CLI.
package helpers

import (
	"context"
	"errors"
	"log"
	"os"
	"os/exec"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// DefaultGrace is the wait between SIGTERM and SIGKILL.
const DefaultGrace = 400 * time.Millisecond

// commandOutput runs an external tool and returns its trimmed stdout, or ""
// on any failure. Replaced in tests.
var commandOutput = func(name string, args ...string) string {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// HolderPIDs returns the processes other than this one that have devicePath
// open, sorted ascending. lsof is tried first, then fuser.
func HolderPIDs(devicePath string) []int {
	pids := parsePIDLines(commandOutput("lsof", "-t", devicePath))
	if len(pids) == 0 {
		pids = parsePIDWords(commandOutput("fuser", devicePath))
	}
	delete(pids, os.Getpid())

	out := make([]int, 0, len(pids))
	for pid := range pids {
		out = append(out, pid)
	}
	sort.Ints(out)
	return out
}

// KillDeviceHolders terminates processes holding a camera device so it can be
// opened exclusively. It is a no-op when enabled is false. Returns true if
// any process was signalled.
func KillDeviceHolders(devicePath string, enabled bool) bool {
	return KillDeviceHoldersWithGrace(devicePath, enabled, DefaultGrace)
}

// KillDeviceHoldersWithGrace is KillDeviceHolders with a custom grace period.
func KillDeviceHoldersWithGrace(devicePath string, enabled bool, grace time.Duration) bool {
	if !enabled {
		return false
	}
	pids := HolderPIDs(devicePath)
	if len(pids) == 0 {
		return false
	}
	log.Printf("[KillHolders] Releasing %s held by %v", devicePath, pids)

	if !signalAll(pids, syscall.SIGTERM, devicePath) {
		return true
	}
	time.Sleep(grace)

	var survivors []int
	for _, pid := range pids {
		if syscall.Kill(pid, 0) == nil {
			survivors = append(survivors, pid)
		}
	}
	signalAll(survivors, syscall.SIGKILL, devicePath)
	return true
}

// signalAll sends sig to each pid. On a permission error it hands the job
// to "sudo fuser -k" and returns false.
func signalAll(pids []int, sig syscall.Signal, devicePath string) bool {
	for _, pid := range pids {
		err := syscall.Kill(pid, sig)
		if err == nil {
			continue
		}
		if errors.Is(err, syscall.EPERM) || errors.Is(err, syscall.EACCES) {
			commandOutput("sudo", "fuser", "-k", devicePath)
			return false
		}
		log.Printf("[KillHolders] Failed to send %v to pid %d: %v", sig, pid, err)
	}
	return true
}

func parsePIDLines(out string) map[int]struct{} {
	pids := make(map[int]struct{})
	for _, line := range strings.Split(out, "\n") {
		if pid, err := strconv.Atoi(strings.TrimSpace(line)); err == nil && pid > 0 {
			pids[pid] = struct{}{}
		}
	}
	return pids
}

var pidWord = regexp.MustCompile(`\b(\d+)\b`)

func parsePIDWords(out string) map[int]struct{} {
	pids := make(map[int]struct{})
	for _, m := range pidWord.FindAllString(out, -1) {
		if pid, err := strconv.Atoi(m); err == nil && pid > 0 {
			pids[pid] = struct{}{}
		}
	}
	return pids
}
