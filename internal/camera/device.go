package camera

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Device is a V4L2 capture device node.
type Device struct {
	Index int
	Path  string
	Name  string
}

// DevicePath returns the device node for an OpenCV-style device index.
func DevicePath(index int) string {
	return fmt.Sprintf("/dev/video%d", index)
}

// DiscoverDevices lists /dev/video* character devices, ordered by index.
func DiscoverDevices() ([]Device, error) {
	return discoverDevices("/dev", "/sys/class/video4linux")
}

func discoverDevices(devDir, sysDir string) ([]Device, error) {
	entries, err := os.ReadDir(devDir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", devDir, err)
	}

	var devices []Device
	for _, e := range entries {
		index, ok := parseVideoIndex(e.Name())
		if !ok {
			continue
		}
		info, err := e.Info()
		if err != nil || info.Mode()&os.ModeCharDevice == 0 {
			continue
		}
		devices = append(devices, Device{
			Index: index,
			Path:  filepath.Join(devDir, e.Name()),
			Name:  deviceName(sysDir, e.Name()),
		})
	}

	sort.Slice(devices, func(i, j int) bool { return devices[i].Index < devices[j].Index })
	return devices, nil
}

// parseVideoIndex extracts N from "videoN".
func parseVideoIndex(name string) (int, bool) {
	rest, ok := strings.CutPrefix(name, "video")
	if !ok || rest == "" {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// deviceName reads the driver-reported name, falling back to the node name.
func deviceName(sysDir, node string) string {
	data, err := os.ReadFile(filepath.Join(sysDir, node, "name"))
	if err != nil {
		return "Camera " + node
	}
	if name := strings.TrimSpace(string(data)); name != "" {
		return name
	}
	return "Camera " + node
}
