package metrics

import (
	"os"
	"runtime"
	"strconv"
	"strings"
)

// SystemInfo describes the host the service is running on. Captured
// once at startup and logged so operator reports can be matched to the
// machine that produced them.
type SystemInfo struct {
	Hostname         string `json:"hostname"`
	OS               string `json:"os"`
	OSVersion        string `json:"os_version,omitempty"`
	Arch             string `json:"arch"`
	CPULogical       int    `json:"cpu_logical"`
	TotalMemoryMB    uint64 `json:"total_memory_mb,omitempty"`
	GoVersion        string `json:"go_version"`
	InContainer      bool   `json:"in_container"`
	ContainerRuntime string `json:"container_runtime,omitempty"`
}

// CaptureSystemInfo gathers host information
func CaptureSystemInfo() *SystemInfo {
	info := &SystemInfo{
		OS:         runtime.GOOS,
		Arch:       runtime.GOARCH,
		CPULogical: runtime.NumCPU(),
		GoVersion:  runtime.Version(),
	}

	if hostname, err := os.Hostname(); err == nil {
		info.Hostname = hostname
	} else {
		info.Hostname = "unknown"
	}

	info.InContainer, info.ContainerRuntime = detectContainer()
	info.OSVersion = getOSVersion()
	info.TotalMemoryMB = getTotalMemory()

	return info
}

// detectContainer checks if running in a container
func detectContainer() (bool, string) {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true, "docker"
	}

	if _, err := os.Stat("/var/run/secrets/kubernetes.io"); err == nil {
		return true, "kubernetes"
	}

	if data, err := os.ReadFile("/proc/1/cgroup"); err == nil {
		content := string(data)
		switch {
		case strings.Contains(content, "docker"):
			return true, "docker"
		case strings.Contains(content, "kubepods"):
			return true, "kubernetes"
		case strings.Contains(content, "containerd"):
			return true, "containerd"
		}
	}

	return false, ""
}

// getOSVersion reads the pretty OS name on Linux; other platforms get
// the bare GOOS from the caller
func getOSVersion() string {
	if runtime.GOOS != "linux" {
		return ""
	}

	data, err := os.ReadFile("/etc/os-release")
	if err != nil {
		return ""
	}

	for _, line := range strings.Split(string(data), "\n") {
		if value, ok := strings.CutPrefix(line, "PRETTY_NAME="); ok {
			return strings.Trim(value, `"`)
		}
	}
	return ""
}

// getTotalMemory reads total RAM in MB on Linux
func getTotalMemory() uint64 {
	if runtime.GOOS != "linux" {
		return 0
	}

	data, err := os.ReadFile("/proc/meminfo")
	if err != nil {
		return 0
	}

	for _, line := range strings.Split(string(data), "\n") {
		if !strings.HasPrefix(line, "MemTotal:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0
		}
		kb, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return 0
		}
		return kb / 1024
	}
	return 0
}
