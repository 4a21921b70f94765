package udev

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Default filesystem locations.
const (
	DefaultSysRoot = "/sys"
	DefaultDataDir = "/run/udev/data"
)

// Context locates sysfs and the udev database.
type Context struct {
	sysRoot string
	dataDir string
}

// New returns a Context rooted at sysRoot and dataDir.
// Empty arguments select DefaultSysRoot and DefaultDataDir.
func New(sysRoot, dataDir string) *Context {
	if sysRoot == "" {
		sysRoot = DefaultSysRoot
	}
	if dataDir == "" {
		dataDir = DefaultDataDir
	}
	return &Context{sysRoot: filepath.Clean(sysRoot), dataDir: dataDir}
}

// Enumerate lists the devices currently registered in a subsystem,
// in /sys/class/<subsystem> directory order.
func (c *Context) Enumerate(subsystem string) ([]*Device, error) {
	classDir := filepath.Join(c.sysRoot, "class", subsystem)
	entries, err := os.ReadDir(classDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", classDir, err)
	}

	root := c.sysRoot
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}

	devices := make([]*Device, 0, len(entries))
	for _, entry := range entries {
		syspath, err := filepath.EvalSymlinks(filepath.Join(classDir, entry.Name()))
		if err != nil {
			// Device went away between ReadDir and here.
			continue
		}
		dev, err := c.deviceFromSyspath(root, syspath, subsystem)
		if err != nil {
			continue
		}
		devices = append(devices, dev)
	}
	return devices, nil
}

// deviceFromSyspath builds a Device from sysfs plus its udev database entry.
func (c *Context) deviceFromSyspath(root, syspath, subsystem string) (*Device, error) {
	data, err := os.ReadFile(filepath.Join(syspath, "uevent"))
	if err != nil {
		return nil, err
	}
	props := parseUeventFile(data)

	devpath, ok := strings.CutPrefix(syspath, root)
	if !ok {
		return nil, fmt.Errorf("%s is outside %s", syspath, root)
	}
	props[PropDevpath] = devpath
	props[PropSubsystem] = subsystem

	c.mergeDatabase(props)
	return NewDevice(syspath, props), nil
}

// mergeDatabase adds udev database properties without overriding kernel ones.
func (c *Context) mergeDatabase(props map[string]string) {
	data, err := os.ReadFile(filepath.Join(c.dataDir, databaseID(props)))
	if err != nil {
		return
	}
	for k, v := range parseDatabase(data) {
		if _, exists := props[k]; !exists {
			props[k] = v
		}
	}
}

// syspath maps a DEVPATH onto this context's sysfs root.
func (c *Context) syspath(devpath string) string {
	return c.sysRoot + devpath
}

// databaseID returns the udev database file name for a device:
// "c<major>:<minor>" or "b<major>:<minor>" for device nodes,
// "+<subsystem>:<sysname>" otherwise.
func databaseID(props map[string]string) string {
	major, minor := props["MAJOR"], props["MINOR"]
	if major != "" && minor != "" && major != "0" {
		kind := "c"
		if props[PropSubsystem] == "block" {
			kind = "b"
		}
		return kind + major + ":" + minor
	}
	return "+" + props[PropSubsystem] + ":" + filepath.Base(props[PropDevpath])
}
