//go:build linux

package watcher

import (
	"bufio"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

// Superblock magic numbers from statfs(2).
const (
	magicNFS   uint32 = 0x6969
	magicSMB   uint32 = 0x517b
	magicCIFS  uint32 = 0xff534d42
	magicSMB2  uint32 = 0xfe534d42
	magicFUSE  uint32 = 0x65735546
	magicAFS   uint32 = 0x5346414f
	magicCEPH  uint32 = 0x00c36400
	magicCODA  uint32 = 0x73757245
	magicNCPFS uint32 = 0x564c
)

func statFilesystemType(path string) FilesystemType {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return FSTypeUnknown
	}
	switch uint32(st.Type) {
	case magicNFS, magicAFS, magicCEPH, magicCODA, magicNCPFS:
		return FSTypeNFS
	case magicSMB, magicCIFS, magicSMB2:
		return FSTypeSMB
	case magicFUSE:
		if mountType(path) == "fuse.sshfs" {
			return FSTypeSSHFS
		}
		return FSTypeFUSE
	}
	return FSTypeLocal
}

// mountType returns the type column of the longest mount point containing
// path, read from /proc/self/mounts.
func mountType(path string) string {
	f, err := os.Open("/proc/self/mounts")
	if err != nil {
		return ""
	}
	defer f.Close()

	best, bestType := "", ""
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 3 {
			continue
		}
		mp := fields[1]
		if !strings.HasPrefix(path, mp) || len(mp) <= len(best) {
			continue
		}
		if mp != "/" && len(path) > len(mp) && path[len(mp)] != '/' {
			continue
		}
		best, bestType = mp, fields[2]
	}
	return bestType
}
