package config

import (
	"path/filepath"
	"strings"
)

// PreviousDataDirName is the name of the directory that holds the previous
// generation of files in each synchronized area.
const PreviousDataDirName = "PreviousData"

// RegExt is the extension of registry export files.
const RegExt = ".reg"

// Paths resolves the locations inside a portable root:
//
//	<root>/App/AppInfo/Launcher/launcher.yaml
//	<root>/App/<programExecutable>
//	<root>/Data/Files/PreviousData
//	<root>/Data/Reg/PreviousData
//	<root>/launcher_debug.log
type Paths struct {
	Root string
}

// ConfigFile is the launcher config.
func (p Paths) ConfigFile() string {
	return filepath.Join(p.Root, "App", "AppInfo", "Launcher", "launcher.yaml")
}

// Program is the wrapped executable.
func (p Paths) Program(cfg Launcher) string {
	return filepath.Join(p.Root, "App", cfg.Launch.ProgramExecutable)
}

// FilesDir holds the portable copies of mapped files.
func (p Paths) FilesDir() string {
	return filepath.Join(p.Root, "Data", "Files")
}

// FilesBackupDir is the PreviousData area of FilesDir.
func (p Paths) FilesBackupDir() string {
	return filepath.Join(p.FilesDir(), PreviousDataDirName)
}

// RegistryDir holds the registry exports.
func (p Paths) RegistryDir() string {
	return filepath.Join(p.Root, "Data", "Reg")
}

// RegistryBackupDir is the PreviousData area of RegistryDir.
func (p Paths) RegistryBackupDir() string {
	return filepath.Join(p.RegistryDir(), PreviousDataDirName)
}

// LogFile is the debug log.
func (p Paths) LogFile() string {
	return filepath.Join(p.Root, "launcher_debug.log")
}

// Portable resolves a mapping source against the root. Absolute paths are
// returned cleaned but otherwise unchanged.
func (p Paths) Portable(rel string) string {
	if filepath.IsAbs(rel) {
		return filepath.Clean(rel)
	}
	return filepath.Join(p.Root, filepath.FromSlash(rel))
}

// RegistryExport is the export file for a cleanup entry.
func (p Paths) RegistryExport(entry RegCleanup) string {
	return filepath.Join(p.RegistryDir(), entry.Name+RegExt)
}

// InPreviousData returns whether any component of path is a PreviousData
// directory.
func InPreviousData(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(filepath.Clean(path)), "/") {
		if part == PreviousDataDirName {
			return true
		}
	}
	return false
}
