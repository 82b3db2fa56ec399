package debfoundry

import (
	"github.com/gookit/color"
)

// Global variables
var (
	Debug      bool
	ConfigFile = "/etc/debfoundry.conf"
	version    = "dev"     // overridden at build time
	buildDate  = "unknown" // overridden at build time
)

// Fixed names under the output directory.
const (
	PackagesBaseFilename = "Packages"
	StagingDirRelative   = ".staging"
	LogDirRelative       = ".logs"
	LockFileRelative     = ".debfoundry.lock"
	MirrorStateFilename  = "mirror-state.json"
)

// color helpers
var (
	colInfo    = color.Info // style provided by gookit/color
	colWarn    = color.Warn
	colError   = color.Error
	colSuccess = color.HEX("#1976D2")
	colArrow   = color.HEX("#FFEB3B")
	colNote    = color.Tag("notice")
)
