package constants

const (
	AppName        = `chatseek`
	Version        = `0.1.0`
	ConfigFile     = `cfg`
	ConfigFileType = `yaml`
	ConfigDir      = `/.chatseek/`
	BackupSuffix   = `.backup`

	// ExportPrefix starts every generated export file name.
	ExportPrefix = `chatseek_search`
)
