package commands

const (
	_etc = `C:\ProgramData\sheets-relay`

	DEFAULT_CONFIG = _etc + `\sheets-relay.toml`
)
