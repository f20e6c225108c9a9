package commands

const (
	_etc = "/usr/local/etc/sheets-relay"

	DEFAULT_CONFIG = _etc + "/sheets-relay.toml"
)
