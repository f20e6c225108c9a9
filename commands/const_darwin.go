package commands

const (
	_etc = "/usr/local/etc/com.github.sheets-relay"

	DEFAULT_CONFIG = _etc + "/sheets-relay.toml"
)
