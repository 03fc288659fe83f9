package schema

import _ "embed"

//go:embed boxctl-config.schema.json
var ConfigSchema []byte
