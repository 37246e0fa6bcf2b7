package protocol

import _ "embed"

// DefaultSchema is the grammar document compiled into the binary. It covers
// the stream families emitted by the PSS consoles we ingest and is used
// whenever no schema file is configured.
//
//go:embed pss_schema.txt
var DefaultSchema []byte
