// Package web holds the single-page chat interface served at "/".
package web

import _ "embed"

//go:embed index.html
var IndexPage []byte
