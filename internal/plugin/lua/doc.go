// Package lua runs editor scripts on gopher-lua.
//
// Scripts run in a sandboxed State: dofile, loadfile and load are removed,
// io, os and debug are never opened, and require only loads the safe
// standard modules and modules preloaded by the host. Execution is bounded
// by a context and an optional timeout.
//
// The extcmd module exposes external commands to scripts:
//
//	local extcmd = require("extcmd")
//	extcmd.select({{0, extcmd.len()}})
//	local s = extcmd.filter{cmd = "sort", full_line = true}
//	local ok, summary = s:wait()
//	print(summary)
//
// Offsets are byte offsets starting at 0. Ranges are {start, end} arrays
// with an exclusive end.
package lua
