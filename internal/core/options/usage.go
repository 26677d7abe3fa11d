package options

import (
	"fmt"
	"io"
)

// PrintUsage 输出用法说明
func PrintUsage(w io.Writer, program string) {
	fmt.Fprintf(w, `Usage: %s <host> <port1> <port2> <etc...> [flags]
This tool performs port knocking on servers running Speakeasy.
Raw mode (the default when privileged) requires escalated privileges to run properly.
The last port in the sequence will be tested for access in raw mode.
Flags must come before <host>; everything after <host> is read as a port.

Run '%s --help' for the full list of flags.
`, program, program)
}
