package ui

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// ASCIILogo is printed once at the top of interactive collection runs
const ASCIILogo = `
    ╔═══════════════════════════════════════════════════════════╗
    ║ ██╗ ██████╗  ██████╗ ██████╗ ██╗     ██╗     ███████╗ ██████╗████████╗ ║
    ║ ██║██╔════╝ ██╔════╝██╔═══██╗██║     ██║     ██╔════╝██╔════╝╚══██╔══╝ ║
    ║ ██║██║  ███╗██║     ██║   ██║██║     ██║     █████╗  ██║        ██║    ║
    ║ ██║██║   ██║██║     ██║   ██║██║     ██║     ██╔══╝  ██║        ██║    ║
    ║ ██║╚██████╔╝╚██████╗╚██████╔╝███████╗███████╗███████╗╚██████╗   ██║    ║
    ║ ╚═╝ ╚═════╝  ╚═════╝ ╚═════╝ ╚══════╝╚══════╝╚══════╝ ╚═════╝   ╚═╝    ║
    ║              FOLLOWER & PROFILE COLLECTION TOOLKIT                     ║
    ╚═══════════════════════════════════════════════════════════╝
`

// ColorEnabled gates ANSI escapes in console output. Collection runs are
// often piped into files or cron mail, so color is off whenever stdout is
// not a terminal or NO_COLOR is set.
var ColorEnabled = os.Getenv("NO_COLOR") == "" && term.IsTerminal(int(os.Stdout.Fd()))

// paint wraps text in an ANSI SGR code when color output is enabled
func paint(code string) func(string) string {
	return func(text string) string {
		if !ColorEnabled {
			return text
		}
		return "\033[" + code + "m" + text + "\033[0m"
	}
}

var (
	Cyan    = paint("36")
	Yellow  = paint("33")
	Red     = paint("31")
	Green   = paint("32")
	Magenta = paint("35")
	Dim     = paint("2")
)

// PrintLogo prints the banner
func PrintLogo() {
	fmt.Print(Cyan(ASCIILogo))
}

// PrintError prints a failure line; the optional first arg is the detail
// (an error string or a remediation hint)
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Println(Red(msg + ": " + fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Println(Red(msg))
	}
}

// PrintSuccess prints an outcome line for a finished run or stage
func PrintSuccess(msg string) {
	fmt.Println(Green(msg))
}

// PrintInfo prints one labelled value, the building block of the
// collection summaries
func PrintInfo(label string, value string) {
	fmt.Printf("%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a non-fatal condition (skipped batch, stale
// checkpoint, missing optional input)
func PrintWarning(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Println(Yellow(msg + ": " + fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Println(Yellow(msg))
	}
}

// PrintHighlight prints a section heading
func PrintHighlight(msg string) {
	fmt.Println(Magenta(msg))
}
