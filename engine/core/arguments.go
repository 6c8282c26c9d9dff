package core

import "strings"

// StartupArguments is the set of boolean switches the application was launched with
// (e.g. "vulkan", "debugdevice").
type StartupArguments struct {
	args map[string]struct{}
}

func NewStartupArguments(args ...string) *StartupArguments {
	sa := &StartupArguments{args: make(map[string]struct{}, len(args))}
	for _, a := range args {
		sa.Set(a)
	}
	return sa
}

// Set enables an argument. Leading dashes are ignored so "--vulkan" and "vulkan" match.
func (sa *StartupArguments) Set(arg string) {
	arg = normalizeArgument(arg)
	if arg == "" {
		return
	}
	sa.args[arg] = struct{}{}
}

func (sa *StartupArguments) Has(arg string) bool {
	if sa == nil {
		return false
	}
	_, ok := sa.args[normalizeArgument(arg)]
	return ok
}

func normalizeArgument(arg string) string {
	return strings.ToLower(strings.TrimLeft(strings.TrimSpace(arg), "-"))
}
