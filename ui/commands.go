package ui

import "strings"

type CommandName string

const (
	CmdSay    CommandName = "say"
	CmdWho    CommandName = "who"
	CmdSearch CommandName = "search"
	CmdRoom   CommandName = "room"
	CmdRetry  CommandName = "retry"
	CmdHelp   CommandName = "help"
	CmdQuit   CommandName = "quit"
)

const Help = `/room <id>         switch to another room
/who               list online users
/search <terms>    search the room history (--kind, --from, --limit)
/retry             send the last rejected message again
/quit              leave`

// Command is one line typed at the prompt.
type Command struct {
	Name CommandName
	Arg  string
	// Raw keeps the whole line, /search parses it again.
	Raw string
}

// ParseCommand reads a prompt line. Text that does not start with a known
// slash command is something to say, unknown commands included.
func ParseCommand(line string) Command {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "/") {
		return Command{Name: CmdSay, Arg: trimmed, Raw: line}
	}
	word, arg, _ := strings.Cut(trimmed[1:], " ")
	arg = strings.TrimSpace(arg)
	switch name := CommandName(strings.ToLower(word)); name {
	case CmdWho, CmdSearch, CmdRoom, CmdRetry, CmdHelp, CmdQuit:
		return Command{Name: name, Arg: arg, Raw: trimmed}
	case "exit":
		return Command{Name: CmdQuit, Raw: trimmed}
	default:
		return Command{Name: CmdSay, Arg: trimmed, Raw: line}
	}
}
