package app

// Key binding constants used in handleKey.
const (
	KeyQuit       = "q"
	KeyCtrlC      = "ctrl+c"
	KeyTab        = "tab"
	KeyUp         = "up"
	KeyDown       = "down"
	KeyJ          = "j"
	KeyK          = "k"
	KeyEnter      = "enter"
	KeyEsc        = "esc"
	KeyRemove     = "x"
	KeyRemoveAll  = "X"
	KeyMic        = "ctrl+r"
	KeyDark       = "ctrl+t"
	KeyPageUp     = "pgup"
	KeyPageDown   = "pgdown"
	KeyConfirmYes = "y"
	KeyConfirmNo  = "n"
)

// Slash commands typed into the input line.
const (
	CmdUpload    = "/upload"
	CmdRemove    = "/remove"
	CmdRemoveAll = "/remove-all"
	CmdSelect    = "/select"
	CmdDark      = "/dark"
	CmdMic       = "/mic"
	CmdQuit      = "/quit"
)
