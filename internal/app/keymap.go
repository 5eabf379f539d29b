package app

// Key binding constants used in handleKey.
const (
	KeyQuit        = "q"
	KeyCtrlC       = "ctrl+c"
	KeySpace       = " "
	KeyUp          = "up"
	KeyDown        = "down"
	KeyJ           = "j"
	KeyK           = "k"
	KeyEnter       = "enter"
	KeyPlay        = "p"
	KeyStopAudio   = "s"
	KeyPreset1     = "1"
	KeyPreset2     = "2"
	KeyPreset3     = "3"
	KeyCustom      = "c"
	KeyUseContext  = "u"
	KeyTheme       = "t"
	KeyReload      = "r"
	KeyClear       = "D"
	KeyConfirm     = "y"
	KeyEsc         = "esc"
	KeyTab         = "tab"
	KeyShiftTab    = "shift+tab"
	KeyResetAPIKey = "ctrl+r"
)
