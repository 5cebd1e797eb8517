package app

// Key binding constants used in handleKey.
const (
	KeyQuit      = "q"
	KeyQuitUpper = "Q"
	KeyCtrlC     = "ctrl+c"
	KeyUp        = "up"
	KeyDown      = "down"
	KeyJ         = "j"
	KeyK         = "k"
	KeyEnter     = "enter"
	KeyBack      = "esc"
	KeyBackspace = "backspace"
	KeyPOS       = "p"
	KeyTop       = "g"
	KeyBottom    = "G"
)
