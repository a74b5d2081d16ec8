package tui

// footerHint is the collapsed footer line shown while help is off.
const footerHint = "q: quit  ? for help"

// renderFooter renders the bottom line at full terminal width: the complete
// key reference when help is toggled on, otherwise a short reminder.
func renderFooter(app *App) string {
	width := app.width
	if width <= 0 {
		width = 80
	}
	text := footerHint
	if app.showHelp {
		text = helpText
	}
	return StyleDim.Width(width).Render(text)
}
