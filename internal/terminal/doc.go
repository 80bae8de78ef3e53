// Package terminal implements the interactive front end of a review session:
// an external-command audio player, an amplitude strip renderer, a keyboard
// decision source, and a console observer that prints session notices.
package terminal
