package player

// HandleKey dispatch a keyboard shortcut, key follows the DOM
// KeyboardEvent.key naming. Returns false for unmapped keys so the
// caller can let the surrounding UI handle them
func (p *Player) HandleKey(key string) bool {
	switch key {
	case " ", "k":
		p.TogglePlay()
	case "j":
		p.SeekBy(-10)
	case "l":
		p.SeekBy(10)
	case "ArrowLeft":
		p.SeekBy(-5)
	case "ArrowRight":
		p.SeekBy(5)
	case "ArrowUp":
		p.AdjustVolume(0.1)
	case "ArrowDown":
		p.AdjustVolume(-0.1)
	case "Home":
		p.SeekTo(0)
	case "End":
		p.SeekTo(p.media.Duration())
	case "f":
		p.ToggleFullscreen()
	case "m":
		p.ToggleMute()
	case "c":
		p.ToggleCaptions()
	case "p":
		p.TogglePiP()
	case "b":
		if _, err := p.AddBookmark(); err != nil {
			return false
		}
	case "<":
		p.CycleSpeed(-1)
	case ">":
		p.CycleSpeed(1)
	case "N":
		// shift+n skips ahead without waiting for the lesson to end
		if next := p.nextLessonKey(); next != "" && p.OnAdvance != nil {
			p.OnAdvance(next)
		}
	case "0", "1", "2", "3", "4", "5", "6", "7", "8", "9":
		p.JumpToFraction(int(key[0] - '0'))
	default:
		return false
	}
	return true
}
